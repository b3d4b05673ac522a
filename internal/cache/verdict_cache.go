package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

// VerdictCache caches persisted verdicts in redis. Verdicts are immutable once
// persisted, so a TTL-bounded cache can never serve a stale result.
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	return &VerdictCache{client: client, ttl: ttl}
}

func verdictKey(verificationID string) string {
	return fmt.Sprintf("verdict:%s", verificationID)
}

func (c *VerdictCache) Put(ctx context.Context, verdict *models.VerificationVerdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict for cache: %w", err)
	}
	return c.client.Set(ctx, verdictKey(verdict.VerificationID), payload, c.ttl).Err()
}

// Get returns the cached verdict, or nil on a cache miss.
func (c *VerdictCache) Get(ctx context.Context, verificationID string) (*models.VerificationVerdict, error) {
	payload, err := c.client.Get(ctx, verdictKey(verificationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var verdict models.VerificationVerdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, fmt.Errorf("unmarshal cached verdict: %w", err)
	}
	return &verdict, nil
}
