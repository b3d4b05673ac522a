package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

// MemoryRepository is an in-process AuditRepository used for local development
// and tests. It preserves the same append-only semantics as the postgres store.
type MemoryRepository struct {
	mu        sync.RWMutex
	snapshots []*models.InvoiceSnapshot
	verdicts  []*models.VerificationVerdict
	byID      map[string]*models.VerificationVerdict
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.VerificationVerdict{}}
}

func (r *MemoryRepository) SaveSnapshot(_ context.Context, snapshot *models.InvoiceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *snapshot
	r.snapshots = append(r.snapshots, &copied)
	return nil
}

func (r *MemoryRepository) SaveVerdict(_ context.Context, verdict *models.VerificationVerdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *verdict
	r.verdicts = append(r.verdicts, &copied)
	r.byID[copied.VerificationID] = &copied
	return nil
}

func (r *MemoryRepository) FindVerdict(_ context.Context, verificationID string) (*models.VerificationVerdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	verdict, ok := r.byID[verificationID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *verdict
	return &copied, nil
}

func (r *MemoryRepository) FindHistory(_ context.Context, invoiceID string) ([]*models.VerificationVerdict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk newest insertion first so equal timestamps still order newest-first
	// after the stable sort.
	var history []*models.VerificationVerdict
	for i := len(r.verdicts) - 1; i >= 0; i-- {
		if r.verdicts[i].InvoiceID == invoiceID {
			copied := *r.verdicts[i]
			history = append(history, &copied)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].VerifiedAt.After(history[j].VerifiedAt)
	})
	return history, nil
}

func (r *MemoryRepository) Stats(_ context.Context) (*models.VerificationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.VerificationStats{RatingDistribution: map[string]int{}}
	total := 0
	scoreSum := 0
	for _, verdict := range r.verdicts {
		total++
		scoreSum += verdict.RiskScore
		if verdict.IsValid {
			stats.ValidCount++
		}
		stats.RatingDistribution[string(verdict.CreditRating)]++
	}
	stats.Total = total
	if total > 0 {
		stats.AverageRiskScore = float64(scoreSum) / float64(total)
	}
	return stats, nil
}

// SnapshotCount reports how many snapshots have been stored.
func (r *MemoryRepository) SnapshotCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}
