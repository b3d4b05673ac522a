package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

// MaxPayloadBytes is the byte budget for the on-chain-facing payload. The
// oracle network aggregates responses from independent callers, so the
// encoding must be compact and deterministic for a given verdict core.
const MaxPayloadBytes = 256

const maxDetailBytes = 96

// CompactVerdict is the subset of a verdict encoded for the oracle consumer.
// The risk score is clamped to 255 for fixed-width encoding; the persisted
// verdict keeps the unclamped value.
type CompactVerdict struct {
	Valid     bool   `json:"v"`
	RiskScore uint8  `json:"s"`
	Rating    string `json:"r"`
	Detail    string `json:"d"`
	Timestamp int64  `json:"t"`
}

// Compact projects a verdict onto its oracle payload.
func Compact(verdict *models.VerificationVerdict) CompactVerdict {
	score := verdict.RiskScore
	if score > 255 {
		score = 255
	}
	if score < 0 {
		score = 0
	}

	detail := ""
	if len(verdict.Details) > 0 {
		detail = sanitizeDetail(verdict.Details[0])
	}

	return CompactVerdict{
		Valid:     verdict.IsValid,
		RiskScore: uint8(score),
		Rating:    string(verdict.CreditRating),
		Detail:    detail,
		Timestamp: verdict.VerifiedAt.Unix(),
	}
}

// sanitizeDetail keeps the detail within the detail byte budget using only
// printable ASCII, so JSON escaping cannot inflate the encoded payload past
// MaxPayloadBytes.
func sanitizeDetail(detail string) string {
	out := make([]byte, 0, maxDetailBytes)
	for _, r := range detail {
		if len(out) == maxDetailBytes {
			break
		}
		if r >= 0x20 && r < 0x7f && r != '"' && r != '\\' {
			out = append(out, byte(r))
		} else {
			out = append(out, ' ')
		}
	}
	return string(out)
}

// Encode marshals the payload and enforces the byte budget.
func (c CompactVerdict) Encode() ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("oracle payload %d bytes exceeds budget of %d", len(payload), MaxPayloadBytes)
	}
	return payload, nil
}
