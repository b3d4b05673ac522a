// Package checks implements the four verification check services. Each service
// is a pure function of its inputs and the injected policy, so the same input
// at the same policy version always produces the same impact and details.
package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

type DocumentResult struct {
	IsValid    bool
	Details    []string
	RiskImpact int
}

// DocumentChecker validates submitted document references. Malformed input is
// reported through the result, never through an error.
type DocumentChecker struct {
	pol *policy.Policy
}

func NewDocumentChecker(pol *policy.Policy) *DocumentChecker {
	return &DocumentChecker{pol: pol}
}

func (c *DocumentChecker) Verify(ctx context.Context, documentHash string) (DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return DocumentResult{}, err
	}

	hash := strings.TrimSpace(documentHash)
	switch {
	case hash == "":
		return DocumentResult{
			Details:    []string{"Document integrity check failed: empty document hash"},
			RiskImpact: c.pol.InvalidDocumentImpact,
		}, nil
	case strings.ContainsAny(hash, " \t\n"):
		return DocumentResult{
			Details:    []string{"Document integrity check failed: document hash contains whitespace"},
			RiskImpact: c.pol.InvalidDocumentImpact,
		}, nil
	case !strings.HasPrefix(hash, "0x") && len(hash) < 16:
		return DocumentResult{
			Details:    []string{fmt.Sprintf("Document integrity check failed: document hash too short (%d chars)", len(hash))},
			RiskImpact: c.pol.InvalidDocumentImpact,
		}, nil
	case strings.HasPrefix(hash, "0x") && !isHex(hash[2:]):
		return DocumentResult{
			Details:    []string{"Document integrity check failed: document hash is not valid hex"},
			RiskImpact: c.pol.InvalidDocumentImpact,
		}, nil
	}

	return DocumentResult{
		IsValid: true,
		Details: []string{"Document integrity verified"},
	}, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
