package interfaces

import (
	"context"
	"errors"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

// ErrNotFound is returned when a verdict lookup misses.
var ErrNotFound = errors.New("verification record not found")

// AuditRepository defines the append-only audit trail contract. There are no
// update or delete operations: snapshots and verdicts are immutable once saved.
type AuditRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *models.InvoiceSnapshot) error
	SaveVerdict(ctx context.Context, verdict *models.VerificationVerdict) error
	FindVerdict(ctx context.Context, verificationID string) (*models.VerificationVerdict, error)
	FindHistory(ctx context.Context, invoiceID string) ([]*models.VerificationVerdict, error)
	Stats(ctx context.Context) (*models.VerificationStats, error)
}
