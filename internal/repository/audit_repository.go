package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

// AuditRepository is the postgres-backed audit trail. All writes are inserts;
// the package exposes no UPDATE or DELETE.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS invoice_snapshots (
			id BIGSERIAL PRIMARY KEY,
			invoice_id VARCHAR(255) NOT NULL,
			document_hash TEXT NOT NULL,
			commodity VARCHAR(255),
			amount VARCHAR(64),
			supplier_country VARCHAR(128),
			buyer_country VARCHAR(128),
			exporter_name VARCHAR(255),
			buyer_name VARCHAR(255),
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_snapshots_invoice_id ON invoice_snapshots(invoice_id)`,
		`CREATE TABLE IF NOT EXISTS verification_verdicts (
			verification_id VARCHAR(36) PRIMARY KEY,
			invoice_id VARCHAR(255) NOT NULL,
			document_hash TEXT,
			is_valid BOOLEAN NOT NULL,
			risk_score INT NOT NULL,
			credit_rating VARCHAR(8) NOT NULL,
			checks JSONB NOT NULL,
			details JSONB NOT NULL,
			recommendations JSONB NOT NULL,
			policy_version VARCHAR(32),
			processing_time_ms BIGINT,
			verified_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verification_verdicts_invoice_id ON verification_verdicts(invoice_id, verified_at DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *AuditRepository) SaveSnapshot(ctx context.Context, snapshot *models.InvoiceSnapshot) error {
	metadata, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("marshal snapshot metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoice_snapshots
			(invoice_id, document_hash, commodity, amount, supplier_country, buyer_country, exporter_name, buyer_name, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, snapshot.InvoiceID, snapshot.DocumentHash, snapshot.Commodity, snapshot.Amount,
		snapshot.SupplierCountry, snapshot.BuyerCountry, snapshot.ExporterName, snapshot.BuyerName,
		metadata, snapshot.CreatedAt)
	return err
}

func (r *AuditRepository) SaveVerdict(ctx context.Context, verdict *models.VerificationVerdict) error {
	checks, err := json.Marshal(verdict.Checks)
	if err != nil {
		return fmt.Errorf("marshal verdict checks: %w", err)
	}
	details, err := json.Marshal(verdict.Details)
	if err != nil {
		return fmt.Errorf("marshal verdict details: %w", err)
	}
	recommendations, err := json.Marshal(verdict.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal verdict recommendations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO verification_verdicts
			(verification_id, invoice_id, document_hash, is_valid, risk_score, credit_rating, checks, details, recommendations, policy_version, processing_time_ms, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, verdict.VerificationID, verdict.InvoiceID, verdict.DocumentHash, verdict.IsValid,
		verdict.RiskScore, verdict.CreditRating, checks, details, recommendations,
		verdict.PolicyVersion, verdict.ProcessingTimeMs, verdict.VerifiedAt)
	return err
}

func (r *AuditRepository) FindVerdict(ctx context.Context, verificationID string) (*models.VerificationVerdict, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT verification_id, invoice_id, document_hash, is_valid, risk_score, credit_rating, checks, details, recommendations, policy_version, processing_time_ms, verified_at
		FROM verification_verdicts WHERE verification_id = $1
	`, verificationID)

	verdict, err := scanVerdict(row)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	return verdict, err
}

func (r *AuditRepository) FindHistory(ctx context.Context, invoiceID string) ([]*models.VerificationVerdict, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT verification_id, invoice_id, document_hash, is_valid, risk_score, credit_rating, checks, details, recommendations, policy_version, processing_time_ms, verified_at
		FROM verification_verdicts WHERE invoice_id = $1
		ORDER BY verified_at DESC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verdicts []*models.VerificationVerdict
	for rows.Next() {
		verdict, err := scanVerdict(rows)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, rows.Err()
}

func (r *AuditRepository) Stats(ctx context.Context) (*models.VerificationStats, error) {
	stats := &models.VerificationStats{RatingDistribution: map[string]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_valid), COALESCE(AVG(risk_score), 0)
		FROM verification_verdicts
	`).Scan(&stats.Total, &stats.ValidCount, &stats.AverageRiskScore)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT credit_rating, COUNT(*) FROM verification_verdicts GROUP BY credit_rating ORDER BY credit_rating
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rating string
		var count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		stats.RatingDistribution[rating] = count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerdict(row rowScanner) (*models.VerificationVerdict, error) {
	var verdict models.VerificationVerdict
	var checks, details, recommendations []byte

	err := row.Scan(&verdict.VerificationID, &verdict.InvoiceID, &verdict.DocumentHash,
		&verdict.IsValid, &verdict.RiskScore, &verdict.CreditRating,
		&checks, &details, &recommendations,
		&verdict.PolicyVersion, &verdict.ProcessingTimeMs, &verdict.VerifiedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(checks, &verdict.Checks); err != nil {
		return nil, fmt.Errorf("unmarshal verdict checks: %w", err)
	}
	if err := json.Unmarshal(details, &verdict.Details); err != nil {
		return nil, fmt.Errorf("unmarshal verdict details: %w", err)
	}
	if err := json.Unmarshal(recommendations, &verdict.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal verdict recommendations: %w", err)
	}
	return &verdict, nil
}
