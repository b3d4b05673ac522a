package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldx/trade-finance/verification-service/internal/checks"
	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
	"github.com/yieldx/trade-finance/verification-service/internal/repository"
)

func cleanRequest() *models.VerificationRequest {
	return &models.VerificationRequest{
		InvoiceID:    "INV-2024-001",
		DocumentHash: "0x1234567890abcdef",
		InvoiceDetails: models.InvoiceDetails{
			Commodity:       "Electronics",
			Amount:          "4375000",
			SupplierCountry: "Singapore",
			BuyerCountry:    "United States",
			ExporterName:    "Pacific Components Pte Ltd",
			BuyerName:       "Midwest Distribution Inc",
		},
	}
}

func newTestOrchestrator(repo interfaces.AuditRepository) *Orchestrator {
	return NewDefaultOrchestrator(repo, policy.Default())
}

func TestVerifyDocuments_CleanInvoice(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.NoError(t, err)

	assert.True(t, verdict.IsValid)
	// Baseline 10 + commodity 3 + corridor 2 + amount band 3.
	assert.Equal(t, 18, verdict.RiskScore)
	assert.Equal(t, models.RatingAA, verdict.CreditRating)
	assert.True(t, verdict.Checks.DocumentIntegrity)
	assert.Equal(t, models.SanctionsClear, verdict.Checks.SanctionsCheck)
	assert.Equal(t, models.FraudPassed, verdict.Checks.FraudCheck)
	assert.Equal(t, models.CommodityApproved, verdict.Checks.CommodityCheck)
	assert.Equal(t, models.EntityVerified, verdict.Checks.EntityVerification)
	assert.NotEmpty(t, verdict.VerificationID)
	assert.Equal(t, "2024.1", verdict.PolicyVersion)

	// Snapshot and verdict were both persisted.
	assert.Equal(t, 1, repo.SnapshotCount())
	persisted, err := repo.FindVerdict(context.Background(), verdict.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, verdict.RiskScore, persisted.RiskScore)
}

func TestVerifyDocuments_BaselineIsFloor(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, verdict.RiskScore, 10, "score never drops below baseline")
}

func TestVerifyDocuments_TestFixtureScenario(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	verdict, err := orch.VerifyTestFixture(context.Background())
	require.NoError(t, err)

	assert.True(t, verdict.IsValid)
	// Baseline 10 + fraud round-number 8 + commodity 3 + corridor 2 + amount band 5.
	assert.Equal(t, 28, verdict.RiskScore)
	assert.Contains(t, []models.CreditRating{models.RatingAAA, models.RatingAA, models.RatingA}, verdict.CreditRating)
}

func TestVerifyDocuments_SanctionsFlagInvalidatesRegardlessOfScore(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	req := cleanRequest()
	req.InvoiceDetails.BuyerName = "Sanctioned Trading Co"

	verdict, err := orch.VerifyDocuments(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.SanctionsFlagged, verdict.Checks.SanctionsCheck)
	assert.False(t, verdict.IsValid)
	assert.Less(t, verdict.RiskScore, 80, "invalidation came from the flag, not the threshold")
	assert.Equal(t, models.FraudPassed, verdict.Checks.FraudCheck)
}

func TestVerifyDocuments_FraudFailureInvalidatesRegardlessOfScore(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	req := cleanRequest()
	req.InvoiceDetails.ExporterName = "Shell Trading LLC"

	verdict, err := orch.VerifyDocuments(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.FraudFailed, verdict.Checks.FraudCheck)
	assert.False(t, verdict.IsValid)
	assert.Less(t, verdict.RiskScore, 80)
	assert.Equal(t, models.SanctionsClear, verdict.Checks.SanctionsCheck)
}

func TestVerifyDocuments_HighScoreInvalidatesWithoutHardFlags(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)

	req := cleanRequest()
	req.InvoiceDetails.Commodity = "Weapons"
	req.InvoiceDetails.SupplierCountry = "Afghanistan"
	req.InvoiceDetails.BuyerCountry = "Somalia"
	req.InvoiceDetails.Amount = "999"

	verdict, err := orch.VerifyDocuments(context.Background(), req)
	require.NoError(t, err)

	// Baseline 10 + commodity 35 + corridor 40 = 85.
	assert.Equal(t, 85, verdict.RiskScore)
	assert.False(t, verdict.IsValid)
	assert.Equal(t, models.SanctionsClear, verdict.Checks.SanctionsCheck)
	assert.Equal(t, models.FraudPassed, verdict.Checks.FraudCheck)
	assert.Contains(t, verdict.Details, "Transaction rejected due to high risk score")
}

func TestVerifyDocuments_DeterministicAcrossCalls(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)
	ctx := context.Background()

	first, err := orch.VerifyDocuments(ctx, cleanRequest())
	require.NoError(t, err)
	second, err := orch.VerifyDocuments(ctx, cleanRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.VerificationID, second.VerificationID)
	assert.Equal(t, first.IsValid, second.IsValid)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.CreditRating, second.CreditRating)
	assert.Equal(t, first.Details, second.Details)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

type erroringDocumentChecker struct{}

func (erroringDocumentChecker) Verify(context.Context, string) (checks.DocumentResult, error) {
	return checks.DocumentResult{}, errors.New("document registry unreachable")
}

func TestVerifyDocuments_CheckErrorDegradesWithoutAborting(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pol := policy.Default()
	orch := NewOrchestrator(
		repo,
		erroringDocumentChecker{},
		checks.NewSanctionsScreener(pol),
		checks.NewFraudDetector(pol),
		checks.NewRiskAssessor(pol),
		pol,
	)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.NoError(t, err, "a handled check error is not a pipeline failure")

	assert.False(t, verdict.Checks.DocumentIntegrity)
	// Clean score 18 plus the check-error penalty.
	assert.Equal(t, 18+pol.CheckErrorPenalty, verdict.RiskScore)
	assert.Equal(t, models.SanctionsClear, verdict.Checks.SanctionsCheck, "siblings still ran")
	assert.Equal(t, models.FraudPassed, verdict.Checks.FraudCheck)

	found := false
	for _, detail := range verdict.Details {
		if detail == "Document integrity check error: document registry unreachable" {
			found = true
		}
	}
	assert.True(t, found, "error detail recorded: %v", verdict.Details)
}

type panickingDocumentChecker struct{}

func (panickingDocumentChecker) Verify(context.Context, string) (checks.DocumentResult, error) {
	panic("document checker exploded")
}

func TestVerifyDocuments_PanicProducesPersistedErrorVerdict(t *testing.T) {
	repo := repository.NewMemoryRepository()
	pol := policy.Default()
	orch := NewOrchestrator(
		repo,
		panickingDocumentChecker{},
		checks.NewSanctionsScreener(pol),
		checks.NewFraudDetector(pol),
		checks.NewRiskAssessor(pol),
		pol,
	)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.Error(t, err)

	var pipeErr *PipelineError
	require.ErrorAs(t, err, &pipeErr)
	require.NotNil(t, verdict)
	assert.Equal(t, pipeErr.VerificationID, verdict.VerificationID)

	assert.False(t, verdict.IsValid)
	assert.Equal(t, 99, verdict.RiskScore)
	assert.Equal(t, models.RatingError, verdict.CreditRating)
	assert.Equal(t, models.SanctionsError, verdict.Checks.SanctionsCheck)
	assert.Equal(t, models.FraudError, verdict.Checks.FraudCheck)
	assert.Equal(t, models.CommodityError, verdict.Checks.CommodityCheck)
	assert.Equal(t, models.EntityError, verdict.Checks.EntityVerification)
	assert.Equal(t, []string{"Manual review required"}, verdict.Recommendations)

	// The error verdict is part of the audit trail.
	persisted, findErr := repo.FindVerdict(context.Background(), verdict.VerificationID)
	require.NoError(t, findErr)
	assert.Equal(t, 99, persisted.RiskScore)
	assert.Equal(t, models.RatingError, persisted.CreditRating)
}

type failingRepo struct {
	*repository.MemoryRepository
	failSnapshots bool
	failVerdicts  bool
}

func (f *failingRepo) SaveSnapshot(ctx context.Context, snapshot *models.InvoiceSnapshot) error {
	if f.failSnapshots {
		return errors.New("audit store unavailable")
	}
	return f.MemoryRepository.SaveSnapshot(ctx, snapshot)
}

func (f *failingRepo) SaveVerdict(ctx context.Context, verdict *models.VerificationVerdict) error {
	if f.failVerdicts {
		return errors.New("audit store unavailable")
	}
	return f.MemoryRepository.SaveVerdict(ctx, verdict)
}

func TestVerifyDocuments_SnapshotFailureStillPersistsErrorVerdict(t *testing.T) {
	repo := &failingRepo{MemoryRepository: repository.NewMemoryRepository(), failSnapshots: true}
	orch := newTestOrchestrator(repo)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.Error(t, err)
	require.NotNil(t, verdict)
	assert.Equal(t, models.RatingError, verdict.CreditRating)

	persisted, findErr := repo.FindVerdict(context.Background(), verdict.VerificationID)
	require.NoError(t, findErr)
	assert.Equal(t, 99, persisted.RiskScore)
}

func TestVerifyDocuments_VerdictPersistenceFailureIsFatal(t *testing.T) {
	repo := &failingRepo{MemoryRepository: repository.NewMemoryRepository(), failVerdicts: true}
	orch := newTestOrchestrator(repo)

	verdict, err := orch.VerifyDocuments(context.Background(), cleanRequest())
	require.Error(t, err)
	assert.Nil(t, verdict, "no verdict is final without a durable record")

	var pipeErr *PipelineError
	assert.ErrorAs(t, err, &pipeErr)
}

func TestVerifyDocuments_ResubmissionBuildsHistory(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(repo)
	ctx := context.Background()

	first, err := orch.VerifyDocuments(ctx, cleanRequest())
	require.NoError(t, err)
	second, err := orch.VerifyDocuments(ctx, cleanRequest())
	require.NoError(t, err)

	history, err := repo.FindHistory(ctx, "INV-2024-001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.VerificationID, history[0].VerificationID)
	assert.Equal(t, first.VerificationID, history[1].VerificationID)
	assert.Equal(t, 2, repo.SnapshotCount())
}
