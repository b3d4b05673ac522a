package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yieldx/trade-finance/verification-service/internal/cache"
	"github.com/yieldx/trade-finance/verification-service/internal/checks"
	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/metrics"
	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
	"github.com/yieldx/trade-finance/verification-service/internal/telemetry"
)

// DocumentChecker validates the submitted document reference.
type DocumentChecker interface {
	Verify(ctx context.Context, documentHash string) (checks.DocumentResult, error)
}

// SanctionsScreener screens parties and countries against the sanctions policy.
type SanctionsScreener interface {
	Screen(ctx context.Context, in checks.ScreeningInput) (checks.ScreeningResult, error)
}

// FraudDetector evaluates party/amount/commodity combinations.
type FraudDetector interface {
	Detect(ctx context.Context, in checks.FraudInput) (checks.FraudResult, error)
}

// RiskAssessor runs the commodity, corridor and amount sub-assessments.
type RiskAssessor interface {
	AssessCommodity(ctx context.Context, commodity, amount string) (checks.CommodityResult, error)
	AssessCorridor(ctx context.Context, supplierCountry, buyerCountry string) (checks.CorridorResult, error)
	AssessAmount(ctx context.Context, amount string) (checks.AmountResult, error)
}

// VerdictPublisher emits an event after a verdict has been persisted.
type VerdictPublisher interface {
	VerdictRecorded(ctx context.Context, verdict *models.VerificationVerdict) error
}

// PipelineError signals a pipeline-level failure. The error verdict has still
// been persisted (when the store allowed it) under VerificationID.
type PipelineError struct {
	VerificationID string
	Err            error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("verification %s failed: %v", e.VerificationID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Fixed presentation order for check findings. Checks run concurrently but
// details and recommendations always render in this order, so repeated runs
// over the same input produce identical verdict content.
const (
	slotDocument = iota
	slotSanctions
	slotFraud
	slotCommodity
	slotGeographic
	slotAmount
	slotCount
)

type checkOutcome struct {
	details         []string
	recommendations []string
	impact          int
}

// Orchestrator sequences the verification pipeline: snapshot persistence,
// concurrent checks, aggregation, verdict persistence, response.
type Orchestrator struct {
	repo      interfaces.AuditRepository
	document  DocumentChecker
	sanctions SanctionsScreener
	fraud     FraudDetector
	risk      RiskAssessor
	pol       *policy.Policy

	verdictCache *cache.VerdictCache
	publisher    VerdictPublisher
	checkTimeout time.Duration
}

type Option func(*Orchestrator)

func WithVerdictCache(c *cache.VerdictCache) Option {
	return func(o *Orchestrator) { o.verdictCache = c }
}

func WithPublisher(p VerdictPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithCheckTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.checkTimeout = d }
}

func NewOrchestrator(
	repo interfaces.AuditRepository,
	document DocumentChecker,
	sanctions SanctionsScreener,
	fraud FraudDetector,
	risk RiskAssessor,
	pol *policy.Policy,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		repo:         repo,
		document:     document,
		sanctions:    sanctions,
		fraud:        fraud,
		risk:         risk,
		pol:          pol,
		checkTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewDefaultOrchestrator wires the concrete check services for a policy.
func NewDefaultOrchestrator(repo interfaces.AuditRepository, pol *policy.Policy, opts ...Option) *Orchestrator {
	return NewOrchestrator(
		repo,
		checks.NewDocumentChecker(pol),
		checks.NewSanctionsScreener(pol),
		checks.NewFraudDetector(pol),
		checks.NewRiskAssessor(pol),
		pol,
		opts...,
	)
}

// VerifyDocuments runs one verification pipeline call. On pipeline-level
// failure it returns the persisted error verdict together with a
// *PipelineError; individual check failures degrade to ERROR statuses without
// failing the run.
func (o *Orchestrator) VerifyDocuments(ctx context.Context, req *models.VerificationRequest) (*models.VerificationVerdict, error) {
	start := time.Now()
	verificationID := uuid.NewString()

	// Fire-and-audit: the verdict is persisted even if the caller abandons
	// the request.
	ctx = context.WithoutCancel(ctx)

	telemetry.Logger.Info("Starting verification",
		zap.String("verification_id", verificationID),
		zap.String("invoice_id", req.InvoiceID),
		zap.String("stage", string(models.StageReceived)),
	)

	snapshot := &models.InvoiceSnapshot{
		InvoiceID:       req.InvoiceID,
		DocumentHash:    req.DocumentHash,
		Commodity:       req.InvoiceDetails.Commodity,
		Amount:          req.InvoiceDetails.Amount,
		SupplierCountry: req.InvoiceDetails.SupplierCountry,
		BuyerCountry:    req.InvoiceDetails.BuyerCountry,
		ExporterName:    req.InvoiceDetails.ExporterName,
		BuyerName:       req.InvoiceDetails.BuyerName,
		Metadata:        req.Metadata,
		CreatedAt:       time.Now().UTC(),
	}
	if err := o.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return o.fail(ctx, req, verificationID, start, fmt.Errorf("store invoice snapshot: %w", err))
	}

	verdict := &models.VerificationVerdict{
		VerificationID: verificationID,
		InvoiceID:      req.InvoiceID,
		DocumentHash:   req.DocumentHash,
		IsValid:        true,
		Checks: models.VerificationChecks{
			DocumentIntegrity:  true,
			SanctionsCheck:     models.SanctionsClear,
			FraudCheck:         models.FraudPassed,
			CommodityCheck:     models.CommodityApproved,
			EntityVerification: models.EntityVerified,
		},
		PolicyVersion: o.pol.Version,
	}

	slots := make([]checkOutcome, slotCount)
	if err := o.runChecks(ctx, req, verdict, slots); err != nil {
		return o.fail(ctx, req, verificationID, start, err)
	}

	// Aggregate in fixed slot order.
	verdict.RiskScore = o.pol.BaselineScore
	for _, slot := range slots {
		verdict.RiskScore += slot.impact
		verdict.Details = append(verdict.Details, slot.details...)
		verdict.Recommendations = append(verdict.Recommendations, slot.recommendations...)
	}

	if verdict.Checks.SanctionsCheck == models.SanctionsFlagged {
		verdict.IsValid = false
	}
	if verdict.Checks.FraudCheck == models.FraudFailed {
		verdict.IsValid = false
	}
	if verdict.RiskScore >= o.pol.InvalidationThreshold {
		verdict.IsValid = false
		verdict.Details = append(verdict.Details, "Transaction rejected due to high risk score")
	}
	verdict.CreditRating = models.RatingForScore(verdict.RiskScore)

	verdict.ProcessingTimeMs = time.Since(start).Milliseconds()
	verdict.VerifiedAt = time.Now().UTC()

	// No verdict is final until it is durably recorded.
	if err := o.repo.SaveVerdict(ctx, verdict); err != nil {
		telemetry.Logger.Error("Failed to persist verdict",
			zap.String("verification_id", verificationID),
			zap.Error(err),
		)
		return nil, &PipelineError{VerificationID: verificationID, Err: fmt.Errorf("persist verdict: %w", err)}
	}

	o.afterPersist(ctx, verdict, start)

	telemetry.Logger.Info("Verification completed",
		zap.String("verification_id", verificationID),
		zap.String("invoice_id", req.InvoiceID),
		zap.Bool("is_valid", verdict.IsValid),
		zap.Int("risk_score", verdict.RiskScore),
		zap.String("credit_rating", string(verdict.CreditRating)),
	)

	return verdict, nil
}

// runChecks fans out the four check components. A check returning an error
// (including a timeout) degrades to its ERROR status with a score penalty and
// never aborts its siblings; only a panic fails the pipeline.
func (o *Orchestrator) runChecks(ctx context.Context, req *models.VerificationRequest, verdict *models.VerificationVerdict, slots []checkOutcome) error {
	var g errgroup.Group

	g.Go(o.guarded(ctx, "document", func(cctx context.Context) {
		res, err := o.document.Verify(cctx, req.DocumentHash)
		if err != nil {
			verdict.Checks.DocumentIntegrity = false
			slots[slotDocument] = o.errorOutcome("Document integrity", "document", err)
			return
		}
		verdict.Checks.DocumentIntegrity = res.IsValid
		slots[slotDocument] = checkOutcome{details: res.Details, impact: res.RiskImpact}
	}))

	g.Go(o.guarded(ctx, "sanctions", func(cctx context.Context) {
		res, err := o.sanctions.Screen(cctx, checks.ScreeningInput{
			ExporterName:    req.InvoiceDetails.ExporterName,
			BuyerName:       req.InvoiceDetails.BuyerName,
			SupplierCountry: req.InvoiceDetails.SupplierCountry,
			BuyerCountry:    req.InvoiceDetails.BuyerCountry,
		})
		if err != nil {
			verdict.Checks.SanctionsCheck = models.SanctionsError
			slots[slotSanctions] = o.errorOutcome("Sanctions screening", "sanctions", err)
			return
		}
		verdict.Checks.SanctionsCheck = res.Status
		slots[slotSanctions] = checkOutcome{details: res.Details, impact: res.RiskImpact}
	}))

	g.Go(o.guarded(ctx, "fraud", func(cctx context.Context) {
		res, err := o.fraud.Detect(cctx, checks.FraudInput{
			ExporterName: req.InvoiceDetails.ExporterName,
			BuyerName:    req.InvoiceDetails.BuyerName,
			Amount:       req.InvoiceDetails.Amount,
			Commodity:    req.InvoiceDetails.Commodity,
		})
		if err != nil {
			verdict.Checks.FraudCheck = models.FraudError
			slots[slotFraud] = o.errorOutcome("Fraud detection", "fraud", err)
			return
		}
		verdict.Checks.FraudCheck = res.Status
		slots[slotFraud] = checkOutcome{details: res.Details, impact: res.RiskImpact}
	}))

	g.Go(o.guarded(ctx, "risk", func(cctx context.Context) {
		commodity, err := o.risk.AssessCommodity(cctx, req.InvoiceDetails.Commodity, req.InvoiceDetails.Amount)
		if err != nil {
			verdict.Checks.CommodityCheck = models.CommodityError
			slots[slotCommodity] = o.errorOutcome("Commodity risk", "commodity", err)
		} else {
			verdict.Checks.CommodityCheck = commodity.Status
			slots[slotCommodity] = checkOutcome{
				details:         commodity.Details,
				recommendations: commodity.Recommendations,
				impact:          commodity.RiskImpact,
			}
		}

		corridor, err := o.risk.AssessCorridor(cctx, req.InvoiceDetails.SupplierCountry, req.InvoiceDetails.BuyerCountry)
		if err != nil {
			slots[slotGeographic] = o.errorOutcome("Geographic risk", "geographic", err)
		} else {
			slots[slotGeographic] = checkOutcome{details: corridor.Details, impact: corridor.RiskImpact}
		}

		amount, err := o.risk.AssessAmount(cctx, req.InvoiceDetails.Amount)
		if err != nil {
			slots[slotAmount] = o.errorOutcome("Amount risk", "amount", err)
		} else {
			slots[slotAmount] = checkOutcome{
				details:         amount.Details,
				recommendations: amount.Recommendations,
				impact:          amount.RiskImpact,
			}
		}
	}))

	return g.Wait()
}

// guarded bounds a check task with the per-check timeout and converts a panic
// into a pipeline-level error.
func (o *Orchestrator) guarded(ctx context.Context, name string, fn func(ctx context.Context)) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s check panic: %v", name, r)
			}
		}()
		cctx, cancel := context.WithTimeout(ctx, o.checkTimeout)
		defer cancel()
		fn(cctx)
		return nil
	}
}

func (o *Orchestrator) errorOutcome(label, check string, err error) checkOutcome {
	metrics.CheckErrorsTotal.WithLabelValues(check).Inc()
	telemetry.Logger.Warn("Check component error",
		zap.String("check", check),
		zap.Error(err),
	)
	return checkOutcome{
		details: []string{fmt.Sprintf("%s check error: %v", label, err)},
		impact:  o.pol.CheckErrorPenalty,
	}
}

// fail synthesizes, persists and returns the pipeline-failure verdict.
func (o *Orchestrator) fail(ctx context.Context, req *models.VerificationRequest, verificationID string, start time.Time, cause error) (*models.VerificationVerdict, error) {
	metrics.PipelineFailuresTotal.Inc()
	telemetry.Logger.Error("Verification pipeline failed",
		zap.String("verification_id", verificationID),
		zap.String("invoice_id", req.InvoiceID),
		zap.String("stage", string(models.StageFailed)),
		zap.Error(cause),
	)

	verdict := &models.VerificationVerdict{
		VerificationID: verificationID,
		InvoiceID:      req.InvoiceID,
		DocumentHash:   req.DocumentHash,
		IsValid:        false,
		RiskScore:      99,
		CreditRating:   models.RatingError,
		Checks: models.VerificationChecks{
			DocumentIntegrity:  false,
			SanctionsCheck:     models.SanctionsError,
			FraudCheck:         models.FraudError,
			CommodityCheck:     models.CommodityError,
			EntityVerification: models.EntityError,
		},
		Details:          []string{fmt.Sprintf("Verification service error: %v", cause)},
		Recommendations:  []string{"Manual review required"},
		PolicyVersion:    o.pol.Version,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		VerifiedAt:       time.Now().UTC(),
	}

	if err := o.repo.SaveVerdict(ctx, verdict); err != nil {
		telemetry.Logger.Error("Failed to persist error verdict",
			zap.String("verification_id", verificationID),
			zap.Error(err),
		)
	} else {
		o.afterPersist(ctx, verdict, start)
	}

	return verdict, &PipelineError{VerificationID: verificationID, Err: cause}
}

// afterPersist runs the best-effort post-persistence steps: cache write,
// event publication, metrics.
func (o *Orchestrator) afterPersist(ctx context.Context, verdict *models.VerificationVerdict, start time.Time) {
	metrics.VerdictsTotal.WithLabelValues(
		fmt.Sprintf("%t", verdict.IsValid),
		string(verdict.CreditRating),
	).Inc()
	metrics.RiskScores.Observe(float64(verdict.RiskScore))
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	if o.verdictCache != nil {
		if err := o.verdictCache.Put(ctx, verdict); err != nil {
			telemetry.Logger.Warn("Failed to cache verdict",
				zap.String("verification_id", verdict.VerificationID),
				zap.Error(err),
			)
		}
	}

	if o.publisher != nil {
		if err := o.publisher.VerdictRecorded(ctx, verdict); err != nil {
			telemetry.Logger.Warn("Failed to publish verdict event",
				zap.String("verification_id", verdict.VerificationID),
				zap.Error(err),
			)
		}
	}
}

// FixtureRequest is the synthetic invoice the test-verify endpoint runs.
func FixtureRequest() *models.VerificationRequest {
	return &models.VerificationRequest{
		InvoiceID:    "TEST-001",
		DocumentHash: "0x1234567890abcdef",
		InvoiceDetails: models.InvoiceDetails{
			Commodity:       "Electronics",
			Amount:          "50000000",
			SupplierCountry: "Singapore",
			BuyerCountry:    "United States",
			ExporterName:    "Test Exports Ltd",
			BuyerName:       "Test Corp USA",
		},
		Metadata: map[string]string{"test": "true"},
	}
}

// VerifyTestFixture runs the pipeline against the fixture invoice.
func (o *Orchestrator) VerifyTestFixture(ctx context.Context) (*models.VerificationVerdict, error) {
	return o.VerifyDocuments(ctx, FixtureRequest())
}
