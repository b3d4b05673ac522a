package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yieldx/trade-finance/verification-service/internal/cache"
	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/service"
	"github.com/yieldx/trade-finance/verification-service/internal/telemetry"
)

const (
	maxMetadataKeys      = 16
	maxMetadataValueSize = 256
)

type VerificationHandler struct {
	repo         interfaces.AuditRepository
	orchestrator *service.Orchestrator
	verdictCache *cache.VerdictCache
}

func NewVerificationHandler(repo interfaces.AuditRepository, orchestrator *service.Orchestrator, verdictCache *cache.VerdictCache) *VerificationHandler {
	return &VerificationHandler{
		repo:         repo,
		orchestrator: orchestrator,
		verdictCache: verdictCache,
	}
}

type verifyResponse struct {
	*models.VerificationVerdict
	ProcessingTime string `json:"processingTime"`
}

type pipelineErrorResponse struct {
	Message        string `json:"message"`
	VerificationID string `json:"verificationId"`
	Timestamp      string `json:"timestamp"`
}

func (h *VerificationHandler) VerifyDocuments(c *gin.Context) {
	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := validateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	verdict, err := h.orchestrator.VerifyDocuments(c.Request.Context(), &req)
	if err != nil {
		var pipeErr *service.PipelineError
		if errors.As(err, &pipeErr) {
			c.JSON(http.StatusBadRequest, pipelineErrorResponse{
				Message:        "Verification service temporarily unavailable",
				VerificationID: pipeErr.VerificationID,
				Timestamp:      time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		telemetry.Logger.Error("Verification failed",
			zap.String("invoice_id", req.InvoiceID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		VerificationVerdict: verdict,
		ProcessingTime:      fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
	})
}

func (h *VerificationHandler) GetStatus(c *gin.Context) {
	verificationID := c.Param("verificationId")
	ctx := c.Request.Context()

	if h.verdictCache != nil {
		verdict, err := h.verdictCache.Get(ctx, verificationID)
		if err != nil {
			telemetry.Logger.Warn("Verdict cache lookup failed",
				zap.String("verification_id", verificationID),
				zap.Error(err),
			)
		} else if verdict != nil {
			c.JSON(http.StatusOK, verdict)
			return
		}
	}

	verdict, err := h.repo.FindVerdict(ctx, verificationID)
	if errors.Is(err, interfaces.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Verification record not found: " + verificationID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch verification record"})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

func (h *VerificationHandler) GetHistory(c *gin.Context) {
	invoiceID := c.Param("invoiceId")

	history, err := h.repo.FindHistory(c.Request.Context(), invoiceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch verification history"})
		return
	}
	if history == nil {
		history = []*models.VerificationVerdict{}
	}

	c.JSON(http.StatusOK, history)
}

func (h *VerificationHandler) TestVerify(c *gin.Context) {
	verdict, err := h.orchestrator.VerifyTestFixture(c.Request.Context())
	if err != nil {
		var pipeErr *service.PipelineError
		if errors.As(err, &pipeErr) {
			c.JSON(http.StatusBadRequest, pipelineErrorResponse{
				Message:        "Verification service temporarily unavailable",
				VerificationID: pipeErr.VerificationID,
				Timestamp:      time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "test verification failed"})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

func (h *VerificationHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute verification stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// validateRequest enforces the input bounds the pipeline relies on. Input
// errors never reach the pipeline and never produce a verdict.
func validateRequest(req *models.VerificationRequest) error {
	if len(req.Metadata) > maxMetadataKeys {
		return fmt.Errorf("metadata exceeds %d keys", maxMetadataKeys)
	}
	for key, value := range req.Metadata {
		if len(value) > maxMetadataValueSize {
			return fmt.Errorf("metadata value for %q exceeds %d bytes", key, maxMetadataValueSize)
		}
	}

	amount := req.InvoiceDetails.Amount
	if amount == "" {
		return errors.New("amount is required")
	}
	for _, r := range amount {
		if r < '0' || r > '9' {
			return fmt.Errorf("amount %q must be a non-negative integer in smallest units", amount)
		}
	}
	if len(amount) > 18 {
		return fmt.Errorf("amount %q exceeds supported magnitude", amount)
	}

	return nil
}
