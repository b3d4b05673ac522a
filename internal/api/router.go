package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yieldx/trade-finance/verification-service/internal/cache"
	"github.com/yieldx/trade-finance/verification-service/internal/handlers"
	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/service"
	"github.com/yieldx/trade-finance/verification-service/internal/telemetry"
)

func NewRouter(repo interfaces.AuditRepository, orchestrator *service.Orchestrator, verdictCache *cache.VerdictCache, rateLimitPerMinute int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "verification-service"})
	})

	// Verification routes
	verificationHandler := handlers.NewVerificationHandler(repo, orchestrator, verdictCache)
	verification := r.Group("/verification")
	verification.POST("/verify-documents", RateLimitMiddleware(rateLimitPerMinute), verificationHandler.VerifyDocuments)
	verification.GET("/status/:verificationId", verificationHandler.GetStatus)
	verification.GET("/history/:invoiceId", verificationHandler.GetHistory)
	verification.POST("/test-verify", verificationHandler.TestVerify)
	verification.GET("/stats", verificationHandler.GetStats)

	return r
}
