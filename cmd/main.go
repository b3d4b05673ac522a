package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yieldx/trade-finance/verification-service/internal/api"
	"github.com/yieldx/trade-finance/verification-service/internal/cache"
	"github.com/yieldx/trade-finance/verification-service/internal/config"
	"github.com/yieldx/trade-finance/verification-service/internal/events"
	"github.com/yieldx/trade-finance/verification-service/internal/interfaces"
	"github.com/yieldx/trade-finance/verification-service/internal/metrics"
	"github.com/yieldx/trade-finance/verification-service/internal/oracle"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
	"github.com/yieldx/trade-finance/verification-service/internal/repository"
	"github.com/yieldx/trade-finance/verification-service/internal/service"
	"github.com/yieldx/trade-finance/verification-service/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("verification-service"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Verification Service")

	// Register pipeline metrics
	metrics.Register()

	// Active screening/risk policy
	pol := policy.Default()
	telemetry.Logger.Info("Policy loaded", zap.String("policy_version", pol.Version))

	// Audit store: postgres when configured, in-memory otherwise
	var repo interfaces.AuditRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pgRepo := repository.NewAuditRepository(db)
		if err := pgRepo.InitDB(); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		repo = pgRepo
	} else {
		telemetry.Logger.Warn("DATABASE_URL not set, using in-memory audit store")
		repo = repository.NewMemoryRepository()
	}

	// Verdict cache (redis)
	var verdictCache *cache.VerdictCache
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		verdictCache = cache.NewVerdictCache(redisClient, cfg.CacheTTL)
	}

	// Orchestrator options
	opts := []service.Option{service.WithCheckTimeout(cfg.CheckTimeout)}
	if verdictCache != nil {
		opts = append(opts, service.WithVerdictCache(verdictCache))
	}

	// Verdict event publisher (kafka)
	if cfg.KafkaBrokers != "" {
		publisher := events.NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(publisher))
	}

	orchestrator := service.NewDefaultOrchestrator(repo, pol, opts...)

	// Oracle responder (NATS)
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		responder := oracle.NewResponder(nc, orchestrator)
		if err := responder.Start(); err != nil {
			telemetry.Logger.Fatal("Failed to start oracle responder", zap.Error(err))
		}
		defer responder.Stop()
	}

	// Setup Gin router
	r := api.NewRouter(repo, orchestrator, verdictCache, cfg.RateLimitPerMinute)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Verification Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
