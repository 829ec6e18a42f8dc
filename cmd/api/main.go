package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"change-aggregator/config"
	httpHandler "change-aggregator/internal/adapter/http/handler"
	"change-aggregator/internal/adapter/messaging/rabbitmq"
	"change-aggregator/internal/adapter/metrics"
	"change-aggregator/internal/adapter/storage/memory"
	pgStorage "change-aggregator/internal/adapter/storage/postgres"
	redisStorage "change-aggregator/internal/adapter/storage/redis"
	"change-aggregator/internal/core/ports"
	"change-aggregator/internal/service"
	"change-aggregator/internal/worker"
	"change-aggregator/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(os.Getenv("CAG_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Change Aggregator")

	ctx := context.Background()

	monthlyFee, err := cfg.Merchant.Fee()
	if err != nil {
		log.Fatal().Err(err).Str("monthly_fee", cfg.Merchant.MonthlyFee).Msg("Invalid merchant monthly fee")
	}

	var checkers []ports.HealthChecker

	// Ledger
	var ledger ports.Ledger
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("PostgreSQL connected")

		encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize encryption service")
		}
		ledger = pgStorage.NewStore(pool, encSvc)
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
	default:
		ledger = memory.New()
		log.Warn().Msg("Using in-memory ledger; data is lost on restart")
	}

	// Session and request stores
	var (
		current     ports.CurrentTransactionStore = memory.NewCurrentTransactionStore()
		idempCache  ports.IdempotencyCache        = memory.NewIdempotencyCache()
		rateLimiter ports.RateLimitStore          = memory.NewRateLimitStore()
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		current = redisStorage.NewCurrentTransactionStore(rdb, cfg.Session.TTL)
		idempCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	// Domain events
	publisher := newPublisher(cfg.Events.AMQPURL, log)
	defer publisher.Close()

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	recorder := metrics.NewRecorder()

	events := service.NewEventService(publisher, sigSvc, cfg.Events.Exchange, cfg.Events.SigningSecret, logger.Component(log, "events"))

	// Initialize business services
	authSvc, err := service.NewAuthService(ledger, hashSvc, tokenSvc, service.AdminCredentials{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}, monthlyFee, logger.Component(log, "auth"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth service")
	}
	txSvc := service.NewTransactionService(ledger, current, events, logger.Component(log, "transactions"))
	dispSvc := service.NewDispositionService(ledger, current, idempCache, events, recorder, logger.Component(log, "disposition"))
	payoutSvc := service.NewPayoutService(ledger, events, recorder, logger.Component(log, "payouts"))
	customerSvc := service.NewCustomerService(ledger, events, logger.Component(log, "customers"))
	merchantSvc := service.NewMerchantService(ledger, events, logger.Component(log, "merchants"))
	reportingSvc := service.NewReportingService(ledger)
	reconSvc := service.NewReconciliationService(ledger, recorder, logger.Component(log, "reconcile"))
	auditSvc := service.NewAuditService(ledger.Audit(), log)

	// Background jobs
	var scheduler *worker.Scheduler
	if cfg.Reconcile.Enabled {
		scheduler = worker.NewScheduler(reconSvc, cfg.Reconcile.Schedule, logger.Component(log, "scheduler"))
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TransactionSvc: txSvc,
		DispositionSvc: dispSvc,
		PayoutSvc:      payoutSvc,
		CustomerSvc:    customerSvc,
		MerchantSvc:    merchantSvc,
		ReportingSvc:   reportingSvc,
		ReconcileSvc:   reconSvc,
		AuditSvc:       auditSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimiter,
		HealthCheckers: checkers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := auditSvc.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Audit entries still queued at shutdown")
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("Reconciliation job still running at shutdown")
		}
	}

	log.Info().Msg("Server exited")
}

// newPublisher connects to RabbitMQ when a URL is configured and falls back to
// dropping events otherwise.
func newPublisher(amqpURL string, log zerolog.Logger) ports.EventPublisher {
	if amqpURL == "" {
		log.Info().Msg("No AMQP URL configured; domain events are not published")
		return &rabbitmq.EventProducerFallback{Log: log}
	}
	producer, err := rabbitmq.NewEventProducer(amqpURL, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable; domain events are not published")
		return &rabbitmq.EventProducerFallback{Log: log}
	}
	log.Info().Msg("RabbitMQ connected")
	return producer
}
