package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commissionapp "github.com/marketplace/backend/internal/application/commission"
	settlementapp "github.com/marketplace/backend/internal/application/settlement"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/infrastructure/audit"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/notification"
	"github.com/marketplace/backend/internal/infrastructure/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Marketplace Settlement Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if tracerProvider.IsEnabled() {
		if err := db.EnableTracing(cfg.Database.DBName, log); err != nil {
			log.Fatal("Failed to enable database tracing", zap.Error(err))
		}
	}

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	orderReader := persistence.NewGormOrderReader(db.DB)
	userReader := persistence.NewGormUserReader(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	auditLogger := audit.NewEventLogger(log)
	eventBus.Subscribe(auditLogger)

	if cfg.Webhook.Enabled {
		storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
		idempotencyStore, err := storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}

		webhookNotifier := notification.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout, log)
		// Webhook delivery has external side effects, so it is wrapped with
		// idempotency checking to avoid duplicate notifications
		eventBus.Subscribe(event.NewIdempotentHandler(webhookNotifier, idempotencyStore, log))
		log.Info("Webhook notifications enabled", zap.String("url", cfg.Webhook.URL))
	}

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Commission rate table from configuration
	rates, err := commission.NewRateTableWithOverrides(map[commission.Type]decimal.Decimal{
		commission.TypeStandard:      decimal.NewFromFloat(cfg.Commission.StandardRate),
		commission.TypePremium:       decimal.NewFromFloat(cfg.Commission.PremiumRate),
		commission.TypePromotional:   decimal.NewFromFloat(cfg.Commission.PromotionalRate),
		commission.TypeCategoryBased: decimal.NewFromFloat(cfg.Commission.CategoryBasedRate),
	})
	if err != nil {
		log.Fatal("Invalid commission rate configuration", zap.Error(err))
	}

	// Transaction integrity guard and amount bounds
	integrityGuard, err := settlement.NewIntegrityGuard(cfg.Integrity.Secret, cfg.Integrity.Enabled)
	if err != nil {
		log.Fatal("Invalid integrity configuration", zap.Error(err))
	}
	bounds := settlement.Bounds{
		Min: decimal.NewFromFloat(cfg.Transaction.MinAmount),
		Max: decimal.NewFromFloat(cfg.Transaction.MaxAmount),
	}

	// Payment processor
	processor := payment.NewSimulatedProcessor(cfg.Payment.SimulatedSuccessRate, log)

	// Initialize application services
	commissionService := commissionapp.NewService(
		commissionRepo,
		orderReader,
		rates,
		commissionapp.BatchOptions{
			ConcurrencyThreshold: cfg.Commission.BatchConcurrencyMin,
			MaxWorkers:           cfg.Commission.BatchMaxWorkers,
		},
		log,
	)
	commissionService.SetEventPublisher(eventBus)

	settlementService := settlementapp.NewService(
		transactionRepo,
		commissionRepo,
		orderReader,
		userReader,
		processor,
		integrityGuard,
		bounds,
		log,
	)
	settlementService.SetEventPublisher(eventBus)

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Register routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewCommissionHandler(commissionService))
	r.Register(handler.NewTransactionHandler(settlementService))
	r.Register(handler.NewSystemHandler(db))
	r.Setup()

	// Root-level health endpoint for load balancer probes
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
