//	@title			Dealership Ledger API
//	@version		1.0
//	@description	Vehicle stock, cost ledger and legally numbered sales documents for a used car dealership

//	@host		localhost:8080
//	@BasePath	/api/v1

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
	extractionapp "github.com/autodealer/backend/internal/application/extraction"
	partnerapp "github.com/autodealer/backend/internal/application/partner"
	stockapp "github.com/autodealer/backend/internal/application/stock"
	tradeinapp "github.com/autodealer/backend/internal/application/tradein"
	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/autodealer/backend/internal/infrastructure/ai"
	"github.com/autodealer/backend/internal/infrastructure/cache"
	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/autodealer/backend/internal/infrastructure/event"
	"github.com/autodealer/backend/internal/infrastructure/export"
	"github.com/autodealer/backend/internal/infrastructure/logger"
	"github.com/autodealer/backend/internal/infrastructure/persistence"
	"github.com/autodealer/backend/internal/infrastructure/rendering"
	"github.com/autodealer/backend/internal/infrastructure/storage"
	"github.com/autodealer/backend/internal/infrastructure/telemetry"
	"github.com/autodealer/backend/internal/interfaces/http/handler"
	"github.com/autodealer/backend/internal/interfaces/http/middleware"
	"github.com/autodealer/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration (.env, config.toml, DEALER_* variables)
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting dealership ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry first so the database plugin and HTTP middleware see real providers
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	meter := meterProvider.Meter("dealer-ledger")

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.Driver == "sqlite" {
		// sqlite has no migration files; the schema comes from the models
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	dbInstrumentation, err := telemetry.NewDBInstrumentation(meter, telemetry.DBConfig{
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:   cfg.Telemetry.DBLogFullSQL,
		DBSystem:     telemetry.DBSystemFor(cfg.Database.Driver),
	}, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbInstrumentation); err != nil {
		log.Fatal("Failed to install database instrumentation", zap.Error(err))
	}
	dbInstrumentation.StartPoolStatsCollection(ctx)
	defer dbInstrumentation.Stop()

	// Repositories
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	tradeInRepo := persistence.NewGormTradeInRepository(db.DB)
	historyRepo := persistence.NewGormDocumentHistoryRepository(db.DB)

	// Redis is optional: numbering falls back to the database counter and
	// idempotency to an in-memory store.
	var redisClient *redis.Client
	if cfg.Ledger.SequenceBackend == "redis" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Redis sequence backend configured but unreachable", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}
	allocator := newAllocator(cfg, db, redisClient, documentRepo, log)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	artifactStore, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	renderer, err := rendering.New(cfg.Rendering, log)
	if err != nil {
		log.Fatal("Failed to initialize renderer", zap.Error(err))
	}
	if closer, ok := renderer.(interface{ Close() error }); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	extractor, closeExtractor, err := ai.New(ctx, cfg.AI, log)
	if err != nil {
		log.Fatal("Failed to initialize extraction provider", zap.Error(err))
	}
	defer func() {
		_ = closeExtractor()
	}()

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:         meter,
		Logger:        log,
		StockProvider: vehicleRepo,
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerMetrics.StartPeriodicCollection(ctx, time.Minute)
	defer ledgerMetrics.Stop()

	// Document lifecycle events land in the history table
	eventBus := event.NewInMemoryEventBus(log)
	historyRecorder := event.NewHistoryRecorder(historyRepo, event.NewLedgerSerializer(), log)
	eventBus.Subscribe(historyRecorder)
	log.Info("Event handlers registered", zap.Strings("history_events", historyRecorder.EventTypes()))

	// Application services
	taxEngine := tax.NewEngine(tax.Config{
		HandlingFee: cfg.Ledger.HandlingFee,
		VATRate:     cfg.Ledger.VATRate,
	})
	ledgerService := documentapp.NewLedgerService(
		documentRepo, vehicleRepo, clientRepo, tradeInRepo,
		allocator,
		taxEngine,
		documentapp.LedgerSettings{
			Padding:              cfg.Ledger.SequencePadding,
			MaxAllocationRetries: cfg.Ledger.MaxAllocationRetries,
			IdempotencyTTL:       cfg.Ledger.IdempotencyTTL,
			Company:              companySnapshot(cfg.Company),
			Clock:                document.SystemClock,
		},
		log,
	)
	ledgerService.SetEventPublisher(eventBus)
	ledgerService.SetIdempotencyStore(idempotencyStore)
	ledgerService.SetRendering(renderer, artifactStore)
	ledgerService.SetExporter(export.NewRegisterExporter())
	ledgerService.SetHistoryRepository(historyRepo)
	ledgerService.SetMetrics(ledgerMetrics)

	vehicleService := stockapp.NewVehicleService(vehicleRepo, documentRepo, cfg.Ledger.LockCostsAfterIssue, log)
	clientService := partnerapp.NewClientService(clientRepo)
	tradeInService := tradeinapp.NewService(tradeInRepo, vehicleRepo, clientRepo, log)
	extractionService := extractionapp.NewService(extractor, log)

	// HTTP handlers
	documentHandler := handler.NewDocumentHandler(ledgerService)
	systemHandler := handler.NewSystemHandler(version).
		AddCheck("database", db.Ping)
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request ID and recovery first so every later layer
	// can log and tag spans with the ID.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.Env == "production"
	engine.Use(middleware.Secure(securityConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Liveness probe outside API versioning and the request deadline
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(middleware.Timeout(cfg.HTTP.RequestTimeout)),
	)
	r.Register(handler.ClientRoutes(handler.NewClientHandler(clientService))).
		Register(handler.VehicleRoutes(handler.NewVehicleHandler(vehicleService))).
		Register(handler.DocumentRoutes(documentHandler)).
		Register(handler.TaxRoutes(documentHandler)).
		Register(handler.TradeInRoutes(handler.NewTradeInHandler(tradeInService))).
		Register(handler.ExtractionRoutes(handler.NewExtractionHandler(extractionService))).
		Register(handler.SystemRoutes(systemHandler))
	r.Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newAllocator picks the sequence backend. The Redis counter is seeded from
// the documents table so switching backends never reuses a number.
func newAllocator(
	cfg *config.Config,
	db *persistence.Database,
	redisClient *redis.Client,
	seeder cache.SequenceSeeder,
	log *zap.Logger,
) document.SequenceAllocator {
	if redisClient != nil {
		log.Info("Using Redis sequence allocator", zap.String("addr", cfg.Redis.Addr()))
		return cache.NewRedisSequenceAllocator(redisClient, document.SystemClock, seeder)
	}
	log.Info("Using database sequence allocator")
	return persistence.NewGormSequenceAllocator(db.DB, document.SystemClock)
}

func companySnapshot(c config.CompanyConfig) document.CompanySnapshot {
	return document.CompanySnapshot{
		Name:       c.Name,
		LegalID:    c.LegalID,
		VATNumber:  c.VATNumber,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		City:       c.City,
		Phone:      c.Phone,
		Email:      c.Email,
	}
}
