package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	catalogapp "github.com/dropship/backend/internal/application/catalog"
	fulfillmentapp "github.com/dropship/backend/internal/application/fulfillment"
	orderapp "github.com/dropship/backend/internal/application/order"
	sourcingapp "github.com/dropship/backend/internal/application/sourcing"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/auth"
	"github.com/dropship/backend/internal/infrastructure/automation"
	"github.com/dropship/backend/internal/infrastructure/browser"
	"github.com/dropship/backend/internal/infrastructure/cache"
	"github.com/dropship/backend/internal/infrastructure/config"
	"github.com/dropship/backend/internal/infrastructure/event"
	"github.com/dropship/backend/internal/infrastructure/extractor"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/infrastructure/notify"
	"github.com/dropship/backend/internal/infrastructure/persistence"
	"github.com/dropship/backend/internal/infrastructure/storage"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/dropship/backend/internal/interfaces/http/handler"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/dropship/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			Dropship Backend API
//	@version		1.0
//	@description	Multi-tenant dropshipping API: product import, approval and order fulfillment

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		issueToken  bool
		tenantID    string
		userID      string
		permissions string
		ttl         time.Duration
	)
	flag.BoolVar(&issueToken, "issue-token", false, "Print a capability token and exit")
	flag.StringVar(&tenantID, "tenant", "", "Tenant ID for -issue-token (default: a new UUID)")
	flag.StringVar(&userID, "user", "", "User ID for -issue-token (default: a new UUID)")
	flag.StringVar(&permissions, "permissions", auth.PermissionAll, "Comma-separated permissions for -issue-token")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime for -issue-token (default: jwt.token_expiration)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if issueToken {
		if err := printToken(cfg.JWT, tenantID, userID, permissions, ttl); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// printToken signs a token so operators can call the API without an identity provider
func printToken(cfg config.JWTConfig, tenant, user, permissions string, ttl time.Duration) error {
	input := auth.GenerateTokenInput{TTL: ttl}
	var err error
	if input.TenantID, err = parseOrNewID(tenant); err != nil {
		return fmt.Errorf("invalid tenant id: %w", err)
	}
	if input.UserID, err = parseOrNewID(user); err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	for _, p := range strings.Split(permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			input.Permissions = append(input.Permissions, p)
		}
	}

	token, err := auth.NewJWTService(cfg).GenerateToken(input)
	if err != nil {
		return err
	}
	fmt.Printf("tenant_id:  %s\nuser_id:    %s\nexpires_at: %s\n\n%s\n",
		input.TenantID, input.UserID, token.ExpiresAt.Format(time.RFC3339), token.AccessToken)
	return nil
}

func parseOrNewID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Telemetry providers; each is a no-op when disabled
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		return err
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		return err
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		return err
	}
	log := lp.Bridge(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.Profiling.Enabled,
		ServerAddress:     cfg.Telemetry.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Telemetry.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Telemetry.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = profiler.Stop()
	}()
	if profiler.IsEnabled() && cfg.Telemetry.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting Dropship Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database with statements logged through zap; shipping addresses stay out of production logs
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.App.Env != "production"),
	)
	db, err := persistence.NewDatabase(ctx, &cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}
	log.Info("Database connected successfully")

	checks := map[string]handler.Pinger{"database": db}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			_ = redisClient.Close()
		}()
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	metrics, err := telemetry.NewDropshipMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		return err
	}

	// Repositories
	jobRepo := persistence.NewGormImportJobRepository(db.DB)
	importedRepo := persistence.NewGormImportedProductRepository(db.DB)
	productRepo := persistence.NewGormCatalogProductRepository(db.DB)
	orderRepo := persistence.NewGormCustomerOrderRepository(db.DB)
	queueRepo := persistence.NewGormFulfillmentQueueRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	importService := sourcingapp.NewImportService(jobRepo, importedRepo, eventBus, sourcingapp.ImportConfig{
		DefaultPlatform: cfg.Import.DefaultPlatform,
		MaxBatchSize:    cfg.Import.MaxBatchSize,
	}, log)
	importService.SetMetrics(metrics)
	approvalService := sourcingapp.NewApprovalService(importedRepo, eventBus, log)
	productService := catalogapp.NewProductService(productRepo)
	orderService := orderapp.NewOrderService(orderRepo, productRepo, eventBus, log)
	queueService := fulfillmentapp.NewQueueService(queueRepo, log)

	// Completed orders are queued for fulfillment
	producer := fulfillmentapp.NewQueueProducer(queueRepo, productRepo, fulfillmentapp.ProducerConfig{
		Platform:   cfg.Fulfillment.Platform,
		MaxRetries: cfg.Fulfillment.MaxRetries,
	}, log)
	if redisClient != nil && cfg.Fulfillment.EnqueueGuard {
		producer.WithGuard(cache.NewRedisEnqueueGuard(redisClient, "fulfillment:enqueue:", cfg.Fulfillment.LeaseTTL))
	}
	eventBus.Subscribe(producer)

	// The browser launches on the first tab, so replay mode never starts one
	// unless the worker places an order
	b := browser.New(&cfg.Browser, log)
	defer func() {
		_ = b.Close()
	}()

	pages, err := newPageExtractor(cfg, b, log)
	if err != nil {
		return err
	}

	screenshots, err := newScreenshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	var notifier fulfillmentapp.Notifier = notify.NewLogNotifier(log)
	if cfg.Fulfillment.Notifier == "redis" {
		notifier = cache.NewRedisNotifier(redisClient, "notifications:")
	}

	workerCfg := fulfillmentapp.DefaultWorkerConfig()
	workerCfg.Enabled = cfg.Fulfillment.WorkerEnabled
	if cfg.Fulfillment.WorkerID != "" {
		workerCfg.WorkerID = cfg.Fulfillment.WorkerID
	}
	workerCfg.PollInterval = cfg.Fulfillment.PollInterval
	workerCfg.LeaseTTL = cfg.Fulfillment.LeaseTTL
	workerCfg.StepTimeout = cfg.Fulfillment.StepTimeout
	workerCfg.OrderTimeout = cfg.Fulfillment.OrderTimeout
	workerCfg.Platform = cfg.Fulfillment.Platform
	workerCfg.Retry = fulfillment.RetryPolicy{
		BaseDelay: cfg.Fulfillment.RetryBaseDelay,
		MaxDelay:  cfg.Fulfillment.RetryMaxDelay,
	}

	sites := automation.NewFactory(b, automation.SelectorsFromConfig(&cfg.Site), log)
	worker := fulfillmentapp.NewWorker(workerCfg, queueRepo, orderRepo, sites, log).
		WithNotifier(notifier).
		WithScreenshotStore(screenshots)
	worker.SetMetrics(metrics)

	// HTTP layer
	var previewLimiter middleware.Limiter = middleware.NewMemoryLimiter(cfg.HTTP.PreviewRateLimit, cfg.HTTP.PreviewRateWindow)
	if redisClient != nil {
		previewLimiter = cache.NewRedisRateLimiter(redisClient, "ratelimit:preview:", cfg.HTTP.PreviewRateLimit, cfg.HTTP.PreviewRateWindow)
	}

	engine := router.NewEngine(router.APIConfig{
		App:            cfg.App,
		HTTP:           cfg.HTTP,
		Tracing:        middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		Meters:         mp,
		TokenValidator: auth.NewJWTService(cfg.JWT),
		PreviewLimiter: previewLimiter,
		Logger:         log,
	}, router.Handlers{
		Imports:     handler.NewImportHandler(importService, approvalService, pages),
		Orders:      handler.NewOrderHandler(orderService),
		Fulfillment: handler.NewFulfillmentHandler(queueService),
		Catalog:     handler.NewCatalogHandler(productService),
		System:      handler.NewSystemHandler(cfg.App.Name, version, checks),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
		// An in-flight placement finishes or times out before the lease is released
		stopBudget := max(cfg.HTTP.ShutdownTimeout, workerCfg.OrderTimeout+workerCfg.SaveTimeout)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopBudget)
		defer stopCancel()
		if err := worker.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("worker stop: %w", err))
		}

		flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer flushCancel()
		if err := mp.Shutdown(flushCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
		if err := lp.Shutdown(flushCtx); err != nil {
			log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

// newPageExtractor picks the browser-backed extractor or the fixture replay
func newPageExtractor(cfg *config.Config, b *browser.Browser, log *zap.Logger) (sourcing.PageExtractor, error) {
	strategy := extractor.DefaultStrategy()
	if cfg.Browser.Driver == "replay" {
		replay := extractor.NewReplayExtractor(strategy)
		if err := replay.LoadDir(cfg.Browser.ReplayFixtures); err != nil {
			return nil, err
		}
		log.Info("Replay extractor loaded",
			zap.String("dir", cfg.Browser.ReplayFixtures),
			zap.Int("pages", replay.Len()),
		)
		return replay, nil
	}
	return extractor.NewChromedpExtractor(b, strategy, cfg.Browser.ExtractTimeout, log), nil
}

func newScreenshotStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (fulfillmentapp.ScreenshotStore, error) {
	if cfg.Storage.Provider != "s3" {
		log.Warn("Confirmation screenshots kept in memory only", zap.String("provider", cfg.Storage.Provider))
		return storage.NewStubScreenshotStore(), nil
	}
	store, err := storage.NewS3ScreenshotStore(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Screenshot storage ready", zap.String("bucket", store.Bucket()))
	return store, nil
}
