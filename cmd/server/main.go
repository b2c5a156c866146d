package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/archive"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/auditlog"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/auth"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/cache"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/changefeed"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/event"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/logger"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/scheduler"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/sequence"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/telemetry"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/handler"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/middleware"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Build-time variables injected via ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

// cleanup runs registered shutdown steps in reverse order
type cleanup struct {
	log   *zap.Logger
	steps []func(context.Context) error
	names []string
}

func (c *cleanup) add(name string, fn func(context.Context) error) {
	c.names = append(c.names, name)
	c.steps = append(c.steps, fn)
}

func (c *cleanup) run(ctx context.Context) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		if err := c.steps[i](ctx); err != nil {
			c.log.Error("Shutdown step failed", zap.String("step", c.names[i]), zap.Error(err))
		}
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting TMS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := &cleanup{log: log}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdown.run(shutdownCtx)
	}()

	// Telemetry
	serviceName := cfg.Telemetry.ServiceName
	providers, err := telemetry.Start(ctx, telemetry.FromConfig(cfg.Telemetry, version), log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	shutdown.add("telemetry", providers.Shutdown)
	meter := providers.Meter(serviceName)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))),
		persistence.WithPlugins(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem(cfg.Database.Driver),
		}, log)),
	)
	if err != nil {
		return err
	}
	shutdown.add("database", func(context.Context) error { return db.Close() })
	if cfg.Database.Driver == config.BackendSQLite {
		// postgres schemas are owned by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("auto-migrate sqlite: %w", err)
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	readiness := map[string]handler.ReadinessCheck{"database": db.Ping}

	// Redis is only dialled when a component is configured to use it
	var redisClient *redis.Client
	if usesRedis(cfg) {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = redisClient.Close()
			return fmt.Errorf("connect to redis: %w", err)
		}
		shutdown.add("redis", func(context.Context) error { return redisClient.Close() })
		readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	feed := newChangeFeed(ctx, cfg, redisClient, log)
	stores := persistence.NewGormStores(db.DB, feed, log)

	seq, err := newSequence(cfg, db, redisClient)
	if err != nil {
		return err
	}

	auditSink, err := newAuditSink(cfg, db, shutdown)
	if err != nil {
		return err
	}

	var invoiceArchive *archive.S3Archive
	if cfg.Archive.Enabled {
		invoiceArchive, err = archive.NewS3Archive(&cfg.Archive, archive.WithLogger(log))
		if err != nil {
			return err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = invoiceArchive.EnsureBucket(ensureCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("invoice archive: %w", err)
		}
		log.Info("Invoice archive enabled", zap.String("bucket", invoiceArchive.Bucket()))
	}

	// Domain events
	bus := event.NewInMemoryEventBus(log)
	workflowHandler := tms.NewWorkflowHandler(stores.Tasks, workflow.NewRules(), log)
	bus.Subscribe(workflowHandler, workflowHandler.EventTypes()...)
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(meter, log)
		if err != nil {
			return err
		}
		bus.Subscribe(businessMetrics, businessMetrics.EventTypes()...)
	}
	if err := bus.Start(ctx); err != nil {
		return err
	}
	shutdown.add("event bus", bus.Stop)

	deps := tms.Dependencies{
		Stores: tms.Stores{
			Loads:              stores.Loads,
			Employees:          stores.Employees,
			Trucks:             stores.Trucks,
			Trailers:           stores.Trailers,
			Brokers:            stores.Brokers,
			FactoringCompanies: stores.FactoringCompanies,
			Invoices:           stores.Invoices,
			Settlements:        stores.Settlements,
			Expenses:           stores.Expenses,
			Tasks:              stores.Tasks,
		},
		Sequence:   seq,
		Audit:      auditSink,
		Events:     bus,
		Metrics:    tms.NewCoordinatorMetrics(promRegistry),
		Calculator: finance.NewCalculator(),
		Logger:     log,
	}
	var linkArchive handler.InvoiceArchive
	if invoiceArchive != nil {
		deps.Archive = invoiceArchive
		linkArchive = invoiceArchive
	}
	registry := tms.NewRegistry(deps)
	shutdown.add("sessions", func(context.Context) error {
		registry.Close()
		return nil
	})

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(cfg.Scheduler, registry, log)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		shutdown.add("scheduler", sched.Stop)
	}

	idempotencyOpts := []cache.IdempotencyStoreFactoryOption{cache.WithLogger(log)}
	if redisClient != nil {
		idempotencyOpts = append(idempotencyOpts, cache.WithClient(redisClient))
	}
	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis, idempotencyOpts...).CreateStore(ctx)
	if err != nil {
		return err
	}
	shutdown.add("idempotency store", func(context.Context) error { return idempotency.Close() })

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	base := handler.NewBaseHandler(registry, handler.PersistPolicy{
		Wait:    cfg.HTTP.WaitForPersist,
		Timeout: cfg.HTTP.PersistTimeout,
	})
	httpMeter := meter
	if !cfg.Telemetry.Enabled {
		httpMeter = nil
	}
	engine, err := router.NewEngine(router.Config{
		Logger:      log,
		HTTP:        cfg.HTTP,
		ServiceName: serviceName,
		Tracing:     cfg.Telemetry.Enabled,
		Tokens:      tokens,
		Idempotency: idempotency,
		Meter:       httpMeter,
		Gatherer:    promRegistry,
		System: handler.NewSystemHandler(cfg.App.Name, version, readiness, func() int {
			return len(registry.Sessions())
		}),
		Handlers: []router.RouteRegistrar{
			handler.NewLoadHandler(base),
			handler.NewFleetHandler(base),
			handler.NewPartnerHandler(base),
			handler.NewFinanceHandler(base, linkArchive),
			handler.NewWorkflowHandler(base),
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("HTTP server stopped")
	return nil
}

func dbSystem(driver string) string {
	if driver == config.BackendSQLite {
		return "sqlite"
	}
	return "postgresql"
}

func usesRedis(cfg *config.Config) bool {
	return cfg.Store.ChangeFeed == config.BackendRedis || cfg.Store.Sequence == config.BackendRedis
}

func newChangeFeed(ctx context.Context, cfg *config.Config, client *redis.Client, log *zap.Logger) changefeed.Feed {
	if cfg.Store.ChangeFeed != config.BackendRedis {
		return changefeed.NewLocalFeed(log)
	}
	opts := []changefeed.RedisFeedOption{changefeed.WithLogger(log)}
	if cfg.Store.Channel != "" {
		opts = append(opts, changefeed.WithChannel(cfg.Store.Channel))
	}
	feed := changefeed.NewRedisFeedWithClient(client, opts...)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Change feed stopped", zap.Error(err))
		}
	}()
	return feed
}

func newSequence(cfg *config.Config, db *persistence.Database, client *redis.Client) (shared.SequenceGenerator, error) {
	switch cfg.Store.Sequence {
	case config.BackendRedis:
		return sequence.NewRedis(client, ""), nil
	case config.BackendMemory:
		return sequence.NewMemory(), nil
	case config.BackendGorm:
		return sequence.NewGorm(db.DB), nil
	default:
		return nil, fmt.Errorf("unsupported sequence backend %q", cfg.Store.Sequence)
	}
}

func newAuditSink(cfg *config.Config, db *persistence.Database, shutdown *cleanup) (audit.Sink, error) {
	switch cfg.Audit.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendBadger:
		sink, err := auditlog.OpenBadgerSink(cfg.Audit.BadgerDir)
		if err != nil {
			return nil, err
		}
		shutdown.add("audit log", func(context.Context) error { return sink.Close() })
		return sink, nil
	default:
		return auditlog.NewGormSink(db.DB), nil
	}
}
