package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mindlab-health/caregrid/pkg/api"
	"github.com/mindlab-health/caregrid/pkg/audit"
	"github.com/mindlab-health/caregrid/pkg/auth"
	"github.com/mindlab-health/caregrid/pkg/config"
	"github.com/mindlab-health/caregrid/pkg/middleware"
	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/rbac"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "caregrid: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", version).Info("starting caregrid authorization service")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing opentelemetry: %w", err)
	}

	db, err := storage.Connect(cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := rbac.RunMigrations(ctx, db.DB()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	var redisClient *storage.RedisClient
	if cfg.Storage.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
	}

	var archive *storage.ArchiveClient
	if cfg.Audit.ArchiveEnabled {
		archive, err = storage.NewArchiveClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("initializing audit archive: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	store := rbac.NewStore(db.DB())
	cacheTTL := cfg.Storage.CacheTTL["role_permissions"]
	cache := rbac.NewDecisionCache(cfg.Storage.L1CacheSize, cacheTTL, redisClient, metrics)
	resolver := rbac.NewResolver(store, cache, metrics)

	if cfg.RBAC.SeedOnStart {
		seeder := rbac.NewSeeder(store, resolver, logrus.StandardLogger(), metrics)
		if cfg.RBAC.SeedMatrixPath != "" {
			err = seeder.ApplyFile(ctx, cfg.RBAC.SeedMatrixPath)
		} else {
			err = seeder.ApplyDefault(ctx)
		}
		if err != nil {
			return fmt.Errorf("seeding permission matrix: %w", err)
		}
	}

	auditDB, err := audit.NewDBLogger(db.DB(), metrics)
	if err != nil {
		return fmt.Errorf("initializing audit logger: %w", err)
	}
	var auditLogger audit.Logger = auditDB
	if cfg.Audit.FilePath != "" {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Audit.FilePath,
			Rotate:   true,
			MaxSize:  100 * 1024 * 1024,
			MaxFiles: 10,
		})
		if err != nil {
			return fmt.Errorf("initializing file audit logger: %w", err)
		}
		auditLogger = audit.NewMultiLogger(auditDB, fileLogger)
	}

	health := observability.NewHealthChecker(db.DB(), redisUnderlying(redisClient)).WithVersion(version)
	if archive != nil {
		health = health.WithArchive(archive)
	}

	deps := api.Deps{
		Logger:       logger,
		Metrics:      metrics,
		Resolver:     resolver,
		Store:        store,
		TokenManager: auth.NewTokenManager(db.DB()),
		AuditLogger:  auditLogger,
		AuditStore:   audit.NewDBStore(auditDB, archive, metrics),
		Health:       health,
		Registry:     registry,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimit = &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
			WindowDuration:    time.Minute,
			BurstSize:         cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Distributed {
			deps.RedisClient = redisClient
		}
	}

	server := api.NewServer(deps)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(cfg.Observability.OTelEnabled),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("audit-logger", func(ctx context.Context) error {
		return auditLogger.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server failed")
		}
	}()

	return shutdown.WaitForShutdown()
}

// redisUnderlying unwraps the client for the health checker, which takes the
// raw go-redis handle so a nil client disables the check cleanly.
func redisUnderlying(c *storage.RedisClient) *redis.Client {
	if c == nil {
		return nil
	}
	return c.GetClient()
}
