package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atrium-app/atrium/internal/app"
	"github.com/atrium-app/atrium/internal/claims"
	"github.com/atrium-app/atrium/internal/identity"
	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/platform/cache"
	"github.com/atrium-app/atrium/internal/platform/db"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
	"github.com/atrium-app/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// Sweep mutations refresh live session claims just like admin grants.
	sessionManager := shared.NewSessionManager(redisClient, "atrium_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	identityService := identity.NewService(identity.NewRepository(pool), logger)
	roleStore := roles.NewPGStore(pool)
	projector := claims.NewProjector(roleStore, sessionManager, logger)
	rolesService := roles.NewService(roleStore, identityService, projector, logger, roles.ServiceConfig{
		BootstrapAdminEmail: cfg.BootstrapAdminEmail,
		StoreTimeout:        cfg.RoleStoreTimeout,
	})

	metrics := observability.NewMetrics()
	jobMetrics := jobs.NewMetrics(metrics.Registerer())
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:        logger,
		Reconcile:     jobs.NewReconcileHandler(rolesService, metrics, jobMetrics, logger),
		ReconcileCron: cfg.ReconcileCron,
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}
