package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/atrium-app/atrium/internal/accounts"
	"github.com/atrium-app/atrium/internal/app"
	"github.com/atrium-app/atrium/internal/claims"
	"github.com/atrium-app/atrium/internal/identity"
	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/platform/cache"
	"github.com/atrium-app/atrium/internal/platform/db"
	"github.com/atrium-app/atrium/internal/profile"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
	"github.com/atrium-app/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, "atrium_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo, logger)

	roleStore := roles.NewPGStore(pool)
	projector := claims.NewProjector(roleStore, sessionManager, logger)
	rolesService := roles.NewService(roleStore, identityService, projector, logger, roles.ServiceConfig{
		BootstrapAdminEmail: cfg.BootstrapAdminEmail,
		StoreTimeout:        cfg.RoleStoreTimeout,
	})
	rolesMiddleware := &roles.Middleware{Service: rolesService, Logger: logger}

	accountsService := accounts.NewService(accounts.NewRepository(pool))

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	enqueuer := jobs.NewEnqueuer(asynqClient)

	metrics := observability.NewMetrics()

	identityHandler := identity.NewHandler(logger, identityService, rolesService, accountsService, sessionManager)
	accountsHandler := accounts.NewHandler(logger, accountsService, rolesMiddleware)
	profileHandler := profile.NewHandler(profile.NewService(identityService, rolesService, logger), rolesMiddleware)
	rolesHandler := roles.NewHandler(logger, rolesService, identityService, enqueuer, rolesMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		IdentityHandler: identityHandler,
		AccountsHandler: accountsHandler,
		ProfileHandler:  profileHandler,
		RolesHandler:    rolesHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
