package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/recipe-admin/internal/api/http"
	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/handlers"
	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/audit"
	"github.com/spec-kit/recipe-admin/internal/config"
	"github.com/spec-kit/recipe-admin/internal/observability"
	"github.com/spec-kit/recipe-admin/internal/persistence"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.PoolHandle() != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	api := upstream.NewClient(cfg.Upstream, logger)
	sessions := session.NewManager(
		session.NewRedisStore(redis.Client),
		api,
		logger,
		session.WithLoginTimeout(cfg.Session.LoginTimeout()),
	)

	policy, err := session.LoadPolicy(cfg.Session.PolicyPath)
	if err != nil {
		logger.Fatal("failed to load route policy", zap.Error(err))
	}

	v, err := views.New()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	auditor := audit.NewRecorder(pg.PoolHandle(), logger)
	cookie := handlers.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}
	routeGuard := guard.New(sessions, policy, cfg.Session.CookieName, logger)

	metrics := observability.NewMetrics()
	handlers.Version = cfg.App.Version

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), v)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Auth:       handlers.NewAuthHandler(sessions, api, v, auditor, cookie, logger),
		Dashboard:  handlers.NewDashboardHandler(v),
		Categories: handlers.NewCategoriesHandler(sessions, api, v, auditor, cookie, logger),
		Recipes:    handlers.NewRecipesHandler(sessions, api, v, auditor, cookie, logger),
		Favourites: handlers.NewFavouritesHandler(sessions, api, v, auditor, cookie, logger),
		Users:      handlers.NewUsersHandler(sessions, api, v, auditor, cookie, logger),
		Ops:        handlers.NewOpsHandler(redis, pg, metrics),
		Guard:      routeGuard,
		OpsConfig:  cfg.Ops,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	return app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
