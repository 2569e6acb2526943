package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/corpdesk/employee-portal/internal/api/http"
	"github.com/corpdesk/employee-portal/internal/api/http/handlers"
	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/bootstrap"
	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/observability"
	"github.com/corpdesk/employee-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			EnableTracing:    true,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			Environment:      cfg.App.Env,
			Release:          cfg.App.Version,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start services", zap.Error(err))
	}
	defer container.Close(context.Background())

	reconcileDone := worker.StartReconcileWorker(ctx, container.Reconciler, cfg.Reconcile.Interval(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, container.Metrics, cfg.App.RequestTimeout())

	checks := []handlers.DependencyCheck{{Name: "redis", Target: container.Redis}}
	if container.Postgres.PoolHandle() != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Target: container.Postgres})
	}
	if cfg.Mongo.URI != "" {
		checks = append(checks, handlers.DependencyCheck{Name: "mongodb", Target: container.Mongo})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Auth:           handlers.NewAuthHandler(container.Identity, cfg.Auth.MinPasswordLength),
		Employees:      handlers.NewEmployeesHandler(container.Identity),
		AuthMiddleware: auth.NewAuthMiddleware(container.Provider),
		AdminEmails:    cfg.Auth.AdminEmails,
		Metrics:        container.Metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-reconcileDone
	_ = app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
