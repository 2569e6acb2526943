// Package bootstrap builds the object graph shared by the API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/events"
	"github.com/corpdesk/employee-portal/internal/observability"
	"github.com/corpdesk/employee-portal/internal/persistence"
	"github.com/corpdesk/employee-portal/internal/repository"
	"github.com/corpdesk/employee-portal/internal/service"
	"github.com/corpdesk/employee-portal/internal/worker"
)

// Container holds the wired services and the connections behind them.
type Container struct {
	Postgres      *persistence.Postgres
	Redis         *persistence.Redis
	Mongo         *persistence.Mongo
	Provider      *auth.LocalProvider
	Store         docstore.Store
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Identity      *service.IdentitySync
	Reconciler    *service.Reconciler
	Notifications *service.NotificationService
}

// Build connects to the configured backends and wires the services. Postgres and MongoDB
// fall back to in-memory stores when their DSN/URI is empty.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Metrics: observability.NewMetrics(), Dispatcher: events.NewInMemoryDispatcher()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Postgres = pg

	accounts := repository.NewMemoryAccountRepository()
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
				c.Close(ctx)
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		accounts = repository.NewAccountRepository(pool)
	}

	c.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	c.Mongo = mongo
	c.Store = mongo.DocumentStore()

	c.Provider = auth.NewLocalProvider(cfg.Auth, accounts, auth.NewRedisSessionStore(c.Redis.Client))

	c.Identity = service.NewIdentitySync(service.IdentityDependencies{
		Provider:   c.Provider,
		Store:      c.Store,
		Dispatcher: c.Dispatcher,
		Metrics:    c.Metrics,
		Logger:     logger,
	})
	if err := c.Identity.Init(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}

	c.Reconciler = service.NewReconciler(service.ReconcilerDependencies{
		Directory:  c.Provider,
		Store:      c.Store,
		Dispatcher: c.Dispatcher,
		Logger:     logger,
	}, cfg.Reconcile)

	c.Notifications = service.NewNotificationService(c.Dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(c.Notifications)

	return c, nil
}

// Close releases every connection that was opened.
func (c *Container) Close(ctx context.Context) {
	if c.Provider != nil {
		c.Provider.Close()
	}
	c.Mongo.Close(ctx)
	c.Redis.Close()
	c.Postgres.Close()
}
