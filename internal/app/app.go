// Package app assembles stores, services and the HTTP router from configuration.
// Both the API server and the provisionctl CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/handler"
	"github.com/noah-isme/olympiad-admin-api/internal/middleware"
	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/repository"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
	"github.com/noah-isme/olympiad-admin-api/pkg/cache"
	"github.com/noah-isme/olympiad-admin-api/pkg/config"
	"github.com/noah-isme/olympiad-admin-api/pkg/database"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
	"github.com/noah-isme/olympiad-admin-api/pkg/storage"
)

// Stores groups the persistence backends selected by STORE_DRIVER.
type Stores struct {
	Students service.StudentStore
	Sales    service.SalesUserStore
	Audit    middleware.AuditWriter
	Ping     handler.PingFunc
}

// App owns every long-lived dependency of the process.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Metrics      *service.MetricsService
	Cache        *service.CacheService
	Provisioning *service.ProvisioningService
	Export       *service.ExportService
	Tokens       *service.TokenService
	Limiter      *service.UploadLimiter
	Uploads      *storage.UploadArea
	Stores       Stores

	checks  map[string]handler.Pinger
	closers []func(context.Context) error
}

// New connects to the configured backends and wires the services. On error
// any connection already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (a *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a = &App{Config: cfg, Logger: logger, checks: map[string]handler.Pinger{}}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
			a = nil
		}
	}()

	a.Metrics = service.NewMetricsService()

	stores, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	a.checks["store"] = stores.Ping

	audit := service.NewAuditDispatcher(stores.Audit, service.AuditDispatcherConfig{Workers: 2}, logger)
	audit.Start(ctx)
	a.closers = append(a.closers, audit.Close)
	stores.Audit = audit
	a.Stores = stores

	a.Cache = a.openCache(ctx)

	artifacts, err := storage.NewArtifactStore(cfg.Provisioning.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	a.Uploads, err = storage.NewUploadArea(cfg.Provisioning.UploadDir, cfg.Provisioning.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init upload area: %w", err)
	}

	validate := validator.New()
	a.Provisioning = service.NewProvisioningService(
		stores.Students,
		stores.Sales,
		artifacts,
		stores.Audit,
		a.Cache,
		a.Metrics,
		service.ProvisioningConfig{
			DuplicatePolicy: models.DuplicatePolicy(cfg.Provisioning.DuplicatePolicy),
			StudentHashCost: cfg.Provisioning.StudentHashCost,
			SalesHashCost:   cfg.Provisioning.SalesHashCost,
			PasswordLength:  cfg.Provisioning.PasswordLength,
		},
		validate,
		logger,
	)
	a.Export = service.NewExportService(stores.Students, stores.Sales, a.Cache, cfg.Filters.CacheTTL, logger, export.NewCSVExporter())
	a.Tokens = service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	a.Limiter = service.NewUploadLimiter(cfg.Provisioning.MaxConcurrent, cfg.Provisioning.MaxWait, a.Metrics)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (Stores, error) {
	switch a.Config.StoreDriver {
	case config.StoreDriverMongo:
		client, err := database.NewMongo(ctx, a.Config.Mongo)
		if err != nil {
			return Stores{}, err
		}
		a.closers = append(a.closers, client.Disconnect)
		db := client.Database(a.Config.Mongo.Database)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return Stores{}, err
		}
		a.Logger.Info("document store connected", zap.String("database", a.Config.Mongo.Database))
		return mongoStores(client, db), nil
	default:
		db, err := database.NewPostgres(ctx, a.Config.Database)
		if err != nil {
			return Stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.Logger.Info("postgres connected", zap.String("database", a.Config.Database.Name))
		return postgresStores(db), nil
	}
}

func postgresStores(db *sqlx.DB) Stores {
	return Stores{
		Students: repository.NewStudentRepository(db),
		Sales:    repository.NewSalesUserRepository(db),
		Audit:    repository.NewAuditRepository(db),
		Ping:     db.PingContext,
	}
}

func mongoStores(client *mongo.Client, db *mongo.Database) Stores {
	return Stores{
		Students: repository.NewMongoStudentRepository(db),
		Sales:    repository.NewMongoSalesUserRepository(db),
		Audit:    repository.NewMongoAuditRepository(db),
		Ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}
}

// openCache returns a disabled cache when caching is off or Redis is
// unreachable; the filter endpoint then reads straight from the store.
func (a *App) openCache(ctx context.Context) *service.CacheService {
	if !a.Config.Filters.CacheEnabled {
		return service.NewCacheService(nil, a.Metrics, a.Config.Filters.CacheTTL, a.Logger, false)
	}
	client, err := cache.NewRedis(ctx, a.Config.Redis)
	if err != nil {
		a.Logger.Warn("redis unavailable, filter cache disabled", zap.Error(err))
		return service.NewCacheService(nil, a.Metrics, a.Config.Filters.CacheTTL, a.Logger, false)
	}
	repo := repository.NewCacheRepository(client, a.Logger)
	a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
	a.checks["redis"] = handler.PingFunc(repo.Ping)
	return service.NewCacheService(repo, a.Metrics, a.Config.Filters.CacheTTL, a.Logger, true)
}

// Close releases every backend connection in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
