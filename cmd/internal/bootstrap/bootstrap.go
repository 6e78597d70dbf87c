// Package bootstrap builds the report stack shared by the api, cron-worker and
// reports binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/devsergyo/sales-commissions/internal/delivery"
	"github.com/devsergyo/sales-commissions/internal/reportcache"
	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/internal/sales"
	"github.com/devsergyo/sales-commissions/internal/sellers"
	"github.com/devsergyo/sales-commissions/pkg/config"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/redis"
)

// LoadConfig reads .env (when present) and the environment, then builds the
// service logger from the resulting config.
func LoadConfig(service string) (*config.Config, *logger.Logger) {
	logg := logger.New(logger.Options{ServiceName: service})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	RequireResource(context.Background(), logg, "config", err)

	return cfg, logger.New(logger.Options{
		ServiceName: service,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
}

func RequireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

// NewReportCache picks the in-process store when the memory flag is set and
// redis otherwise.
func NewReportCache(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, m *metrics.ReportMetrics) (*reportcache.Cache, error) {
	var store reportcache.Store = reportcache.NewMemoryStore()
	if !cfg.FeatureFlags.MemoryCache {
		redisStore, err := reportcache.NewRedisStore(redisClient)
		if err != nil {
			return nil, err
		}
		store = redisStore
	}
	return reportcache.New(reportcache.Params{
		Store:   store,
		Logger:  logg,
		Metrics: m,
		TTL:     cfg.Reports.CacheTTL,
	})
}

type Domain struct {
	SellersRepo sellers.Repository
	SalesRepo   sales.Repository
	Sellers     sellers.Service
	Sales       sales.Service
}

func NewDomain(dbClient *db.Client, cache *reportcache.Cache, logg *logger.Logger) (*Domain, error) {
	sellersRepo := sellers.NewRepository(dbClient.DB())
	salesRepo := sales.NewRepository(dbClient.DB())

	sellerService, err := sellers.NewService(sellers.ServiceParams{
		Repo:   sellersRepo,
		Cache:  cache,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	saleService, err := sales.NewService(sales.ServiceParams{
		Repo:    salesRepo,
		Sellers: sellerService,
		Cache:   cache,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}
	return &Domain{
		SellersRepo: sellersRepo,
		SalesRepo:   salesRepo,
		Sellers:     sellerService,
		Sales:       saleService,
	}, nil
}

// NewDispatcher wires the report dispatcher over the domain repositories.
func NewDispatcher(cfg *config.Config, logg *logger.Logger, domain *Domain, cache *reportcache.Cache, queue reports.Queue, m *metrics.ReportMetrics) (*reports.Dispatcher, error) {
	return reports.NewDispatcher(reports.DispatcherParams{
		Sales:          domain.SalesRepo,
		Sellers:        domain.SellersRepo,
		Cache:          cache,
		Queue:          queue,
		Logger:         logg,
		Metrics:        m,
		AdminEmail:     cfg.Reports.AdminEmail,
		QueryTimeout:   cfg.Reports.QueryTimeout,
		EnqueueTimeout: cfg.Reports.EnqueueTimeout,
	})
}

var _ reports.Queue = (*delivery.PubSubQueue)(nil)
