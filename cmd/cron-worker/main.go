package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsergyo/sales-commissions/cmd/internal/bootstrap"
	"github.com/devsergyo/sales-commissions/internal/cron"
	"github.com/devsergyo/sales-commissions/internal/delivery"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/migrate"
	"github.com/devsergyo/sales-commissions/pkg/pubsub"
	"github.com/devsergyo/sales-commissions/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	cfg, logg := bootstrap.LoadConfig(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	bootstrap.RequireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	bootstrap.RequireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	bootstrap.RequireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	bootstrap.RequireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	reportMetrics := metrics.NewReportMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	cache, err := bootstrap.NewReportCache(cfg, logg, redisClient, reportMetrics)
	bootstrap.RequireResource(ctx, logg, "report cache", err)

	domain, err := bootstrap.NewDomain(dbClient, cache, logg)
	bootstrap.RequireResource(ctx, logg, "domain services", err)

	queue, err := delivery.NewPubSubQueue(pubsubClient.ReportEmailPublisher(), logg)
	bootstrap.RequireResource(ctx, logg, "delivery queue", err)

	dispatcher, err := bootstrap.NewDispatcher(cfg, logg, domain, cache, queue, reportMetrics)
	bootstrap.RequireResource(ctx, logg, "report dispatcher", err)

	dailyJob, err := cron.NewDailyReportJob(cron.DailyReportJobParams{
		Logger:  logg,
		Reports: dispatcher,
		Timeout: cfg.Reports.CycleTimeout,
	})
	bootstrap.RequireResource(ctx, logg, "daily report job", err)

	registry, err := cron.NewRegistry(dailyJob)
	bootstrap.RequireResource(ctx, logg, "cron registry", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName, lockScope(cfg.App.Env)), cfg.Reports.LockTTL)
	bootstrap.RequireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Reports.CronInterval,
		At:       cfg.Reports.CronAt,
	})
	bootstrap.RequireResource(ctx, logg, "cron service", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Reports.CronInterval.String(),
		"at":       cfg.Reports.CronAt.String(),
	})
	logg.Info(ctx, "cron.worker_starting")
	bootstrap.ServeMetrics(ctx, cfg.App.MetricsAddr, logg)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron.worker_failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron.worker_stopped")
}

func lockScope(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
