package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsergyo/sales-commissions/api/controllers"
	"github.com/devsergyo/sales-commissions/api/routes"
	"github.com/devsergyo/sales-commissions/cmd/internal/bootstrap"
	"github.com/devsergyo/sales-commissions/internal/delivery"
	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/env"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/migrate"
	"github.com/devsergyo/sales-commissions/pkg/pubsub"
	"github.com/devsergyo/sales-commissions/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, logg := bootstrap.LoadConfig("api")

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

	cache, err := bootstrap.NewReportCache(cfg, logg, redisClient, reportMetrics)
	bootstrap.RequireResource(ctx, logg, "report cache", err)

	domain, err := bootstrap.NewDomain(dbClient, cache, logg)
	bootstrap.RequireResource(ctx, logg, "domain services", err)

	queue, err := delivery.NewPubSubQueue(pubsubClient.ReportEmailPublisher(), logg)
	bootstrap.RequireResource(ctx, logg, "delivery queue", err)

	dispatcher, err := bootstrap.NewDispatcher(cfg, logg, domain, cache, queue, reportMetrics)
	bootstrap.RequireResource(ctx, logg, "report dispatcher", err)

	reportService, err := reports.NewService(reports.ServiceParams{
		Dispatcher:   dispatcher,
		Logger:       logg,
		CycleTimeout: cfg.Reports.CycleTimeout,
	})
	bootstrap.RequireResource(ctx, logg, "report service", err)

	handler := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		Ready: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   pubsubClient,
		},
		Sellers:     domain.Sellers,
		Sales:       domain.Sales,
		Reports:     reportService,
		Idempotency: redisClient,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}
