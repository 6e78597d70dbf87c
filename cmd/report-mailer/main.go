package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsergyo/sales-commissions/cmd/internal/bootstrap"
	"github.com/devsergyo/sales-commissions/internal/delivery"
	"github.com/devsergyo/sales-commissions/pkg/idempotency"
	"github.com/devsergyo/sales-commissions/pkg/mailer"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/pubsub"
	"github.com/devsergyo/sales-commissions/pkg/redis"
)

func main() {
	cfg, logg := bootstrap.LoadConfig(delivery.ConsumerName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	smtp, err := mailer.New(mailer.ConfigFromEnv(cfg.Mail))
	bootstrap.RequireResource(ctx, logg, "smtp mailer", err)

	renderer, err := delivery.NewRenderer()
	bootstrap.RequireResource(ctx, logg, "email templates", err)

	manager, err := idempotency.NewManager(redisClient, cfg.Delivery.IdempotencyTTL)
	bootstrap.RequireResource(ctx, logg, "idempotency manager", err)

	consumer, err := delivery.NewConsumer(delivery.ConsumerParams{
		Subscription: pubsubClient.ReportEmailSubscription(),
		Idempotency:  manager,
		Attempts:     redisClient,
		Sender:       smtp,
		Renderer:     renderer,
		Logger:       logg,
		Metrics:      metrics.NewMailerMetrics(prometheus.DefaultRegisterer),
		MaxAttempts:  cfg.Delivery.MaxAttempts,
		RetryBackoff: cfg.Delivery.RetryBackoff,
		SendTimeout:  cfg.Delivery.SendTimeout,
		AttemptTTL:   cfg.Delivery.IdempotencyTTL,
	})
	bootstrap.RequireResource(ctx, logg, "report consumer", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"subscription": cfg.PubSub.ReportEmailSubscription,
		"smtp":         cfg.Mail.Address(),
	})
	logg.Info(ctx, "starting report mailer")
	bootstrap.ServeMetrics(ctx, cfg.App.MetricsAddr, logg)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "report mailer stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "report mailer shutting down gracefully")
}
