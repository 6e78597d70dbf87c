package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsergyo/sales-commissions/cmd/internal/bootstrap"
	"github.com/devsergyo/sales-commissions/internal/delivery"
	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/pubsub"
	"github.com/devsergyo/sales-commissions/pkg/redis"
)

const usage = `usage:
  reports daily [-date YYYY-MM-DD] [-seller ID]
  reports admin [-date YYYY-MM-DD]`

type request struct {
	command  string
	date     string
	sellerID *int64
}

func parseArgs(args []string) (request, error) {
	if len(args) == 0 {
		return request{}, fmt.Errorf("missing command")
	}

	req := request{command: args[0]}
	fs := flag.NewFlagSet(req.command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&req.date, "date", "", "report date (YYYY-MM-DD), defaults to today")

	switch req.command {
	case "daily":
		seller := fs.Int64("seller", 0, "send only this seller's report")
		if err := fs.Parse(args[1:]); err != nil {
			return request{}, err
		}
		if *seller < 0 {
			return request{}, fmt.Errorf("-seller must be positive")
		}
		if *seller > 0 {
			req.sellerID = seller
		}
	case "admin":
		if err := fs.Parse(args[1:]); err != nil {
			return request{}, err
		}
	default:
		return request{}, fmt.Errorf("unknown command %q", req.command)
	}
	return req, nil
}

func dispatch(ctx context.Context, svc reports.Service, req request) (*reports.Result, error) {
	if req.command == "admin" {
		return svc.ProcessAdminRequest(ctx, req.date)
	}
	return svc.ProcessReportRequest(ctx, req.date, req.sellerID)
}

// writeResult prints the result as indented JSON and returns the exit code.
func writeResult(w io.Writer, result *reports.Result) int {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
	if !result.Success {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so the deferred closes run before os.Exit.
func run(args []string) int {
	req, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		return 2
	}

	cfg, logg := bootstrap.LoadConfig("reports-cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := func(resource string, err error) bool {
		if err == nil {
			return false
		}
		logg.Error(ctx, "resource not working: "+resource, err)
		return true
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if failed("database", err) {
		return 1
	}
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if failed("redis", err) {
		return 1
	}
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if failed("pubsub", err) {
		return 1
	}
	defer pubsubClient.Close()

	reportMetrics := metrics.NewReportMetrics(prometheus.NewRegistry())

	cache, err := bootstrap.NewReportCache(cfg, logg, redisClient, reportMetrics)
	if failed("report cache", err) {
		return 1
	}

	domain, err := bootstrap.NewDomain(dbClient, cache, logg)
	if failed("domain services", err) {
		return 1
	}

	queue, err := delivery.NewPubSubQueue(pubsubClient.ReportEmailPublisher(), logg)
	if failed("delivery queue", err) {
		return 1
	}

	dispatcher, err := bootstrap.NewDispatcher(cfg, logg, domain, cache, queue, reportMetrics)
	if failed("report dispatcher", err) {
		return 1
	}

	svc, err := reports.NewService(reports.ServiceParams{
		Dispatcher:   dispatcher,
		Logger:       logg,
		CycleTimeout: cfg.Reports.CycleTimeout,
	})
	if failed("report service", err) {
		return 1
	}

	result, err := dispatch(ctx, svc, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	return writeResult(os.Stdout, result)
}
