package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devsergyo/sales-commissions/api/controllers"
	"github.com/devsergyo/sales-commissions/api/middleware"
	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/internal/sales"
	"github.com/devsergyo/sales-commissions/internal/sellers"
	"github.com/devsergyo/sales-commissions/pkg/config"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	pkgredis "github.com/devsergyo/sales-commissions/pkg/redis"
)

type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Ready   map[string]controllers.Pinger
	Sellers sellers.Service
	Sales   sales.Service
	Reports reports.Service
	// Idempotency is optional; without it report triggers are never replayed.
	Idempotency pkgredis.IdempotencyStore
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, params.Ready))
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if params.Idempotency != nil {
			r.Use(middleware.Idempotency(params.Idempotency, logg, cfg.Reports.CycleTimeout))
		}

		r.Route("/sellers", func(r chi.Router) {
			r.Get("/", controllers.SellerList(params.Sellers, logg))
			r.Post("/", controllers.SellerCreate(params.Sellers, logg))
			r.Route("/{sellerId}", func(r chi.Router) {
				r.Get("/", controllers.SellerGet(params.Sellers, logg))
				r.Put("/", controllers.SellerUpdate(params.Sellers, logg))
				r.Delete("/", controllers.SellerDelete(params.Sellers, logg))
				r.Get("/sales", controllers.SellerSales(params.Sales, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(params.Sales, logg))
			r.Post("/", controllers.SaleCreate(params.Sales, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/daily", controllers.ReportDaily(params.Reports, logg))
			r.Post("/daily/{sellerId}", controllers.ReportDailySeller(params.Reports, logg))
			r.Post("/admin", controllers.ReportAdmin(params.Reports, logg))
		})
	})

	return r
}
