package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeEnqueued = "enqueued"
	OutcomeFailed   = "failed"
	OutcomeNoSales  = "no_sales"
	OutcomeSent     = "sent"
	OutcomeRetried  = "retried"
	OutcomeDropped  = "dropped"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// ReportMetrics tracks report cycles, per-recipient dispatch outcomes and aggregate cache efficiency.
type ReportMetrics struct {
	deliveries    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
}

func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	if reg == nil {
		return &ReportMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_report_deliveries_total",
		Help: "Report delivery submissions by kind and outcome.",
	}, []string{"kind", "outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_report_cache_lookups_total",
		Help: "Aggregate cache lookups by result.",
	}, []string{"result"})
	cycleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sales_report_cycle_duration_seconds",
		Help:    "Duration of report cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	reg.MustRegister(deliveries, cacheLookups, cycleDuration)
	return &ReportMetrics{
		deliveries:    deliveries,
		cacheLookups:  cacheLookups,
		cycleDuration: cycleDuration,
	}
}

func (m *ReportMetrics) IncDelivery(kind, outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (m *ReportMetrics) IncCacheLookup(result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *ReportMetrics) ObserveCycle(scope string, duration time.Duration) {
	if m == nil || m.cycleDuration == nil {
		return
	}
	m.cycleDuration.WithLabelValues(normalizeLabel(scope)).Observe(duration.Seconds())
}

// MailerMetrics tracks email sends performed by the delivery worker.
type MailerMetrics struct {
	sends *prometheus.CounterVec
}

func NewMailerMetrics(reg prometheus.Registerer) *MailerMetrics {
	if reg == nil {
		return &MailerMetrics{}
	}
	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_email_sends_total",
		Help: "Report emails processed by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(sends)
	return &MailerMetrics{sends: sends}
}

func (m *MailerMetrics) IncSend(kind, outcome string) {
	if m == nil || m.sends == nil {
		return
	}
	m.sends.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}
