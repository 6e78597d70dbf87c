package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestReportMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReportMetrics(reg)

	m.IncDelivery("seller_daily", OutcomeEnqueued)
	m.IncDelivery("seller_daily", OutcomeEnqueued)
	m.IncDelivery("admin_daily", OutcomeFailed)
	m.IncCacheLookup(CacheHit)
	m.IncCacheLookup(CacheMiss)
	m.IncCacheLookup(CacheMiss)
	m.ObserveCycle("all", 120*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "sales_report_deliveries_total", "outcome", OutcomeEnqueued)
	require.NoError(t, err)
	require.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "sales_report_deliveries_total", "kind", "admin_daily")
	require.NoError(t, err)
	require.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "sales_report_cache_lookups_total", "result", CacheMiss)
	require.NoError(t, err)
	require.Equal(t, 2.0, got)

	sum, err := fetchHistogramSum(mfs, "sales_report_cycle_duration_seconds", "scope", "all")
	require.NoError(t, err)
	require.Greater(t, sum, 0.0)
}

func TestMailerMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMailerMetrics(reg)
	m.IncSend("seller_daily", OutcomeSent)
	m.IncSend("", OutcomeDropped)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "sales_email_sends_total", "kind", "unknown")
	require.NoError(t, err)
	require.Equal(t, 1.0, got)
}

func TestReportMetricsNilSafe(t *testing.T) {
	var m *ReportMetrics
	m.IncDelivery("seller_daily", OutcomeEnqueued)
	m.IncCacheLookup(CacheHit)
	m.ObserveCycle("all", time.Second)

	var mm *MailerMetrics
	mm.IncSend("seller_daily", OutcomeSent)
}
