package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsergyo/sales-commissions/api/controllers"
	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/internal/sales"
	"github.com/devsergyo/sales-commissions/internal/sellers"
	"github.com/devsergyo/sales-commissions/pkg/config"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSellers struct{ sellers.Service }

func (stubSellers) List(context.Context) ([]models.Seller, error) {
	return []models.Seller{{ID: 1, FirstName: "Ana"}}, nil
}

type stubSales struct{ sales.Service }

func (stubSales) List(context.Context) ([]models.Sale, error) { return nil, nil }

type stubReports struct {
	sellerID *int64
}

func (s *stubReports) ProcessReportRequest(_ context.Context, _ string, sellerID *int64) (*reports.Result, error) {
	s.sellerID = sellerID
	return &reports.Result{Success: true, Status: reports.StatusSent, Message: reports.MsgReportSent}, nil
}

func (s *stubReports) ProcessAdminRequest(context.Context, string) (*reports.Result, error) {
	return &reports.Result{Success: true, Status: reports.StatusSent, Message: reports.MsgAdminReportSent}, nil
}

func newTestRouter(rep *stubReports) http.Handler {
	return NewRouter(RouterParams{
		Config:   &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:   logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Ready:    map[string]controllers.Pinger{"database": stubPinger{}},
		Sellers:  stubSellers{},
		Sales:    stubSales{},
		Reports:  rep,
		Gatherer: prometheus.NewRegistry(),
	})
}

func TestRouterServesDomainRoutes(t *testing.T) {
	router := newTestRouter(&stubReports{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/sellers", http.StatusOK},
		{http.MethodGet, "/api/v1/sales", http.StatusOK},
		{http.MethodPost, "/api/v1/reports/daily", http.StatusOK},
		{http.MethodPost, "/api/v1/reports/admin", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/daily", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouterPassesSellerIDToReports(t *testing.T) {
	rep := &stubReports{}
	router := newTestRouter(rep)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reports/daily/42?date=2024-01-15", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, rep.sellerID)
	assert.Equal(t, int64(42), *rep.sellerID)
}
