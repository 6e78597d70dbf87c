package reports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devsergyo/sales-commissions/internal/reportcache"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

const (
	defaultQueryTimeout   = 10 * time.Second
	defaultEnqueueTimeout = 10 * time.Second

	scopeAll    = "all"
	scopeSeller = "seller"
	scopeAdmin  = "admin"
)

var (
	errSellerNotFound = errors.New("Vendedor não encontrado.")
	errNoAdminEmail   = errors.New("Usuário administrador não encontrado.")
)

// SaleStore is the read side of the sales table used by a cycle.
type SaleStore interface {
	ListByDate(ctx context.Context, date types.Date) ([]models.Sale, error)
	ListBySellerAndDate(ctx context.Context, sellerID int64, date types.Date) ([]models.Sale, error)
}

// SellerDirectory is the read side of the sellers table used by a cycle.
type SellerDirectory interface {
	List(ctx context.Context) ([]models.Seller, error)
	FindByID(ctx context.Context, id int64) (*models.Seller, error)
}

// SellerOutcome is the result of one single-seller delivery attempt.
type SellerOutcome struct {
	SellerID   int64   `json:"seller_id"`
	SellerName string  `json:"seller_name,omitempty"`
	Date       string  `json:"date"`
	HasSales   bool    `json:"has_sales"`
	Success    bool    `json:"success"`
	Error      *string `json:"error"`
	TaskID     string  `json:"task_id,omitempty"`
	NotFound   bool    `json:"-"`
}

// AdminOutcome is the result of the admin summary delivery.
type AdminOutcome struct {
	Date             string          `json:"date"`
	Success          bool            `json:"success"`
	Error            *string         `json:"error"`
	TotalSales       int             `json:"total_sales"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	TotalSellers     int             `json:"total_sellers"`
	SellersWithSales int             `json:"sellers_with_sales"`
	TaskID           string          `json:"task_id,omitempty"`
}

func (o AdminOutcome) MarshalJSON() ([]byte, error) {
	type plain AdminOutcome
	return json.Marshal(struct {
		plain
		TotalAmount     types.Money `json:"total_amount"`
		TotalCommission types.Money `json:"total_commission"`
	}{plain(o), types.Money(o.TotalAmount), types.Money(o.TotalCommission)})
}

// DeliveryError records a seller whose report could not be enqueued.
type DeliveryError struct {
	SellerID int64  `json:"seller_id"`
	Email    string `json:"email"`
	Error    string `json:"error"`
}

// CycleResult summarizes an all-sellers cycle. Errors follow roster order.
type CycleResult struct {
	Date                types.Date      `json:"date"`
	TotalSellers        int             `json:"total_sellers"`
	ReportsSent         int             `json:"reports_sent"`
	SellersWithoutSales int             `json:"sellers_without_sales"`
	Errors              []DeliveryError `json:"errors"`
	Admin               AdminOutcome    `json:"admin"`
	Interrupted         bool            `json:"interrupted,omitempty"`
}

type DispatcherParams struct {
	Sales          SaleStore
	Sellers        SellerDirectory
	Cache          *reportcache.Cache
	Queue          Queue
	Logger         *logger.Logger
	Metrics        *metrics.ReportMetrics
	AdminEmail     string
	QueryTimeout   time.Duration
	EnqueueTimeout time.Duration
}

// Dispatcher runs report cycles. A cycle reads one snapshot of the roster and the
// day's sales and reuses it for every seller and for the admin summary.
type Dispatcher struct {
	sales          SaleStore
	sellers        SellerDirectory
	cache          *reportcache.Cache
	queue          Queue
	logg           *logger.Logger
	metrics        *metrics.ReportMetrics
	adminEmail     string
	queryTimeout   time.Duration
	enqueueTimeout time.Duration
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Sales == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sale store required")
	}
	if params.Sellers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "seller directory required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "report cache required")
	}
	if params.Queue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery queue required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	queryTimeout := params.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	enqueueTimeout := params.EnqueueTimeout
	if enqueueTimeout <= 0 {
		enqueueTimeout = defaultEnqueueTimeout
	}
	return &Dispatcher{
		sales:          params.Sales,
		sellers:        params.Sellers,
		cache:          params.Cache,
		queue:          params.Queue,
		logg:           params.Logger,
		metrics:        params.Metrics,
		adminEmail:     params.AdminEmail,
		queryTimeout:   queryTimeout,
		enqueueTimeout: enqueueTimeout,
	}, nil
}

// SendDailyReports enqueues one report per seller with sales on date, then the admin summary.
// Per-seller enqueue failures land in the result; an error is returned only when the
// roster or the day's sales cannot be read.
func (d *Dispatcher) SendDailyReports(ctx context.Context, date types.Date) (*CycleResult, error) {
	started := time.Now()
	defer func() { d.metrics.ObserveCycle(scopeAll, time.Since(started)) }()
	ctx = d.logg.WithReportDate(ctx, date.String())

	roster, err := d.roster(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := d.salesOn(ctx, date)
	if err != nil {
		return nil, err
	}

	result := &CycleResult{
		Date:         date,
		TotalSellers: len(roster),
		Errors:       []DeliveryError{},
	}
	bySeller := SalesBySeller(sales)

	for _, seller := range roster {
		sellerSales := bySeller[seller.ID]
		if len(sellerSales) == 0 {
			result.SellersWithoutSales++
			d.metrics.IncDelivery(string(KindSellerDaily), metrics.OutcomeNoSales)
			continue
		}

		report := newSellerReport(seller, date, sellerSales)
		if _, err := d.deliver(ctx, seller.Email, Payload{Kind: KindSellerDaily, Seller: &report}); err != nil {
			logCtx := d.logg.WithSellerID(ctx, seller.ID)
			logCtx = d.logg.WithField(logCtx, "email", seller.Email)
			d.logg.Error(logCtx, "reports.seller_enqueue_failed", err)
			result.Errors = append(result.Errors, DeliveryError{
				SellerID: seller.ID,
				Email:    seller.Email,
				Error:    err.Error(),
			})
			continue
		}
		result.ReportsSent++
	}

	result.Admin = d.sendAdmin(ctx, date, sales, roster)
	result.Interrupted = ctx.Err() != nil

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"total_sellers":         result.TotalSellers,
		"reports_sent":          result.ReportsSent,
		"sellers_without_sales": result.SellersWithoutSales,
		"errors":                len(result.Errors),
		"admin_success":         result.Admin.Success,
	})
	d.logg.Info(logCtx, "reports.cycle_completed")
	return result, nil
}

// SendReportToSeller enqueues the report of a single seller. A missing seller or a day
// without sales is an outcome, not an error.
func (d *Dispatcher) SendReportToSeller(ctx context.Context, sellerID int64, date types.Date) (*SellerOutcome, error) {
	started := time.Now()
	defer func() { d.metrics.ObserveCycle(scopeSeller, time.Since(started)) }()
	ctx = d.logg.WithSellerID(ctx, sellerID)
	ctx = d.logg.WithReportDate(ctx, date.String())

	outcome := &SellerOutcome{SellerID: sellerID, Date: date.Display()}

	seller, err := d.findSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		outcome.NotFound = true
		outcome.Error = errorText(errSellerNotFound)
		return outcome, nil
	}
	outcome.SellerName = seller.FullName()

	sales, err := d.sellerSalesOn(ctx, sellerID, date)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		d.metrics.IncDelivery(string(KindSellerDaily), metrics.OutcomeNoSales)
		return outcome, nil
	}
	outcome.HasSales = true

	report := newSellerReport(*seller, date, sales)
	handle, err := d.deliver(ctx, seller.Email, Payload{Kind: KindSellerDaily, Seller: &report})
	if err != nil {
		d.logg.Error(d.logg.WithField(ctx, "email", seller.Email), "reports.seller_enqueue_failed", err)
		outcome.Error = errorText(err)
		return outcome, nil
	}
	outcome.Success = true
	outcome.TaskID = handle.ID
	return outcome, nil
}

// SendReportToAdmin enqueues the admin summary for date on its own.
func (d *Dispatcher) SendReportToAdmin(ctx context.Context, date types.Date) (*AdminOutcome, error) {
	started := time.Now()
	defer func() { d.metrics.ObserveCycle(scopeAdmin, time.Since(started)) }()
	ctx = d.logg.WithReportDate(ctx, date.String())

	roster, err := d.roster(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := d.salesOn(ctx, date)
	if err != nil {
		return nil, err
	}
	outcome := d.sendAdmin(ctx, date, sales, roster)
	return &outcome, nil
}

func (d *Dispatcher) sendAdmin(ctx context.Context, date types.Date, sales []models.Sale, roster []models.Seller) AdminOutcome {
	report := newAdminReport(date, sales, roster)
	outcome := AdminOutcome{
		Date:             date.Display(),
		TotalSales:       report.Summary.TotalSales,
		TotalAmount:      report.Summary.TotalAmount,
		TotalCommission:  report.Summary.TotalCommission,
		TotalSellers:     report.TotalSellers,
		SellersWithSales: report.SellersWithSales,
	}

	if d.adminEmail == "" {
		d.logg.Error(ctx, "reports.admin_enqueue_failed", errNoAdminEmail)
		d.metrics.IncDelivery(string(KindAdminDaily), metrics.OutcomeFailed)
		outcome.Error = errorText(errNoAdminEmail)
		return outcome
	}

	handle, err := d.deliver(ctx, d.adminEmail, Payload{Kind: KindAdminDaily, Admin: &report})
	if err != nil {
		d.logg.Error(ctx, "reports.admin_enqueue_failed", err)
		outcome.Error = errorText(err)
		return outcome
	}
	outcome.Success = true
	outcome.TaskID = handle.ID
	return outcome
}

func (d *Dispatcher) deliver(ctx context.Context, recipient string, payload Payload) (TaskHandle, error) {
	kind := string(payload.Kind)
	if err := ctx.Err(); err != nil {
		d.metrics.IncDelivery(kind, metrics.OutcomeFailed)
		return TaskHandle{}, err
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, d.enqueueTimeout)
	defer cancel()

	handle, err := d.queue.Enqueue(enqueueCtx, recipient, payload)
	if err != nil {
		d.metrics.IncDelivery(kind, metrics.OutcomeFailed)
		return TaskHandle{}, err
	}
	d.metrics.IncDelivery(kind, metrics.OutcomeEnqueued)
	return handle, nil
}

func (d *Dispatcher) roster(ctx context.Context) ([]models.Seller, error) {
	roster, err := reportcache.Remember(ctx, d.cache, reportcache.RosterKey(), d.cache.TTL(), func(ctx context.Context) ([]models.Seller, error) {
		queryCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
		return d.sellers.List(queryCtx)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendedores")
	}
	return roster, nil
}

func (d *Dispatcher) salesOn(ctx context.Context, date types.Date) ([]models.Sale, error) {
	sales, err := reportcache.Remember(ctx, d.cache, reportcache.SalesByDateKey(date), d.cache.TTL(), func(ctx context.Context) ([]models.Sale, error) {
		queryCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
		return d.sales.ListByDate(queryCtx, date)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendas do dia")
	}
	return sales, nil
}

func (d *Dispatcher) sellerSalesOn(ctx context.Context, sellerID int64, date types.Date) ([]models.Sale, error) {
	key := reportcache.SellerSalesByDateKey(sellerID, date)
	sales, err := reportcache.Remember(ctx, d.cache, key, d.cache.TTL(), func(ctx context.Context) ([]models.Sale, error) {
		queryCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
		return d.sales.ListBySellerAndDate(queryCtx, sellerID, date)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendas do vendedor")
	}
	return sales, nil
}

func (d *Dispatcher) findSeller(ctx context.Context, id int64) (*models.Seller, error) {
	queryCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
	defer cancel()
	seller, err := d.sellers.FindByID(queryCtx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buscar vendedor")
	}
	return seller, nil
}

func errorText(err error) *string {
	msg := err.Error()
	return &msg
}
