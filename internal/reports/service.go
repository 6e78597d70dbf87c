package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

const (
	MsgReportSent      = "Relatório enviado com sucesso."
	MsgNoSales         = "Nenhuma venda encontrada para este vendedor na data especificada."
	MsgSellerNotFound  = "Vendedor não encontrado"
	MsgReportFailed    = "Erro ao enviar relatório"
	MsgReportsSent     = "Relatórios enviados com sucesso."
	MsgReportsFailed   = "Erro ao enviar relatórios"
	MsgAdminReportSent = "Relatório do administrador enviado com sucesso."
	MsgDateFormat      = "A data deve estar no formato AAAA-MM-DD."
	MsgDateFuture      = "A data não pode ser futura."
)

// Status discriminates the outcomes of a report request.
type Status string

const (
	StatusSent      Status = "sent"
	StatusNoSales   Status = "no_sales"
	StatusCompleted Status = "completed"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"
)

// Result is the caller-facing answer to a report request.
type Result struct {
	Success bool   `json:"success"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

type Service interface {
	// ProcessReportRequest runs a cycle for dateString (today when empty), scoped to
	// sellerID when set. Only a malformed or future date returns an error.
	ProcessReportRequest(ctx context.Context, dateString string, sellerID *int64) (*Result, error)
	ProcessAdminRequest(ctx context.Context, dateString string) (*Result, error)
}

type ServiceParams struct {
	Dispatcher   *Dispatcher
	Logger       *logger.Logger
	CycleTimeout time.Duration
	Now          func() time.Time
}

type service struct {
	dispatcher   *Dispatcher
	logg         *logger.Logger
	cycleTimeout time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "report dispatcher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		dispatcher:   params.Dispatcher,
		logg:         params.Logger,
		cycleTimeout: params.CycleTimeout,
		now:          now,
	}, nil
}

// ResolveDate parses a YYYY-MM-DD report date, defaulting to today's server-local date.
func ResolveDate(value string, now time.Time) (types.Date, error) {
	today := types.DateOf(now)
	value = strings.TrimSpace(value)
	if value == "" {
		return today, nil
	}
	date, err := types.ParseDate(value)
	if err != nil {
		return types.Date{}, dateError(MsgDateFormat)
	}
	if date.After(today) {
		return types.Date{}, dateError(MsgDateFuture)
	}
	return date, nil
}

func (s *service) ProcessReportRequest(ctx context.Context, dateString string, sellerID *int64) (*Result, error) {
	date, err := ResolveDate(dateString, s.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withCycleTimeout(ctx)
	defer cancel()

	if sellerID != nil {
		return s.processSeller(ctx, *sellerID, date), nil
	}

	cycle, err := s.dispatcher.SendDailyReports(ctx, date)
	if err != nil {
		s.logg.Error(s.logg.WithReportDate(ctx, date.String()), "reports.cycle_failed", err)
		return &Result{Success: false, Status: StatusError, Message: MsgReportsFailed}, nil
	}
	return &Result{Success: true, Status: StatusCompleted, Message: MsgReportsSent, Data: cycle}, nil
}

func (s *service) processSeller(ctx context.Context, sellerID int64, date types.Date) *Result {
	outcome, err := s.dispatcher.SendReportToSeller(ctx, sellerID, date)
	if err != nil {
		logCtx := s.logg.WithSellerID(ctx, sellerID)
		s.logg.Error(s.logg.WithReportDate(logCtx, date.String()), "reports.seller_cycle_failed", err)
		return &Result{Success: false, Status: StatusError, Message: MsgReportsFailed}
	}

	switch {
	case outcome.NotFound:
		return &Result{
			Success: false,
			Status:  StatusNotFound,
			Message: MsgSellerNotFound,
			Error:   fmt.Sprintf("Vendedor com ID %d não existe.", sellerID),
		}
	case outcome.Success:
		return &Result{Success: true, Status: StatusSent, Message: MsgReportSent, Data: outcome}
	case !outcome.HasSales:
		return &Result{Success: true, Status: StatusNoSales, Message: MsgNoSales, Data: outcome}
	default:
		return &Result{Success: false, Status: StatusFailed, Message: MsgReportFailed, Error: outcome.Error}
	}
}

func (s *service) ProcessAdminRequest(ctx context.Context, dateString string) (*Result, error) {
	date, err := ResolveDate(dateString, s.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withCycleTimeout(ctx)
	defer cancel()

	outcome, err := s.dispatcher.SendReportToAdmin(ctx, date)
	if err != nil {
		s.logg.Error(s.logg.WithReportDate(ctx, date.String()), "reports.admin_cycle_failed", err)
		return &Result{Success: false, Status: StatusError, Message: MsgReportsFailed}, nil
	}
	if !outcome.Success {
		return &Result{Success: false, Status: StatusFailed, Message: MsgReportFailed, Error: outcome.Error}, nil
	}
	return &Result{Success: true, Status: StatusSent, Message: MsgAdminReportSent, Data: outcome}, nil
}

// withCycleTimeout detaches the cycle from the caller's cancellation (a
// dropped HTTP client must not cut the admin report) and bounds it by the
// configured budget only. Logger fields on ctx are kept.
func (s *service) withCycleTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.cycleTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cycleTimeout)
}

func dateError(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "Erro de validação").
		WithDetails(map[string][]string{"date": {msg}})
}
