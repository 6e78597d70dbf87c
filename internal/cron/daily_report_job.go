package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

const DailyReportJobName = "daily-sales-report"

// ReportCycler runs the all-sellers cycle for a date.
type ReportCycler interface {
	SendDailyReports(ctx context.Context, date types.Date) (*reports.CycleResult, error)
}

type DailyReportJobParams struct {
	Logger  *logger.Logger
	Reports ReportCycler
	Timeout time.Duration
	Now     func() time.Time
}

type dailyReportJob struct {
	logg    *logger.Logger
	reports ReportCycler
	timeout time.Duration
	now     func() time.Time
}

// NewDailyReportJob sends the day's reports for the server-local date the job runs on.
func NewDailyReportJob(params DailyReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("report dispatcher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &dailyReportJob{
		logg:    params.Logger,
		reports: params.Reports,
		timeout: params.Timeout,
		now:     now,
	}, nil
}

func (j *dailyReportJob) Name() string { return DailyReportJobName }

// Run fails when any recipient could not be enqueued, combining every failure.
func (j *dailyReportJob) Run(ctx context.Context) error {
	date := types.DateOf(j.now())
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.reports.SendDailyReports(ctx, date)
	if err != nil {
		return fmt.Errorf("daily report %s: %w", date, err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"report_date":           date.String(),
		"total_sellers":         result.TotalSellers,
		"reports_sent":          result.ReportsSent,
		"sellers_without_sales": result.SellersWithoutSales,
	})
	j.logg.Info(logCtx, "cron.daily_report_done")

	var errs error
	for _, failed := range result.Errors {
		errs = multierr.Append(errs, fmt.Errorf("seller %d (%s): %s", failed.SellerID, failed.Email, failed.Error))
	}
	if !result.Admin.Success && result.Admin.Error != nil {
		errs = multierr.Append(errs, fmt.Errorf("admin report: %s", *result.Admin.Error))
	}
	return errs
}
