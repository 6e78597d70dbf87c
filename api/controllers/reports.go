package controllers

import (
	"net/http"

	"github.com/devsergyo/sales-commissions/api/responses"
	"github.com/devsergyo/sales-commissions/api/validators"
	"github.com/devsergyo/sales-commissions/internal/reports"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

const reportDateQuery = "date"

// ReportDaily triggers the all-sellers cycle for ?date= (today when absent).
func ReportDaily(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ProcessReportRequest(r.Context(), validators.QueryString(r, reportDateQuery), nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReportResult(w, result)
	}
}

// ReportDailySeller triggers a single seller's report.
func ReportDailySeller(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParsePathID(r, sellerIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ProcessReportRequest(r.Context(), validators.QueryString(r, reportDateQuery), &sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReportResult(w, result)
	}
}

func ReportAdmin(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ProcessAdminRequest(r.Context(), validators.QueryString(r, reportDateQuery))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReportResult(w, result)
	}
}

func writeReportResult(w http.ResponseWriter, result *reports.Result) {
	switch result.Status {
	case reports.StatusSent, reports.StatusNoSales, reports.StatusCompleted:
		responses.WriteMessage(w, http.StatusOK, result.Message, result.Data)
	case reports.StatusNotFound:
		responses.WriteFailure(w, http.StatusNotFound, pkgerrors.CodeNotFound, result.Message, result.Error)
	case reports.StatusFailed:
		responses.WriteFailure(w, http.StatusBadGateway, pkgerrors.CodeDelivery, result.Message, result.Error)
	default:
		responses.WriteFailure(w, http.StatusInternalServerError, pkgerrors.CodeInternal, result.Message, nil)
	}
}
