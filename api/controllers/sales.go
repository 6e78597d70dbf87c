package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/devsergyo/sales-commissions/api/responses"
	"github.com/devsergyo/sales-commissions/internal/sales"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

const (
	MsgSalesListed = "Vendas listadas com sucesso."
	MsgSaleCreated = "Venda cadastrada com sucesso."
)

func SaleList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSalesListed, list)
	}
}

// SaleCreate records a sale. Field rules live in the sales service so every
// broken field comes back in one response.
func SaleCreate(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer io.Copy(io.Discard, r.Body)

		var input sales.CreateInput
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Corpo da requisição inválido").
					WithDetails(map[string]any{"error": err.Error()}))
			return
		}

		sale, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, MsgSaleCreated, sale)
	}
}
