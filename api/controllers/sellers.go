package controllers

import (
	"net/http"

	"github.com/devsergyo/sales-commissions/api/responses"
	"github.com/devsergyo/sales-commissions/api/validators"
	"github.com/devsergyo/sales-commissions/internal/sales"
	"github.com/devsergyo/sales-commissions/internal/sellers"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

const (
	MsgSellersListed = "Vendedores listados com sucesso."
	MsgSellerCreated = "Vendedor cadastrado com sucesso."
	MsgSellerFound   = "Vendedor encontrado com sucesso."
	MsgSellerUpdated = "Vendedor atualizado com sucesso."
	MsgSellerDeleted = "Vendedor removido com sucesso."
	MsgSellerSales   = "Vendas do vendedor listadas com sucesso."

	sellerIDParam = "sellerId"
)

func SellerList(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSellersListed, list)
	}
}

func SellerCreate(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input sellers.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seller, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, MsgSellerCreated, seller)
	}
}

func SellerGet(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, sellerIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seller, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSellerFound, seller)
	}
}

func SellerUpdate(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, sellerIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input sellers.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seller, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSellerUpdated, seller)
	}
}

func SellerDelete(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, sellerIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSellerDeleted, nil)
	}
}

// SellerSales lists one seller's sales; unknown sellers are a 404.
func SellerSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, sellerIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBySeller(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, MsgSellerSales, list)
	}
}
