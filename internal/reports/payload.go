package reports

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

type Kind string

const (
	KindSellerDaily Kind = "seller_daily"
	KindAdminDaily  Kind = "admin_daily"
)

func (k Kind) Valid() bool {
	return k == KindSellerDaily || k == KindAdminDaily
}

type SaleLine struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	SaleDate   types.Date      `json:"sale_date"`
}

func (l SaleLine) MarshalJSON() ([]byte, error) {
	type plain SaleLine
	return json.Marshal(struct {
		plain
		Amount     types.Money `json:"amount"`
		Commission types.Money `json:"commission"`
	}{plain(l), types.Money(l.Amount), types.Money(l.Commission)})
}

// SellerReport is what a seller receives for one day.
type SellerReport struct {
	SellerID   int64      `json:"seller_id"`
	SellerName string     `json:"seller_name"`
	Date       types.Date `json:"date"`
	Summary    Summary    `json:"summary"`
	Sales      []SaleLine `json:"sales"`
}

// AdminReport is the global summary for one day.
type AdminReport struct {
	Date             types.Date        `json:"date"`
	Summary          Summary           `json:"summary"`
	TotalSellers     int               `json:"total_sellers"`
	SellersWithSales int               `json:"sellers_with_sales"`
	TopSellers       []SellerAggregate `json:"top_sellers"`
}

// Payload carries exactly one of Seller or Admin, matching Kind.
type Payload struct {
	Kind   Kind          `json:"kind"`
	Seller *SellerReport `json:"seller,omitempty"`
	Admin  *AdminReport  `json:"admin,omitempty"`
}

// TaskHandle identifies an accepted delivery task.
type TaskHandle struct {
	ID string `json:"task_id"`
}

// Queue accepts report deliveries. Enqueue returning nil means the task was accepted;
// sending and retries happen elsewhere.
type Queue interface {
	Enqueue(ctx context.Context, recipient string, payload Payload) (TaskHandle, error)
}

func newSellerReport(seller models.Seller, date types.Date, sales []models.Sale) SellerReport {
	lines := make([]SaleLine, 0, len(sales))
	for _, sale := range sales {
		lines = append(lines, SaleLine{
			ID:         sale.ID,
			Amount:     sale.Amount,
			Commission: sale.Commission,
			SaleDate:   sale.SaleDate,
		})
	}
	return SellerReport{
		SellerID:   seller.ID,
		SellerName: seller.FullName(),
		Date:       date,
		Summary:    Summarize(sales),
		Sales:      lines,
	}
}

func newAdminReport(date types.Date, sales []models.Sale, roster []models.Seller) AdminReport {
	groups := GroupByRoster(roster, sales)
	return AdminReport{
		Date:             date,
		Summary:          Summarize(sales),
		TotalSellers:     len(roster),
		SellersWithSales: len(groups),
		TopSellers:       TopSellers(groups, Directory(roster), TopSellersLimit),
	}
}
