package reports

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

// TopSellersLimit is how many sellers the admin summary ranks.
const TopSellersLimit = 5

// Summary totals a set of sales.
type Summary struct {
	TotalSales      int             `json:"total_sales"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	HasSales        bool            `json:"has_sales"`
}

// SellerAggregate is one ranked row of the admin summary.
type SellerAggregate struct {
	SellerID        int64           `json:"id"`
	Name            string          `json:"name"`
	SalesCount      int             `json:"sales_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		TotalAmount     types.Money `json:"total_amount"`
		TotalCommission types.Money `json:"total_commission"`
	}{plain(s), types.Money(s.TotalAmount), types.Money(s.TotalCommission)})
}

func (a SellerAggregate) MarshalJSON() ([]byte, error) {
	type plain SellerAggregate
	return json.Marshal(struct {
		plain
		TotalAmount     types.Money `json:"total_amount"`
		TotalCommission types.Money `json:"total_commission"`
	}{plain(a), types.Money(a.TotalAmount), types.Money(a.TotalCommission)})
}

// SellerGroup holds the sales of a single seller.
type SellerGroup struct {
	SellerID int64
	Sales    []models.Sale
}

func Summarize(sales []models.Sale) Summary {
	summary := Summary{
		TotalSales:      len(sales),
		TotalAmount:     decimal.Zero,
		TotalCommission: decimal.Zero,
		HasSales:        len(sales) > 0,
	}
	for _, sale := range sales {
		summary.TotalAmount = summary.TotalAmount.Add(sale.Amount)
		summary.TotalCommission = summary.TotalCommission.Add(sale.Commission)
	}
	summary.TotalAmount = summary.TotalAmount.Round(2)
	summary.TotalCommission = summary.TotalCommission.Round(2)
	return summary
}

// GroupBySeller partitions sales by seller in order of first appearance.
func GroupBySeller(sales []models.Sale) []SellerGroup {
	index := make(map[int64]int)
	groups := make([]SellerGroup, 0)
	for _, sale := range sales {
		pos, ok := index[sale.SellerID]
		if !ok {
			pos = len(groups)
			index[sale.SellerID] = pos
			groups = append(groups, SellerGroup{SellerID: sale.SellerID})
		}
		groups[pos].Sales = append(groups[pos].Sales, sale)
	}
	return groups
}

// GroupByRoster orders groups by roster position. Sellers without sales are left out and
// groups for sellers missing from the roster trail in first-appearance order.
func GroupByRoster(roster []models.Seller, sales []models.Sale) []SellerGroup {
	bySeller := GroupBySeller(sales)
	lookup := make(map[int64]SellerGroup, len(bySeller))
	for _, group := range bySeller {
		lookup[group.SellerID] = group
	}

	ordered := make([]SellerGroup, 0, len(bySeller))
	seen := make(map[int64]struct{}, len(bySeller))
	for _, seller := range roster {
		if group, ok := lookup[seller.ID]; ok {
			if _, dup := seen[seller.ID]; dup {
				continue
			}
			ordered = append(ordered, group)
			seen[seller.ID] = struct{}{}
		}
	}
	for _, group := range bySeller {
		if _, ok := seen[group.SellerID]; !ok {
			ordered = append(ordered, group)
		}
	}
	return ordered
}

// SalesBySeller indexes sales by seller id.
func SalesBySeller(sales []models.Sale) map[int64][]models.Sale {
	out := make(map[int64][]models.Sale)
	for _, sale := range sales {
		out[sale.SellerID] = append(out[sale.SellerID], sale)
	}
	return out
}

// Directory indexes sellers by id.
func Directory(roster []models.Seller) map[int64]models.Seller {
	out := make(map[int64]models.Seller, len(roster))
	for _, seller := range roster {
		out[seller.ID] = seller
	}
	return out
}

// TopSellers ranks groups by total amount, descending. Equal totals keep group order.
// Groups whose seller is not in directory are skipped.
func TopSellers(groups []SellerGroup, directory map[int64]models.Seller, limit int) []SellerAggregate {
	ranked := make([]SellerAggregate, 0, len(groups))
	for _, group := range groups {
		seller, ok := directory[group.SellerID]
		if !ok {
			continue
		}
		summary := Summarize(group.Sales)
		ranked = append(ranked, SellerAggregate{
			SellerID:        group.SellerID,
			Name:            seller.FullName(),
			SalesCount:      summary.TotalSales,
			TotalAmount:     summary.TotalAmount,
			TotalCommission: summary.TotalCommission,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAmount.GreaterThan(ranked[j].TotalAmount)
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
