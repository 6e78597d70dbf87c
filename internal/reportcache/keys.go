package reportcache

import (
	"fmt"

	"github.com/devsergyo/sales-commissions/pkg/types"
)

const keyRoot = "reports"

// RosterKey caches the full seller listing. Only seller mutations invalidate it.
func RosterKey() string {
	return keyRoot + ":sellers:all"
}

// SalesByDateKey caches every sale on date.
func SalesByDateKey(date types.Date) string {
	return fmt.Sprintf("%s:sales:date:%s", keyRoot, date.String())
}

// SellerSalesByDateKey caches one seller's sales on date.
func SellerSalesByDateKey(sellerID int64, date types.Date) string {
	return fmt.Sprintf("%s:sales:seller:%d:date:%s", keyRoot, sellerID, date.String())
}

// SellerSalesPrefix matches every date-scoped entry for a seller.
func SellerSalesPrefix(sellerID int64) string {
	return fmt.Sprintf("%s:sales:seller:%d:", keyRoot, sellerID)
}

// SaleWriteKeys lists the entries a new sale for sellerID on date makes stale.
func SaleWriteKeys(sellerID int64, date types.Date) []string {
	return []string{SellerSalesByDateKey(sellerID, date), SalesByDateKey(date)}
}
