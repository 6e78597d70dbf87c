package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/devsergyo/sales-commissions/pkg/types"
)

func TestSellerFullName(t *testing.T) {
	require.Equal(t, "Ana Souza", Seller{FirstName: "Ana", LastName: "Souza"}.FullName())
	require.Equal(t, "Ana", Seller{FirstName: "Ana"}.FullName())
}

func TestSaleJSONUsesFixedDecimals(t *testing.T) {
	sale := Sale{
		ID:         3,
		SellerID:   1,
		Amount:     decimal.RequireFromString("300"),
		Commission: decimal.RequireFromString("25.5"),
		SaleDate:   types.NewDate(2024, 1, 15),
	}
	out, err := json.Marshal(sale)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	require.Equal(t, "300.00", fields["amount"])
	require.Equal(t, "25.50", fields["commission"])
	require.Equal(t, "2024-01-15", fields["sale_date"])
	require.NotContains(t, fields, "seller")

	var back Sale
	require.NoError(t, json.Unmarshal(out, &back))
	require.True(t, back.Amount.Equal(sale.Amount))
	require.Equal(t, sale.SaleDate, back.SaleDate)
}
