package sales

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS sellers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS sales (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  seller_id INTEGER NOT NULL REFERENCES sellers(id),
  amount NUMERIC NOT NULL,
  commission NUMERIC NOT NULL,
  sale_date DATE NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func seedSeller(t *testing.T, conn *gorm.DB, first, email string) models.Seller {
	t.Helper()
	seller := models.Seller{FirstName: first, LastName: "Teste", Email: email}
	require.NoError(t, conn.Create(&seller).Error)
	return seller
}

func seedSale(t *testing.T, r Repository, sellerID int64, amount string, date types.Date) models.Sale {
	t.Helper()
	a := decimal.RequireFromString(amount)
	sale := models.Sale{SellerID: sellerID, Amount: a, Commission: Commission(a), SaleDate: date}
	require.NoError(t, r.Create(context.Background(), &sale))
	require.NotZero(t, sale.ID)
	return sale
}

func TestRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	conn := setupSalesTestDB(t)
	r := NewRepository(conn)

	ana := seedSeller(t, conn, "Ana", "ana@vendas.com")
	bruno := seedSeller(t, conn, "Bruno", "bruno@vendas.com")

	jan14 := types.NewDate(2024, time.January, 14)
	jan15 := types.NewDate(2024, time.January, 15)
	jan20 := types.NewDate(2024, time.January, 20)

	seedSale(t, r, ana.ID, "100.00", jan15)
	seedSale(t, r, bruno.ID, "50.00", jan15)
	seedSale(t, r, ana.ID, "120.50", jan15)
	seedSale(t, r, ana.ID, "10.00", jan14)
	seedSale(t, r, ana.ID, "99.99", jan20)

	byDate, err := r.ListByDate(ctx, jan15)
	require.NoError(t, err)
	require.Len(t, byDate, 3)
	assert.Equal(t, ana.ID, byDate[0].SellerID)
	assert.Equal(t, bruno.ID, byDate[1].SellerID)
	assert.Equal(t, "2024-01-15", byDate[0].SaleDate.String())

	bySellerDate, err := r.ListBySellerAndDate(ctx, ana.ID, jan15)
	require.NoError(t, err)
	require.Len(t, bySellerDate, 2)
	assert.True(t, bySellerDate[1].Amount.Equal(decimal.RequireFromString("120.50")))
	assert.True(t, bySellerDate[1].Commission.Equal(decimal.RequireFromString("10.24")))

	period, err := r.ListBySellerAndPeriod(ctx, ana.ID, jan14, jan15)
	require.NoError(t, err)
	require.Len(t, period, 3)
	assert.Equal(t, "2024-01-14", period[0].SaleDate.String())

	bySeller, err := r.ListBySeller(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, bySeller, 4)
	assert.Equal(t, "2024-01-20", bySeller[0].SaleDate.String())

	empty, err := r.ListByDate(ctx, types.NewDate(2023, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryListPreloadsSeller(t *testing.T) {
	ctx := context.Background()
	conn := setupSalesTestDB(t)
	r := NewRepository(conn)

	ana := seedSeller(t, conn, "Ana", "ana@vendas.com")
	seedSale(t, r, ana.ID, "10.00", types.NewDate(2024, time.January, 15))

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Seller)
	assert.Equal(t, "ana@vendas.com", all[0].Seller.Email)
}

func TestRepositorySoftDeletedSalesAreExcluded(t *testing.T) {
	ctx := context.Background()
	conn := setupSalesTestDB(t)
	r := NewRepository(conn)

	ana := seedSeller(t, conn, "Ana", "ana@vendas.com")
	date := types.NewDate(2024, time.January, 15)
	sale := seedSale(t, r, ana.ID, "10.00", date)
	seedSale(t, r, ana.ID, "20.00", date)

	require.NoError(t, conn.Delete(&models.Sale{}, sale.ID).Error)

	rows, err := r.ListByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("20")))
}
