package sellers

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

	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

func setupSellersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	sellers := `
CREATE TABLE IF NOT EXISTS sellers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	emailIndex := `CREATE UNIQUE INDEX IF NOT EXISTS sellers_email_key ON sellers (email);`
	sales := `
CREATE TABLE IF NOT EXISTS sales (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  seller_id INTEGER NOT NULL,
  amount NUMERIC NOT NULL,
  commission NUMERIC NOT NULL,
  sale_date DATE NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	for _, stmt := range []string{sellers, emailIndex, sales} {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func seedSeller(t *testing.T, r Repository, first, last, email string) *models.Seller {
	t.Helper()
	seller := &models.Seller{FirstName: first, LastName: last, Email: email}
	require.NoError(t, r.Create(context.Background(), seller))
	require.NotZero(t, seller.ID)
	return seller
}

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupSellersTestDB(t))

	ana := seedSeller(t, r, "Ana", "Souza", "ana@vendas.com")

	found, err := r.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ana Souza", found.FullName())

	byEmail, err := r.FindByEmail(ctx, "ana@vendas.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, ana.ID, byEmail.ID)

	missing, err := r.FindByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = r.FindByEmail(ctx, "nobody@vendas.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryCreateDuplicateEmailViolatesUnique(t *testing.T) {
	r := NewRepository(setupSellersTestDB(t))
	seedSeller(t, r, "Ana", "Souza", "ana@vendas.com")

	err := r.Create(context.Background(), &models.Seller{FirstName: "Outra", LastName: "Ana", Email: "ana@vendas.com"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositorySoftDeleteHidesFromListing(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupSellersTestDB(t))

	ana := seedSeller(t, r, "Ana", "Souza", "ana@vendas.com")
	bruno := seedSeller(t, r, "Bruno", "Lima", "bruno@vendas.com")

	deleted, err := r.Delete(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = r.Delete(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bruno.ID, list[0].ID)

	gone, err := r.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	stillThere, err := r.FindByEmailIncludingDeleted(ctx, "ana@vendas.com")
	require.NoError(t, err)
	require.NotNil(t, stillThere)
	assert.Equal(t, ana.ID, stillThere.ID)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupSellersTestDB(t))
	ana := seedSeller(t, r, "Ana", "Souza", "ana@vendas.com")

	ana.LastName = "Pereira"
	ana.Email = "ana.pereira@vendas.com"
	require.NoError(t, r.Update(ctx, ana))

	found, err := r.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pereira", found.LastName)
	assert.Equal(t, "ana.pereira@vendas.com", found.Email)
}

func TestRepositoryListWithSalesInPeriod(t *testing.T) {
	ctx := context.Background()
	conn := setupSellersTestDB(t)
	r := NewRepository(conn)

	ana := seedSeller(t, r, "Ana", "Souza", "ana@vendas.com")
	bruno := seedSeller(t, r, "Bruno", "Lima", "bruno@vendas.com")
	seedSeller(t, r, "Carla", "Dias", "carla@vendas.com")

	for _, sale := range []models.Sale{
		{SellerID: ana.ID, Amount: decimal.RequireFromString("100.00"), Commission: decimal.RequireFromString("8.50"), SaleDate: types.NewDate(2024, time.January, 10)},
		{SellerID: ana.ID, Amount: decimal.RequireFromString("50.00"), Commission: decimal.RequireFromString("4.25"), SaleDate: types.NewDate(2024, time.January, 12)},
		{SellerID: bruno.ID, Amount: decimal.RequireFromString("20.00"), Commission: decimal.RequireFromString("1.70"), SaleDate: types.NewDate(2024, time.February, 1)},
	} {
		sale := sale
		require.NoError(t, conn.Create(&sale).Error)
	}

	sellers, err := r.ListWithSalesInPeriod(ctx, types.NewDate(2024, time.January, 1), types.NewDate(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, ana.ID, sellers[0].ID)

	sellers, err = r.ListWithSalesInPeriod(ctx, types.NewDate(2024, time.January, 1), types.NewDate(2024, time.February, 28))
	require.NoError(t, err)
	require.Len(t, sellers, 2)
}

func TestRepositoryWithTx(t *testing.T) {
	conn := setupSellersTestDB(t)
	r := NewRepository(conn)

	require.Same(t, r, r.WithTx(nil))

	err := db.NewFromConn(conn).WithTx(context.Background(), func(tx *gorm.DB) error {
		return r.WithTx(tx).Create(context.Background(), &models.Seller{FirstName: "Tx", LastName: "Seller", Email: "tx@vendas.com"})
	})
	require.NoError(t, err)

	found, err := r.FindByEmail(context.Background(), "tx@vendas.com")
	require.NoError(t, err)
	require.NotNil(t, found)
}
