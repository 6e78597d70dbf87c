package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID    int64
	Email string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&row{}))
	return conn
}

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)

	assert.Same(t, db, base.DB(nil))
}

func TestBaseTxRebinds(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	assert.Same(t, db, base.Tx(nil).DB(nil))

	tx := db.Begin()
	defer tx.Rollback()
	assert.Same(t, tx, base.Tx(tx).DB(nil))
}

func TestFindOne(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&row{Email: "ana@vendas.com"}).Error)

	got, err := FindOne[row](db, "email = ?", "ana@vendas.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ana@vendas.com", got.Email)

	missing, err := FindOne[row](db, "email = ?", "nobody@vendas.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = FindOne[row](db.Table("no_such_table"), "id = ?", 1)
	require.Error(t, err)
}
