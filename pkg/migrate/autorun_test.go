package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/migrate"
)

func TestAutoMigrateModelsCreatesTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migrate.AutoMigrateModels(db.NewFromConn(conn)))
	require.True(t, conn.Migrator().HasTable("sellers"))
	require.True(t, conn.Migrator().HasTable("sales"))
	require.True(t, conn.Migrator().HasIndex("sellers", "sellers_email_key"))

	require.Error(t, migrate.AutoMigrateModels(nil))
}
