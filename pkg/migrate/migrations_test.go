package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsergyo/sales-commissions/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestSellersMigrationEnforcesUniqueEmail(t *testing.T) {
	content := readMigration(t, "create_sellers")

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS sellers",
		"CREATE UNIQUE INDEX IF NOT EXISTS sellers_email_key ON sellers (email)",
		"deleted_at TIMESTAMPTZ",
		"DROP TABLE IF EXISTS sellers",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestSalesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_sales")

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS sales",
		"FOREIGN KEY (seller_id) REFERENCES sellers(id)",
		"amount NUMERIC(12,2) NOT NULL",
		"commission NUMERIC(12,2) NOT NULL",
		"sale_date DATE NOT NULL",
		"CHECK (amount >= 0.01)",
		"idx_sales_sale_date",
		"DROP TABLE IF EXISTS sales",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, migrate.ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_only_up.sql"), []byte("-- +goose Up\n"), 0o644))
	err = migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "-- +goose Down"))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Seller Phone!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_seller_phone.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20240101000100")
	require.NoError(t, err)
	assert.Equal(t, int64(20240101000100), v)

	_, err = migrate.ParseVersion("")
	require.Error(t, err)
	_, err = migrate.ParseVersion("2024")
	require.Error(t, err)
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	versions, err := migrate.EmbeddedVersions()
	require.NoError(t, err)

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.Len(t, versions, len(onDisk))
	assert.Equal(t, []int64{20240101000000, 20240101000100}, versions)
}
