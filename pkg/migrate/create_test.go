package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func pinNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestCreateSQLMigrationTableSkeleton(t *testing.T) {
	pinNow(t, time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "create_commission_rates")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240305103000_create_commission_rates.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS commission_rates (")
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS commission_rates;")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "create_commission_rates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSanitizeName(t *testing.T) {
	got, err := SanitizeName("  Add--Seller Phone ")
	require.NoError(t, err)
	assert.Equal(t, "add_seller_phone", got)

	_, err = SanitizeName("***")
	require.Error(t, err)
}

func TestValidateDirCollectsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("20240101000000_a.sql", "-- +goose Down\n-- +goose Up\n")
	write("20240101000001_b.sql", "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")
	write("20240101000002_c.sql", "-- +goose Up\n-- +goose StatementEnd\n-- +goose Down\n")
	write("notes.txt", "ignored")

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "before")
	assert.Contains(t, err.Error(), "open")
	assert.Contains(t, err.Error(), "without a begin")
}
