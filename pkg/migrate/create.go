package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nonIdentRe = regexp.MustCompile(`[^a-z0-9_]+`)

// now is swapped in tests to pin the generated version.
var now = func() time.Time { return time.Now().UTC() }

// SanitizeName lowercases name and folds anything outside [a-z0-9_] into
// single underscores.
func SanitizeName(name string) (string, error) {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nonIdentRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	return safe, nil
}

// CreateSQLMigration writes <dir>/<version>_<name>.sql with goose markers.
// Names of the form create_<table> get a CREATE/DROP TABLE skeleton.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	safe, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now().Format(versionLayout), safe))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", path)
		}
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(migrationBody(safe)); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func migrationBody(name string) string {
	up, down := "-- "+name, "-- rollback "+name
	if table, ok := strings.CutPrefix(name, "create_"); ok && table != "" {
		up = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    id BIGSERIAL PRIMARY KEY,\n    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),\n    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),\n    deleted_at TIMESTAMPTZ\n);", table)
		down = fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
	}

	var b strings.Builder
	b.WriteString("-- +goose Up\n-- +goose StatementBegin\n")
	b.WriteString(up)
	b.WriteString("\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n")
	b.WriteString(down)
	b.WriteString("\n-- +goose StatementEnd\n")
	return b.String()
}
