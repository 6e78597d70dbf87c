package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// embeddedDir is the directory name inside Embedded.
const embeddedDir = "migrations"

// Embedded carries the SQL migrations compiled into every binary, so the
// dev auto-run works regardless of the working directory.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// goose keeps its base filesystem in a package global.
var gooseFSMu sync.Mutex

// RunEmbedded runs a goose command against the compiled-in migrations.
func RunEmbedded(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return withBaseFS(Embedded, func() error {
		return Run(ctx, db, embeddedDir, command, args...)
	})
}

// EmbeddedVersions lists the versions compiled into the binary, oldest first.
func EmbeddedVersions() ([]int64, error) {
	entries, err := fs.ReadDir(Embedded, embeddedDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	var versions []int64
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := ParseVersion(m[1])
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func withBaseFS(fsys fs.FS, fn func() error) error {
	gooseFSMu.Lock()
	defer gooseFSMu.Unlock()
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	return fn()
}
