package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	versionRe = regexp.MustCompile(`^\d{14}$`)
)

const (
	markerUp    = "-- +goose Up"
	markerDown  = "-- +goose Down"
	markerBegin = "-- +goose StatementBegin"
	markerEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir for a goose-style name, a unique
// version and well formed markers. All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
			continue
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkMarkers(name, string(body)))
	}

	if len(versions) == 0 && errs == nil {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return errs
}

func checkMarkers(name, body string) error {
	up := strings.Index(body, markerUp)
	down := strings.Index(body, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, markerUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, markerDown)
	case down < up:
		return fmt.Errorf("migration %q has %q before %q", name, markerDown, markerUp)
	}

	depth := 0
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case markerBegin:
			depth++
			if depth > 1 {
				return fmt.Errorf("migration %q nests %q", name, markerBegin)
			}
		case markerEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("migration %q has %q without a begin", name, markerEnd)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("migration %q leaves a statement block open", name)
	}
	return nil
}
