package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/devsergyo/sales-commissions/cmd/internal/bootstrap"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/migrate"
)

const serviceName = "migrate"

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

var errUsage = errors.New("usage")

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	fs.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary for up|down|status")
	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return options{}, fmt.Errorf("%w: -name is required for create", errUsage)
		}
	case "version":
		if opts.version == "" {
			return options{}, fmt.Errorf("%w: -version is required for version", errUsage)
		}
		if opts.embedded {
			return options{}, fmt.Errorf("%w: -embedded does not support version", errUsage)
		}
	case "up", "down", "status", "validate":
	default:
		return options{}, fmt.Errorf("%w: unknown -cmd %q", errUsage, opts.cmd)
	}
	return opts, nil
}

// needsDatabase reports whether the command talks to postgres.
func (o options) needsDatabase() bool {
	return o.cmd != "create" && o.cmd != "validate"
}

// runOffline handles the file-only commands.
func runOffline(opts options, stdout io.Writer) error {
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "created migration:", path)
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "migration validation passed")
	}
	return nil
}

func runDatabase(ctx context.Context, sqlDB *sql.DB, opts options) error {
	if opts.cmd == "version" {
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	}
	if opts.embedded {
		return migrate.RunEmbedded(ctx, sqlDB, opts.cmd)
	}
	return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, logg := bootstrap.LoadConfig(serviceName)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if !opts.needsDatabase() {
		if err := runOffline(opts, os.Stdout); err != nil {
			logg.Error(ctx, "migrate."+opts.cmd+".failed", err)
			os.Exit(1)
		}
		return
	}

	if cfg.DB.IsSQLite() {
		logg.Error(ctx, "migrate.unsupported_driver", migrate.ErrSQLiteUnsupported)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	bootstrap.RequireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	bootstrap.RequireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate.start")
	if err := runDatabase(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migrate."+opts.cmd+".failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}
