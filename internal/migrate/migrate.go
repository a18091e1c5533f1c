package migrate

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/example/court-scheduler/internal/db"
	"github.com/hashicorp/go-hclog"
)

//go:embed *.sql
var fs embed.FS

// Up applies every embedded migration not yet recorded in schema_migrations,
// in filename order. Safe to run at every boot; already-applied versions are
// skipped.
func Up(ctx context.Context, d *db.DB, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("migrations ledger: %w", err)
	}

	files, err := sqlFiles()
	if err != nil {
		return err
	}

	applied := 0
	for _, f := range files {
		var done bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&done); err != nil {
			return fmt.Errorf("check %s: %w", f, err)
		}
		if done {
			continue
		}

		src, err := fs.ReadFile(f)
		if err != nil {
			return err
		}
		if err := d.Exec(ctx, string(src)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			return fmt.Errorf("record %s: %w", f, err)
		}
		logger.Info("migration applied", "version", f)
		applied++
	}

	if applied > 0 {
		logger.Info("schema up to date", "applied", applied, "total", len(files))
	}
	return nil
}

// sqlFiles returns the embedded migration filenames sorted so numeric
// prefixes apply in order.
func sqlFiles() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
