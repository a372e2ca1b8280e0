// Package migrations embeds the goose SQL migrations for every supported backend.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up applies all pending migrations for dialect ("postgres" or "sqlite")
// and returns how many were applied.
func Up(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	var gd goose.Dialect
	switch dialect {
	case "postgres":
		gd = goose.DialectPostgres
	case "sqlite":
		gd = goose.DialectSQLite3
	default:
		return 0, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	dir, err := fs.Sub(files, dialect)
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(gd, db, dir)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: up: %w", err)
	}
	return len(results), nil
}
