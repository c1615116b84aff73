package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

var gooseSetup sync.Once

// Migrate runs a goose command against the embedded loan schema.
// Supported commands are up, down, status and version.
func Migrate(ctx context.Context, conn *sql.DB, command string) error {
	if conn == nil {
		return nil
	}
	var setupErr error
	gooseSetup.Do(func() {
		goose.SetBaseFS(migrationFiles)
		setupErr = goose.SetDialect("postgres")
	})
	if setupErr != nil {
		return setupErr
	}

	switch command {
	case "", "up":
		return goose.UpContext(ctx, conn, migrationsDir)
	case "down":
		return goose.DownContext(ctx, conn, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, conn, migrationsDir)
	case "version":
		return goose.VersionContext(ctx, conn, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

// RunMigrations brings the schema up to date. A nil database is a no-op.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	return Migrate(ctx, conn, "up")
}
