package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func initGoose() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// MigrateUp applies all pending migrations.
func (db *DB) MigrateUp(ctx context.Context) error {
	if err := initGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	if err := initGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back db: %w", err)
	}
	return nil
}

// MigrationStatus logs the state of every migration.
func (db *DB) MigrationStatus(ctx context.Context) error {
	if err := initGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB.DB, migrationsDir)
}

// SchemaVersion returns the current migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	if err := initGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db.DB.DB)
}
