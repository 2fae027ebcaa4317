// Package migration drives the versioned SQL schema for the marketplace
// (users, orders, commissions, settlement_transactions) through
// golang-migrate. AutoMigrate bootstraps dev databases; these migrations are
// the production path.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Runner applies the file-based migrations in a directory against postgres.
type Runner struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewRunner wraps an open postgres connection with a migration runner
// reading from dir.
func NewRunner(db *sql.DB, dir string, logger *zap.Logger) (*Runner, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Runner{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	err := r.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("Schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	r.logApplied("Migrations applied")
	return nil
}

// Down rolls back every applied migration.
func (r *Runner) Down() error {
	err := r.m.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("Nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	r.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations forward, or rolls back -n when negative.
func (r *Runner) Steps(n int) error {
	err := r.m.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("Schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	r.logApplied("Migration steps applied")
	return nil
}

// Version reports the current schema version. A zero version with nil error
// means no migration has been applied yet.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded schema version without running any SQL.
// Only for recovering a dirty state after a failed migration.
func (r *Runner) Force(version int) error {
	r.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := r.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles held by the runner.
func (r *Runner) Close() error {
	sourceErr, dbErr := r.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration database handle: %w", dbErr)
	}
	return nil
}

func (r *Runner) logApplied(msg string) {
	version, dirty, err := r.m.Version()
	if err != nil {
		r.logger.Warn("Migrations ran but version read failed", zap.Error(err))
		return
	}
	r.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}
