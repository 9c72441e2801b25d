package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrNoMigrations is returned by Down when nothing has been applied.
var ErrNoMigrations = errors.New("no applied migrations")

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY
)`

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version int64
	Name    string
	Applied bool
}

// Migrator applies and rolls back Migrations, recording applied versions in
// schema_migrations.
type Migrator struct {
	db         *sql.DB
	dialect    Dialect
	migrations []Migration
	log        *zap.Logger
}

func NewMigrator(db *sql.DB, dialect Dialect, log *zap.Logger) *Migrator {
	return NewMigratorWith(db, dialect, log, Migrations)
}

// NewMigratorWith builds a Migrator over a custom migration list.
func NewMigratorWith(db *sql.DB, dialect Dialect, log *zap.Logger, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{db: db, dialect: dialect, migrations: sorted, log: log}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("error creating schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int64]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("error reading schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("error scanning schema_migrations: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Up applies every pending migration in version order and returns the versions
// it applied. Already applied migrations are skipped.
func (m *Migrator) Up(ctx context.Context) ([]int64, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []int64
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.run(ctx, mig, mig.Up(m.dialect),
			`INSERT INTO schema_migrations (version) VALUES ($1)`); err != nil {
			return done, err
		}
		m.log.Info("migration applied", zap.Int64("version", mig.Version), zap.String("name", mig.Name))
		done = append(done, mig.Version)
	}
	return done, nil
}

// Down rolls back the most recently applied migration and returns its version.
func (m *Migrator) Down(ctx context.Context) (int64, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if !applied[mig.Version] {
			continue
		}
		if err := m.run(ctx, mig, mig.Down(m.dialect),
			`DELETE FROM schema_migrations WHERE version = $1`); err != nil {
			return 0, err
		}
		m.log.Info("migration rolled back", zap.Int64("version", mig.Version), zap.String("name", mig.Name))
		return mig.Version, nil
	}
	return 0, ErrNoMigrations
}

// run executes the statements and the bookkeeping query in one transaction.
func (m *Migrator) run(ctx context.Context, mig Migration, stmts []string, record string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for migration %d: %w", mig.Version, err)
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, record, mig.Version); err != nil {
		tx.Rollback()
		return fmt.Errorf("error recording migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing migration %d: %w", mig.Version, err)
	}
	return nil
}

// Status lists every known migration with its applied flag.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		out = append(out, MigrationStatus{Version: mig.Version, Name: mig.Name, Applied: applied[mig.Version]})
	}
	return out, nil
}

// Version returns the highest applied version, or 0 for an empty schema.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	var version int64
	for _, s := range statuses {
		if s.Applied && s.Version > version {
			version = s.Version
		}
	}
	return version, nil
}

// InitSchema brings the database up to the latest schema version.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect, log *zap.Logger) error {
	if _, err := NewMigrator(db, dialect, log).Up(ctx); err != nil {
		return fmt.Errorf("error initializing database schema: %w", err)
	}
	return nil
}
