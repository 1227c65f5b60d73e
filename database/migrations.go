// Package database provides the schema migrations of the shared record store
// and the tooling to apply them.
package database

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // registers sqlite://
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	postgresDir = "migrations/postgres"
	sqliteDir   = "migrations/sqlite"
)

// migrationsFromSource returns a migration source driver over one embedded directory.
func migrationsFromSource(dir string) (source.Driver, error) {
	d, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations from %s: %w", dir, err)
	}
	return d, nil
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// NewPostgresMigrator returns a migrator for the Postgres database at connString.
// Both postgres:// and postgresql:// URLs are accepted.
func NewPostgresMigrator(connString string) (Migrator, error) {
	d, err := migrationsFromSource(postgresDir)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", d, pgxURL(connString))
}

// NewSQLiteMigrator returns a migrator for the SQLite database file at path.
func NewSQLiteMigrator(path string) (Migrator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	d, err := migrationsFromSource(sqliteDir)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", d, "sqlite://"+filepath.ToSlash(filepath.Clean(path)))
}

// MigrateUp applies every pending migration. An up-to-date database is not an error.
func MigrateUp(m Migrator) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the given number of migrations. A database with
// nothing to roll back is not an error.
func MigrateDown(m Migrator, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("number of steps must be positive, got %d", steps)
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// CloseMigrator closes both ends of a migrator and joins their errors.
func CloseMigrator(m Migrator) error {
	srcErr, dbErr := m.Close()
	return errors.Join(srcErr, dbErr)
}

func pgxURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(connString, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return connString
}
