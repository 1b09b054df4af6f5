package postgres

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending migrations for the tables this service owns.
func RunMigrations(dsn string, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	logMigrationVersion(logger, m)
	return nil
}

type versioner interface {
	Version() (version uint, dirty bool, err error)
}

func logMigrationVersion(logger *slog.Logger, v versioner) {
	version, dirty, err := v.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations applied", "version", "none")
	case err != nil:
		logger.Warn("migrations applied; version unavailable", "err", err)
	default:
		logger.Info("migrations applied", "version", version, "dirty", dirty)
	}
}
