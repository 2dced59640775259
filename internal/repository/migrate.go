package repository

import (
	"errors"
	"fmt"

	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

// ErrNoMigrations is returned for backends that manage their own schema
var ErrNoMigrations = errors.New("driver has no sql migrations")

// Migrator applies the embedded schema migrations for a SQL backend
type Migrator struct {
	m      *migrate.Migrate
	driver string
}

// NewMigrator prepares a migrator for the configured driver
func NewMigrator(cfg config.DatabaseConfig) (*Migrator, error) {
	databaseURL, err := migrationURL(cfg)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrations.FS, cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m, driver: cfg.Driver}, nil
}

// migrationURL builds the golang-migrate database URL for a driver
func migrationURL(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return cfg.DSN(), nil
	case config.DriverMySQL:
		return "mysql://" + cfg.DSN() + "&multiStatements=true", nil
	case config.DriverSQLite:
		return "sqlite://" + cfg.Path, nil
	case config.DriverMongo:
		return "", ErrNoMigrations
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Str("driver", m.driver).Msg("Database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	log.Info().Str("driver", m.driver).Msg("Database migration: success")
	return nil
}

// Down rolls back the given number of migrations
func (m *Migrator) Down(steps int) error {
	if err := m.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to run migrate down: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration source and database handles
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate applies pending migrations; it is a no-op for MongoDB, whose
// indexes are created on connect
func Migrate(cfg config.DatabaseConfig) error {
	m, err := NewMigrator(cfg)
	if errors.Is(err, ErrNoMigrations) {
		log.Info().Str("driver", cfg.Driver).Msg("Database migration: skipped")
		return nil
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Up()
}
