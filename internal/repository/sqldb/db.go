package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rrens/identity-api/internal/config"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// DB wraps a database/sql handle for the MySQL and SQLite backends
type DB struct {
	*sql.DB
	driver string
}

// Open opens and verifies a database/sql connection for the configured driver
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var driverName string
	switch cfg.Driver {
	case config.DriverMySQL:
		driverName = "mysql"
	case config.DriverSQLite:
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: cfg.Driver}, nil
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}
