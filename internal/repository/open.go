// Package repository selects and opens the configured user storage backend.
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/Rrens/identity-api/internal/repository/mongo"
	"github.com/Rrens/identity-api/internal/repository/postgres"
	"github.com/Rrens/identity-api/internal/repository/sqldb"
)

type backend interface {
	Ping(ctx context.Context) error
	Close() error
}

// Database is an open user storage backend
type Database struct {
	Users  identity.UserRepository
	driver string
	conn   backend
}

// Open connects to the backend named by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Database{Users: postgres.NewUserRepository(db), driver: cfg.Driver, conn: db}, nil

	case config.DriverMySQL, config.DriverSQLite:
		db, err := sqldb.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Database{Users: sqldb.NewUserRepository(db), driver: cfg.Driver, conn: db}, nil

	case config.DriverMongo:
		db, err := mongo.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Database{Users: mongo.NewUserRepository(db), driver: cfg.Driver, conn: db}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the backend driver name
func (d *Database) Driver() string {
	return d.driver
}

// Ping verifies backend connectivity
func (d *Database) Ping(ctx context.Context) error {
	return d.conn.Ping(ctx)
}

// Close releases the backend connection
func (d *Database) Close() error {
	return d.conn.Close()
}
