package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/identity-api/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	connectTimeout  = 10 * time.Second
)

// DB wraps a MongoDB client bound to one database
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to MongoDB and makes sure the user indexes exist
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.DSN()).
		SetConnectTimeout(connectTimeout)
	if cfg.MaxConns > 0 {
		clientOpts.SetMaxPoolSize(uint64(cfg.MaxConns))
		clientOpts.SetMinPoolSize(uint64(cfg.MinConns))
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	db := &DB{client: client, db: client.Database(cfg.Database)}
	if err := db.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return db, nil
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "normalized_user_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ux_users_normalized_user_name"),
		},
		{
			Keys:    bson.D{{Key: "normalized_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ux_users_normalized_email"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (db *DB) users() *mongo.Collection {
	return db.db.Collection(usersCollection)
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// Close disconnects the client
func (db *DB) Close() error {
	if db.client != nil {
		return db.client.Disconnect(context.Background())
	}
	return nil
}
