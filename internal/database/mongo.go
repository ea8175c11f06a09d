package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"ignist/internal/config"
	"ignist/internal/logging"
)

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo connects to the document database (Cosmos DB API for
// MongoDB or a plain MongoDB) and pings the primary.
func ConnectMongo(ctx context.Context, cfg config.Mongo, logger logging.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	logger.Info(ctx, "connecting to mongo", "database", cfg.Database)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info(ctx, "connected to mongo")
	return &Mongo{Client: client, Database: client.Database(cfg.Database)}, nil
}

// EnsureUserIndexes creates the unique email index on the users container.
// Registration relies on it to reject a concurrent duplicate.
func (m *Mongo) EnsureUserIndexes(ctx context.Context, usersContainer string) error {
	_, err := m.Database.Collection(usersContainer).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
