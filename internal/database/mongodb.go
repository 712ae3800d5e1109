package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"shelterstore/internal/config"
	"shelterstore/internal/models"
)

// MongoDB wraps the MongoDB client and the animals collection.
type MongoDB struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
	log        *logrus.Logger
}

// Connect establishes a MongoDB connection from configuration and verifies
// it with an eager ping. Short timeouts keep startup failing fast when the
// server is unreachable; the caller is expected to continue in a
// disconnected state rather than crash.
func Connect(cfg *config.Config, log *logrus.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI()).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Fail fast if the server is not reachable.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	m := &MongoDB{
		client:     client,
		database:   db,
		collection: db.Collection(cfg.Collection),
		log:        log,
	}

	log.WithFields(logrus.Fields{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	}).Info("connected to MongoDB")

	return m, nil
}

// EnsureIndexes creates the indexes backing the dashboard's common filters
// plus the 2dsphere index for radius queries. Safe to call repeatedly:
// declaring an existing index is a no-op, and failure is logged as a
// warning rather than propagated.
func (m *MongoDB) EnsureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "species", Value: 1}}},
		{Keys: bson.D{{Key: "breed", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "adopted", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		m.log.WithError(err).Warn("index creation warning")
		return
	}
	m.log.Info("animal collection indexes ensured")
}

// ApplyValidator installs (or refreshes) the $jsonSchema validator on the
// collection at "moderate" strictness: new and updated documents are
// checked, pre-existing documents are exempt. Returns false on failure;
// the error is logged, never raised, since the validator may need server
// privileges the deployment lacks.
func (m *MongoDB) ApplyValidator(ctx context.Context) bool {
	cmd := bson.D{
		{Key: "collMod", Value: m.collection.Name()},
		{Key: "validator", Value: bson.M{"$jsonSchema": models.JSONSchema()}},
		{Key: "validationLevel", Value: "moderate"},
	}
	if err := m.database.RunCommand(ctx, cmd).Err(); err != nil {
		m.log.WithError(err).Warn("failed to apply collection validator")
		return false
	}
	m.log.WithField("collection", m.collection.Name()).Info("collection validator applied")
	return true
}

// Collection returns the animals collection handle.
func (m *MongoDB) Collection() *mongo.Collection {
	return m.collection
}

// Client returns the underlying MongoDB client.
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Ping checks if the database connection is alive.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close closes the MongoDB connection.
func (m *MongoDB) Close(ctx context.Context) error {
	m.log.Info("closing MongoDB connection")
	return m.client.Disconnect(ctx)
}
