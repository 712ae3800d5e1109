package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the repository's boundary to the backing document store. The
// production implementation wraps a *mongo.Collection; tests substitute an
// in-memory fake.
type Store interface {
	// InsertOne inserts a document and reports whether the write was
	// acknowledged.
	InsertOne(ctx context.Context, doc bson.M) (bool, error)
	// FindMany returns every document matching the filter, capped to limit
	// when limit > 0.
	FindMany(ctx context.Context, filter bson.M, limit int64) ([]bson.M, error)
	// UpdateOne applies the update to at most one matching document and
	// returns the modified count.
	UpdateOne(ctx context.Context, filter, update bson.M) (int64, error)
	// DeleteOne removes at most one matching document and returns the
	// deleted count.
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
	// Aggregate runs an aggregation pipeline and returns the result rows.
	Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error)
}

type mongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore wraps a MongoDB collection as a Store.
func NewMongoStore(collection *mongo.Collection) Store {
	return &mongoStore{collection: collection}
}

func (s *mongoStore) InsertOne(ctx context.Context, doc bson.M) (bool, error) {
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *mongoStore) FindMany(ctx context.Context, filter bson.M, limit int64) ([]bson.M, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, filter, update bson.M) (int64, error) {
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	result, err := s.collection.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (s *mongoStore) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error) {
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
