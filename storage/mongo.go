package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"review-extractor/internal/types"
)

// MongoSink copies finished product records into a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     types.Logger
	count      int
}

// NewMongoSink connects and pings the server
func NewMongoSink(ctx context.Context, config types.MongoConfig, logger types.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
		logger:     logger,
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

// Store inserts the products as one batch
func (s *MongoSink) Store(ctx context.Context, products []types.ProductRecord) error {
	if len(products) == 0 {
		return nil
	}

	docs := make([]interface{}, len(products))
	for i, p := range products {
		docs[i] = p
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	s.count += len(products)
	s.logger.Debugf("Stored %d products in mongodb (total %d)", len(products), s.count)
	return nil
}

// Close disconnects the client
func (s *MongoSink) Close() error {
	s.logger.Infof("MongoDB sink closing after %d products", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
