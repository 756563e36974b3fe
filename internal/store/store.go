package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Storage errors surfaced to the service layer
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Collection names
const (
	collProducts       = "products"
	collOrders         = "orders"
	collDiscounts      = "discounts"
	collDiscountUsages = "discount_usages"
	collColors         = "colors"
	collSizes          = "sizes"
	collPaymentConfigs = "payment_configs"
	collCounters       = "counters"
)

// Store is the MongoDB-backed document store for the storefront.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB, verifies the connection, and ensures
// the indexes the queries rely on.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(dbName),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

// ensureIndexes creates the unique and query indexes for every
// collection.
func (s *Store) ensureIndexes(ctx context.Context) error {
	productIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("product_sku_unique"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("product_text_search"),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "is_published", Value: 1}}},
		{Keys: bson.D{{Key: "is_featured", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := s.db.Collection(collProducts).Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("product indexes: %w", err)
	}

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("order_number_unique"),
		},
		{Keys: bson.D{{Key: "customer.email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "payment_status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := s.db.Collection(collOrders).Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("order indexes: %w", err)
	}

	discountIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("discount_code_unique"),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}}},
	}
	if _, err := s.db.Collection(collDiscounts).Indexes().CreateMany(ctx, discountIndexes); err != nil {
		return fmt.Errorf("discount indexes: %w", err)
	}

	// The unique compound index makes the ledger upsert race-safe: two
	// concurrent first-time redemptions collapse into one insert and one
	// duplicate-key error.
	usageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "discount_id", Value: 1},
				{Key: "customer_email", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("discount_customer_unique"),
		},
	}
	if _, err := s.db.Collection(collDiscountUsages).Indexes().CreateMany(ctx, usageIndexes); err != nil {
		return fmt.Errorf("discount usage indexes: %w", err)
	}

	paymentConfigIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("payment_provider_unique"),
		},
	}
	if _, err := s.db.Collection(collPaymentConfigs).Indexes().CreateMany(ctx, paymentConfigIndexes); err != nil {
		return fmt.Errorf("payment config indexes: %w", err)
	}

	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
