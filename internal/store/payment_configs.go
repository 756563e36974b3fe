package store

import (
	"context"
	"time"

	"storefront-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetPaymentConfig retrieves the config document for a provider.
func (s *Store) GetPaymentConfig(ctx context.Context, provider string) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	err := s.db.Collection(collPaymentConfigs).
		FindOne(ctx, bson.M{"provider": provider}).
		Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListPaymentConfigs returns the config documents for all providers.
func (s *Store) ListPaymentConfigs(ctx context.Context) ([]models.PaymentConfig, error) {
	cursor, err := s.db.Collection(collPaymentConfigs).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	configs := []models.PaymentConfig{}
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// UpsertPaymentConfig creates or replaces a provider's config and
// returns the stored document.
func (s *Store) UpsertPaymentConfig(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error) {
	cfg.UpdatedAt = time.Now()

	set := bson.M{
		"enabled":         cfg.Enabled,
		"client_id":       cfg.ClientID,
		"client_secret":   cfg.ClientSecret,
		"webhook_url":     cfg.WebhookURL,
		"sandbox_mode":    cfg.SandboxMode,
		"publishable_key": cfg.PublishableKey,
		"secret_key":      cfg.SecretKey,
		"webhook_secret":  cfg.WebhookSecret,
		"updated_at":      cfg.UpdatedAt,
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.PaymentConfig
	err := s.db.Collection(collPaymentConfigs).
		FindOneAndUpdate(ctx, bson.M{"provider": cfg.Provider}, bson.M{"$set": set}, opts).
		Decode(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
