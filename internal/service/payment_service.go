package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Payment config errors
var (
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// PaymentConfigStore is the storage surface for provider settings.
type PaymentConfigStore interface {
	GetPaymentConfig(ctx context.Context, provider string) (*models.PaymentConfig, error)
	ListPaymentConfigs(ctx context.Context) ([]models.PaymentConfig, error)
	UpsertPaymentConfig(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error)
}

// PaymentConfigService manages admin-configured payment provider
// credentials.
type PaymentConfigService struct {
	store  PaymentConfigStore
	logger *zap.Logger
}

// NewPaymentConfigService creates a new payment config service
func NewPaymentConfigService(store PaymentConfigStore) *PaymentConfigService {
	return &PaymentConfigService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// GetConfig returns a provider's config with secrets masked.
func (s *PaymentConfigService) GetConfig(ctx context.Context, provider string) (*models.PaymentConfig, error) {
	if !models.ValidPaymentProvider(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	cfg, err := s.store.GetPaymentConfig(ctx, provider)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unconfigured providers read as a disabled empty config.
			return &models.PaymentConfig{Provider: provider}, nil
		}
		return nil, err
	}

	masked := cfg.Masked()
	return &masked, nil
}

// ListConfigs returns every provider's config with secrets masked.
func (s *PaymentConfigService) ListConfigs(ctx context.Context) ([]models.PaymentConfig, error) {
	configs, err := s.store.ListPaymentConfigs(ctx)
	if err != nil {
		return nil, err
	}
	masked := make([]models.PaymentConfig, 0, len(configs))
	for _, cfg := range configs {
		masked = append(masked, cfg.Masked())
	}
	return masked, nil
}

// SaveConfig upserts a provider's config and returns the stored copy
// with secrets masked.
func (s *PaymentConfigService) SaveConfig(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error) {
	if !models.ValidPaymentProvider(cfg.Provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	stored, err := s.store.UpsertPaymentConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment config updated",
		zap.String("provider", cfg.Provider),
		zap.Bool("enabled", cfg.Enabled))
	masked := stored.Masked()
	return &masked, nil
}
