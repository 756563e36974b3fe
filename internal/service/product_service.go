package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Product business errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("SKU already exists")
	ErrMissingFields   = errors.New("missing required fields")
)

const productCacheTTL = 5 * time.Minute

// GenerateVariations builds the cartesian product of the selected
// colors and sizes. Every combination starts with zero stock at the
// base price; the admin fills stock and per-variation pricing in
// afterwards.
func GenerateVariations(colors []models.Color, sizes []models.Size, basePrice float64) []models.ProductVariation {
	variations := make([]models.ProductVariation, 0, len(colors)*len(sizes))
	for _, color := range colors {
		for _, size := range sizes {
			variations = append(variations, models.ProductVariation{
				Color:  color.Name,
				Size:   size.Name,
				Stock:  0,
				Price:  basePrice,
				Images: []string{},
			})
		}
	}
	return variations
}

// ProductStore is the storage surface the product service needs.
// Color and size attributes live here too; they exist to seed product
// variations.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter, page, limit int) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	CreateColor(ctx context.Context, color *models.Color) error
	CreateSize(ctx context.Context, size *models.Size) error
	ListColors(ctx context.Context) ([]models.Color, error)
	ListSizes(ctx context.Context) ([]models.Size, error)
}

// ProductService handles catalog management
type ProductService struct {
	store          ProductStore
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store ProductStore, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *ProductService {
	return &ProductService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateProduct validates and persists a new product. Derived fields
// (profit margin, variation stock sum) are computed before the write.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	if product.Name == "" || product.SKU == "" || product.BasePrice <= 0 || product.CostPrice <= 0 {
		return nil, ErrMissingFields
	}

	product.Normalize()
	if product.Variations == nil {
		product.Variations = []models.ProductVariation{}
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	if product.SEOKeywords == nil {
		product.SEOKeywords = []string{}
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrSKUExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.String("sku", product.SKU),
		zap.String("name", product.Name))
	return product, nil
}

// GetProduct retrieves a product, preferring the cache.
func (s *ProductService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if s.redis != nil {
		cached, err := s.redis.GetProduct(ctx, id.Hex())
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Error(err))
		} else if cached != nil {
			util.ProductCacheHits.Inc()
			return cached, nil
		}
		util.ProductCacheMisses.Inc()
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetProduct(ctx, product, productCacheTTL); err != nil {
			s.logger.Warn("Product cache write failed", zap.Error(err))
		}
	}
	return product, nil
}

// ListProducts returns a page of products.
func (s *ProductService) ListProducts(ctx context.Context, filter store.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	return s.store.ListProducts(ctx, filter, page, limit)
}

// UpdateProduct replaces a product's fields, recomputes derivations,
// invalidates the cache, and raises a low-stock event when the update
// drops aggregate stock to or under the alert threshold.
func (s *ProductService) UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	previous, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product.Normalize()
	product.CreatedAt = previous.CreatedAt

	updated, err := s.store.UpdateProduct(ctx, id, product)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, store.ErrDuplicateKey):
			return nil, ErrSKUExists
		}
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.InvalidateProduct(ctx, id.Hex()); err != nil {
			s.logger.Warn("Product cache invalidation failed", zap.Error(err))
		}
	}

	s.maybeRaiseLowStock(ctx, previous, updated)
	return updated, nil
}

// DeleteProduct removes a product and its cache entry.
func (s *ProductService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if s.redis != nil {
		if err := s.redis.InvalidateProduct(ctx, id.Hex()); err != nil {
			s.logger.Warn("Product cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// ListAttributes returns the color and size attributes available for
// building variations.
func (s *ProductService) ListAttributes(ctx context.Context) ([]models.Color, []models.Size, error) {
	colors, err := s.store.ListColors(ctx)
	if err != nil {
		return nil, nil, err
	}
	sizes, err := s.store.ListSizes(ctx)
	if err != nil {
		return nil, nil, err
	}
	return colors, sizes, nil
}

// CreateColor adds a color attribute.
func (s *ProductService) CreateColor(ctx context.Context, name, hexCode string) (*models.Color, error) {
	if name == "" || hexCode == "" {
		return nil, ErrMissingFields
	}
	color := &models.Color{Name: name, HexCode: hexCode}
	if err := s.store.CreateColor(ctx, color); err != nil {
		return nil, err
	}
	return color, nil
}

// CreateSize adds a size attribute.
func (s *ProductService) CreateSize(ctx context.Context, name string) (*models.Size, error) {
	if name == "" {
		return nil, ErrMissingFields
	}
	size := &models.Size{Name: name}
	if err := s.store.CreateSize(ctx, size); err != nil {
		return nil, err
	}
	return size, nil
}

// BuildVariations expands the named colors and sizes into the full
// variation grid for a new product.
func (s *ProductService) BuildVariations(ctx context.Context, colorNames, sizeNames []string, basePrice float64) ([]models.ProductVariation, error) {
	allColors, allSizes, err := s.ListAttributes(ctx)
	if err != nil {
		return nil, err
	}

	colors := make([]models.Color, 0, len(colorNames))
	for _, name := range colorNames {
		for _, c := range allColors {
			if c.Name == name {
				colors = append(colors, c)
				break
			}
		}
	}
	sizes := make([]models.Size, 0, len(sizeNames))
	for _, name := range sizeNames {
		for _, sz := range allSizes {
			if sz.Name == name {
				sizes = append(sizes, sz)
				break
			}
		}
	}

	return GenerateVariations(colors, sizes, basePrice), nil
}

// maybeRaiseLowStock publishes a low-stock event when an update moves
// a product from healthy stock into the low or empty band.
func (s *ProductService) maybeRaiseLowStock(ctx context.Context, previous, updated *models.Product) {
	if s.eventPublisher == nil {
		return
	}
	wasLow := models.StockStatus(previous.TotalStock, previous.LowStockAlert) != models.StockStatusInStock
	isLow := models.StockStatus(updated.TotalStock, updated.LowStockAlert) != models.StockStatusInStock
	if wasLow || !isLow {
		return
	}

	util.LowStockAlertsTotal.Inc()
	event := &models.ProductLowStockEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductLowStock,
			Timestamp: time.Now(),
		},
		ProductID:     updated.ID.Hex(),
		SKU:           updated.SKU,
		TotalStock:    updated.TotalStock,
		LowStockAlert: updated.LowStockAlert,
	}
	if err := s.eventPublisher.PublishProductLowStock(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductLowStock event", zap.Error(err))
	}
}
