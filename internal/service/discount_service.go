package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Discount business errors
var (
	ErrDiscountNotFound      = errors.New("discount not found")
	ErrDiscountCodeExists    = errors.New("discount code already exists")
	ErrDiscountNotValid      = errors.New("discount is not valid")
	ErrMinimumOrderNotMet    = errors.New("order does not meet the minimum amount")
	ErrUsageLimitExceeded    = errors.New("discount usage limit exceeded")
	ErrCustomerLimitExceeded = errors.New("customer usage limit exceeded")
)

// EvaluateDiscount computes the discount amount a record grants for an
// order subtotal. Pure: usage recording is a separate step.
//
// The record is usable only while active, inside its validity window,
// and under the global usage ceiling. Percentage amounts are clamped to
// the maximum discount amount when one is set; flat amounts are clamped
// to the subtotal so a coupon can never exceed the order value. A
// free-shipping discount contributes nothing to the subtotal math; the
// caller waives the shipping charge.
func EvaluateDiscount(d *models.Discount, subtotal float64, now time.Time) (float64, error) {
	if !d.IsUsable(now) {
		return 0, ErrDiscountNotValid
	}
	if d.MinimumOrderAmount > 0 && subtotal < d.MinimumOrderAmount {
		return 0, ErrMinimumOrderNotMet
	}

	switch d.Type {
	case models.DiscountTypePercentage:
		amount := subtotal * d.Value / 100
		if d.MaximumDiscountAmount > 0 && amount > d.MaximumDiscountAmount {
			amount = d.MaximumDiscountAmount
		}
		return amount, nil
	case models.DiscountTypeFlat:
		if d.Value > subtotal {
			return subtotal, nil
		}
		return d.Value, nil
	case models.DiscountTypeFreeShipping:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown discount type %q", d.Type)
	}
}

// DiscountStore is the storage surface the discount service needs.
type DiscountStore interface {
	CreateDiscount(ctx context.Context, discount *models.Discount) error
	GetDiscountByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error)
	GetDiscountByCode(ctx context.Context, code string) (*models.Discount, error)
	ListDiscounts(ctx context.Context, filter store.DiscountFilter, page, limit int) ([]models.Discount, int64, error)
	UpdateDiscount(ctx context.Context, id primitive.ObjectID, discount *models.Discount) (*models.Discount, error)
	DeactivateDiscount(ctx context.Context, id primitive.ObjectID) error
	IncrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error
	DecrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error
	UpsertCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerID, customerEmail string, maxPerCustomer int) error
	DecrementCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerEmail string) error
	ListDiscountUsages(ctx context.Context, discountID primitive.ObjectID) ([]models.DiscountUsage, error)
}

// DiscountService handles discount management and redemption
type DiscountService struct {
	store          DiscountStore
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewDiscountService creates a new discount service
func NewDiscountService(store DiscountStore, eventPublisher *broker.EventPublisher) *DiscountService {
	return &DiscountService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateDiscountRequest represents a request to create a discount
type CreateDiscountRequest struct {
	Code                  string    `json:"code" binding:"required"`
	Type                  string    `json:"type" binding:"required,oneof=percentage flat free_shipping"`
	Value                 float64   `json:"value" binding:"min=0"`
	Description           string    `json:"description"`
	MaxUsage              int       `json:"maxUsage" binding:"required,min=1"`
	MaxUsagePerCustomer   int       `json:"maxUsagePerCustomer"`
	StartDate             time.Time `json:"startDate" binding:"required"`
	EndDate               time.Time `json:"endDate" binding:"required"`
	IsActive              *bool     `json:"isActive"`
	MinimumOrderAmount    float64   `json:"minimumOrderAmount"`
	MaximumDiscountAmount float64   `json:"maximumDiscountAmount"`
	ApplicableCategories  []string  `json:"applicableCategories"`
}

// CreateDiscount creates a new discount with a zeroed usage counter.
func (s *DiscountService) CreateDiscount(ctx context.Context, req *CreateDiscountRequest) (*models.Discount, error) {
	ctx, span := util.StartSpan(ctx, "DiscountService.CreateDiscount")
	defer span.End()

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	maxPerCustomer := req.MaxUsagePerCustomer
	if maxPerCustomer < 1 {
		maxPerCustomer = 1
	}

	discount := &models.Discount{
		Code:                  models.NormalizeDiscountCode(req.Code),
		Type:                  req.Type,
		Value:                 req.Value,
		Description:           req.Description,
		MaxUsage:              req.MaxUsage,
		CurrentUsage:          0,
		MaxUsagePerCustomer:   maxPerCustomer,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		IsActive:              isActive,
		MinimumOrderAmount:    req.MinimumOrderAmount,
		MaximumDiscountAmount: req.MaximumDiscountAmount,
		ApplicableCategories:  req.ApplicableCategories,
		ApplicableProducts:    []primitive.ObjectID{},
	}

	if err := s.store.CreateDiscount(ctx, discount); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrDiscountCodeExists
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.Info("Discount created",
		zap.String("code", discount.Code),
		zap.String("type", discount.Type))
	return discount, nil
}

// ListDiscounts returns a page of discounts.
func (s *DiscountService) ListDiscounts(ctx context.Context, filter store.DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	return s.store.ListDiscounts(ctx, filter, page, limit)
}

// DiscountDetails is a discount with its assembled usage ledger.
type DiscountDetails struct {
	models.Discount
	UsedBy []models.DiscountUsage `json:"usedBy"`
}

// GetDiscount retrieves a discount with its per-customer ledger.
func (s *DiscountService) GetDiscount(ctx context.Context, id primitive.ObjectID) (*DiscountDetails, error) {
	discount, err := s.store.GetDiscountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	usages, err := s.store.ListDiscountUsages(ctx, discount.ID)
	if err != nil {
		return nil, err
	}

	return &DiscountDetails{Discount: *discount, UsedBy: usages}, nil
}

// UpdateDiscount updates a discount's configuration. Usage counters
// are not editable through this path.
func (s *DiscountService) UpdateDiscount(ctx context.Context, id primitive.ObjectID, req *CreateDiscountRequest) (*models.Discount, error) {
	maxPerCustomer := req.MaxUsagePerCustomer
	if maxPerCustomer < 1 {
		maxPerCustomer = 1
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	discount := &models.Discount{
		Code:                  models.NormalizeDiscountCode(req.Code),
		Type:                  req.Type,
		Value:                 req.Value,
		Description:           req.Description,
		MaxUsage:              req.MaxUsage,
		MaxUsagePerCustomer:   maxPerCustomer,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		IsActive:              isActive,
		MinimumOrderAmount:    req.MinimumOrderAmount,
		MaximumDiscountAmount: req.MaximumDiscountAmount,
		ApplicableCategories:  req.ApplicableCategories,
		ApplicableProducts:    []primitive.ObjectID{},
	}

	updated, err := s.store.UpdateDiscount(ctx, id, discount)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrDiscountNotFound
		case errors.Is(err, store.ErrDuplicateKey):
			return nil, ErrDiscountCodeExists
		}
		return nil, err
	}
	return updated, nil
}

// DeactivateDiscount soft-deletes a discount.
func (s *DiscountService) DeactivateDiscount(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeactivateDiscount(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDiscountNotFound
		}
		return err
	}
	return nil
}

// ReleaseRedemption returns a recorded redemption when the order the
// coupon was applied to fails to persist. Both counters are unwound:
// the global one and the customer's ledger entry.
func (s *DiscountService) ReleaseRedemption(ctx context.Context, code, customerEmail string) error {
	discount, err := s.store.GetDiscountByCode(ctx, models.NormalizeDiscountCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDiscountNotFound
		}
		return err
	}

	if err := s.store.DecrementDiscountUsage(ctx, discount.ID); err != nil {
		return fmt.Errorf("failed to release usage: %w", err)
	}
	if err := s.store.DecrementCustomerUsage(ctx, discount.ID, customerEmail); err != nil {
		return fmt.Errorf("failed to release customer usage: %w", err)
	}

	s.logger.Info("Discount redemption released",
		zap.String("code", discount.Code),
		zap.String("customer_email", customerEmail))
	return nil
}

// RedemptionResult is the outcome of validating or redeeming a code.
type RedemptionResult struct {
	Code         string  `json:"code"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	FreeShipping bool    `json:"freeShipping"`
}

// ValidateCode evaluates a code against a subtotal without recording
// usage.
func (s *DiscountService) ValidateCode(ctx context.Context, code string, subtotal float64) (*RedemptionResult, error) {
	discount, err := s.store.GetDiscountByCode(ctx, models.NormalizeDiscountCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	amount, err := EvaluateDiscount(discount, subtotal, time.Now())
	if err != nil {
		return nil, err
	}

	return &RedemptionResult{
		Code:         discount.Code,
		Type:         discount.Type,
		Amount:       amount,
		FreeShipping: discount.Type == models.DiscountTypeFreeShipping,
	}, nil
}

// RedeemCode evaluates a code and records one usage for the customer.
//
// The usage ceilings are enforced by guarded updates in the store, not
// by the evaluation read above them, so concurrent redemptions of a
// nearly exhausted code settle on at most one winner. The per-customer
// ledger is bumped first; if the global increment then loses the race,
// the ledger bump is compensated.
func (s *DiscountService) RedeemCode(ctx context.Context, code string, subtotal float64, customerID, customerEmail string) (*RedemptionResult, error) {
	ctx, span := util.StartSpan(ctx, "DiscountService.RedeemCode")
	defer span.End()

	discount, err := s.store.GetDiscountByCode(ctx, models.NormalizeDiscountCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.DiscountRedemptionsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	amount, err := EvaluateDiscount(discount, subtotal, time.Now())
	if err != nil {
		util.DiscountRedemptionsTotal.WithLabelValues("not_valid").Inc()
		return nil, err
	}

	if customerID == "" {
		customerID = customerEmail
	}

	err = s.store.UpsertCustomerUsage(ctx, discount.ID, customerID, customerEmail, discount.MaxUsagePerCustomer)
	if err != nil {
		if errors.Is(err, store.ErrCustomerLimitReached) {
			util.DiscountRedemptionsTotal.WithLabelValues("customer_limit").Inc()
			return nil, ErrCustomerLimitExceeded
		}
		return nil, fmt.Errorf("failed to record customer usage: %w", err)
	}

	if err := s.store.IncrementDiscountUsage(ctx, discount.ID); err != nil {
		if compErr := s.store.DecrementCustomerUsage(ctx, discount.ID, customerEmail); compErr != nil {
			s.logger.Error("Failed to compensate customer usage",
				zap.String("code", discount.Code),
				zap.String("customer_email", customerEmail),
				zap.Error(compErr))
		}
		if errors.Is(err, store.ErrUsageLimitReached) {
			util.DiscountRedemptionsTotal.WithLabelValues("usage_limit").Inc()
			return nil, ErrUsageLimitExceeded
		}
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	util.DiscountRedemptionsTotal.WithLabelValues("success").Inc()
	util.DiscountAmountApplied.Observe(amount)
	s.logger.Info("Discount redeemed",
		zap.String("code", discount.Code),
		zap.String("customer_email", customerEmail),
		zap.Float64("amount", amount))

	if s.eventPublisher != nil {
		event := &models.DiscountRedeemedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeDiscountRedeemed,
				Timestamp: time.Now(),
			},
			DiscountID:    discount.ID.Hex(),
			Code:          discount.Code,
			CustomerEmail: customerEmail,
			Amount:        amount,
		}
		if err := s.eventPublisher.PublishDiscountRedeemed(ctx, event); err != nil {
			s.logger.Error("Failed to publish DiscountRedeemed event", zap.Error(err))
		}
	}

	return &RedemptionResult{
		Code:         discount.Code,
		Type:         discount.Type,
		Amount:       amount,
		FreeShipping: discount.Type == models.DiscountTypeFreeShipping,
	}, nil
}
