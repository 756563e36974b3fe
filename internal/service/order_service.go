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

// Order business errors
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvalidPaymentStatus    = errors.New("invalid payment status")
	ErrDuplicateSubmission     = errors.New("duplicate order submission in flight")
)

const idempotencyTTL = 24 * time.Hour

// ComputeOrderTotals derives the money summary for an order. Tax,
// shipping, and discount are external inputs, not derived here. The
// total is floored at zero so an oversized discount cannot produce a
// negative charge.
func ComputeOrderTotals(items []models.OrderItem, tax, shipping, discount float64) (subtotal, total float64) {
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	total = subtotal + tax + shipping - discount
	if total < 0 {
		total = 0
	}
	return subtotal, total
}

// FormatOrderNumber renders the ORD-YYYYMMDD-NNNN identifier for a
// day's sequence value.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), seq)
}

// OrderStore is the storage surface the order service needs.
type OrderStore interface {
	NextOrderSequence(ctx context.Context, day string) (int, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, filter store.OrderFilter, page, limit int) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to string) (*models.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus, transactionID string) (*models.Order, error)
	GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// OrderService handles checkout and admin order management
type OrderService struct {
	store           OrderStore
	redis           *redisclient.Client
	discountService *DiscountService
	eventPublisher  *broker.EventPublisher
	logger          *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	redis *redisclient.Client,
	discountService *DiscountService,
	eventPublisher *broker.EventPublisher,
) *OrderService {
	return &OrderService{
		store:           store,
		redis:           redis,
		discountService: discountService,
		eventPublisher:  eventPublisher,
		logger:          util.GetLogger(),
	}
}

// OrderItemRequest is one requested line item. Unit price comes from
// the catalog, not the client.
type OrderItemRequest struct {
	ProductID string                     `json:"productId" binding:"required"`
	Quantity  int                        `json:"quantity" binding:"required,min=1"`
	Variation *models.OrderItemVariation `json:"variation,omitempty"`
}

// CreateOrderRequest represents a checkout submission
type CreateOrderRequest struct {
	Customer        models.OrderCustomer `json:"customer" binding:"required"`
	Items           []OrderItemRequest   `json:"items" binding:"required,min=1,dive"`
	Tax             float64              `json:"tax"`
	Shipping        float64              `json:"shipping"`
	Discount        float64              `json:"discount"`
	CouponCode      string               `json:"couponCode"`
	ShippingAddress models.Address       `json:"shippingAddress"`
	BillingAddress  models.Address       `json:"billingAddress"`
	PaymentMethod   string               `json:"paymentMethod" binding:"required"`
	CustomerNotes   string               `json:"customerNotes"`
	IdempotencyKey  string               `json:"idempotencyKey,omitempty"`
}

// CreateOrder validates a checkout submission, snapshots the catalog
// data into line items, applies an optional coupon, and persists the
// order under a freshly claimed order number.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	claimedKey := false
	if req.IdempotencyKey != "" && s.redis != nil {
		claimed, err := s.redis.ClaimIdempotencyKey(ctx, req.IdempotencyKey, idempotencyTTL)
		if err != nil {
			s.logger.Warn("Idempotency claim failed, proceeding without it", zap.Error(err))
		} else if !claimed {
			existing, err := s.lookupIdempotent(ctx, req.IdempotencyKey)
			if err == nil && existing != nil {
				s.logger.Info("Duplicate order request detected",
					zap.String("idempotency_key", req.IdempotencyKey),
					zap.String("order_number", existing.OrderNumber))
				return existing, nil
			}
			// Claimed but no stored result yet: the first submission is
			// still in flight.
			return nil, ErrDuplicateSubmission
		} else {
			claimedKey = true
		}
	}

	created := false
	defer func() {
		if !claimedKey || created {
			return
		}
		if err := s.redis.ReleaseIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(err))
		}
	}()

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	subtotal, _ := ComputeOrderTotals(items, 0, 0, 0)

	shipping := req.Shipping
	discount := req.Discount
	appliedCoupon := ""
	couponDiscount := 0.0

	if req.CouponCode != "" {
		result, err := s.discountService.RedeemCode(ctx, req.CouponCode, subtotal, "", req.Customer.Email)
		if err != nil {
			util.OrdersRejectedTotal.WithLabelValues("coupon_rejected").Inc()
			return nil, err
		}
		appliedCoupon = result.Code
		couponDiscount = result.Amount
		discount += result.Amount
		if result.FreeShipping {
			shipping = 0
		}
	}

	subtotal, total := ComputeOrderTotals(items, req.Tax, shipping, discount)

	now := time.Now()
	seq, err := s.store.NextOrderSequence(ctx, now.Format("20060102"))
	if err != nil {
		s.releaseCoupon(ctx, appliedCoupon, req.Customer.Email)
		return nil, fmt.Errorf("failed to claim order sequence: %w", err)
	}

	order := &models.Order{
		OrderNumber:     FormatOrderNumber(now, seq),
		Customer:        req.Customer,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             req.Tax,
		Shipping:        shipping,
		Discount:        discount,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPending,
		AppliedCoupon:   appliedCoupon,
		CouponDiscount:  couponDiscount,
		CustomerNotes:   req.CustomerNotes,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		s.releaseCoupon(ctx, appliedCoupon, req.Customer.Email)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	created = true

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total))

	if req.IdempotencyKey != "" && s.redis != nil {
		if err := s.redis.StoreIdempotentResult(ctx, req.IdempotencyKey, order.ID.Hex(), idempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency result", zap.Error(err))
		}
	}

	if s.eventPublisher != nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID.Hex(),
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.Customer.Email,
			Total:         order.Total,
			ItemCount:     len(order.Items),
		}
		if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return order, nil
}

// releaseCoupon unwinds a redeemed coupon when the checkout fails after
// the redemption was recorded, so the failed order does not burn a
// usage slot.
func (s *OrderService) releaseCoupon(ctx context.Context, code, customerEmail string) {
	if code == "" || s.discountService == nil {
		return
	}
	if err := s.discountService.ReleaseRedemption(ctx, code, customerEmail); err != nil {
		s.logger.Error("Failed to release coupon usage",
			zap.String("code", code),
			zap.String("customer_email", customerEmail),
			zap.Error(err))
	}
}

// lookupIdempotent fetches the order a previous identical checkout
// created, if any.
func (s *OrderService) lookupIdempotent(ctx context.Context, key string) (*models.Order, error) {
	orderID, err := s.redis.GetIdempotentResult(ctx, key)
	if err != nil || orderID == "" {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}
	return s.store.GetOrderByID(ctx, id)
}

// buildItems snapshots catalog data into immutable line items. The
// unit price comes from the matching variation when one is chosen,
// otherwise from the base price.
func (s *OrderService) buildItems(ctx context.Context, reqs []OrderItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		id, err := primitive.ObjectIDFromHex(r.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, r.ProductID)
		}

		product, err := s.store.GetProductByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, r.ProductID)
			}
			return nil, err
		}

		price := product.BasePrice
		images := product.Images
		if product.HasVariations && r.Variation != nil {
			for _, v := range product.Variations {
				if v.Color == r.Variation.Color && v.Size == r.Variation.Size {
					price = v.Price
					if len(v.Images) > 0 {
						images = v.Images
					}
					break
				}
			}
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			Quantity:  r.Quantity,
			Price:     price,
			Variation: r.Variation,
			Images:    images,
		})
	}
	return items, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOrders returns a page of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter store.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	return s.store.ListOrders(ctx, filter, page, limit)
}

// ChangeOrderStatus moves an order through the fulfillment state
// machine. Transitions outside the permitted table are rejected before
// touching the store; the store update itself is conditional on the
// current status, so racing admins cannot double-apply a transition.
func (s *OrderService) ChangeOrderStatus(ctx context.Context, id primitive.ObjectID, to string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ChangeOrderStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !models.CanTransitionOrderStatus(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, id, order.Status, to)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The order moved under us; treat as a lost transition race.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
		}
		return nil, err
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(order.Status, to).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", order.Status),
		zap.String("to", to))

	if s.eventPublisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:     updated.ID.Hex(),
			OrderNumber: updated.OrderNumber,
			FromStatus:  order.Status,
			ToStatus:    to,
		}
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}

	return updated, nil
}

// ChangePaymentStatus sets the payment status. Payment status is an
// independent enumeration; it is not validated against the order
// status.
func (s *OrderService) ChangePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus, transactionID string) (*models.Order, error) {
	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, paymentStatus)
	}

	updated, err := s.store.UpdateOrderPaymentStatus(ctx, id, paymentStatus, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	s.logger.Info("Payment status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("payment_status", paymentStatus))
	return updated, nil
}
