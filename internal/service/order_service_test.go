package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestComputeOrderTotals(t *testing.T) {
	items := []models.OrderItem{
		{Price: 10, Quantity: 2},
		{Price: 5, Quantity: 1},
	}

	subtotal, total := ComputeOrderTotals(items, 2, 3, 4)
	assert.Equal(t, 25.0, subtotal)
	assert.Equal(t, 26.0, total)
}

func TestComputeOrderTotalsFlooredAtZero(t *testing.T) {
	items := []models.OrderItem{{Price: 10, Quantity: 1}}

	_, total := ComputeOrderTotals(items, 0, 0, 50)
	assert.Equal(t, 0.0, total)
}

func TestFormatOrderNumber(t *testing.T) {
	day := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "ORD-20240307-0001", FormatOrderNumber(day, 1))
	assert.Equal(t, "ORD-20240307-0042", FormatOrderNumber(day, 42))
	assert.Equal(t, "ORD-20240307-12345", FormatOrderNumber(day, 12345))
}

// fakeOrderStore keeps orders in memory and hands out sequences the way
// the counters collection does.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]*models.Order
	products  map[primitive.ObjectID]*models.Product
	seqs      map[string]int
	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:   make(map[primitive.ObjectID]*models.Order),
		products: make(map[primitive.ObjectID]*models.Product),
		seqs:     make(map[string]int),
	}
}

func (f *fakeOrderStore) addProduct(p *models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeOrderStore) NextOrderSequence(ctx context.Context, day string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs[day]++
	return f.seqs[day], nil
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) ListOrders(ctx context.Context, filter store.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return nil, store.ErrNotFound
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) UpdateOrderPaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus, transactionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order.PaymentStatus = paymentStatus
	order.TransactionID = transactionID
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func testProduct(price float64) *models.Product {
	return &models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Test Product",
		SKU:       "TST-001",
		BasePrice: price,
		CostPrice: price / 2,
		Images:    []string{"main.jpg"},
	}
}

func checkoutRequest(items ...OrderItemRequest) *CreateOrderRequest {
	return &CreateOrderRequest{
		Customer: models.OrderCustomer{
			Name:  "Jo Doe",
			Email: "jo@example.com",
		},
		Items:         items,
		PaymentMethod: "paypal",
	}
}

func TestCreateOrderSnapshotsCatalogPrice(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(12.5)
	fake.addProduct(product)

	order, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 2},
	))
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 12.5, order.Items[0].Price)
	assert.Equal(t, "TST-001", order.Items[0].SKU)
	assert.Equal(t, 25.0, order.Subtotal)
	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
}

func TestCreateOrderVariationPrice(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(10)
	product.HasVariations = true
	product.Variations = []models.ProductVariation{
		{Color: "Red", Size: "M", Price: 10, Stock: 3},
		{Color: "Red", Size: "L", Price: 12, Stock: 1},
	}
	fake.addProduct(product)

	order, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{
			ProductID: product.ID.Hex(),
			Quantity:  1,
			Variation: &models.OrderItemVariation{Color: "Red", Size: "L"},
		},
	))
	require.NoError(t, err)
	assert.Equal(t, 12.0, order.Items[0].Price)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	_, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateOrderNumbersAreSequentialPerDay(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(5)
	fake.addProduct(product)

	day := time.Now().Format("20060102")
	for i := 1; i <= 3; i++ {
		order, err := svc.CreateOrder(context.Background(), checkoutRequest(
			OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1},
		))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD-%s-%04d", day, i), order.OrderNumber)
	}
}

func TestCreateOrderWithCoupon(t *testing.T) {
	fake := newFakeOrderStore()
	discounts := newFakeDiscountStore()
	discountSvc := NewDiscountService(discounts, nil)
	svc := NewOrderService(fake, nil, discountSvc, nil)

	product := testProduct(50)
	fake.addProduct(product)

	d := activeDiscount("HALF", models.DiscountTypePercentage, 50)
	discounts.add(d)

	req := checkoutRequest(OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 2})
	req.CouponCode = "half"
	req.Shipping = 10

	order, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.Subtotal)
	assert.Equal(t, "HALF", order.AppliedCoupon)
	assert.Equal(t, 50.0, order.CouponDiscount)
	assert.Equal(t, 60.0, order.Total)

	stored, err := discounts.GetDiscountByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUsage)
}

func TestCreateOrderFreeShippingCoupon(t *testing.T) {
	fake := newFakeOrderStore()
	discounts := newFakeDiscountStore()
	discountSvc := NewDiscountService(discounts, nil)
	svc := NewOrderService(fake, nil, discountSvc, nil)

	product := testProduct(30)
	fake.addProduct(product)

	discounts.add(activeDiscount("FREESHIP", models.DiscountTypeFreeShipping, 0))

	req := checkoutRequest(OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1})
	req.CouponCode = "FREESHIP"
	req.Shipping = 8

	order, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 30.0, order.Total)
}

func TestCreateOrderRejectedCoupon(t *testing.T) {
	fake := newFakeOrderStore()
	discounts := newFakeDiscountStore()
	discountSvc := NewDiscountService(discounts, nil)
	svc := NewOrderService(fake, nil, discountSvc, nil)

	product := testProduct(10)
	fake.addProduct(product)

	req := checkoutRequest(OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1})
	req.CouponCode = "NOPE"

	_, err := svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrDiscountNotFound)
	assert.Empty(t, fake.orders)
}

func TestCreateOrderFailureReleasesCoupon(t *testing.T) {
	fake := newFakeOrderStore()
	discounts := newFakeDiscountStore()
	discountSvc := NewDiscountService(discounts, nil)
	svc := NewOrderService(fake, nil, discountSvc, nil)

	product := testProduct(40)
	fake.addProduct(product)

	d := activeDiscount("FRAGILE", models.DiscountTypeFlat, 5)
	discounts.add(d)

	fake.createErr = errors.New("write failed")

	req := checkoutRequest(OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1})
	req.CouponCode = "FRAGILE"

	_, err := svc.CreateOrder(context.Background(), req)
	require.Error(t, err)

	// The failed checkout must not burn a usage slot.
	stored, err := discounts.GetDiscountByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentUsage)

	usages, err := discounts.ListDiscountUsages(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)

	// The same customer can redeem again once the store recovers.
	fake.createErr = nil
	order, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "FRAGILE", order.AppliedCoupon)
}

func TestChangeOrderStatusTransitions(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(10)
	fake.addProduct(product)

	order, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1},
	))
	require.NoError(t, err)

	for _, status := range []string{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		updated, err := svc.ChangeOrderStatus(context.Background(), order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	// Delivered is terminal.
	_, err = svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestChangeOrderStatusRejectsSkips(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(10)
	fake.addProduct(product)

	order, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1},
	))
	require.NoError(t, err)

	_, err = svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.ChangeOrderStatus(context.Background(), primitive.NewObjectID(), models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestChangePaymentStatus(t *testing.T) {
	fake := newFakeOrderStore()
	svc := NewOrderService(fake, nil, nil, nil)

	product := testProduct(10)
	fake.addProduct(product)

	order, err := svc.CreateOrder(context.Background(), checkoutRequest(
		OrderItemRequest{ProductID: product.ID.Hex(), Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := svc.ChangePaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid, "txn-123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "txn-123", updated.TransactionID)

	_, err = svc.ChangePaymentStatus(context.Background(), order.ID, "settled", "")
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
}
