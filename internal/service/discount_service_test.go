package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeDiscount(code, typ string, value float64) *models.Discount {
	now := time.Now()
	return &models.Discount{
		ID:                  primitive.NewObjectID(),
		Code:                code,
		Type:                typ,
		Value:               value,
		MaxUsage:            100,
		MaxUsagePerCustomer: 1,
		StartDate:           now.Add(-time.Hour),
		EndDate:             now.Add(time.Hour),
		IsActive:            true,
	}
}

func TestEvaluateDiscountPercentage(t *testing.T) {
	d := activeDiscount("SAVE20", models.DiscountTypePercentage, 20)

	amount, err := EvaluateDiscount(d, 150, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 30.0, amount)
}

func TestEvaluateDiscountPercentageCapped(t *testing.T) {
	d := activeDiscount("SAVE20", models.DiscountTypePercentage, 20)
	d.MaximumDiscountAmount = 25

	amount, err := EvaluateDiscount(d, 150, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 25.0, amount)
}

func TestEvaluateDiscountFlatClampedToSubtotal(t *testing.T) {
	d := activeDiscount("TENOFF", models.DiscountTypeFlat, 10)

	amount, err := EvaluateDiscount(d, 6, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 6.0, amount)

	amount, err = EvaluateDiscount(d, 50, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10.0, amount)
}

func TestEvaluateDiscountFreeShipping(t *testing.T) {
	d := activeDiscount("FREESHIP", models.DiscountTypeFreeShipping, 0)

	amount, err := EvaluateDiscount(d, 100, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)
}

func TestEvaluateDiscountRejections(t *testing.T) {
	now := time.Now()

	inactive := activeDiscount("A", models.DiscountTypeFlat, 5)
	inactive.IsActive = false

	expired := activeDiscount("B", models.DiscountTypeFlat, 5)
	expired.EndDate = now.Add(-time.Minute)

	notStarted := activeDiscount("C", models.DiscountTypeFlat, 5)
	notStarted.StartDate = now.Add(time.Minute)

	exhausted := activeDiscount("D", models.DiscountTypeFlat, 5)
	exhausted.CurrentUsage = exhausted.MaxUsage

	for name, d := range map[string]*models.Discount{
		"inactive":    inactive,
		"expired":     expired,
		"not started": notStarted,
		"exhausted":   exhausted,
	} {
		_, err := EvaluateDiscount(d, 100, now)
		assert.ErrorIs(t, err, ErrDiscountNotValid, name)
	}
}

func TestEvaluateDiscountMinimumOrder(t *testing.T) {
	d := activeDiscount("BIG", models.DiscountTypePercentage, 10)
	d.MinimumOrderAmount = 50

	_, err := EvaluateDiscount(d, 49.99, time.Now())
	assert.ErrorIs(t, err, ErrMinimumOrderNotMet)

	amount, err := EvaluateDiscount(d, 50, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)
}

// fakeDiscountStore mimics the guarded-update semantics of the Mongo
// store under a mutex.
type fakeDiscountStore struct {
	mu        sync.Mutex
	discounts map[primitive.ObjectID]*models.Discount
	usages    map[string]*models.DiscountUsage
}

func newFakeDiscountStore() *fakeDiscountStore {
	return &fakeDiscountStore{
		discounts: make(map[primitive.ObjectID]*models.Discount),
		usages:    make(map[string]*models.DiscountUsage),
	}
}

func usageKey(id primitive.ObjectID, email string) string {
	return id.Hex() + "|" + email
}

func (f *fakeDiscountStore) add(d *models.Discount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discounts[d.ID] = d
}

func (f *fakeDiscountStore) CreateDiscount(ctx context.Context, d *models.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.discounts {
		if existing.Code == d.Code {
			return store.ErrDuplicateKey
		}
	}
	d.ID = primitive.NewObjectID()
	f.discounts[d.ID] = d
	return nil
}

func (f *fakeDiscountStore) GetDiscountByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDiscountStore) GetDiscountByCode(ctx context.Context, code string) (*models.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.discounts {
		if d.Code == code {
			copied := *d
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDiscountStore) ListDiscounts(ctx context.Context, filter store.DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Discount, 0, len(f.discounts))
	for _, d := range f.discounts {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDiscountStore) UpdateDiscount(ctx context.Context, id primitive.ObjectID, d *models.Discount) (*models.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.discounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d.ID = id
	d.CurrentUsage = existing.CurrentUsage
	f.discounts[id] = d
	copied := *d
	return &copied, nil
}

func (f *fakeDiscountStore) DeactivateDiscount(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok {
		return store.ErrNotFound
	}
	d.IsActive = false
	return nil
}

func (f *fakeDiscountStore) IncrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok {
		return store.ErrNotFound
	}
	if !d.IsActive || d.CurrentUsage >= d.MaxUsage {
		return store.ErrUsageLimitReached
	}
	d.CurrentUsage++
	return nil
}

func (f *fakeDiscountStore) DecrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.discounts[id]; ok && d.CurrentUsage > 0 {
		d.CurrentUsage--
	}
	return nil
}

func (f *fakeDiscountStore) UpsertCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerID, customerEmail string, maxPerCustomer int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey(discountID, customerEmail)
	u, ok := f.usages[key]
	if !ok {
		f.usages[key] = &models.DiscountUsage{
			DiscountID:    discountID,
			CustomerID:    customerID,
			CustomerEmail: customerEmail,
			UsageCount:    1,
			LastUsed:      time.Now(),
		}
		return nil
	}
	if u.UsageCount >= maxPerCustomer {
		return store.ErrCustomerLimitReached
	}
	u.UsageCount++
	u.LastUsed = time.Now()
	return nil
}

func (f *fakeDiscountStore) DecrementCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey(discountID, customerEmail)
	if u, ok := f.usages[key]; ok {
		u.UsageCount--
		if u.UsageCount <= 0 {
			delete(f.usages, key)
		}
	}
	return nil
}

func (f *fakeDiscountStore) ListDiscountUsages(ctx context.Context, discountID primitive.ObjectID) ([]models.DiscountUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.DiscountUsage{}
	for _, u := range f.usages {
		if u.DiscountID == discountID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestCreateDiscountNormalizesCode(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	created, err := svc.CreateDiscount(context.Background(), &CreateDiscountRequest{
		Code:      "  summer10 ",
		Type:      models.DiscountTypePercentage,
		Value:     10,
		MaxUsage:  5,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", created.Code)
	assert.Equal(t, 0, created.CurrentUsage)
	assert.Equal(t, 1, created.MaxUsagePerCustomer)
}

func TestCreateDiscountRequestBindsZeroValue(t *testing.T) {
	payload := []byte(`{
		"code": "FREESHIP",
		"type": "free_shipping",
		"value": 0,
		"maxUsage": 100,
		"startDate": "2026-01-01T00:00:00Z",
		"endDate": "2026-12-31T00:00:00Z"
	}`)

	var req CreateDiscountRequest
	require.NoError(t, binding.JSON.BindBody(payload, &req))
	assert.Equal(t, models.DiscountTypeFreeShipping, req.Type)
	assert.Equal(t, 0.0, req.Value)
}

func TestCreateFreeShippingDiscountWithZeroValue(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	created, err := svc.CreateDiscount(context.Background(), &CreateDiscountRequest{
		Code:      "FREESHIP",
		Type:      models.DiscountTypeFreeShipping,
		Value:     0,
		MaxUsage:  100,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, created.Value)
}

func TestCreateDiscountDuplicateCode(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	req := &CreateDiscountRequest{
		Code:      "TWICE",
		Type:      models.DiscountTypeFlat,
		Value:     5,
		MaxUsage:  5,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}

	_, err := svc.CreateDiscount(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateDiscount(context.Background(), req)
	assert.ErrorIs(t, err, ErrDiscountCodeExists)
}

func TestRedeemCodeRecordsUsage(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("WELCOME", models.DiscountTypePercentage, 10)
	fake.add(d)

	result, err := svc.RedeemCode(context.Background(), "welcome", 200, "", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.Amount)
	assert.False(t, result.FreeShipping)

	stored, err := fake.GetDiscountByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUsage)

	usages, err := fake.ListDiscountUsages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "a@example.com", usages[0].CustomerEmail)
}

func TestRedeemCodePerCustomerCap(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("ONCE", models.DiscountTypeFlat, 5)
	fake.add(d)

	_, err := svc.RedeemCode(context.Background(), "ONCE", 100, "", "a@example.com")
	require.NoError(t, err)

	_, err = svc.RedeemCode(context.Background(), "ONCE", 100, "", "a@example.com")
	assert.ErrorIs(t, err, ErrCustomerLimitExceeded)

	// A different customer is unaffected.
	_, err = svc.RedeemCode(context.Background(), "ONCE", 100, "", "b@example.com")
	assert.NoError(t, err)
}

func TestRedeemCodeGlobalLimitCompensatesLedger(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("LAST", models.DiscountTypeFlat, 5)
	d.MaxUsage = 1
	fake.add(d)

	_, err := svc.RedeemCode(context.Background(), "LAST", 100, "", "a@example.com")
	require.NoError(t, err)

	// The read sees an exhausted counter, so this fails validation.
	_, err = svc.RedeemCode(context.Background(), "LAST", 100, "", "b@example.com")
	assert.ErrorIs(t, err, ErrDiscountNotValid)

	// b's ledger entry must not linger.
	usages, err := fake.ListDiscountUsages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "a@example.com", usages[0].CustomerEmail)
}

func TestRedeemCodeConcurrentLastUse(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("FINAL", models.DiscountTypeFlat, 5)
	d.MaxUsage = 10
	d.CurrentUsage = 9
	fake.add(d)

	const workers = 20
	var wg sync.WaitGroup
	successes := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			email := fmt.Sprintf("c%d@example.com", n)
			if _, err := svc.RedeemCode(context.Background(), "FINAL", 100, "", email); err == nil {
				successes <- email
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners []string
	for email := range successes {
		winners = append(winners, email)
	}
	require.Len(t, winners, 1)

	stored, err := fake.GetDiscountByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.CurrentUsage)

	// Only the winner holds a ledger entry.
	usages, err := fake.ListDiscountUsages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, winners[0], usages[0].CustomerEmail)
}

func TestValidateCodeDoesNotRecordUsage(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("PEEK", models.DiscountTypePercentage, 15)
	fake.add(d)

	result, err := svc.ValidateCode(context.Background(), "peek", 80)
	require.NoError(t, err)
	assert.Equal(t, 12.0, result.Amount)

	stored, err := fake.GetDiscountByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentUsage)
}

func TestGetDiscountAssemblesLedger(t *testing.T) {
	fake := newFakeDiscountStore()
	svc := NewDiscountService(fake, nil)

	d := activeDiscount("LEDGER", models.DiscountTypeFlat, 5)
	fake.add(d)

	_, err := svc.RedeemCode(context.Background(), "LEDGER", 100, "cust-1", "a@example.com")
	require.NoError(t, err)

	details, err := svc.GetDiscount(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, details.UsedBy, 1)
	assert.Equal(t, "cust-1", details.UsedBy[0].CustomerID)

	_, err = svc.GetDiscount(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrDiscountNotFound)
}
