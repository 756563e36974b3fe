package store

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Usage tracking errors
var (
	ErrUsageLimitReached    = errors.New("discount usage limit reached")
	ErrCustomerLimitReached = errors.New("customer usage limit reached")
)

// DiscountFilter selects discounts for listing.
type DiscountFilter struct {
	IsActive *bool
	Type     string
}

func (f DiscountFilter) query() bson.M {
	q := bson.M{}
	if f.IsActive != nil {
		q["is_active"] = *f.IsActive
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	return q
}

// CreateDiscount inserts a discount. A duplicate code surfaces as
// ErrDuplicateKey.
func (s *Store) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	now := time.Now()
	discount.CreatedAt = now
	discount.UpdatedAt = now

	res, err := s.db.Collection(collDiscounts).InsertOne(ctx, discount)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	discount.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetDiscountByID retrieves a discount by ID.
func (s *Store) GetDiscountByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	var discount models.Discount
	err := s.db.Collection(collDiscounts).FindOne(ctx, bson.M{"_id": id}).Decode(&discount)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// GetDiscountByCode retrieves a discount by its normalized code.
func (s *Store) GetDiscountByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	err := s.db.Collection(collDiscounts).FindOne(ctx, bson.M{"code": code}).Decode(&discount)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// ListDiscounts returns a page of discounts, newest first, with the
// total match count.
func (s *Store) ListDiscounts(ctx context.Context, filter DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	query := filter.query()
	coll := s.db.Collection(collDiscounts)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	discounts := []models.Discount{}
	if err := cursor.All(ctx, &discounts); err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// UpdateDiscount replaces the mutable fields of a discount. Usage
// counters are owned by the redemption path and left untouched.
func (s *Store) UpdateDiscount(ctx context.Context, id primitive.ObjectID, discount *models.Discount) (*models.Discount, error) {
	set := bson.M{
		"code":                    discount.Code,
		"type":                    discount.Type,
		"value":                   discount.Value,
		"description":             discount.Description,
		"max_usage":               discount.MaxUsage,
		"max_usage_per_customer":  discount.MaxUsagePerCustomer,
		"start_date":              discount.StartDate,
		"end_date":                discount.EndDate,
		"is_active":               discount.IsActive,
		"minimum_order_amount":    discount.MinimumOrderAmount,
		"maximum_discount_amount": discount.MaximumDiscountAmount,
		"applicable_categories":   discount.ApplicableCategories,
		"applicable_products":     discount.ApplicableProducts,
		"updated_at":              time.Now(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Discount
	err := s.db.Collection(collDiscounts).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &updated, nil
}

// DeactivateDiscount soft-deletes a discount by clearing is_active.
// Discounts are never hard-deleted; the usage ledger must survive.
func (s *Store) DeactivateDiscount(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(collDiscounts).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementDiscountUsage bumps current_usage by one, guarded by the
// global ceiling inside the update filter. Concurrent redemptions of a
// near-exhausted code cannot both pass: the filter re-evaluates
// current_usage < max_usage atomically with the increment.
func (s *Store) IncrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":       id,
		"is_active": true,
		"$expr":     bson.M{"$lt": bson.A{"$current_usage", "$max_usage"}},
	}
	update := bson.M{
		"$inc": bson.M{"current_usage": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := s.db.Collection(collDiscounts).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

// DecrementDiscountUsage undoes a global usage increment. Compensation
// path only.
func (s *Store) DecrementDiscountUsage(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.db.Collection(collDiscounts).UpdateOne(
		ctx,
		bson.M{"_id": id, "current_usage": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"current_usage": -1}},
	)
	return err
}

// UpsertCustomerUsage records one redemption in the per-customer
// ledger, capped at maxPerCustomer. The cap sits in the update filter,
// so the check and the increment are a single atomic operation:
//   - entry exists under the cap: usage_count is incremented
//   - entry exists at the cap: the filter misses, the upsert insert
//     collides with the unique (discount_id, customer_email) index,
//     and the customer is rejected
//   - no entry: the upsert inserts with usage_count = 1
//
// A duplicate-key error can also mean two first-time redemptions raced;
// one retry resolves that case against the now-existing entry.
func (s *Store) UpsertCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerID, customerEmail string, maxPerCustomer int) error {
	filter := bson.M{
		"discount_id":    discountID,
		"customer_email": customerEmail,
		"usage_count":    bson.M{"$lt": maxPerCustomer},
	}
	update := bson.M{
		"$inc":         bson.M{"usage_count": 1},
		"$set":         bson.M{"last_used": time.Now()},
		"$setOnInsert": bson.M{"customer_id": customerID},
	}
	opts := options.Update().SetUpsert(true)

	coll := s.db.Collection(collDiscountUsages)
	for attempt := 0; attempt < 2; attempt++ {
		_, err := coll.UpdateOne(ctx, filter, update, opts)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
	}
	return ErrCustomerLimitReached
}

// DecrementCustomerUsage undoes a ledger increment. Compensation path
// only.
func (s *Store) DecrementCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerEmail string) error {
	_, err := s.db.Collection(collDiscountUsages).UpdateOne(
		ctx,
		bson.M{"discount_id": discountID, "customer_email": customerEmail, "usage_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"usage_count": -1}},
	)
	return err
}

// GetCustomerUsage retrieves one customer's ledger entry, or nil when
// the customer has never redeemed the code.
func (s *Store) GetCustomerUsage(ctx context.Context, discountID primitive.ObjectID, customerEmail string) (*models.DiscountUsage, error) {
	var usage models.DiscountUsage
	err := s.db.Collection(collDiscountUsages).
		FindOne(ctx, bson.M{"discount_id": discountID, "customer_email": customerEmail}).
		Decode(&usage)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// ListDiscountUsages returns the full ledger for a discount.
func (s *Store) ListDiscountUsages(ctx context.Context, discountID primitive.ObjectID) ([]models.DiscountUsage, error) {
	cursor, err := s.db.Collection(collDiscountUsages).Find(ctx, bson.M{"discount_id": discountID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	usages := []models.DiscountUsage{}
	if err := cursor.All(ctx, &usages); err != nil {
		return nil, err
	}
	return usages, nil
}
