package store

import (
	"context"
	"time"

	"storefront-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderFilter selects orders for listing.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	CustomerEmail string
	StartDate     *time.Time
	EndDate       *time.Time
}

func (f OrderFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		q["payment_status"] = f.PaymentStatus
	}
	if f.CustomerEmail != "" {
		q["customer.email"] = bson.M{"$regex": f.CustomerEmail, "$options": "i"}
	}
	if f.StartDate != nil || f.EndDate != nil {
		created := bson.M{}
		if f.StartDate != nil {
			created["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			created["$lte"] = *f.EndDate
		}
		q["created_at"] = created
	}
	return q
}

// NextOrderSequence atomically claims the next order number for a
// calendar day. The per-day counter lives in its own document and is
// bumped with an upserted $inc, so concurrent checkouts never share a
// sequence value.
func (s *Store) NextOrderSequence(ctx context.Context, day string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := s.db.Collection(collCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": "orders:" + day},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// CreateOrder inserts an order. The caller assigns the order number
// beforehand; a duplicate surfaces as ErrDuplicateKey.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := s.db.Collection(collOrders).InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetOrderByID retrieves an order by ID.
func (s *Store) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection(collOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a page of orders, newest first, with the total
// match count.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	query := filter.query()
	coll := s.db.Collection(collOrders)

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

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order from one status to another. The
// current status is part of the filter, so a concurrent transition
// from the same state loses and reports ErrNotFound.
func (s *Store) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to string) (*models.Order, error) {
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.db.Collection(collOrders).
		FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).
		Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderPaymentStatus sets the payment status and optional
// transaction reference.
func (s *Store) UpdateOrderPaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus, transactionID string) (*models.Order, error) {
	set := bson.M{
		"payment_status": paymentStatus,
		"updated_at":     time.Now(),
	}
	if transactionID != "" {
		set["transaction_id"] = transactionID
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.db.Collection(collOrders).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
