package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discount types
const (
	DiscountTypePercentage   = "percentage"
	DiscountTypeFlat         = "flat"
	DiscountTypeFreeShipping = "free_shipping"
)

// Discount represents a coupon code entitling an order to a price
// reduction or shipping waiver.
type Discount struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code        string             `bson:"code" json:"code"`
	Type        string             `bson:"type" json:"type"`
	Value       float64            `bson:"value" json:"value"`
	Description string             `bson:"description" json:"description"`

	MaxUsage            int `bson:"max_usage" json:"maxUsage"`
	CurrentUsage        int `bson:"current_usage" json:"currentUsage"`
	MaxUsagePerCustomer int `bson:"max_usage_per_customer" json:"maxUsagePerCustomer"`

	StartDate time.Time `bson:"start_date" json:"startDate"`
	EndDate   time.Time `bson:"end_date" json:"endDate"`
	IsActive  bool      `bson:"is_active" json:"isActive"`

	MinimumOrderAmount    float64              `bson:"minimum_order_amount,omitempty" json:"minimumOrderAmount,omitempty"`
	MaximumDiscountAmount float64              `bson:"maximum_discount_amount,omitempty" json:"maximumDiscountAmount,omitempty"`
	ApplicableCategories  []string             `bson:"applicable_categories" json:"applicableCategories"`
	ApplicableProducts    []primitive.ObjectID `bson:"applicable_products" json:"applicableProducts"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DiscountUsage is one customer's redemption ledger entry for a
// discount code. Kept in its own collection so the usage counters can
// be bumped with guarded atomic updates instead of read-then-write.
type DiscountUsage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DiscountID    primitive.ObjectID `bson:"discount_id" json:"discountId"`
	CustomerID    string             `bson:"customer_id" json:"customerId"`
	CustomerEmail string             `bson:"customer_email" json:"customerEmail"`
	UsageCount    int                `bson:"usage_count" json:"usageCount"`
	LastUsed      time.Time          `bson:"last_used" json:"lastUsed"`
}

// NormalizeDiscountCode applies the canonical form for codes: trimmed
// and uppercased.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidDiscountType reports whether t is a known discount type.
func ValidDiscountType(t string) bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFlat, DiscountTypeFreeShipping:
		return true
	}
	return false
}

// IsUsable reports whether the discount can be redeemed at time now:
// active, inside the validity window, and under the global usage cap.
func (d *Discount) IsUsable(now time.Time) bool {
	return d.IsActive &&
		!now.Before(d.StartDate) &&
		!now.After(d.EndDate) &&
		d.CurrentUsage < d.MaxUsage
}

// IsExpired reports whether the validity window has passed.
func (d *Discount) IsExpired(now time.Time) bool {
	return now.After(d.EndDate)
}
