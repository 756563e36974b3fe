package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses. Independent of order status; the two are not
// cross-validated.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// orderTransitions is the permitted status transition table. The admin
// dashboard drives every transition; anything outside the table is
// rejected.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionOrderStatus reports whether an order may move from one
// status to another.
func CanTransitionOrderStatus(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderCustomer is the customer contact snapshot taken at checkout.
type OrderCustomer struct {
	Name  string `bson:"name" json:"name" binding:"required"`
	Email string `bson:"email" json:"email" binding:"required,email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// OrderItemVariation is the chosen color/size of a line item.
type OrderItemVariation struct {
	Color string `bson:"color,omitempty" json:"color,omitempty"`
	Size  string `bson:"size,omitempty" json:"size,omitempty"`
}

// OrderItem is a line item. Items are immutable after order creation.
type OrderItem struct {
	ProductID primitive.ObjectID  `bson:"product_id" json:"productId" binding:"required"`
	Name      string              `bson:"name" json:"name"`
	SKU       string              `bson:"sku" json:"sku"`
	Quantity  int                 `bson:"quantity" json:"quantity" binding:"required,min=1"`
	Price     float64             `bson:"price" json:"price"`
	Variation *OrderItemVariation `bson:"variation,omitempty" json:"variation,omitempty"`
	Images    []string            `bson:"images" json:"images"`
}

// Address is a shipping or billing address.
type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zip_code" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// Order represents a customer order
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber string             `bson:"order_number" json:"orderNumber"`
	Customer    OrderCustomer      `bson:"customer" json:"customer"`
	Items       []OrderItem        `bson:"items" json:"items"`

	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Discount float64 `bson:"discount" json:"discount"`
	Total    float64 `bson:"total" json:"total"`

	ShippingAddress Address `bson:"shipping_address" json:"shippingAddress"`
	BillingAddress  Address `bson:"billing_address" json:"billingAddress"`

	PaymentMethod string `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus string `bson:"payment_status" json:"paymentStatus"`
	TransactionID string `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`

	Status            string     `bson:"status" json:"status"`
	TrackingNumber    string     `bson:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `bson:"estimated_delivery,omitempty" json:"estimatedDelivery,omitempty"`

	AppliedCoupon  string  `bson:"applied_coupon,omitempty" json:"appliedCoupon,omitempty"`
	CouponDiscount float64 `bson:"coupon_discount" json:"couponDiscount"`

	CustomerNotes string `bson:"customer_notes,omitempty" json:"customerNotes,omitempty"`
	AdminNotes    string `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
