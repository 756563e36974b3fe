package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeDiscountRedeemed   = "DISCOUNT_REDEEMED"
	EventTypeProductLowStock    = "PRODUCT_LOW_STOCK"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a checkout submission is persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID       string  `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	CustomerEmail string  `json:"customer_email"`
	Total         float64 `json:"total"`
	ItemCount     int     `json:"item_count"`
}

// OrderStatusChangedEvent published on admin-driven status transitions
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
}

// DiscountRedeemedEvent published when a usage is recorded against a code
type DiscountRedeemedEvent struct {
	BaseEvent
	DiscountID    string  `json:"discount_id"`
	Code          string  `json:"code"`
	CustomerEmail string  `json:"customer_email"`
	Amount        float64 `json:"amount"`
}

// ProductLowStockEvent published when a stock change crosses the
// low-stock threshold
type ProductLowStockEvent struct {
	BaseEvent
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	TotalStock    int    `json:"total_stock"`
	LowStockAlert int    `json:"low_stock_alert"`
}
