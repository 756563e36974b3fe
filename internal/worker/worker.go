package worker

import (
	"context"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes storefront events and acts on them out of
// band of the request path. Today it writes structured notification
// logs; the handlers are where an email or webhook integration would
// hang.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}

	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	eventHandler.OnProductLowStock(w.handleProductLowStock)

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	w.logger.Info("Order confirmation notification",
		zap.String("order_number", event.OrderNumber),
		zap.String("customer_email", event.CustomerEmail),
		zap.Float64("total", event.Total),
		zap.Int("item_count", event.ItemCount))
	return nil
}

func (w *NotificationWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status notification",
		zap.String("order_number", event.OrderNumber),
		zap.String("from", event.FromStatus),
		zap.String("to", event.ToStatus))
	return nil
}

func (w *NotificationWorker) handleProductLowStock(ctx context.Context, event *models.ProductLowStockEvent) error {
	w.logger.Warn("Low stock notification",
		zap.String("sku", event.SKU),
		zap.Int("total_stock", event.TotalStock),
		zap.Int("low_stock_alert", event.LowStockAlert))
	return nil
}
