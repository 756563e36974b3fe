package api

import (
	"errors"
	"net/http"
	"time"

	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// parseOrderDate reads an order-date filter as RFC3339 or a bare
// YYYY-MM-DD date.
func parseOrderDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// listOrders handles GET /api/orders
func (h *Handler) listOrders(c *gin.Context) {
	page, limit := paginationParams(c)

	filter := store.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
		CustomerEmail: c.Query("customerEmail"),
	}
	if t, ok := parseOrderDate(c.Query("startDate")); ok {
		filter.StartDate = &t
	}
	if t, ok := parseOrderDate(c.Query("endDate")); ok {
		// A bare date means the whole day, inclusive.
		if len(c.Query("endDate")) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.EndDate = &t
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter, page, limit)
	if err != nil {
		util.GetLogger().Error("Error fetching orders", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	respondList(c, orders, newPagination(page, limit, total))
}

// createOrder handles POST /api/orders
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusBadRequest, "One or more products not found")
		case errors.Is(err, service.ErrDiscountNotFound):
			respondError(c, http.StatusBadRequest, "Coupon code not found")
		case errors.Is(err, service.ErrDiscountNotValid):
			respondError(c, http.StatusBadRequest, "Coupon is not valid")
		case errors.Is(err, service.ErrMinimumOrderNotMet):
			respondError(c, http.StatusBadRequest, "Order does not meet the coupon minimum")
		case errors.Is(err, service.ErrUsageLimitExceeded):
			respondError(c, http.StatusConflict, "Coupon usage limit reached")
		case errors.Is(err, service.ErrCustomerLimitExceeded):
			respondError(c, http.StatusConflict, "Coupon already used by this customer")
		case errors.Is(err, service.ErrDuplicateSubmission):
			respondError(c, http.StatusConflict, "Order submission already in progress")
		default:
			util.GetLogger().Error("Error creating order", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	respondData(c, http.StatusCreated, order, "Order created successfully")
}

// getOrder handles GET /api/orders/:id
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		util.GetLogger().Error("Error fetching order", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	respondData(c, http.StatusOK, order, "")
}

// updateOrderStatusRequest carries the target fulfillment status.
type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// updateOrderStatus handles PATCH /api/orders/:id/status
func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	order, err := h.orders.ChangeOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidStatusTransition):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			util.GetLogger().Error("Error updating order status", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to update order status")
		}
		return
	}

	respondData(c, http.StatusOK, order, "Order status updated")
}

// updatePaymentStatusRequest carries the target payment status and an
// optional gateway transaction reference.
type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	TransactionID string `json:"transactionId"`
}

// updateOrderPaymentStatus handles PATCH /api/orders/:id/payment-status
func (h *Handler) updateOrderPaymentStatus(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.ChangePaymentStatus(c.Request.Context(), id, req.PaymentStatus, req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidPaymentStatus):
			respondError(c, http.StatusBadRequest, "Invalid payment status")
		default:
			util.GetLogger().Error("Error updating payment status", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to update payment status")
		}
		return
	}

	respondData(c, http.StatusOK, order, "Payment status updated")
}
