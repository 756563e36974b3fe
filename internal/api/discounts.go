package api

import (
	"errors"
	"net/http"

	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listDiscounts handles GET /api/discounts
func (h *Handler) listDiscounts(c *gin.Context) {
	page, limit := paginationParams(c)

	filter := store.DiscountFilter{Type: c.Query("type")}
	if active, ok := c.GetQuery("isActive"); ok {
		v := active == "true"
		filter.IsActive = &v
	}

	discounts, total, err := h.discounts.ListDiscounts(c.Request.Context(), filter, page, limit)
	if err != nil {
		util.GetLogger().Error("Error fetching discounts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch discounts")
		return
	}

	respondList(c, discounts, newPagination(page, limit, total))
}

// createDiscount handles POST /api/discounts
func (h *Handler) createDiscount(c *gin.Context) {
	var req service.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	discount, err := h.discounts.CreateDiscount(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDiscountCodeExists) {
			respondError(c, http.StatusBadRequest, "Discount code already exists")
			return
		}
		util.GetLogger().Error("Error creating discount", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create discount")
		return
	}

	respondData(c, http.StatusCreated, discount, "Discount created successfully")
}

// getDiscount handles GET /api/discounts/:id
func (h *Handler) getDiscount(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	details, err := h.discounts.GetDiscount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDiscountNotFound) {
			respondError(c, http.StatusNotFound, "Discount not found")
			return
		}
		util.GetLogger().Error("Error fetching discount", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch discount")
		return
	}

	respondData(c, http.StatusOK, details, "")
}

// updateDiscount handles PUT /api/discounts/:id
func (h *Handler) updateDiscount(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	var req service.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	discount, err := h.discounts.UpdateDiscount(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDiscountNotFound):
			respondError(c, http.StatusNotFound, "Discount not found")
		case errors.Is(err, service.ErrDiscountCodeExists):
			respondError(c, http.StatusBadRequest, "Discount code already exists")
		default:
			util.GetLogger().Error("Error updating discount", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to update discount")
		}
		return
	}

	respondData(c, http.StatusOK, discount, "Discount updated successfully")
}

// deactivateDiscount handles DELETE /api/discounts/:id
func (h *Handler) deactivateDiscount(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	if err := h.discounts.DeactivateDiscount(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrDiscountNotFound) {
			respondError(c, http.StatusNotFound, "Discount not found")
			return
		}
		util.GetLogger().Error("Error deactivating discount", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to deactivate discount")
		return
	}

	respondData(c, http.StatusOK, nil, "Discount deactivated")
}

// validateDiscountRequest checks a code against a cart subtotal.
// Zero is a legal subtotal, so the numeric fields carry only the range
// tag; gin's required tag would reject zero values.
type validateDiscountRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"min=0"`
}

// redeemDiscountRequest records a usage on top of validation.
type redeemDiscountRequest struct {
	Code          string  `json:"code" binding:"required"`
	Subtotal      float64 `json:"subtotal" binding:"min=0"`
	CustomerID    string  `json:"customerId"`
	CustomerEmail string  `json:"customerEmail" binding:"required,email"`
}

// validateDiscount handles POST /api/discounts/validate
func (h *Handler) validateDiscount(c *gin.Context) {
	var req validateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.discounts.ValidateCode(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		respondDiscountError(c, err)
		return
	}

	respondData(c, http.StatusOK, result, "")
}

// redeemDiscount handles POST /api/discounts/redeem
func (h *Handler) redeemDiscount(c *gin.Context) {
	var req redeemDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.discounts.RedeemCode(c.Request.Context(), req.Code, req.Subtotal, req.CustomerID, req.CustomerEmail)
	if err != nil {
		respondDiscountError(c, err)
		return
	}

	respondData(c, http.StatusOK, result, "Discount redeemed")
}

// respondDiscountError maps redemption failures onto status codes.
// Limit races are conflicts; everything the caller could fix is a bad
// request.
func respondDiscountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDiscountNotFound):
		respondError(c, http.StatusNotFound, "Discount not found")
	case errors.Is(err, service.ErrDiscountNotValid):
		respondError(c, http.StatusBadRequest, "Discount is not valid")
	case errors.Is(err, service.ErrMinimumOrderNotMet):
		respondError(c, http.StatusBadRequest, "Order does not meet the minimum amount")
	case errors.Is(err, service.ErrUsageLimitExceeded):
		respondError(c, http.StatusConflict, "Discount usage limit reached")
	case errors.Is(err, service.ErrCustomerLimitExceeded):
		respondError(c, http.StatusConflict, "Discount already used by this customer")
	default:
		util.GetLogger().Error("Discount operation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to process discount")
	}
}
