package api

import (
	"errors"
	"net/http"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listPaymentConfigs handles GET /api/payment-configs
func (h *Handler) listPaymentConfigs(c *gin.Context) {
	configs, err := h.payments.ListConfigs(c.Request.Context())
	if err != nil {
		util.GetLogger().Error("Error fetching payment configs", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch payment configs")
		return
	}

	respondData(c, http.StatusOK, configs, "")
}

// getPaymentConfig handles GET /api/payment-configs/:provider
func (h *Handler) getPaymentConfig(c *gin.Context) {
	cfg, err := h.payments.GetConfig(c.Request.Context(), c.Param("provider"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			respondError(c, http.StatusBadRequest, "Unknown payment provider")
			return
		}
		util.GetLogger().Error("Error fetching payment config", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch payment config")
		return
	}

	respondData(c, http.StatusOK, cfg, "")
}

// savePaymentConfig handles PUT /api/payment-configs/:provider
func (h *Handler) savePaymentConfig(c *gin.Context) {
	var cfg models.PaymentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	cfg.Provider = c.Param("provider")

	stored, err := h.payments.SaveConfig(c.Request.Context(), &cfg)
	if err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			respondError(c, http.StatusBadRequest, "Unknown payment provider")
			return
		}
		util.GetLogger().Error("Error saving payment config", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to save payment config")
		return
	}

	respondData(c, http.StatusOK, stored, "Payment config saved")
}
