package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	products  *service.ProductService
	orders    *service.OrderService
	discounts *service.DiscountService
	payments  *service.PaymentConfigService

	uploadDir     string
	uploadBaseURL string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	products *service.ProductService,
	orders *service.OrderService,
	discounts *service.DiscountService,
	payments *service.PaymentConfigService,
	uploadDir, uploadBaseURL string,
) *Handler {
	return &Handler{
		products:      products,
		orders:        orders,
		discounts:     discounts,
		payments:      payments,
		uploadDir:     uploadDir,
		uploadBaseURL: uploadBaseURL,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Static(h.uploadBaseURL, h.uploadDir)

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.POST("/products", h.createProduct)
		api.GET("/products/:id", h.getProduct)
		api.PUT("/products/:id", h.updateProduct)
		api.DELETE("/products/:id", h.deleteProduct)

		api.GET("/orders", h.listOrders)
		api.POST("/orders", h.createOrder)
		api.GET("/orders/:id", h.getOrder)
		api.PATCH("/orders/:id/status", h.updateOrderStatus)
		api.PATCH("/orders/:id/payment-status", h.updateOrderPaymentStatus)

		api.GET("/discounts", h.listDiscounts)
		api.POST("/discounts", h.createDiscount)
		api.GET("/discounts/:id", h.getDiscount)
		api.PUT("/discounts/:id", h.updateDiscount)
		api.DELETE("/discounts/:id", h.deactivateDiscount)
		api.POST("/discounts/validate", h.validateDiscount)
		api.POST("/discounts/redeem", h.redeemDiscount)

		api.GET("/attributes", h.listAttributes)
		api.POST("/attributes", h.createAttribute)

		api.GET("/payment-configs", h.listPaymentConfigs)
		api.GET("/payment-configs/:provider", h.getPaymentConfig)
		api.PUT("/payment-configs/:provider", h.savePaymentConfig)

		api.POST("/upload", h.uploadImage)
	}
}

// pagination is the page descriptor returned by list endpoints.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func newPagination(page, limit int, total int64) pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// paginationParams reads page/limit query params with the catalog
// defaults.
func paginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func respondList(c *gin.Context, data interface{}, p pagination) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": p,
	})
}

func respondData(c *gin.Context, status int, data interface{}, message string) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
