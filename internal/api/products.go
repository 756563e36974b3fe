package api

import (
	"errors"
	"net/http"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// objectIDParam parses the :id path parameter. Responds 400 and
// returns false on a malformed ID.
func objectIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// createProductRequest wraps a product with optional attribute names
// used to generate the variation grid server-side.
type createProductRequest struct {
	models.Product
	VariationColors []string `json:"variationColors,omitempty"`
	VariationSizes  []string `json:"variationSizes,omitempty"`
}

// listProducts handles GET /api/products
func (h *Handler) listProducts(c *gin.Context) {
	page, limit := paginationParams(c)

	filter := store.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if published, ok := c.GetQuery("isPublished"); ok {
		v := published == "true"
		filter.IsPublished = &v
	}

	products, total, err := h.products.ListProducts(c.Request.Context(), filter, page, limit)
	if err != nil {
		util.GetLogger().Error("Error fetching products", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	respondList(c, products, newPagination(page, limit, total))
}

// createProduct handles POST /api/products
func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := req.Product
	if product.HasVariations && len(product.Variations) == 0 && len(req.VariationColors) > 0 {
		variations, err := h.products.BuildVariations(
			c.Request.Context(), req.VariationColors, req.VariationSizes, product.BasePrice)
		if err != nil {
			util.GetLogger().Error("Error generating variations", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to create product")
			return
		}
		product.Variations = variations
	}

	created, err := h.products.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			respondError(c, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, service.ErrSKUExists):
			respondError(c, http.StatusBadRequest, "SKU already exists")
		default:
			util.GetLogger().Error("Error creating product", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	respondData(c, http.StatusCreated, created, "Product created successfully")
}

// getProduct handles GET /api/products/:id
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		util.GetLogger().Error("Error fetching product", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	respondData(c, http.StatusOK, product, "")
}

// updateProduct handles PUT /api/products/:id
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.products.UpdateProduct(c.Request.Context(), id, &product)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrSKUExists):
			respondError(c, http.StatusBadRequest, "SKU already exists")
		default:
			util.GetLogger().Error("Error updating product", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondData(c, http.StatusOK, updated, "Product updated successfully")
}

// deleteProduct handles DELETE /api/products/:id
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := objectIDParam(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		util.GetLogger().Error("Error deleting product", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondData(c, http.StatusOK, nil, "Product deleted successfully")
}

// listAttributes handles GET /api/attributes
func (h *Handler) listAttributes(c *gin.Context) {
	colors, sizes, err := h.products.ListAttributes(c.Request.Context())
	if err != nil {
		util.GetLogger().Error("Error fetching attributes", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch attributes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"colors":  colors,
		"sizes":   sizes,
	})
}

// createAttributeRequest creates either a color or a size.
type createAttributeRequest struct {
	Type    string `json:"type" binding:"required,oneof=color size"`
	Name    string `json:"name" binding:"required"`
	HexCode string `json:"hexCode"`
}

// createAttribute handles POST /api/attributes
func (h *Handler) createAttribute(c *gin.Context) {
	var req createAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Type {
	case "color":
		color, err := h.products.CreateColor(c.Request.Context(), req.Name, req.HexCode)
		if err != nil {
			if errors.Is(err, service.ErrMissingFields) {
				respondError(c, http.StatusBadRequest, "Name and hexCode required")
				return
			}
			util.GetLogger().Error("Error creating color", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to create attribute")
			return
		}
		respondData(c, http.StatusCreated, color, "")
	case "size":
		size, err := h.products.CreateSize(c.Request.Context(), req.Name)
		if err != nil {
			util.GetLogger().Error("Error creating size", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to create attribute")
			return
		}
		respondData(c, http.StatusCreated, size, "")
	}
}
