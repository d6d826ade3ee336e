package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nikotrade/backend/internal/service"
)

// ProductHandler serves the read-only catalog endpoints.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler wires the catalog handler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /v1/products. Supports ?featured=true for the
// landing page.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	if c.Query("featured") == "true" {
		c.JSON(http.StatusOK, gin.H{"products": h.products.ListFeaturedProducts()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": h.products.ListProducts()})
}

// GetProduct handles GET /v1/products/:slug.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetProductBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			fail(c, http.StatusNotFound, msgProductNotFound)
			return
		}
		fail(c, http.StatusInternalServerError, msgProductNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
