package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/catalog"
)

type CatalogHandler struct{ cat *catalog.Service }

func NewCatalogHandler(cat *catalog.Service) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// Search serves the autocomplete box: prefix matches first, then substring.
func (h *CatalogHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": h.cat.Search(q, limit)})
}

// ByBarcode resolves one code the way a scan would, without touching a cart.
func (h *CatalogHandler) ByBarcode(c *gin.Context) {
	code := c.Param("code")
	product, ok := h.cat.ByBarcode(code)
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("no product with barcode "+code))
		return
	}
	c.JSON(http.StatusOK, product)
}

// Refresh forces a catalog reload from the backend (the UI's refresh button).
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if err := h.cat.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("catalog refresh failed: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":     h.cat.Size(),
		"refreshed_at": h.cat.RefreshedAt(),
	})
}
