package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/model"
)

// LotSource is the backend surface for reading and rewriting expiry lots.
type LotSource interface {
	ProductBatches(ctx context.Context, productID int64) ([]model.ProductBatch, error)
	UpdateProductBatches(ctx context.Context, productID int64, batches []model.ProductBatch) error
}

// BatchesHandler passes lot reads and stocktake edits through to the
// backend. Unlike the per-line allocation endpoints this is not scoped to a
// register — it serves the product-management screen.
type BatchesHandler struct{ lots LotSource }

func NewBatchesHandler(lots LotSource) *BatchesHandler {
	return &BatchesHandler{lots: lots}
}

func (h *BatchesHandler) List(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	batches, err := h.lots.ProductBatches(c.Request.Context(), productID)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches})
}

func (h *BatchesHandler) Update(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Batches []model.ProductBatch `json:"batches" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	for _, b := range req.Batches {
		if b.Quantity < 0 {
			c.JSON(http.StatusUnprocessableEntity, apierror.New("lot quantities must not be negative"))
			return
		}
	}
	if err := h.lots.UpdateProductBatches(c.Request.Context(), productID, req.Batches); err != nil {
		writeUpstreamError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
