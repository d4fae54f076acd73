package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/journal"
)

type JournalHandler struct{ repo journal.Repository }

func NewJournalHandler(repo journal.Repository) *JournalHandler {
	return &JournalHandler{repo: repo}
}

// List returns recent submission attempts, newest first. The reconciliation
// dialog filters by register and looks for ambiguous entries.
func (h *JournalHandler) List(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("submission journal is disabled"))
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := h.repo.List(c.Request.Context(), c.Query("register"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("journal read failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
