package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/shift"
)

type ShiftHandler struct{ gate *shift.Gate }

func NewShiftHandler(gate *shift.Gate) *ShiftHandler { return &ShiftHandler{gate: gate} }

// Status reports whether a shift is open. The selling pages poll this to
// decide between the register and the "open a shift first" screen.
func (h *ShiftHandler) Status(c *gin.Context) {
	sh, err := h.gate.Require(c.Request.Context())
	if err != nil {
		if errors.Is(err, shift.ErrNoOpenShift) {
			c.JSON(http.StatusOK, gin.H{"open": false})
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "start_date_time": sh.StartDateTime})
}

// Close ends the backend session and drops the cached shift, so the next
// sell attempt is gated again.
func (h *ShiftHandler) Close(c *gin.Context) {
	if err := h.gate.Close(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
