package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/settings"
)

type SettingsHandler struct{ store *settings.Store }

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) GetPrinter(c *gin.Context) {
	ps, err := h.store.GetPrinter(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("settings read failed"))
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *SettingsHandler) SetPrinter(c *gin.Context) {
	var ps settings.PrinterSettings
	if !bindAndValidate(c, &ps) {
		return
	}
	if err := h.store.SetPrinter(c.Request.Context(), ps); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("settings write failed"))
		return
	}
	c.JSON(http.StatusOK, ps)
}

// Get reads one free-form key. The UI keeps small preferences here (last
// used move types, window layout) that must survive restarts.
func (h *SettingsHandler) Get(c *gin.Context) {
	value, err := h.store.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("setting not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("settings read failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

func (h *SettingsHandler) Set(c *gin.Context) {
	var req struct {
		Value string `json:"value" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.store.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("settings write failed"))
		return
	}
	c.Status(http.StatusNoContent)
}
