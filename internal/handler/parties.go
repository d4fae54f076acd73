package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"posagent/internal/apierror"
	"posagent/internal/model"
	"posagent/internal/party"
	"posagent/internal/upstream"
)

type PartiesHandler struct{ svc *party.Service }

func NewPartiesHandler(svc *party.Service) *PartiesHandler {
	return &PartiesHandler{svc: svc}
}

// Create persists a customer or supplier upstream immediately, outside of
// any checkout. (Parties staged on a register instead are created as part
// of that register's submission.)
func (h *PartiesHandler) Create(c *gin.Context) {
	var p model.Party
	if !bindAndValidate(c, &p) {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), p)
	if err != nil {
		writePartyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *PartiesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.Party
	if !bindAndValidate(c, &p) {
		return
	}
	p.ID = &id
	if err := h.svc.Update(c.Request.Context(), p); err != nil {
		writePartyError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PartiesHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writePartyError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writePartyError(c *gin.Context, err error) {
	if errors.Is(err, upstream.ErrBackendUnavailable) {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
}
