package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type EventHandler struct {
	router *service.EventRouter
	logger *zap.Logger
}

func NewEventHandler(router *service.EventRouter, logger *zap.Logger) *EventHandler {
	return &EventHandler{router: router, logger: logger}
}

// Post accepts a business event and returns the automatic journal
// entry it produced.
func (h *EventHandler) Post(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var req struct {
		Kind    service.EventKind `json:"kind"`
		Payload json.RawMessage   `json:"payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.router.PostDomainEvent(c.Request.Context(), tenant, req.Kind, req.Payload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
