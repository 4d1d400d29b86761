package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type ReconciliationHandler struct {
	service *service.ReconciliationService
	logger  *zap.Logger
}

func NewReconciliationHandler(service *service.ReconciliationService, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{service: service, logger: logger}
}

func (h *ReconciliationHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var params service.CreateReconciliationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.service.CreateReconciliation(c.Request.Context(), tenant, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *ReconciliationHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetReconciliation(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ReconciliationHandler) AutoReconcile(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.AutoReconcile(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ReconciliationHandler) MarkReconciled(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.MarkAsReconciled(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ReconciliationHandler) MarkDisputed(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	rec, err := h.service.MarkAsDisputed(c.Request.Context(), tenant, id, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ReconciliationHandler) Summary(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.GetReconciliationSummary(c.Request.Context(), tenant, accountID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
