package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type TaxHandler struct {
	service *service.TaxService
	logger  *zap.Logger
}

func NewTaxHandler(service *service.TaxService, logger *zap.Logger) *TaxHandler {
	return &TaxHandler{service: service, logger: logger}
}

func (h *TaxHandler) Calculate(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var input models.TaxCalculationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CalculateTax(c.Request.Context(), tenant, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
