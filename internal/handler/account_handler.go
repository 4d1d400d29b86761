package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type AccountHandler struct {
	service *service.AccountService
	logger  *zap.Logger
}

func NewAccountHandler(service *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

func (h *AccountHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var params service.CreateAccountParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), tenant, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) List(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *AccountHandler) Hierarchy(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	roots, err := h.service.GetHierarchy(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": roots})
}

func (h *AccountHandler) Update(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var params service.UpdateAccountParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), tenant, id, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Delete(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), tenant, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) SeedDefaults(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	if err := h.service.SeedDefaultChart(c.Request.Context(), tenant); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "seeded"})
}
