package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type JournalHandler struct {
	service *service.JournalService
	logger  *zap.Logger
}

func NewJournalHandler(service *service.JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{service: service, logger: logger}
}

// Create accepts a manual draft entry. Entries arriving through this
// surface are always treated as manual.
func (h *JournalHandler) Create(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	var params service.CreateEntryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params.Manual = true

	entry, err := h.service.CreateEntry(c.Request.Context(), tenant, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *JournalHandler) Get(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *JournalHandler) Update(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var params service.UpdateEntryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params.Manual = true

	entry, err := h.service.UpdateEntry(c.Request.Context(), tenant, id, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *JournalHandler) Delete(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEntry(c.Request.Context(), tenant, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *JournalHandler) Post(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PostingDate *time.Time `json:"posting_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	entry, err := h.service.PostEntry(c.Request.Context(), tenant, id, req.PostingDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *JournalHandler) Reverse(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string     `json:"reason"`
		Actor  string     `json:"actor"`
		Date   *time.Time `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reversal, err := h.service.ReverseEntry(c.Request.Context(), tenant, id, req.Reason, req.Actor, req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reversal)
}

func (h *JournalHandler) Ledger(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	lines, err := h.service.GetAccountLedger(c.Request.Context(), tenant, accountID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}
