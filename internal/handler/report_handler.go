package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/service"
)

type ReportHandler struct {
	reports  *service.ReportingService
	balances *service.BalanceService
	logger   *zap.Logger
}

func NewReportHandler(reports *service.ReportingService, balances *service.BalanceService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, balances: balances, logger: logger}
}

func (h *ReportHandler) TrialBalance(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	tb, err := h.reports.TrialBalance(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tb)
}

func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	bs, err := h.reports.BalanceSheet(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bs)
}

func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	is, err := h.reports.IncomeStatement(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, is)
}

func (h *ReportHandler) CashFlow(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	year, period, ok := fiscalPeriod(c)
	if !ok {
		return
	}

	cf, err := h.reports.CashFlow(c.Request.Context(), tenant, year, period)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cf)
}

func (h *ReportHandler) Integrity(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	report, err := h.balances.CheckIntegrity(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Balance(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	account, err := h.balances.GetBalance(c.Request.Context(), tenant, accountID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id":      account.ID,
		"account_number":  account.AccountNumber,
		"current_balance": account.CurrentBalance,
		"normal_balance":  account.NormalBalance,
	})
}

func (h *ReportHandler) Snapshot(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	year, period, ok := fiscalPeriod(c)
	if !ok {
		return
	}

	snap, err := h.balances.GetSnapshot(c.Request.Context(), tenant, accountID, year, period)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func fiscalPeriod(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Query("fiscal_year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fiscal_year"})
		return 0, 0, false
	}
	period, err := strconv.Atoi(c.Query("fiscal_period"))
	if err != nil || period < 1 || period > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fiscal_period"})
		return 0, 0, false
	}
	return year, period, true
}
