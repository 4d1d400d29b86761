package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// Well-known account numbers from the default chart. Event adapters
// resolve their posting targets through these.
const (
	DefaultAccountCash            = "1000"
	DefaultAccountReceivables     = "1100"
	DefaultAccountInventory       = "1200"
	DefaultAccountPayables        = "2000"
	DefaultAccountTaxPayable      = "2100"
	DefaultAccountPayrollPayable  = "2200"
	DefaultAccountRetainedEarning = "3000"
	DefaultAccountSalesRevenue    = "4000"
	DefaultAccountCOGS            = "5000"
	DefaultAccountPayrollExpense  = "5100"
	DefaultAccountInventoryAdjust = "5200"
)

// DefaultChart is the minimal chart of accounts seeded for a new
// tenant. System accounts back the automatic event adapters and
// cannot be modified or removed.
var DefaultChart = []CreateAccountParams{
	{AccountNumber: DefaultAccountCash, Name: "Cash", Type: models.AccountTypeAsset, Subtype: SubtypeCash, AllowManualEntries: true},
	{AccountNumber: DefaultAccountReceivables, Name: "Accounts Receivable", Type: models.AccountTypeAsset, AllowManualEntries: true},
	{AccountNumber: DefaultAccountInventory, Name: "Inventory", Type: models.AccountTypeAsset, AllowManualEntries: true},
	{AccountNumber: DefaultAccountPayables, Name: "Accounts Payable", Type: models.AccountTypeLiability, AllowManualEntries: true},
	{AccountNumber: DefaultAccountTaxPayable, Name: "Tax Payable", Type: models.AccountTypeLiability, IsSystemAccount: true},
	{AccountNumber: DefaultAccountPayrollPayable, Name: "Payroll Liabilities", Type: models.AccountTypeLiability, IsSystemAccount: true},
	{AccountNumber: DefaultAccountRetainedEarning, Name: "Retained Earnings", Type: models.AccountTypeEquity, AllowManualEntries: true},
	{AccountNumber: DefaultAccountSalesRevenue, Name: "Sales Revenue", Type: models.AccountTypeRevenue, AllowManualEntries: true},
	{AccountNumber: DefaultAccountCOGS, Name: "Cost of Goods Sold", Type: models.AccountTypeExpense, AllowManualEntries: true},
	{AccountNumber: DefaultAccountPayrollExpense, Name: "Payroll Expense", Type: models.AccountTypeExpense, AllowManualEntries: true},
	{AccountNumber: DefaultAccountInventoryAdjust, Name: "Inventory Adjustments", Type: models.AccountTypeExpense, AllowManualEntries: true},
}

// SeedDefaultChart creates any default accounts the tenant is missing.
// Existing numbers are left untouched.
func (s *AccountService) SeedDefaultChart(ctx context.Context, tenantID uuid.UUID) error {
	for _, params := range DefaultChart {
		_, err := s.CreateAccount(ctx, tenantID, params)
		if err != nil && !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
	}
	return nil
}
