package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's balance placed on its debit or
// credit column.
type TrialBalanceRow struct {
	AccountID     uuid.UUID       `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	DebitBalance  decimal.Decimal `json:"debit_balance"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// TrialBalance lists all account balances and verifies total debits
// equal total credits.
type TrialBalance struct {
	TenantID     uuid.UUID         `json:"tenant_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	Balanced     bool              `json:"balanced"`
}

// ReportLine is one account line in a financial statement section.
type ReportLine struct {
	AccountID     uuid.UUID       `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
}

// BalanceSheet presents assets against liabilities plus equity.
// Contra accounts reduce their section totals.
type BalanceSheet struct {
	TenantID                  uuid.UUID       `json:"tenant_id"`
	GeneratedAt               time.Time       `json:"generated_at"`
	Assets                    []ReportLine    `json:"assets"`
	Liabilities               []ReportLine    `json:"liabilities"`
	Equity                    []ReportLine    `json:"equity"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	NetIncome                 decimal.Decimal `json:"net_income"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Balanced                  bool            `json:"balanced"`
}

// IncomeStatement presents revenue against expenses.
type IncomeStatement struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Revenue       []ReportLine    `json:"revenue"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// CashFlowStatement summarizes cash account movement over one fiscal
// period.
type CashFlowStatement struct {
	TenantID     uuid.UUID       `json:"tenant_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	FiscalYear   int             `json:"fiscal_year"`
	FiscalPeriod int             `json:"fiscal_period"`
	OpeningCash  decimal.Decimal `json:"opening_cash"`
	CashInflows  decimal.Decimal `json:"cash_inflows"`
	CashOutflows decimal.Decimal `json:"cash_outflows"`
	ClosingCash  decimal.Decimal `json:"closing_cash"`
}

// IntegrityReport is the result of the explicit integrity-check query
// over an entire tenant's books.
type IntegrityReport struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Violations  []string  `json:"violations"`
	Clean       bool      `json:"clean"`
}
