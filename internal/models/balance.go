package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountBalance is a periodic balance snapshot keyed by
// (tenant, account, fiscal year, fiscal period). For debit-normal
// accounts closing = opening + debits - credits; credit-normal
// accounts mirror the sign.
type AccountBalance struct {
	TenantID        uuid.UUID       `json:"tenant_id"`
	AccountID       uuid.UUID       `json:"account_id"`
	FiscalYear      int             `json:"fiscal_year"`
	FiscalPeriod    int             `json:"fiscal_period"`
	BalanceDate     time.Time       `json:"balance_date"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	DebitMovements  decimal.Decimal `json:"debit_movements"`
	CreditMovements decimal.Decimal `json:"credit_movements"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
}

// BalanceMovement is the aggregated effect of one posting on a single
// account. LineIDs key posting idempotency: every journal line is
// applied exactly once, even across retried operations. Delta is
// already signed per the account's normal balance. ExpectedVersion
// carries the optimistic version check that serializes concurrent
// updates to the same account.
type BalanceMovement struct {
	AccountID       uuid.UUID
	LineIDs         []uuid.UUID
	DebitAmount     decimal.Decimal
	CreditAmount    decimal.Decimal
	Delta           decimal.Decimal
	PriorBalance    decimal.Decimal
	ExpectedVersion int64
	FiscalYear      int
	FiscalPeriod    int
	BalanceDate     time.Time
}
