package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus represents the lifecycle of a reconciliation
// record. Reconciled and disputed records are terminal for
// balance-affecting fields.
type ReconciliationStatus string

const (
	ReconciliationUnreconciled ReconciliationStatus = "unreconciled"
	ReconciliationReconciled   ReconciliationStatus = "reconciled"
	ReconciliationDisputed     ReconciliationStatus = "disputed"
)

// Reconciliation matches an account's book balance against an external
// statement balance for one statement cycle.
type Reconciliation struct {
	ID                 uuid.UUID            `json:"id"`
	TenantID           uuid.UUID            `json:"tenant_id"`
	AccountID          uuid.UUID            `json:"account_id"`
	ReconciliationDate time.Time            `json:"reconciliation_date"`
	StatementDate      time.Time            `json:"statement_date"`
	BookBalance        decimal.Decimal      `json:"book_balance"`
	StatementBalance   decimal.Decimal      `json:"statement_balance"`
	AdjustedBalance    decimal.Decimal      `json:"adjusted_balance"`
	OutstandingDebits  decimal.Decimal      `json:"outstanding_debits"`
	OutstandingCredits decimal.Decimal      `json:"outstanding_credits"`
	Status             ReconciliationStatus `json:"status"`
	Notes              string               `json:"notes,omitempty"`
	ReconciledAt       *time.Time           `json:"reconciled_at,omitempty"`
	DisputedAt         *time.Time           `json:"disputed_at,omitempty"`
	Version            int64                `json:"version"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ReconciliationSummary aggregates reconciliation history for one
// account.
type ReconciliationSummary struct {
	AccountID        uuid.UUID  `json:"account_id"`
	Total            int        `json:"total"`
	Reconciled       int        `json:"reconciled"`
	Disputed         int        `json:"disputed"`
	Unreconciled     int        `json:"unreconciled"`
	LastReconciledAt *time.Time `json:"last_reconciled_at,omitempty"`
}
