package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
	EntryStatusVoided   EntryStatus = "voided"
)

// LineReconciliationStatus tracks whether a posted line has been
// matched during bank reconciliation.
type LineReconciliationStatus string

const (
	LineUnreconciled LineReconciliationStatus = "unreconciled"
	LineReconciled   LineReconciliationStatus = "reconciled"
)

// JournalEntry is the header of a balanced double-entry transaction.
// Entry numbers are unique per tenant per fiscal year and become
// durable once the entry is posted; deleting a draft frees its number.
// Manual records whether the entry was keyed in by hand, which some
// accounts disallow; it is checked again at posting time.
type JournalEntry struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	EntryNumber     int64           `json:"entry_number"`
	FiscalYear      int             `json:"fiscal_year"`
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description"`
	Status          EntryStatus     `json:"status"`
	SourceType      string          `json:"source_type,omitempty"`
	SourceID        string          `json:"source_id,omitempty"`
	Manual          bool            `json:"manual"`
	TotalDebits     decimal.Decimal `json:"total_debits"`
	TotalCredits    decimal.Decimal `json:"total_credits"`
	PostingDate     *time.Time      `json:"posting_date,omitempty"`
	OriginalEntryID *uuid.UUID      `json:"original_entry_id,omitempty"`
	ReversalEntryID *uuid.UUID      `json:"reversal_entry_id,omitempty"`
	ReversalReason  string          `json:"reversal_reason,omitempty"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	ReversedBy      string          `json:"reversed_by,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Lines []JournalEntryLine `json:"lines,omitempty"`
}

// JournalEntryLine is one side of a double-entry. Exactly one of
// DebitAmount/CreditAmount is nonzero; both are non-negative.
type JournalEntryLine struct {
	ID                   uuid.UUID                `json:"id"`
	EntryID              uuid.UUID                `json:"entry_id"`
	AccountID            uuid.UUID                `json:"account_id"`
	LineNumber           int                      `json:"line_number"`
	Description          string                   `json:"description,omitempty"`
	DebitAmount          decimal.Decimal          `json:"debit_amount"`
	CreditAmount         decimal.Decimal          `json:"credit_amount"`
	DepartmentID         *uuid.UUID               `json:"department_id,omitempty"`
	ProjectID            *uuid.UUID               `json:"project_id,omitempty"`
	LocationID           *uuid.UUID               `json:"location_id,omitempty"`
	CustomerID           *uuid.UUID               `json:"customer_id,omitempty"`
	SupplierID           *uuid.UUID               `json:"supplier_id,omitempty"`
	ReconciliationStatus LineReconciliationStatus `json:"reconciliation_status"`
}

// LedgerLine is one row of an account's ledger view: a posted line
// joined with its entry header plus the running balance after it.
type LedgerLine struct {
	EntryID        uuid.UUID       `json:"entry_id"`
	EntryNumber    int64           `json:"entry_number"`
	FiscalYear     int             `json:"fiscal_year"`
	EntryDate      time.Time       `json:"entry_date"`
	Description    string          `json:"description"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}
