package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// AccountRepository persists the chart of accounts. Implementations
// map duplicate-key violations to apperrors.ErrConflict and missing
// rows to apperrors.ErrNotFound.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Account, error)
	GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Account, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.Account, error)
	// Update writes all mutable fields with an optimistic version
	// check; a stale version yields apperrors.ErrConflict.
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// JournalRepository persists journal entries. Every multi-row
// operation commits atomically: header, lines, balance updates and
// snapshot upserts succeed or fail together.
type JournalRepository interface {
	// Create inserts the header and lines in one transaction,
	// assigning the next entry number for (tenant, fiscal year) within
	// that same transaction.
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.JournalEntry, error)
	// ReplaceLines swaps all lines and rewrites header totals for a
	// draft entry in one transaction.
	ReplaceLines(ctx context.Context, entry *models.JournalEntry) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// Post transitions the entry to posted and applies the movements:
	// account balances, per-line idempotency records and period
	// snapshots, all in one transaction. An already-applied line or a
	// version mismatch yields apperrors.ErrConflict and no changes.
	Post(ctx context.Context, entry *models.JournalEntry, movements []models.BalanceMovement) error
	// Reverse inserts the reversal entry as posted, applies its
	// movements, and marks the original reversed, in one transaction.
	// The reversal's entry number is assigned inside the transaction.
	Reverse(ctx context.Context, original, reversal *models.JournalEntry, movements []models.BalanceMovement) error
	// ListAccountLines returns posted lines for one account in
	// chronological order.
	ListAccountLines(ctx context.Context, tenantID, accountID uuid.UUID, limit int) ([]*models.LedgerLine, error)
}

// BalanceRepository reads periodic balance snapshots.
type BalanceRepository interface {
	GetSnapshot(ctx context.Context, tenantID, accountID uuid.UUID, fiscalYear, fiscalPeriod int) (*models.AccountBalance, error)
	ListSnapshots(ctx context.Context, tenantID uuid.UUID, fiscalYear, fiscalPeriod int) ([]*models.AccountBalance, error)
	ListAllSnapshots(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error)
}

// ReconciliationRepository persists reconciliation records.
type ReconciliationRepository interface {
	Create(ctx context.Context, rec *models.Reconciliation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error)
	// Update writes balance-affecting fields with an optimistic
	// version check.
	Update(ctx context.Context, rec *models.Reconciliation) error
	ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID) ([]*models.Reconciliation, error)
}

// TaxRepository reads tax configuration and persists immutable
// calculation records.
type TaxRepository interface {
	// ListRates returns all rates joined with their jurisdictions,
	// carrying each jurisdiction's effective window on the rate;
	// window and applicability filtering happens in the service.
	ListRates(ctx context.Context, tenantID uuid.UUID) ([]*models.TaxRate, error)
	SaveCalculations(ctx context.Context, calcs []*models.TaxCalculation) error
}

// ReportInvalidator drops cached reports for a tenant. The journal
// service calls it after every balance-mutating commit.
type ReportInvalidator interface {
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID)
}
