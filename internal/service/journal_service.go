package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/metrics"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// balanceTolerance is the maximum acceptable |debits - credits| for a
// balanced entry: one cent.
var balanceTolerance = decimal.New(1, -2)

// JournalService is the journal entry state machine:
// DRAFT -> POSTED -> REVERSED, with DRAFT entries deletable.
type JournalService struct {
	entries     JournalRepository
	accounts    AccountRepository
	invalidator ReportInvalidator
	logger      *zap.Logger
}

func NewJournalService(entries JournalRepository, accounts AccountRepository, invalidator ReportInvalidator, logger *zap.Logger) *JournalService {
	return &JournalService{
		entries:     entries,
		accounts:    accounts,
		invalidator: invalidator,
		logger:      logger,
	}
}

// LineInput is one caller-supplied journal line. Line numbers may be
// omitted (all zero) to auto-number 1..N in order.
type LineInput struct {
	LineNumber   int              `json:"line_number"`
	AccountID    uuid.UUID        `json:"account_id"`
	Description  string           `json:"description"`
	DebitAmount  decimal.Decimal  `json:"debit_amount"`
	CreditAmount decimal.Decimal  `json:"credit_amount"`
	DepartmentID *uuid.UUID       `json:"department_id"`
	ProjectID    *uuid.UUID       `json:"project_id"`
	LocationID   *uuid.UUID       `json:"location_id"`
	CustomerID   *uuid.UUID       `json:"customer_id"`
	SupplierID   *uuid.UUID       `json:"supplier_id"`
}

// CreateEntryParams holds the fields for a new draft entry. Manual
// marks entries keyed in by hand, which accounts may disallow.
type CreateEntryParams struct {
	EntryDate   time.Time   `json:"entry_date"`
	Description string      `json:"description"`
	SourceType  string      `json:"source_type"`
	SourceID    string      `json:"source_id"`
	CreatedBy   string      `json:"created_by"`
	Manual      bool        `json:"-"`
	Lines       []LineInput `json:"lines"`
}

// CreateEntry validates the lines and inserts a draft entry. The entry
// number comes from the per-tenant per-fiscal-year sequence, reserved
// in the same transaction as the header insert.
func (s *JournalService) CreateEntry(ctx context.Context, tenantID uuid.UUID, params CreateEntryParams) (*models.JournalEntry, error) {
	if params.EntryDate.IsZero() {
		params.EntryDate = time.Now().UTC()
	}

	entryID := uuid.New()
	lines, totalDebits, totalCredits, err := s.buildLines(ctx, tenantID, entryID, params.Lines, params.Manual)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &models.JournalEntry{
		ID:           entryID,
		TenantID:     tenantID,
		FiscalYear:   params.EntryDate.Year(),
		EntryDate:    params.EntryDate,
		Description:  params.Description,
		Status:       models.EntryStatusDraft,
		SourceType:   params.SourceType,
		SourceID:     params.SourceID,
		Manual:       params.Manual,
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		Lines:        lines,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	metrics.EntriesCreated.Inc()
	s.logger.Info("journal entry created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.Int64("entry_number", entry.EntryNumber),
		zap.String("total", totalDebits.StringFixed(2)))

	return entry, nil
}

// GetEntry fetches one entry with its lines.
func (s *JournalService) GetEntry(ctx context.Context, tenantID, id uuid.UUID) (*models.JournalEntry, error) {
	return s.entries.GetByID(ctx, tenantID, id)
}

// UpdateEntryParams replaces a draft entry's lines and optionally its
// description or date.
type UpdateEntryParams struct {
	Description *string     `json:"description"`
	EntryDate   *time.Time  `json:"entry_date"`
	Manual      bool        `json:"-"`
	Lines       []LineInput `json:"lines"`
}

// UpdateEntry replaces all lines of a draft entry and recomputes the
// totals. Non-draft entries are immutable.
func (s *JournalService) UpdateEntry(ctx context.Context, tenantID, id uuid.UUID, params UpdateEntryParams) (*models.JournalEntry, error) {
	entry, err := s.entries.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.EntryStatusDraft {
		return nil, apperrors.Conflictf("entry %d is %s; only draft entries can be updated", entry.EntryNumber, entry.Status)
	}

	if params.Description != nil {
		entry.Description = *params.Description
	}
	if params.EntryDate != nil {
		if params.EntryDate.Year() != entry.FiscalYear {
			return nil, apperrors.Validationf("entry date cannot move across fiscal years; delete and recreate instead")
		}
		entry.EntryDate = *params.EntryDate
	}

	lines, totalDebits, totalCredits, err := s.buildLines(ctx, tenantID, entry.ID, params.Lines, params.Manual)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	entry.TotalDebits = totalDebits
	entry.TotalCredits = totalCredits
	entry.UpdatedAt = time.Now().UTC()

	if err := s.entries.ReplaceLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes a draft entry's header and lines together.
func (s *JournalService) DeleteEntry(ctx context.Context, tenantID, id uuid.UUID) error {
	entry, err := s.entries.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if entry.Status != models.EntryStatusDraft {
		return apperrors.Conflictf("entry %d is %s; only draft entries can be deleted", entry.EntryNumber, entry.Status)
	}
	return s.entries.Delete(ctx, tenantID, id)
}

// PostEntry transitions a draft entry to posted, applying every line
// to its account balance per the normal-balance sign rule. The header
// update, idempotency records, balance updates and snapshot upserts
// commit as one transaction. A failed re-validation leaves the entry
// in draft for correction.
func (s *JournalService) PostEntry(ctx context.Context, tenantID, id uuid.UUID, postingDate *time.Time) (*models.JournalEntry, error) {
	timer := prometheus.NewTimer(metrics.PostingDuration)
	defer timer.ObserveDuration()

	entry, err := s.entries.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.EntryStatusDraft {
		return nil, apperrors.Conflictf("entry %d is %s; only draft entries can be posted", entry.EntryNumber, entry.Status)
	}

	when := time.Now().UTC()
	if postingDate != nil {
		when = *postingDate
	}

	movements, err := s.buildMovements(ctx, tenantID, entry.Lines, when, entry.Manual)
	if err != nil {
		return nil, err
	}

	entry.Status = models.EntryStatusPosted
	entry.PostingDate = &when
	entry.UpdatedAt = time.Now().UTC()

	if err := s.entries.Post(ctx, entry, movements); err != nil {
		// The transaction rolled back; the entry is still draft.
		entry.Status = models.EntryStatusDraft
		entry.PostingDate = nil
		return nil, err
	}

	metrics.EntriesPosted.Inc()
	if s.invalidator != nil {
		s.invalidator.InvalidateTenant(ctx, tenantID)
	}
	s.logger.Info("journal entry posted",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("entry_number", entry.EntryNumber),
		zap.String("total", entry.TotalDebits.StringFixed(2)))

	return entry, nil
}

// ReverseEntry creates and immediately posts a new entry with every
// line's debit and credit swapped, linked to the original in both
// directions. The original becomes REVERSED with reason, timestamp and
// actor. Valid only from POSTED.
func (s *JournalService) ReverseEntry(ctx context.Context, tenantID, id uuid.UUID, reason, actor string, date *time.Time) (*models.JournalEntry, error) {
	if reason == "" {
		return nil, apperrors.Validationf("reversal reason is required")
	}

	original, err := s.entries.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if original.Status != models.EntryStatusPosted {
		return nil, apperrors.Conflictf("entry %d is %s; only posted entries can be reversed", original.EntryNumber, original.Status)
	}

	when := time.Now().UTC()
	if date != nil {
		when = *date
	}

	reversalID := uuid.New()
	reversalLines := make([]models.JournalEntryLine, len(original.Lines))
	for i, line := range original.Lines {
		reversalLines[i] = models.JournalEntryLine{
			ID:           uuid.New(),
			EntryID:      reversalID,
			AccountID:    line.AccountID,
			LineNumber:   line.LineNumber,
			Description:  line.Description,
			DebitAmount:  line.CreditAmount,
			CreditAmount: line.DebitAmount,
			DepartmentID: line.DepartmentID,
			ProjectID:    line.ProjectID,
			LocationID:   line.LocationID,
			CustomerID:   line.CustomerID,
			SupplierID:   line.SupplierID,

			ReconciliationStatus: models.LineUnreconciled,
		}
	}

	reversal := &models.JournalEntry{
		ID:              reversalID,
		TenantID:        tenantID,
		FiscalYear:      when.Year(),
		EntryDate:       when,
		Description:     fmt.Sprintf("Reversal of entry %d: %s", original.EntryNumber, original.Description),
		Status:          models.EntryStatusPosted,
		SourceType:      "reversal",
		SourceID:        original.ID.String(),
		TotalDebits:     original.TotalCredits,
		TotalCredits:    original.TotalDebits,
		PostingDate:     &when,
		OriginalEntryID: &original.ID,
		CreatedBy:       actor,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
		Lines:           reversalLines,
	}

	movements, err := s.buildMovements(ctx, tenantID, reversalLines, when, false)
	if err != nil {
		return nil, err
	}

	original.Status = models.EntryStatusReversed
	original.ReversalEntryID = &reversal.ID
	original.ReversalReason = reason
	original.ReversedAt = &when
	original.ReversedBy = actor
	original.UpdatedAt = time.Now().UTC()

	if err := s.entries.Reverse(ctx, original, reversal, movements); err != nil {
		original.Status = models.EntryStatusPosted
		original.ReversalEntryID = nil
		original.ReversalReason = ""
		original.ReversedAt = nil
		original.ReversedBy = ""
		return nil, err
	}

	metrics.EntriesReversed.Inc()
	if s.invalidator != nil {
		s.invalidator.InvalidateTenant(ctx, tenantID)
	}
	s.logger.Info("journal entry reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("original_entry_number", original.EntryNumber),
		zap.Int64("reversal_entry_number", reversal.EntryNumber),
		zap.String("reason", reason))

	return reversal, nil
}

// GetAccountLedger lists an account's posted lines in chronological
// order with a running balance per the account's normal-balance rule.
func (s *JournalService) GetAccountLedger(ctx context.Context, tenantID, accountID uuid.UUID, limit int) ([]*models.LedgerLine, error) {
	account, err := s.accounts.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	lines, err := s.entries.ListAccountLines(ctx, tenantID, accountID, limit)
	if err != nil {
		return nil, err
	}

	running := decimal.Zero
	for _, line := range lines {
		running = running.Add(MovementDelta(account.NormalBalance, line.DebitAmount, line.CreditAmount))
		line.RunningBalance = running
	}
	return lines, nil
}

// buildLines validates line inputs and returns persisted-shape lines
// plus totals. All checks happen before any mutation.
func (s *JournalService) buildLines(ctx context.Context, tenantID, entryID uuid.UUID, inputs []LineInput, manual bool) ([]models.JournalEntryLine, decimal.Decimal, decimal.Decimal, error) {
	zero := decimal.Zero
	if len(inputs) < 2 {
		return nil, zero, zero, apperrors.Validationf("an entry requires at least two lines")
	}

	// Auto-number when the caller supplied no line numbers at all.
	allZero := true
	for _, in := range inputs {
		if in.LineNumber != 0 {
			allZero = false
			break
		}
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	seen := make(map[int]bool, len(inputs))
	lines := make([]models.JournalEntryLine, len(inputs))
	cents := decimal.NewFromInt(100)

	for i, in := range inputs {
		lineNumber := in.LineNumber
		if allZero {
			lineNumber = i + 1
		}
		if seen[lineNumber] {
			return nil, zero, zero, apperrors.Validationf("duplicate line number %d", lineNumber)
		}
		seen[lineNumber] = true

		if in.DebitAmount.IsNegative() || in.CreditAmount.IsNegative() {
			return nil, zero, zero, apperrors.Validationf("line %d: amounts must be non-negative", lineNumber)
		}
		hasDebit := !in.DebitAmount.IsZero()
		hasCredit := !in.CreditAmount.IsZero()
		if hasDebit == hasCredit {
			return nil, zero, zero, apperrors.Validationf("line %d: exactly one of debit or credit must be set", lineNumber)
		}
		amount := in.DebitAmount
		if hasCredit {
			amount = in.CreditAmount
		}
		if !amount.Mul(cents).Equal(amount.Mul(cents).Floor()) {
			return nil, zero, zero, apperrors.Validationf("line %d: amount %s has more than 2 decimal places", lineNumber, amount)
		}

		account, err := s.accounts.GetByID(ctx, tenantID, in.AccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, zero, zero, apperrors.NotFoundf("line %d: account %s", lineNumber, in.AccountID)
			}
			return nil, zero, zero, err
		}
		if !account.IsActive {
			return nil, zero, zero, apperrors.Validationf("line %d: account %s is inactive", lineNumber, account.AccountNumber)
		}
		if manual && !account.AllowManualEntries {
			return nil, zero, zero, apperrors.Validationf("line %d: account %s does not allow manual entries", lineNumber, account.AccountNumber)
		}
		if account.RequireDepartment && in.DepartmentID == nil {
			return nil, zero, zero, apperrors.Validationf("line %d: account %s requires a department", lineNumber, account.AccountNumber)
		}
		if account.RequireProject && in.ProjectID == nil {
			return nil, zero, zero, apperrors.Validationf("line %d: account %s requires a project", lineNumber, account.AccountNumber)
		}

		totalDebits = totalDebits.Add(in.DebitAmount)
		totalCredits = totalCredits.Add(in.CreditAmount)

		lines[i] = models.JournalEntryLine{
			ID:           uuid.New(),
			EntryID:      entryID,
			AccountID:    in.AccountID,
			LineNumber:   lineNumber,
			Description:  in.Description,
			DebitAmount:  in.DebitAmount,
			CreditAmount: in.CreditAmount,
			DepartmentID: in.DepartmentID,
			ProjectID:    in.ProjectID,
			LocationID:   in.LocationID,
			CustomerID:   in.CustomerID,
			SupplierID:   in.SupplierID,

			ReconciliationStatus: models.LineUnreconciled,
		}
	}

	// Line numbers must be contiguous 1..N.
	for n := 1; n <= len(inputs); n++ {
		if !seen[n] {
			return nil, zero, zero, apperrors.Validationf("line numbers must be contiguous 1..%d; missing %d", len(inputs), n)
		}
	}

	if totalDebits.Sub(totalCredits).Abs().GreaterThan(balanceTolerance) {
		return nil, zero, zero, apperrors.Validationf("entry is unbalanced: debits %s != credits %s",
			totalDebits.StringFixed(2), totalCredits.StringFixed(2))
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, totalDebits, totalCredits, nil
}

// buildMovements re-validates every referenced account, including the
// manual-entry permission for hand-keyed entries, and aggregates the
// lines into one movement per account, signed per normal balance.
// Movements are ordered by account id so the storage layer always
// locks accounts deterministically.
func (s *JournalService) buildMovements(ctx context.Context, tenantID uuid.UUID, lines []models.JournalEntryLine, when time.Time, manual bool) ([]models.BalanceMovement, error) {
	accounts := make(map[uuid.UUID]*models.Account)
	byAccount := make(map[uuid.UUID]*models.BalanceMovement)
	var order []uuid.UUID

	for _, line := range lines {
		account, ok := accounts[line.AccountID]
		if !ok {
			var err error
			account, err = s.accounts.GetByID(ctx, tenantID, line.AccountID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, apperrors.NotFoundf("account %s referenced by line %d", line.AccountID, line.LineNumber)
				}
				return nil, err
			}
			if !account.IsActive {
				return nil, apperrors.Validationf("account %s is no longer active", account.AccountNumber)
			}
			if manual && !account.AllowManualEntries {
				return nil, apperrors.Validationf("account %s no longer allows manual entries", account.AccountNumber)
			}
			accounts[line.AccountID] = account
		}

		mv, ok := byAccount[line.AccountID]
		if !ok {
			mv = &models.BalanceMovement{
				AccountID:       line.AccountID,
				PriorBalance:    account.CurrentBalance,
				ExpectedVersion: account.Version,
				FiscalYear:      when.Year(),
				FiscalPeriod:    int(when.Month()),
				BalanceDate:     when,
			}
			byAccount[line.AccountID] = mv
			order = append(order, line.AccountID)
		}
		mv.LineIDs = append(mv.LineIDs, line.ID)
		mv.DebitAmount = mv.DebitAmount.Add(line.DebitAmount)
		mv.CreditAmount = mv.CreditAmount.Add(line.CreditAmount)
		mv.Delta = mv.Delta.Add(MovementDelta(account.NormalBalance, line.DebitAmount, line.CreditAmount))
	}

	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })
	movements := make([]models.BalanceMovement, 0, len(order))
	for _, id := range order {
		movements = append(movements, *byAccount[id])
	}
	return movements, nil
}
