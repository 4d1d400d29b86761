package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// JournalRepository stores journal entries in Postgres. Posting and
// reversal apply their balance movements in the same transaction as
// the status change, with per-line idempotency records guarding
// against double application.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

const entryColumns = `id, tenant_id, entry_number, fiscal_year, entry_date, description,
	status, source_type, source_id, manual, total_debits, total_credits, posting_date,
	original_entry_id, reversal_entry_id, reversal_reason, reversed_at, reversed_by,
	created_by, created_at, updated_at`

const lineColumns = `id, entry_id, account_id, line_number, description,
	debit_amount, credit_amount, department_id, project_id, location_id,
	customer_id, supplier_id, reconciliation_status`

// Create inserts the header and lines in one transaction. The entry
// number comes from a MAX+1 subselect over (tenant, fiscal year); the
// unique index backstops concurrent inserts, which surface as a
// conflict the caller may retry. Deleting a draft frees its number for
// the next insert; posted numbers are durable because posted entries
// cannot be deleted.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO journal_entries (` + entryColumns + `)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(entry_number), 0) + 1
				 FROM journal_entries WHERE tenant_id = $2 AND fiscal_year = $3),
				$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING entry_number`

		err := tx.QueryRowContext(ctx, query,
			entry.ID, entry.TenantID, entry.FiscalYear, entry.EntryDate, entry.Description,
			entry.Status, entry.SourceType, entry.SourceID, entry.Manual, entry.TotalDebits, entry.TotalCredits,
			entry.PostingDate, nullUUID(entry.OriginalEntryID), nullUUID(entry.ReversalEntryID),
			entry.ReversalReason, entry.ReversedAt, entry.ReversedBy,
			entry.CreatedBy, entry.CreatedAt, entry.UpdatedAt).Scan(&entry.EntryNumber)
		if err != nil {
			return mapError(err, "create journal entry")
		}
		return r.insertLines(ctx, tx, entry)
	})
}

func (r *JournalRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE tenant_id = $1 AND id = $2`
	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM journal_entry_lines WHERE entry_id = $1 ORDER BY line_number`,
		entry.ID)
	if err != nil {
		return nil, mapError(err, "get journal lines")
	}
	defer rows.Close()

	for rows.Next() {
		line, err := r.scanLine(rows)
		if err != nil {
			return nil, err
		}
		entry.Lines = append(entry.Lines, *line)
	}
	return entry, mapError(rows.Err(), "get journal lines")
}

// ReplaceLines deletes and reinserts the lines of a draft entry and
// rewrites the header totals in one transaction.
func (r *JournalRepository) ReplaceLines(ctx context.Context, entry *models.JournalEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE journal_entries
			SET entry_date = $1, description = $2, source_type = $3, source_id = $4,
				total_debits = $5, total_credits = $6, updated_at = $7
			WHERE tenant_id = $8 AND id = $9 AND status = $10`,
			entry.EntryDate, entry.Description, entry.SourceType, entry.SourceID,
			entry.TotalDebits, entry.TotalCredits, entry.UpdatedAt,
			entry.TenantID, entry.ID, models.EntryStatusDraft)
		if err != nil {
			return mapError(err, "update journal entry")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperrors.Integrityf("update journal entry: rows affected: %v", err)
		}
		if n == 0 {
			return apperrors.Conflictf("entry is not a draft or does not exist")
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM journal_entry_lines WHERE entry_id = $1`, entry.ID); err != nil {
			return mapError(err, "delete journal lines")
		}
		return r.insertLines(ctx, tx, entry)
	})
}

func (r *JournalRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM journal_entry_lines WHERE entry_id = $1`, id); err != nil {
			return mapError(err, "delete journal lines")
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM journal_entries WHERE tenant_id = $1 AND id = $2 AND status = $3`,
			tenantID, id, models.EntryStatusDraft)
		if err != nil {
			return mapError(err, "delete journal entry")
		}
		return requireRow(res, "delete journal entry")
	})
}

// Post flips the entry to posted and applies the movements atomically.
func (r *JournalRepository) Post(ctx context.Context, entry *models.JournalEntry, movements []models.BalanceMovement) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE journal_entries
			SET status = $1, posting_date = $2, updated_at = $3
			WHERE tenant_id = $4 AND id = $5 AND status = $6`,
			models.EntryStatusPosted, entry.PostingDate, entry.UpdatedAt,
			entry.TenantID, entry.ID, models.EntryStatusDraft)
		if err != nil {
			return mapError(err, "post journal entry")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperrors.Integrityf("post journal entry: rows affected: %v", err)
		}
		if n == 0 {
			return apperrors.Conflictf("entry %d is not a draft", entry.EntryNumber)
		}

		return r.applyMovements(ctx, tx, entry, movements)
	})
}

// Reverse inserts the reversal as a posted entry, applies its
// movements, and marks the original reversed, all in one transaction.
func (r *JournalRepository) Reverse(ctx context.Context, original, reversal *models.JournalEntry, movements []models.BalanceMovement) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO journal_entries (` + entryColumns + `)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(entry_number), 0) + 1
				 FROM journal_entries WHERE tenant_id = $2 AND fiscal_year = $3),
				$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING entry_number`

		err := tx.QueryRowContext(ctx, query,
			reversal.ID, reversal.TenantID, reversal.FiscalYear, reversal.EntryDate,
			reversal.Description, reversal.Status, reversal.SourceType, reversal.SourceID,
			reversal.Manual, reversal.TotalDebits, reversal.TotalCredits, reversal.PostingDate,
			nullUUID(reversal.OriginalEntryID), nullUUID(reversal.ReversalEntryID),
			reversal.ReversalReason, reversal.ReversedAt, reversal.ReversedBy,
			reversal.CreatedBy, reversal.CreatedAt, reversal.UpdatedAt).Scan(&reversal.EntryNumber)
		if err != nil {
			return mapError(err, "create reversal entry")
		}
		if err := r.insertLines(ctx, tx, reversal); err != nil {
			return err
		}
		if err := r.applyMovements(ctx, tx, reversal, movements); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE journal_entries
			SET status = $1, reversal_entry_id = $2, reversal_reason = $3,
				reversed_at = $4, reversed_by = $5, updated_at = $6
			WHERE tenant_id = $7 AND id = $8 AND status = $9`,
			models.EntryStatusReversed, reversal.ID, original.ReversalReason,
			original.ReversedAt, original.ReversedBy, original.UpdatedAt,
			original.TenantID, original.ID, models.EntryStatusPosted)
		if err != nil {
			return mapError(err, "mark entry reversed")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperrors.Integrityf("mark entry reversed: rows affected: %v", err)
		}
		if n == 0 {
			return apperrors.Conflictf("entry %d is not posted", original.EntryNumber)
		}
		return nil
	})
}

func (r *JournalRepository) ListAccountLines(ctx context.Context, tenantID, accountID uuid.UUID, limit int) ([]*models.LedgerLine, error) {
	query := `
		SELECT e.id, e.entry_number, e.fiscal_year, e.entry_date, l.description,
			l.debit_amount, l.credit_amount
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.tenant_id = $1 AND l.account_id = $2 AND e.status IN ($3, $4)
		ORDER BY e.entry_date, e.entry_number, l.line_number
		LIMIT $5`

	rows, err := r.db.QueryContext(ctx, query,
		tenantID, accountID, models.EntryStatusPosted, models.EntryStatusReversed, limit)
	if err != nil {
		return nil, mapError(err, "list account lines")
	}
	defer rows.Close()

	var lines []*models.LedgerLine
	for rows.Next() {
		var l models.LedgerLine
		if err := rows.Scan(&l.EntryID, &l.EntryNumber, &l.FiscalYear, &l.EntryDate,
			&l.Description, &l.DebitAmount, &l.CreditAmount); err != nil {
			return nil, mapError(err, "list account lines")
		}
		lines = append(lines, &l)
	}
	return lines, mapError(rows.Err(), "list account lines")
}

// applyMovements records per-line idempotency rows, bumps account
// balances under the version guard, and upserts period snapshots. A
// duplicate line or stale version aborts the transaction.
func (r *JournalRepository) applyMovements(ctx context.Context, tx *sql.Tx, entry *models.JournalEntry, movements []models.BalanceMovement) error {
	for _, m := range movements {
		for _, lineID := range m.LineIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO applied_lines (line_id, tenant_id, account_id, entry_id, applied_at)
				VALUES ($1, $2, $3, $4, NOW())`,
				lineID, entry.TenantID, m.AccountID, entry.ID); err != nil {
				return mapError(err, "record applied line")
			}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET current_balance = current_balance + $1, version = version + 1, updated_at = NOW()
			WHERE tenant_id = $2 AND id = $3 AND version = $4`,
			m.Delta, entry.TenantID, m.AccountID, m.ExpectedVersion)
		if err != nil {
			return mapError(err, "apply balance movement")
		}
		if err := requireVersionedRow(res, m.ExpectedVersion); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO account_balances (tenant_id, account_id, fiscal_year, fiscal_period,
				balance_date, opening_balance, debit_movements, credit_movements, closing_balance)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $6 + $9)
			ON CONFLICT (tenant_id, account_id, fiscal_year, fiscal_period) DO UPDATE
			SET debit_movements = account_balances.debit_movements + EXCLUDED.debit_movements,
				credit_movements = account_balances.credit_movements + EXCLUDED.credit_movements,
				closing_balance = account_balances.closing_balance + $9,
				balance_date = GREATEST(account_balances.balance_date, EXCLUDED.balance_date)`,
			entry.TenantID, m.AccountID, m.FiscalYear, m.FiscalPeriod,
			m.BalanceDate, m.PriorBalance, m.DebitAmount, m.CreditAmount, m.Delta); err != nil {
			return mapError(err, "upsert balance snapshot")
		}
	}
	return nil
}

func (r *JournalRepository) insertLines(ctx context.Context, tx *sql.Tx, entry *models.JournalEntry) error {
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO journal_entry_lines (`+lineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			line.ID, entry.ID, line.AccountID, line.LineNumber, line.Description,
			line.DebitAmount, line.CreditAmount,
			nullUUID(line.DepartmentID), nullUUID(line.ProjectID), nullUUID(line.LocationID),
			nullUUID(line.CustomerID), nullUUID(line.SupplierID),
			line.ReconciliationStatus); err != nil {
			return mapError(err, "insert journal line")
		}
	}
	return nil
}

func (r *JournalRepository) scanEntry(row rowScanner) (*models.JournalEntry, error) {
	var e models.JournalEntry
	var postingDate, reversedAt sql.NullTime
	var originalID, reversalID uuid.NullUUID
	var sourceType, sourceID, reversalReason, reversedBy, createdBy sql.NullString

	err := row.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.FiscalYear, &e.EntryDate,
		&e.Description, &e.Status, &sourceType, &sourceID, &e.Manual, &e.TotalDebits, &e.TotalCredits,
		&postingDate, &originalID, &reversalID, &reversalReason, &reversedAt, &reversedBy,
		&createdBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "get journal entry")
	}

	e.SourceType = sourceType.String
	e.SourceID = sourceID.String
	e.ReversalReason = reversalReason.String
	e.ReversedBy = reversedBy.String
	e.CreatedBy = createdBy.String
	if postingDate.Valid {
		e.PostingDate = &postingDate.Time
	}
	if reversedAt.Valid {
		e.ReversedAt = &reversedAt.Time
	}
	if originalID.Valid {
		e.OriginalEntryID = &originalID.UUID
	}
	if reversalID.Valid {
		e.ReversalEntryID = &reversalID.UUID
	}
	return &e, nil
}

func (r *JournalRepository) scanLine(row rowScanner) (*models.JournalEntryLine, error) {
	var l models.JournalEntryLine
	var description sql.NullString
	var dept, proj, loc, cust, supp uuid.NullUUID

	err := row.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.LineNumber, &description,
		&l.DebitAmount, &l.CreditAmount, &dept, &proj, &loc, &cust, &supp,
		&l.ReconciliationStatus)
	if err != nil {
		return nil, mapError(err, "get journal line")
	}

	l.Description = description.String
	if dept.Valid {
		l.DepartmentID = &dept.UUID
	}
	if proj.Valid {
		l.ProjectID = &proj.UUID
	}
	if loc.Valid {
		l.LocationID = &loc.UUID
	}
	if cust.Valid {
		l.CustomerID = &cust.UUID
	}
	if supp.Valid {
		l.SupplierID = &supp.UUID
	}
	return &l, nil
}
