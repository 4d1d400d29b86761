package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// ReconciliationRepository stores reconciliation records in Postgres
// with optimistic locking on the version column.
type ReconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

const reconciliationColumns = `id, tenant_id, account_id, reconciliation_date, statement_date,
	book_balance, statement_balance, adjusted_balance, outstanding_debits, outstanding_credits,
	status, notes, reconciled_at, disputed_at, version, created_at, updated_at`

func (r *ReconciliationRepository) Create(ctx context.Context, rec *models.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.TenantID, rec.AccountID, rec.ReconciliationDate, rec.StatementDate,
		rec.BookBalance, rec.StatementBalance, rec.AdjustedBalance,
		rec.OutstandingDebits, rec.OutstandingCredits, rec.Status, rec.Notes,
		rec.ReconciledAt, rec.DisputedAt, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	return mapError(err, "create reconciliation")
}

func (r *ReconciliationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE tenant_id = $1 AND id = $2`
	return scanReconciliation(r.db.QueryRowContext(ctx, query, tenantID, id))
}

// Update writes balance-affecting fields under the version guard.
func (r *ReconciliationRepository) Update(ctx context.Context, rec *models.Reconciliation) error {
	query := `
		UPDATE reconciliations
		SET statement_balance = $1, adjusted_balance = $2, outstanding_debits = $3,
			outstanding_credits = $4, status = $5, notes = $6, reconciled_at = $7,
			disputed_at = $8, version = version + 1, updated_at = $9
		WHERE tenant_id = $10 AND id = $11 AND version = $12`

	res, err := r.db.ExecContext(ctx, query,
		rec.StatementBalance, rec.AdjustedBalance, rec.OutstandingDebits,
		rec.OutstandingCredits, rec.Status, rec.Notes, rec.ReconciledAt,
		rec.DisputedAt, rec.UpdatedAt, rec.TenantID, rec.ID, rec.Version)
	if err != nil {
		return mapError(err, "update reconciliation")
	}
	return requireVersionedRow(res, rec.Version)
}

func (r *ReconciliationRepository) ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID) ([]*models.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations
		WHERE tenant_id = $1 AND account_id = $2 ORDER BY reconciliation_date DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, mapError(err, "list reconciliations")
	}
	defer rows.Close()

	var recs []*models.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, mapError(rows.Err(), "list reconciliations")
}

func scanReconciliation(row rowScanner) (*models.Reconciliation, error) {
	var rec models.Reconciliation
	var notes sql.NullString
	var reconciledAt, disputedAt sql.NullTime

	err := row.Scan(&rec.ID, &rec.TenantID, &rec.AccountID, &rec.ReconciliationDate,
		&rec.StatementDate, &rec.BookBalance, &rec.StatementBalance, &rec.AdjustedBalance,
		&rec.OutstandingDebits, &rec.OutstandingCredits, &rec.Status, &notes,
		&reconciledAt, &disputedAt, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "get reconciliation")
	}

	rec.Notes = notes.String
	if reconciledAt.Valid {
		rec.ReconciledAt = &reconciledAt.Time
	}
	if disputedAt.Valid {
		rec.DisputedAt = &disputedAt.Time
	}
	return &rec, nil
}
