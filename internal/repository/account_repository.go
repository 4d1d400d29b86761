package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// AccountRepository stores the chart of accounts in Postgres. The
// unique index on (tenant_id, account_number) enforces number
// uniqueness; the version column carries optimistic locking.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, tenant_id, account_number, name, type, subtype, parent_id,
	level, path, normal_balance, current_balance, is_active, is_system_account,
	allow_manual_entries, require_department, require_project, version, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.TenantID, account.AccountNumber, account.Name,
		account.Type, account.Subtype, nullUUID(account.ParentID),
		account.Level, account.Path, account.NormalBalance, account.CurrentBalance,
		account.IsActive, account.IsSystemAccount, account.AllowManualEntries,
		account.RequireDepartment, account.RequireProject, account.Version,
		account.CreatedAt, account.UpdatedAt)
	return mapError(err, "create account")
}

func (r *AccountRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND id = $2`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, tenantID, id), "get account")
}

func (r *AccountRepository) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND account_number = $2`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, tenantID, number), "get account by number")
}

func (r *AccountRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 ORDER BY account_number`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err, "list accounts")
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := r.scanAccount(rows, "list accounts")
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, mapError(rows.Err(), "list accounts")
}

// Update writes all mutable fields, guarded by the version column.
// Zero rows affected means the row is gone or the version is stale.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, subtype = $2, parent_id = $3, level = $4, path = $5,
			is_active = $6, allow_manual_entries = $7, require_department = $8,
			require_project = $9, version = version + 1, updated_at = $10
		WHERE tenant_id = $11 AND id = $12 AND version = $13`

	res, err := r.db.ExecContext(ctx, query,
		account.Name, account.Subtype, nullUUID(account.ParentID),
		account.Level, account.Path, account.IsActive, account.AllowManualEntries,
		account.RequireDepartment, account.RequireProject, account.UpdatedAt,
		account.TenantID, account.ID, account.Version)
	if err != nil {
		return mapError(err, "update account")
	}
	return requireVersionedRow(res, account.Version)
}

func (r *AccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return mapError(err, "delete account")
	}
	return requireRow(res, "delete account")
}

func (r *AccountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE tenant_id = $1 AND parent_id = $2)`,
		tenantID, id).Scan(&exists)
	if err != nil {
		return false, mapError(err, "check account children")
	}
	return exists, nil
}

func (r *AccountRepository) scanAccount(row rowScanner, op string) (*models.Account, error) {
	var a models.Account
	var parentID uuid.NullUUID
	err := row.Scan(&a.ID, &a.TenantID, &a.AccountNumber, &a.Name, &a.Type, &a.Subtype,
		&parentID, &a.Level, &a.Path, &a.NormalBalance, &a.CurrentBalance,
		&a.IsActive, &a.IsSystemAccount, &a.AllowManualEntries,
		&a.RequireDepartment, &a.RequireProject, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err, op)
	}
	if parentID.Valid {
		a.ParentID = &parentID.UUID
	}
	return &a, nil
}
