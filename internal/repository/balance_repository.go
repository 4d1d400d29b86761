package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// BalanceRepository reads periodic balance snapshots. Writes happen
// only inside journal posting transactions.
type BalanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

const balanceColumns = `tenant_id, account_id, fiscal_year, fiscal_period,
	balance_date, opening_balance, debit_movements, credit_movements, closing_balance`

func (r *BalanceRepository) GetSnapshot(ctx context.Context, tenantID, accountID uuid.UUID, fiscalYear, fiscalPeriod int) (*models.AccountBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM account_balances
		WHERE tenant_id = $1 AND account_id = $2 AND fiscal_year = $3 AND fiscal_period = $4`
	return scanBalance(r.db.QueryRowContext(ctx, query, tenantID, accountID, fiscalYear, fiscalPeriod))
}

func (r *BalanceRepository) ListSnapshots(ctx context.Context, tenantID uuid.UUID, fiscalYear, fiscalPeriod int) ([]*models.AccountBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM account_balances
		WHERE tenant_id = $1 AND fiscal_year = $2 AND fiscal_period = $3`
	return r.queryBalances(ctx, query, tenantID, fiscalYear, fiscalPeriod)
}

func (r *BalanceRepository) ListAllSnapshots(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM account_balances
		WHERE tenant_id = $1 ORDER BY fiscal_year, fiscal_period`
	return r.queryBalances(ctx, query, tenantID)
}

func (r *BalanceRepository) queryBalances(ctx context.Context, query string, args ...interface{}) ([]*models.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list balance snapshots")
	}
	defer rows.Close()

	var balances []*models.AccountBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, mapError(rows.Err(), "list balance snapshots")
}

func scanBalance(row rowScanner) (*models.AccountBalance, error) {
	var b models.AccountBalance
	err := row.Scan(&b.TenantID, &b.AccountID, &b.FiscalYear, &b.FiscalPeriod,
		&b.BalanceDate, &b.OpeningBalance, &b.DebitMovements, &b.CreditMovements,
		&b.ClosingBalance)
	if err != nil {
		return nil, mapError(err, "get balance snapshot")
	}
	return &b, nil
}
