package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// MovementDelta applies the balance-sign convention: debit-normal
// accounts grow by debit - credit, credit-normal accounts by
// credit - debit.
func MovementDelta(nb models.NormalBalance, debit, credit decimal.Decimal) decimal.Decimal {
	if nb == models.NormalBalanceDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// BalanceService reads current balances and periodic snapshots, and
// runs the explicit integrity check over a tenant's books.
type BalanceService struct {
	accounts AccountRepository
	balances BalanceRepository
	logger   *zap.Logger
}

func NewBalanceService(accounts AccountRepository, balances BalanceRepository, logger *zap.Logger) *BalanceService {
	return &BalanceService{accounts: accounts, balances: balances, logger: logger}
}

// GetBalance returns the account with its current balance.
func (s *BalanceService) GetBalance(ctx context.Context, tenantID, accountID uuid.UUID) (*models.Account, error) {
	return s.accounts.GetByID(ctx, tenantID, accountID)
}

// GetSnapshot returns one periodic balance snapshot.
func (s *BalanceService) GetSnapshot(ctx context.Context, tenantID, accountID uuid.UUID, fiscalYear, fiscalPeriod int) (*models.AccountBalance, error) {
	return s.balances.GetSnapshot(ctx, tenantID, accountID, fiscalYear, fiscalPeriod)
}

// CheckIntegrity runs the invariants that must hold after every
// commit: the trial balance balances, every snapshot satisfies its
// closing equation, and no non-equity account has gone negative.
// Violations are reported, never raised during normal posting.
func (s *BalanceService) CheckIntegrity(ctx context.Context, tenantID uuid.UUID) (*models.IntegrityReport, error) {
	report := &models.IntegrityReport{
		TenantID:    tenantID,
		GeneratedAt: time.Now().UTC(),
	}

	accounts, err := s.accounts.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Account, len(accounts))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, a := range accounts {
		byID[a.ID] = a
		if a.NormalBalance == models.NormalBalanceDebit {
			totalDebit = totalDebit.Add(a.CurrentBalance)
		} else {
			totalCredit = totalCredit.Add(a.CurrentBalance)
		}
		if a.CurrentBalance.IsNegative() && models.BaseType(a.Type) != models.AccountTypeEquity {
			report.Violations = append(report.Violations,
				fmt.Sprintf("account %s (%s) has unexpected negative balance %s",
					a.AccountNumber, a.Type, a.CurrentBalance.StringFixed(2)))
		}
	}
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(balanceTolerance) {
		report.Violations = append(report.Violations,
			fmt.Sprintf("trial balance imbalance: debits %s != credits %s",
				totalDebit.StringFixed(2), totalCredit.StringFixed(2)))
	}

	snapshots, err := s.balances.ListAllSnapshots(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, snap := range snapshots {
		account, ok := byID[snap.AccountID]
		if !ok {
			report.Violations = append(report.Violations,
				fmt.Sprintf("snapshot %d/%d references unknown account %s",
					snap.FiscalYear, snap.FiscalPeriod, snap.AccountID))
			continue
		}
		expected := snap.OpeningBalance.Add(MovementDelta(account.NormalBalance, snap.DebitMovements, snap.CreditMovements))
		if !expected.Equal(snap.ClosingBalance) {
			report.Violations = append(report.Violations,
				fmt.Sprintf("snapshot %s %d/%d: closing %s != opening %s adjusted by movements",
					account.AccountNumber, snap.FiscalYear, snap.FiscalPeriod,
					snap.ClosingBalance.StringFixed(2), snap.OpeningBalance.StringFixed(2)))
		}
	}

	report.Clean = len(report.Violations) == 0
	if !report.Clean {
		s.logger.Warn("integrity check found violations",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("violations", len(report.Violations)))
	}
	return report, nil
}
