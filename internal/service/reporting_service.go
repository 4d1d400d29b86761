package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// SubtypeCash marks accounts that participate in the cash flow
// statement.
const SubtypeCash = "cash"

// ReportingService derives trial balance, balance sheet, income
// statement and cash flow from account balances. It is a read-only
// consumer of the ledger, fronted by the report cache.
type ReportingService struct {
	accounts AccountRepository
	balances BalanceRepository
	cache    *ReportCache
	logger   *zap.Logger
}

func NewReportingService(accounts AccountRepository, balances BalanceRepository, cache *ReportCache, logger *zap.Logger) *ReportingService {
	return &ReportingService{accounts: accounts, balances: balances, cache: cache, logger: logger}
}

// TrialBalance lists every active account's balance on its normal
// side and verifies total debits equal total credits.
func (s *ReportingService) TrialBalance(ctx context.Context, tenantID uuid.UUID) (*models.TrialBalance, error) {
	key := s.cache.Key(tenantID, "trial-balance", "")
	var cached models.TrialBalance
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	accounts, err := s.activeAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	tb := &models.TrialBalance{
		TenantID:     tenantID,
		GeneratedAt:  time.Now().UTC(),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, a := range accounts {
		row := models.TrialBalanceRow{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			Type:          a.Type,
		}
		// A negative balance flips to the opposite column.
		switch {
		case a.NormalBalance == models.NormalBalanceDebit && !a.CurrentBalance.IsNegative():
			row.DebitBalance = a.CurrentBalance
		case a.NormalBalance == models.NormalBalanceDebit:
			row.CreditBalance = a.CurrentBalance.Neg()
		case !a.CurrentBalance.IsNegative():
			row.CreditBalance = a.CurrentBalance
		default:
			row.DebitBalance = a.CurrentBalance.Neg()
		}
		tb.TotalDebits = tb.TotalDebits.Add(row.DebitBalance)
		tb.TotalCredits = tb.TotalCredits.Add(row.CreditBalance)
		tb.Rows = append(tb.Rows, row)
	}
	tb.Balanced = tb.TotalDebits.Sub(tb.TotalCredits).Abs().LessThanOrEqual(balanceTolerance)

	s.cache.Set(ctx, tenantID, key, tb)
	return tb, nil
}

// BalanceSheet presents assets against liabilities plus equity, with
// net income folded into the equity side. Contra accounts appear as
// negative lines in their base section.
func (s *ReportingService) BalanceSheet(ctx context.Context, tenantID uuid.UUID) (*models.BalanceSheet, error) {
	key := s.cache.Key(tenantID, "balance-sheet", "")
	var cached models.BalanceSheet
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	accounts, err := s.activeAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	bs := &models.BalanceSheet{
		TenantID:         tenantID,
		GeneratedAt:      time.Now().UTC(),
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		NetIncome:        decimal.Zero,
	}

	for _, a := range accounts {
		if a.CurrentBalance.IsZero() {
			continue
		}
		line := models.ReportLine{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			Amount:        sectionAmount(a),
		}
		switch models.BaseType(a.Type) {
		case models.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(line.Amount)
		case models.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(line.Amount)
		case models.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(line.Amount)
		case models.AccountTypeRevenue:
			bs.NetIncome = bs.NetIncome.Add(line.Amount)
		case models.AccountTypeExpense:
			bs.NetIncome = bs.NetIncome.Sub(line.Amount)
		}
	}

	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity).Add(bs.NetIncome)
	bs.Balanced = bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity).Abs().LessThanOrEqual(balanceTolerance)

	s.cache.Set(ctx, tenantID, key, bs)
	return bs, nil
}

// IncomeStatement presents revenue against expenses with contra
// accounts reducing their sections.
func (s *ReportingService) IncomeStatement(ctx context.Context, tenantID uuid.UUID) (*models.IncomeStatement, error) {
	key := s.cache.Key(tenantID, "income-statement", "")
	var cached models.IncomeStatement
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	accounts, err := s.activeAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	is := &models.IncomeStatement{
		TenantID:      tenantID,
		GeneratedAt:   time.Now().UTC(),
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, a := range accounts {
		if a.CurrentBalance.IsZero() {
			continue
		}
		line := models.ReportLine{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			Amount:        sectionAmount(a),
		}
		switch models.BaseType(a.Type) {
		case models.AccountTypeRevenue:
			is.Revenue = append(is.Revenue, line)
			is.TotalRevenue = is.TotalRevenue.Add(line.Amount)
		case models.AccountTypeExpense:
			is.Expenses = append(is.Expenses, line)
			is.TotalExpenses = is.TotalExpenses.Add(line.Amount)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)

	s.cache.Set(ctx, tenantID, key, is)
	return is, nil
}

// CashFlow summarizes the period movement across cash-subtype
// accounts from their balance snapshots.
func (s *ReportingService) CashFlow(ctx context.Context, tenantID uuid.UUID, fiscalYear, fiscalPeriod int) (*models.CashFlowStatement, error) {
	key := s.cache.Key(tenantID, "cash-flow", fmt.Sprintf("%d-%d", fiscalYear, fiscalPeriod))
	var cached models.CashFlowStatement
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	accounts, err := s.accounts.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	cashAccounts := make(map[uuid.UUID]bool)
	for _, a := range accounts {
		if a.Subtype == SubtypeCash {
			cashAccounts[a.ID] = true
		}
	}

	snapshots, err := s.balances.ListSnapshots(ctx, tenantID, fiscalYear, fiscalPeriod)
	if err != nil {
		return nil, err
	}

	cf := &models.CashFlowStatement{
		TenantID:     tenantID,
		GeneratedAt:  time.Now().UTC(),
		FiscalYear:   fiscalYear,
		FiscalPeriod: fiscalPeriod,
		OpeningCash:  decimal.Zero,
		CashInflows:  decimal.Zero,
		CashOutflows: decimal.Zero,
		ClosingCash:  decimal.Zero,
	}
	for _, snap := range snapshots {
		if !cashAccounts[snap.AccountID] {
			continue
		}
		cf.OpeningCash = cf.OpeningCash.Add(snap.OpeningBalance)
		cf.CashInflows = cf.CashInflows.Add(snap.DebitMovements)
		cf.CashOutflows = cf.CashOutflows.Add(snap.CreditMovements)
		cf.ClosingCash = cf.ClosingCash.Add(snap.ClosingBalance)
	}

	s.cache.Set(ctx, tenantID, key, cf)
	return cf, nil
}

// activeAccounts returns the tenant's active accounts sorted by
// account number.
func (s *ReportingService) activeAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	active := accounts[:0]
	for _, a := range accounts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].AccountNumber < active[j].AccountNumber })
	return active, nil
}

// sectionAmount is an account's contribution to its statement
// section: contra accounts count negative.
func sectionAmount(a *models.Account) decimal.Decimal {
	if models.IsContra(a.Type) {
		return a.CurrentBalance.Neg()
	}
	return a.CurrentBalance
}
