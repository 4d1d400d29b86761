package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

type reportingFixture struct {
	*ledgerFixture
	cache      *ReportCache
	reportSvc  *ReportingService
	journalSvc *JournalService
}

func newReportingFixture(t *testing.T) *reportingFixture {
	t.Helper()
	base := newLedgerFixture(t)
	log := zap.NewNop()
	cache := NewReportCache(nil, time.Minute, log)
	// Wire the real cache as invalidator so posting drops stale reports.
	journalSvc := NewJournalService(base.journals, base.accounts, cache, log)

	return &reportingFixture{
		ledgerFixture: base,
		cache:         cache,
		reportSvc:     NewReportingService(base.accounts, base.balances, cache, log),
		journalSvc:    journalSvc,
	}
}

func (f *reportingFixture) post(t *testing.T, date time.Time, lines []LineInput) {
	t.Helper()
	ctx := context.Background()
	entry, err := f.journalSvc.CreateEntry(ctx, f.tenant, CreateEntryParams{
		EntryDate: date, Lines: lines,
	})
	require.NoError(t, err)
	_, err = f.journalSvc.PostEntry(ctx, f.tenant, entry.ID, &date)
	require.NoError(t, err)
}

func TestTrialBalanceBalances(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	expense := f.account(t, "5000", "Rent Expense", models.AccountTypeExpense)

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, revenue.ID, "1000.00"))
	f.post(t, now, twoLines(expense.ID, cash.ID, "300.00"))

	tb, err := f.reportSvc.TrialBalance(context.Background(), f.tenant)
	require.NoError(t, err)

	assert.True(t, tb.Balanced)
	assert.Equal(t, "1000.00", tb.TotalDebits.StringFixed(2))
	assert.Equal(t, "1000.00", tb.TotalCredits.StringFixed(2))
	require.Len(t, tb.Rows, 3)
	// Rows come back in account number order.
	assert.Equal(t, "1000", tb.Rows[0].AccountNumber)
	assert.Equal(t, "700.00", tb.Rows[0].DebitBalance.StringFixed(2))
}

func TestTrialBalanceFlipsNegativeBalances(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	overdrawn := f.account(t, "1100", "Petty Cash", models.AccountTypeAsset)

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, revenue.ID, "100.00"))
	// Credit petty cash with no prior balance: it goes negative.
	f.post(t, now, twoLines(cash.ID, overdrawn.ID, "40.00"))

	tb, err := f.reportSvc.TrialBalance(context.Background(), f.tenant)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)

	var petty models.TrialBalanceRow
	for _, row := range tb.Rows {
		if row.AccountNumber == "1100" {
			petty = row
		}
	}
	assert.True(t, petty.DebitBalance.IsZero())
	assert.Equal(t, "40.00", petty.CreditBalance.StringFixed(2))
}

func TestBalanceSheetFoldsNetIncome(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	expense := f.account(t, "5000", "Rent Expense", models.AccountTypeExpense)
	equity := f.account(t, "3000", "Owner Equity", models.AccountTypeEquity)

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, equity.ID, "5000.00"))
	f.post(t, now, twoLines(cash.ID, revenue.ID, "1000.00"))
	f.post(t, now, twoLines(expense.ID, cash.ID, "300.00"))

	bs, err := f.reportSvc.BalanceSheet(context.Background(), f.tenant)
	require.NoError(t, err)

	assert.Equal(t, "5700.00", bs.TotalAssets.StringFixed(2))
	assert.Equal(t, "5000.00", bs.TotalEquity.StringFixed(2))
	assert.Equal(t, "700.00", bs.NetIncome.StringFixed(2))
	assert.Equal(t, "5700.00", bs.TotalLiabilitiesAndEquity.StringFixed(2))
	assert.True(t, bs.Balanced)
}

func TestBalanceSheetContraReducesSection(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	equipment := f.account(t, "1500", "Equipment", models.AccountTypeAsset)
	depreciation := f.account(t, "1590", "Accumulated Depreciation", models.AccountTypeContraAsset)
	expense := f.account(t, "5100", "Depreciation Expense", models.AccountTypeExpense)

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, revenue.ID, "1000.00"))
	f.post(t, now, twoLines(equipment.ID, cash.ID, "600.00"))
	// Depreciation: debit expense, credit the contra asset.
	f.post(t, now, twoLines(expense.ID, depreciation.ID, "100.00"))

	bs, err := f.reportSvc.BalanceSheet(context.Background(), f.tenant)
	require.NoError(t, err)

	// Assets: cash 400 + equipment 600 - depreciation 100 = 900.
	assert.Equal(t, "900.00", bs.TotalAssets.StringFixed(2))
	// Net income: 1000 revenue - 100 expense = 900.
	assert.Equal(t, "900.00", bs.NetIncome.StringFixed(2))
	assert.True(t, bs.Balanced)
}

func TestIncomeStatement(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	expense := f.account(t, "5000", "Rent Expense", models.AccountTypeExpense)

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, revenue.ID, "1000.00"))
	f.post(t, now, twoLines(expense.ID, cash.ID, "250.00"))

	is, err := f.reportSvc.IncomeStatement(context.Background(), f.tenant)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", is.TotalRevenue.StringFixed(2))
	assert.Equal(t, "250.00", is.TotalExpenses.StringFixed(2))
	assert.Equal(t, "750.00", is.NetIncome.StringFixed(2))
}

func TestCashFlowUsesCashSubtypeSnapshots(t *testing.T) {
	f := newReportingFixture(t)
	ctx := context.Background()

	cash, err := f.accountSvc.CreateAccount(ctx, f.tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Cash", Type: models.AccountTypeAsset,
		Subtype: SubtypeCash, AllowManualEntries: true,
	})
	require.NoError(t, err)
	revenue := f.account(t, "4000", "Sales Revenue", models.AccountTypeRevenue)
	expense := f.account(t, "5000", "Rent Expense", models.AccountTypeExpense)

	march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f.post(t, march, twoLines(cash.ID, revenue.ID, "800.00"))
	f.post(t, march, twoLines(expense.ID, cash.ID, "150.00"))

	cf, err := f.reportSvc.CashFlow(ctx, f.tenant, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.00", cf.OpeningCash.StringFixed(2))
	assert.Equal(t, "800.00", cf.CashInflows.StringFixed(2))
	assert.Equal(t, "150.00", cf.CashOutflows.StringFixed(2))
	assert.Equal(t, "650.00", cf.ClosingCash.StringFixed(2))
}

func TestReportsInvalidatedByPosting(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	f.post(t, now, twoLines(cash.ID, revenue.ID, "100.00"))

	tb, err := f.reportSvc.TrialBalance(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, "100.00", tb.TotalDebits.StringFixed(2))

	// Posting again must drop the cached report.
	f.post(t, now, twoLines(cash.ID, revenue.ID, "50.00"))

	tb, err = f.reportSvc.TrialBalance(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, "150.00", tb.TotalDebits.StringFixed(2))
}

func TestIntegrityCheckClean(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)

	f.post(t, time.Now().UTC(), twoLines(cash.ID, revenue.ID, "100.00"))

	report, err := f.balanceSvc.CheckIntegrity(context.Background(), f.tenant)
	require.NoError(t, err)
	assert.True(t, report.Clean)
	assert.Empty(t, report.Violations)
}

func TestIntegrityCheckFindsViolations(t *testing.T) {
	f := newReportingFixture(t)
	cash, revenue := f.cashAndRevenue(t)

	f.post(t, time.Now().UTC(), twoLines(cash.ID, revenue.ID, "100.00"))

	// Corrupt the cash balance directly: trial balance imbalance plus
	// a negative non-equity account.
	f.accounts.mu.Lock()
	f.accounts.accounts[cash.ID].CurrentBalance = decimalFromString(t, "-5.00")
	f.accounts.mu.Unlock()

	report, err := f.balanceSvc.CheckIntegrity(context.Background(), f.tenant)
	require.NoError(t, err)
	assert.False(t, report.Clean)
	assert.NotEmpty(t, report.Violations)
}
