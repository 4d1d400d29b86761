package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

func newAccountFixture() (*AccountService, *fakeAccountRepo, uuid.UUID) {
	repo := newFakeAccountRepo()
	svc := NewAccountService(repo, zap.NewNop())
	return svc, repo, uuid.New()
}

func TestCreateAccountDerivesNormalBalance(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	cases := []struct {
		accountType models.AccountType
		want        models.NormalBalance
	}{
		{models.AccountTypeAsset, models.NormalBalanceDebit},
		{models.AccountTypeExpense, models.NormalBalanceDebit},
		{models.AccountTypeLiability, models.NormalBalanceCredit},
		{models.AccountTypeEquity, models.NormalBalanceCredit},
		{models.AccountTypeRevenue, models.NormalBalanceCredit},
		{models.AccountTypeContraAsset, models.NormalBalanceCredit},
		{models.AccountTypeContraRevenue, models.NormalBalanceDebit},
	}
	for i, tc := range cases {
		account, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
			AccountNumber: "90" + string(rune('0'+i)),
			Name:          string(tc.accountType),
			Type:          tc.accountType,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, account.NormalBalance, "type %s", tc.accountType)
		assert.True(t, account.CurrentBalance.IsZero())
		assert.Equal(t, int64(1), account.Version)
	}
}

func TestCreateAccountRejectsDuplicateNumber(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Cash", Type: models.AccountTypeAsset,
	})
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Cash Again", Type: models.AccountTypeAsset,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// A second tenant may reuse the number.
	_, err = svc.CreateAccount(ctx, uuid.New(), CreateAccountParams{
		AccountNumber: "1000", Name: "Cash", Type: models.AccountTypeAsset,
	})
	assert.NoError(t, err)
}

func TestCreateAccountUnknownType(t *testing.T) {
	svc, _, tenant := newAccountFixture()

	_, err := svc.CreateAccount(context.Background(), tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Mystery", Type: "goodwill",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateAccountHierarchy(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	parent, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Current Assets", Type: models.AccountTypeAsset,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, parent.Level)
	assert.Equal(t, "1000", parent.Path)

	child, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1010", Name: "Cash", Type: models.AccountTypeAsset, ParentID: &parent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "1000/1010", child.Path)

	// Contra of the parent's type is allowed.
	contra, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1090", Name: "Accumulated Depreciation",
		Type: models.AccountTypeContraAsset, ParentID: &parent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NormalBalanceCredit, contra.NormalBalance)

	// Unrelated type under an asset parent is not.
	_, err = svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "4000", Name: "Revenue", Type: models.AccountTypeRevenue, ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateAccountReparentCycle(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "A", Type: models.AccountTypeAsset,
	})
	require.NoError(t, err)
	b, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1100", Name: "B", Type: models.AccountTypeAsset, ParentID: &a.ID,
	})
	require.NoError(t, err)

	// Placing A under B would make the chain loop.
	_, err = svc.UpdateAccount(ctx, tenant, a.ID, UpdateAccountParams{ParentID: &b.ID})
	require.Error(t, err)
}

func TestUpdateAccountSystemImmutable(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "2100", Name: "Tax Payable",
		Type: models.AccountTypeLiability, IsSystemAccount: true,
	})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.UpdateAccount(ctx, tenant, account.ID, UpdateAccountParams{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = svc.DeleteAccount(ctx, tenant, account.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestDeleteAccountBlockedByChildrenAndBalance(t *testing.T) {
	svc, repo, tenant := newAccountFixture()
	ctx := context.Background()

	parent, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Assets", Type: models.AccountTypeAsset,
	})
	require.NoError(t, err)
	child, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1010", Name: "Cash", Type: models.AccountTypeAsset, ParentID: &parent.ID,
	})
	require.NoError(t, err)

	err = svc.DeleteAccount(ctx, tenant, parent.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// A nonzero balance also blocks deletion.
	repo.mu.Lock()
	repo.accounts[child.ID].CurrentBalance = decimalFromString(t, "10.00")
	repo.mu.Unlock()
	err = svc.DeleteAccount(ctx, tenant, child.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	repo.mu.Lock()
	repo.accounts[child.ID].CurrentBalance = decimalFromString(t, "0")
	repo.mu.Unlock()
	require.NoError(t, svc.DeleteAccount(ctx, tenant, child.ID))
	require.NoError(t, svc.DeleteAccount(ctx, tenant, parent.ID))
}

func TestGetHierarchy(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	root, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
		AccountNumber: "1000", Name: "Assets", Type: models.AccountTypeAsset,
	})
	require.NoError(t, err)
	for _, num := range []string{"1020", "1010"} {
		_, err := svc.CreateAccount(ctx, tenant, CreateAccountParams{
			AccountNumber: num, Name: num, Type: models.AccountTypeAsset, ParentID: &root.ID,
		})
		require.NoError(t, err)
	}

	roots, err := svc.GetHierarchy(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "1010", roots[0].Children[0].AccountNumber)
	assert.Equal(t, "1020", roots[0].Children[1].AccountNumber)
}

func TestSeedDefaultChartIsIdempotent(t *testing.T) {
	svc, _, tenant := newAccountFixture()
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaultChart(ctx, tenant))
	require.NoError(t, svc.SeedDefaultChart(ctx, tenant))

	accounts, err := svc.ListAccounts(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, accounts, len(DefaultChart))

	cash, err := svc.repo.GetByNumber(ctx, tenant, DefaultAccountCash)
	require.NoError(t, err)
	assert.Equal(t, SubtypeCash, cash.Subtype)
}
