package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset           AccountType = "asset"
	AccountTypeLiability       AccountType = "liability"
	AccountTypeEquity          AccountType = "equity"
	AccountTypeRevenue         AccountType = "revenue"
	AccountTypeExpense         AccountType = "expense"
	AccountTypeContraAsset     AccountType = "contra_asset"
	AccountTypeContraLiability AccountType = "contra_liability"
	AccountTypeContraEquity    AccountType = "contra_equity"
	AccountTypeContraRevenue   AccountType = "contra_revenue"
	AccountTypeContraExpense   AccountType = "contra_expense"
)

// NormalBalance is the side on which an account type naturally increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// normalBalanceByType is the single source of truth for balance-sign
// conventions. Contra types invert their base type's side.
var normalBalanceByType = map[AccountType]NormalBalance{
	AccountTypeAsset:           NormalBalanceDebit,
	AccountTypeExpense:         NormalBalanceDebit,
	AccountTypeLiability:       NormalBalanceCredit,
	AccountTypeEquity:          NormalBalanceCredit,
	AccountTypeRevenue:         NormalBalanceCredit,
	AccountTypeContraAsset:     NormalBalanceCredit,
	AccountTypeContraExpense:   NormalBalanceCredit,
	AccountTypeContraLiability: NormalBalanceDebit,
	AccountTypeContraEquity:    NormalBalanceDebit,
	AccountTypeContraRevenue:   NormalBalanceDebit,
}

// contraOf maps each base type to its contra variant.
var contraOf = map[AccountType]AccountType{
	AccountTypeAsset:     AccountTypeContraAsset,
	AccountTypeLiability: AccountTypeContraLiability,
	AccountTypeEquity:    AccountTypeContraEquity,
	AccountTypeRevenue:   AccountTypeContraRevenue,
	AccountTypeExpense:   AccountTypeContraExpense,
}

// baseOf maps each contra type back to its base type.
var baseOf = map[AccountType]AccountType{
	AccountTypeContraAsset:     AccountTypeAsset,
	AccountTypeContraLiability: AccountTypeLiability,
	AccountTypeContraEquity:    AccountTypeEquity,
	AccountTypeContraRevenue:   AccountTypeRevenue,
	AccountTypeContraExpense:   AccountTypeExpense,
}

// NormalBalanceFor returns the normal balance side for an account type.
func NormalBalanceFor(t AccountType) (NormalBalance, bool) {
	nb, ok := normalBalanceByType[t]
	return nb, ok
}

// IsContra reports whether t is a contra account type.
func IsContra(t AccountType) bool {
	_, ok := baseOf[t]
	return ok
}

// BaseType returns the base type for contra types, or t itself.
func BaseType(t AccountType) AccountType {
	if base, ok := baseOf[t]; ok {
		return base
	}
	return t
}

// CompatibleChildType reports whether a child account of type child may
// be placed under a parent of type parent: the child's type must equal
// the parent's type or be its contra variant.
func CompatibleChildType(parent, child AccountType) bool {
	if parent == child {
		return true
	}
	return contraOf[parent] == child
}

// Account is a node in the hierarchical chart of accounts.
type Account struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	AccountNumber      string          `json:"account_number"`
	Name               string          `json:"name"`
	Type               AccountType     `json:"type"`
	Subtype            string          `json:"subtype,omitempty"`
	ParentID           *uuid.UUID      `json:"parent_id,omitempty"`
	Level              int             `json:"level"`
	Path               string          `json:"path"`
	NormalBalance      NormalBalance   `json:"normal_balance"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	IsActive           bool            `json:"is_active"`
	IsSystemAccount    bool            `json:"is_system_account"`
	AllowManualEntries bool            `json:"allow_manual_entries"`
	RequireDepartment  bool            `json:"require_department"`
	RequireProject     bool            `json:"require_project"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AccountNode is an account with its resolved children, used for
// hierarchy views.
type AccountNode struct {
	*Account
	Children []*AccountNode `json:"children,omitempty"`
}
