package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// AccountService manages the hierarchical chart of accounts.
type AccountService struct {
	repo   AccountRepository
	logger *zap.Logger
}

func NewAccountService(repo AccountRepository, logger *zap.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

// CreateAccountParams holds the caller-supplied fields for a new
// account. Level, path and normal balance are derived, never accepted.
type CreateAccountParams struct {
	AccountNumber      string             `json:"account_number"`
	Name               string             `json:"name"`
	Type               models.AccountType `json:"type"`
	Subtype            string             `json:"subtype"`
	ParentID           *uuid.UUID         `json:"parent_id"`
	IsSystemAccount    bool               `json:"is_system_account"`
	AllowManualEntries bool               `json:"allow_manual_entries"`
	RequireDepartment  bool               `json:"require_department"`
	RequireProject     bool               `json:"require_project"`
}

// CreateAccount validates and inserts a new account. The normal
// balance comes from the type lookup table; a child's type must equal
// the parent's type or be its contra variant.
func (s *AccountService) CreateAccount(ctx context.Context, tenantID uuid.UUID, params CreateAccountParams) (*models.Account, error) {
	if params.AccountNumber == "" {
		return nil, apperrors.Validationf("account number is required")
	}
	if params.Name == "" {
		return nil, apperrors.Validationf("account name is required")
	}
	normalBalance, ok := models.NormalBalanceFor(params.Type)
	if !ok {
		return nil, apperrors.Validationf("unknown account type %q", params.Type)
	}

	if existing, err := s.repo.GetByNumber(ctx, tenantID, params.AccountNumber); err == nil && existing != nil {
		return nil, apperrors.Conflictf("account number %s already exists", params.AccountNumber)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		AccountNumber:      params.AccountNumber,
		Name:               params.Name,
		Type:               params.Type,
		Subtype:            params.Subtype,
		Level:              0,
		Path:               params.AccountNumber,
		NormalBalance:      normalBalance,
		CurrentBalance:     decimal.Zero,
		IsActive:           true,
		IsSystemAccount:    params.IsSystemAccount,
		AllowManualEntries: params.AllowManualEntries,
		RequireDepartment:  params.RequireDepartment,
		RequireProject:     params.RequireProject,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if params.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, tenantID, *params.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFoundf("parent account %s", *params.ParentID)
			}
			return nil, err
		}
		if !models.CompatibleChildType(parent.Type, params.Type) {
			return nil, apperrors.Validationf("account type %q is incompatible with parent type %q", params.Type, parent.Type)
		}
		if err := s.checkAncestorChain(ctx, tenantID, parent, account.ID); err != nil {
			return nil, err
		}
		account.ParentID = &parent.ID
		account.Level = parent.Level + 1
		account.Path = parent.Path + "/" + params.AccountNumber
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("account_number", account.AccountNumber))

	return account, nil
}

// GetAccount fetches one account.
func (s *AccountService) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*models.Account, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// ListAccounts returns the flat account set for a tenant.
func (s *AccountService) ListAccounts(ctx context.Context, tenantID uuid.UUID) ([]*models.Account, error) {
	return s.repo.List(ctx, tenantID)
}

// GetHierarchy assembles the flat account set into parent/children
// trees, roots and children sorted by account number.
func (s *AccountService) GetHierarchy(ctx context.Context, tenantID uuid.UUID) ([]*models.AccountNode, error) {
	accounts, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*models.AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &models.AccountNode{Account: a}
	}

	var roots []*models.AccountNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var sortNodes func(ns []*models.AccountNode)
	sortNodes = func(ns []*models.AccountNode) {
		sort.Slice(ns, func(i, j int) bool {
			return ns[i].AccountNumber < ns[j].AccountNumber
		})
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)

	return roots, nil
}

// UpdateAccountParams carries optional field updates. Nil means leave
// unchanged. ParentID moves the account; ClearParent detaches it.
type UpdateAccountParams struct {
	Name               *string    `json:"name"`
	Subtype            *string    `json:"subtype"`
	IsActive           *bool      `json:"is_active"`
	AllowManualEntries *bool      `json:"allow_manual_entries"`
	RequireDepartment  *bool      `json:"require_department"`
	RequireProject     *bool      `json:"require_project"`
	ParentID           *uuid.UUID `json:"parent_id"`
	ClearParent        bool       `json:"clear_parent"`
}

// UpdateAccount applies field updates. System accounts are immutable.
// Reparenting is limited to leaf accounts so the materialized paths of
// descendants never go stale.
func (s *AccountService) UpdateAccount(ctx context.Context, tenantID, id uuid.UUID, params UpdateAccountParams) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if account.IsSystemAccount {
		return nil, apperrors.Conflictf("system account %s cannot be modified", account.AccountNumber)
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.Validationf("account name is required")
		}
		account.Name = *params.Name
	}
	if params.Subtype != nil {
		account.Subtype = *params.Subtype
	}
	if params.IsActive != nil {
		account.IsActive = *params.IsActive
	}
	if params.AllowManualEntries != nil {
		account.AllowManualEntries = *params.AllowManualEntries
	}
	if params.RequireDepartment != nil {
		account.RequireDepartment = *params.RequireDepartment
	}
	if params.RequireProject != nil {
		account.RequireProject = *params.RequireProject
	}

	if params.ClearParent || params.ParentID != nil {
		hasChildren, err := s.repo.HasChildren(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if hasChildren {
			return nil, apperrors.Conflictf("account %s has children and cannot be moved", account.AccountNumber)
		}
	}

	switch {
	case params.ClearParent:
		account.ParentID = nil
		account.Level = 0
		account.Path = account.AccountNumber
	case params.ParentID != nil:
		parent, err := s.repo.GetByID(ctx, tenantID, *params.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFoundf("parent account %s", *params.ParentID)
			}
			return nil, err
		}
		if !models.CompatibleChildType(parent.Type, account.Type) {
			return nil, apperrors.Validationf("account type %q is incompatible with parent type %q", account.Type, parent.Type)
		}
		if err := s.checkAncestorChain(ctx, tenantID, parent, account.ID); err != nil {
			return nil, err
		}
		account.ParentID = &parent.ID
		account.Level = parent.Level + 1
		account.Path = parent.Path + "/" + account.AccountNumber
	}

	account.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account. Blocked for system accounts,
// accounts with children and accounts holding a nonzero balance.
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	account, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if account.IsSystemAccount {
		return apperrors.Conflictf("system account %s cannot be deleted", account.AccountNumber)
	}
	hasChildren, err := s.repo.HasChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return apperrors.Conflictf("account %s has child accounts", account.AccountNumber)
	}
	if !account.CurrentBalance.IsZero() {
		return apperrors.Conflictf("account %s has a nonzero balance of %s", account.AccountNumber, account.CurrentBalance.StringFixed(2))
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.logger.Info("account deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_number", account.AccountNumber))
	return nil
}

// checkAncestorChain walks from candidate parent to the root and
// rejects the assignment if the chain revisits an id or reaches the
// account being placed.
func (s *AccountService) checkAncestorChain(ctx context.Context, tenantID uuid.UUID, parent *models.Account, accountID uuid.UUID) error {
	seen := map[uuid.UUID]bool{accountID: true}
	current := parent
	for {
		if seen[current.ID] {
			return apperrors.Validationf("parent assignment would create a cycle at account %s", current.AccountNumber)
		}
		seen[current.ID] = true
		if current.ParentID == nil {
			return nil
		}
		next, err := s.repo.GetByID(ctx, tenantID, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
}
