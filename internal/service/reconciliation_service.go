package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// ReconciliationService matches book balances against external
// statement balances. All reads go straight to the store; cached
// report data never feeds a reconciliation decision.
type ReconciliationService struct {
	recs     ReconciliationRepository
	accounts AccountRepository
	logger   *zap.Logger
}

func NewReconciliationService(recs ReconciliationRepository, accounts AccountRepository, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{recs: recs, accounts: accounts, logger: logger}
}

// CreateReconciliationParams starts a reconciliation cycle for an
// account against one statement.
type CreateReconciliationParams struct {
	AccountID          uuid.UUID       `json:"account_id"`
	ReconciliationDate time.Time       `json:"reconciliation_date"`
	StatementDate      time.Time       `json:"statement_date"`
	StatementBalance   decimal.Decimal `json:"statement_balance"`
	Notes              string          `json:"notes"`
}

// CreateReconciliation captures the current book balance as the
// baseline; the adjusted balance starts equal to it.
func (s *ReconciliationService) CreateReconciliation(ctx context.Context, tenantID uuid.UUID, params CreateReconciliationParams) (*models.Reconciliation, error) {
	if params.ReconciliationDate.IsZero() {
		return nil, apperrors.Validationf("reconciliation date is required")
	}

	account, err := s.accounts.GetByID(ctx, tenantID, params.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &models.Reconciliation{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		AccountID:          account.ID,
		ReconciliationDate: params.ReconciliationDate,
		StatementDate:      params.StatementDate,
		BookBalance:        account.CurrentBalance,
		StatementBalance:   params.StatementBalance,
		AdjustedBalance:    account.CurrentBalance,
		OutstandingDebits:  decimal.Zero,
		OutstandingCredits: decimal.Zero,
		Status:             models.ReconciliationUnreconciled,
		Notes:              params.Notes,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.recs.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("reconciliation created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_number", account.AccountNumber),
		zap.String("book_balance", rec.BookBalance.StringFixed(2)),
		zap.String("statement_balance", rec.StatementBalance.StringFixed(2)))

	return rec, nil
}

// GetReconciliation fetches one record.
func (s *ReconciliationService) GetReconciliation(ctx context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error) {
	return s.recs.GetByID(ctx, tenantID, id)
}

// AutoReconcile marks the record reconciled when book and statement
// agree within tolerance. Otherwise the difference is carried as
// outstanding items - outstanding credits when the statement exceeds
// the book, outstanding debits when the book exceeds the statement -
// and the adjusted balance is set to the statement balance.
func (s *ReconciliationService) AutoReconcile(ctx context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error) {
	rec, err := s.recs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.ReconciliationUnreconciled {
		return nil, apperrors.Conflictf("reconciliation is %s and can no longer change", rec.Status)
	}

	now := time.Now().UTC()
	diff := rec.StatementBalance.Sub(rec.BookBalance)
	if diff.Abs().LessThan(balanceTolerance) {
		rec.Status = models.ReconciliationReconciled
		rec.AdjustedBalance = rec.StatementBalance
		rec.ReconciledAt = &now
	} else if diff.IsPositive() {
		rec.OutstandingCredits = diff
		rec.AdjustedBalance = rec.StatementBalance
	} else {
		rec.OutstandingDebits = diff.Neg()
		rec.AdjustedBalance = rec.StatementBalance
	}
	rec.UpdatedAt = now

	if err := s.recs.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("auto reconcile",
		zap.String("tenant_id", tenantID.String()),
		zap.String("reconciliation_id", rec.ID.String()),
		zap.String("status", string(rec.Status)),
		zap.String("difference", diff.StringFixed(2)))

	return rec, nil
}

// MarkAsReconciled closes the cycle. Fails with a balance mismatch
// unless the adjusted balance equals the statement balance within
// tolerance.
func (s *ReconciliationService) MarkAsReconciled(ctx context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error) {
	rec, err := s.recs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.ReconciliationUnreconciled {
		return nil, apperrors.Conflictf("reconciliation is %s and can no longer change", rec.Status)
	}
	if rec.AdjustedBalance.Sub(rec.StatementBalance).Abs().GreaterThan(balanceTolerance) {
		return nil, apperrors.Validationf("balance mismatch: adjusted %s != statement %s",
			rec.AdjustedBalance.StringFixed(2), rec.StatementBalance.StringFixed(2))
	}

	now := time.Now().UTC()
	rec.Status = models.ReconciliationReconciled
	rec.ReconciledAt = &now
	rec.UpdatedAt = now

	if err := s.recs.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkAsDisputed flags the cycle for manual investigation. Valid only
// from unreconciled.
func (s *ReconciliationService) MarkAsDisputed(ctx context.Context, tenantID, id uuid.UUID, notes string) (*models.Reconciliation, error) {
	rec, err := s.recs.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.ReconciliationUnreconciled {
		return nil, apperrors.Conflictf("reconciliation is %s and can no longer change", rec.Status)
	}

	now := time.Now().UTC()
	rec.Status = models.ReconciliationDisputed
	rec.DisputedAt = &now
	if notes != "" {
		rec.Notes = notes
	}
	rec.UpdatedAt = now

	if err := s.recs.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetReconciliationSummary aggregates the reconciliation history for
// one account.
func (s *ReconciliationService) GetReconciliationSummary(ctx context.Context, tenantID, accountID uuid.UUID) (*models.ReconciliationSummary, error) {
	if _, err := s.accounts.GetByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	recs, err := s.recs.ListByAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	summary := &models.ReconciliationSummary{AccountID: accountID, Total: len(recs)}
	for _, rec := range recs {
		switch rec.Status {
		case models.ReconciliationReconciled:
			summary.Reconciled++
			if rec.ReconciledAt != nil && (summary.LastReconciledAt == nil || rec.ReconciledAt.After(*summary.LastReconciledAt)) {
				summary.LastReconciledAt = rec.ReconciledAt
			}
		case models.ReconciliationDisputed:
			summary.Disputed++
		default:
			summary.Unreconciled++
		}
	}
	return summary, nil
}
