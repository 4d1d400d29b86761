package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// In-memory repositories mirroring the store's transactional
// semantics: version-checked updates, per-line idempotency and
// all-or-nothing posting.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*models.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TenantID == account.TenantID && a.AccountNumber == account.AccountNumber {
			return apperrors.Conflictf("create account: duplicate key")
		}
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, apperrors.NotFoundf("get account: not found")
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAccountRepo) GetByNumber(_ context.Context, tenantID uuid.UUID, number string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.AccountNumber == number {
			clone := *a
			return &clone, nil
		}
	}
	return nil, apperrors.NotFoundf("get account by number: not found")
}

func (r *fakeAccountRepo) List(_ context.Context, tenantID uuid.UUID) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[account.ID]
	if !ok || existing.TenantID != account.TenantID {
		return apperrors.Conflictf("stale version")
	}
	if existing.Version != account.Version {
		return apperrors.Conflictf("stale version %d", account.Version)
	}
	clone := *account
	clone.Version = existing.Version + 1
	clone.CurrentBalance = existing.CurrentBalance
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return apperrors.NotFoundf("delete account: not found")
	}
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) HasChildren(_ context.Context, tenantID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.ParentID != nil && *a.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

type snapshotKey struct {
	tenantID     uuid.UUID
	accountID    uuid.UUID
	fiscalYear   int
	fiscalPeriod int
}

type fakeJournalRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	entries  map[uuid.UUID]*models.JournalEntry
	applied  map[uuid.UUID]bool
	snaps    map[snapshotKey]*models.AccountBalance
}

func newFakeJournalRepo(accounts *fakeAccountRepo) *fakeJournalRepo {
	return &fakeJournalRepo{
		accounts: accounts,
		entries:  make(map[uuid.UUID]*models.JournalEntry),
		applied:  make(map[uuid.UUID]bool),
		snaps:    make(map[snapshotKey]*models.AccountBalance),
	}
}

// nextEntryNumberLocked mirrors the store's MAX+1 assignment: a
// deleted draft frees its number for reuse.
func (r *fakeJournalRepo) nextEntryNumberLocked(tenantID uuid.UUID, fiscalYear int) int64 {
	var max int64
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.FiscalYear == fiscalYear && e.EntryNumber > max {
			max = e.EntryNumber
		}
	}
	return max + 1
}

func (r *fakeJournalRepo) Create(_ context.Context, entry *models.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.EntryNumber = r.nextEntryNumberLocked(entry.TenantID, entry.FiscalYear)
	clone := cloneEntry(entry)
	r.entries[entry.ID] = clone
	return nil
}

func (r *fakeJournalRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*models.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, apperrors.NotFoundf("get journal entry: not found")
	}
	return cloneEntry(e), nil
}

func (r *fakeJournalRepo) ReplaceLines(_ context.Context, entry *models.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.ID]
	if !ok || existing.TenantID != entry.TenantID || existing.Status != models.EntryStatusDraft {
		return apperrors.Conflictf("entry is not a draft or does not exist")
	}
	r.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (r *fakeJournalRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.TenantID != tenantID {
		return apperrors.NotFoundf("delete journal entry: not found")
	}
	if e.Status != models.EntryStatusDraft {
		return apperrors.NotFoundf("delete journal entry: not found")
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeJournalRepo) Post(_ context.Context, entry *models.JournalEntry, movements []models.BalanceMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[entry.ID]
	if !ok || existing.TenantID != entry.TenantID || existing.Status != models.EntryStatusDraft {
		return apperrors.Conflictf("entry %d is not a draft", entry.EntryNumber)
	}
	if err := r.applyMovementsLocked(entry.TenantID, movements); err != nil {
		return err
	}
	r.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (r *fakeJournalRepo) Reverse(_ context.Context, original, reversal *models.JournalEntry, movements []models.BalanceMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[original.ID]
	if !ok || existing.Status != models.EntryStatusPosted {
		return apperrors.Conflictf("entry %d is not posted", original.EntryNumber)
	}
	if err := r.applyMovementsLocked(reversal.TenantID, movements); err != nil {
		return err
	}
	reversal.EntryNumber = r.nextEntryNumberLocked(reversal.TenantID, reversal.FiscalYear)
	r.entries[reversal.ID] = cloneEntry(reversal)
	r.entries[original.ID] = cloneEntry(original)
	return nil
}

// applyMovementsLocked mirrors the transactional movement application:
// any failure leaves all state untouched.
func (r *fakeJournalRepo) applyMovementsLocked(tenantID uuid.UUID, movements []models.BalanceMovement) error {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	for _, m := range movements {
		for _, lineID := range m.LineIDs {
			if r.applied[lineID] {
				return apperrors.Conflictf("record applied line: duplicate key")
			}
		}
		account, ok := r.accounts.accounts[m.AccountID]
		if !ok || account.Version != m.ExpectedVersion {
			return apperrors.Conflictf("stale version %d", m.ExpectedVersion)
		}
	}

	for _, m := range movements {
		for _, lineID := range m.LineIDs {
			r.applied[lineID] = true
		}
		account := r.accounts.accounts[m.AccountID]
		account.CurrentBalance = account.CurrentBalance.Add(m.Delta)
		account.Version++

		key := snapshotKey{tenantID, m.AccountID, m.FiscalYear, m.FiscalPeriod}
		snap, ok := r.snaps[key]
		if !ok {
			snap = &models.AccountBalance{
				TenantID:       tenantID,
				AccountID:      m.AccountID,
				FiscalYear:     m.FiscalYear,
				FiscalPeriod:   m.FiscalPeriod,
				BalanceDate:    m.BalanceDate,
				OpeningBalance: m.PriorBalance,
				ClosingBalance: m.PriorBalance,
			}
			r.snaps[key] = snap
		}
		snap.DebitMovements = snap.DebitMovements.Add(m.DebitAmount)
		snap.CreditMovements = snap.CreditMovements.Add(m.CreditAmount)
		snap.ClosingBalance = snap.ClosingBalance.Add(m.Delta)
		if m.BalanceDate.After(snap.BalanceDate) {
			snap.BalanceDate = m.BalanceDate
		}
	}
	return nil
}

func (r *fakeJournalRepo) ListAccountLines(_ context.Context, tenantID, accountID uuid.UUID, limit int) ([]*models.LedgerLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []*models.JournalEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && (e.Status == models.EntryStatusPosted || e.Status == models.EntryStatusReversed) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].EntryNumber < entries[j].EntryNumber
	})

	var lines []*models.LedgerLine
	for _, e := range entries {
		for _, l := range e.Lines {
			if l.AccountID != accountID {
				continue
			}
			lines = append(lines, &models.LedgerLine{
				EntryID:      e.ID,
				EntryNumber:  e.EntryNumber,
				FiscalYear:   e.FiscalYear,
				EntryDate:    e.EntryDate,
				Description:  l.Description,
				DebitAmount:  l.DebitAmount,
				CreditAmount: l.CreditAmount,
			})
			if len(lines) == limit {
				return lines, nil
			}
		}
	}
	return lines, nil
}

func cloneEntry(e *models.JournalEntry) *models.JournalEntry {
	clone := *e
	clone.Lines = append([]models.JournalEntryLine(nil), e.Lines...)
	return &clone
}

type fakeBalanceRepo struct {
	journal *fakeJournalRepo
}

func (r *fakeBalanceRepo) GetSnapshot(_ context.Context, tenantID, accountID uuid.UUID, fiscalYear, fiscalPeriod int) (*models.AccountBalance, error) {
	r.journal.mu.Lock()
	defer r.journal.mu.Unlock()
	snap, ok := r.journal.snaps[snapshotKey{tenantID, accountID, fiscalYear, fiscalPeriod}]
	if !ok {
		return nil, apperrors.NotFoundf("get balance snapshot: not found")
	}
	clone := *snap
	return &clone, nil
}

func (r *fakeBalanceRepo) ListSnapshots(_ context.Context, tenantID uuid.UUID, fiscalYear, fiscalPeriod int) ([]*models.AccountBalance, error) {
	r.journal.mu.Lock()
	defer r.journal.mu.Unlock()
	var out []*models.AccountBalance
	for key, snap := range r.journal.snaps {
		if key.tenantID == tenantID && key.fiscalYear == fiscalYear && key.fiscalPeriod == fiscalPeriod {
			clone := *snap
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) ListAllSnapshots(_ context.Context, tenantID uuid.UUID) ([]*models.AccountBalance, error) {
	r.journal.mu.Lock()
	defer r.journal.mu.Unlock()
	var out []*models.AccountBalance
	for key, snap := range r.journal.snaps {
		if key.tenantID == tenantID {
			clone := *snap
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeReconciliationRepo struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*models.Reconciliation
}

func newFakeReconciliationRepo() *fakeReconciliationRepo {
	return &fakeReconciliationRepo{recs: make(map[uuid.UUID]*models.Reconciliation)}
}

func (r *fakeReconciliationRepo) Create(_ context.Context, rec *models.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rec
	r.recs[rec.ID] = &clone
	return nil
}

func (r *fakeReconciliationRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*models.Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok || rec.TenantID != tenantID {
		return nil, apperrors.NotFoundf("get reconciliation: not found")
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeReconciliationRepo) Update(_ context.Context, rec *models.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.recs[rec.ID]
	if !ok || existing.TenantID != rec.TenantID || existing.Version != rec.Version {
		return apperrors.Conflictf("stale version %d", rec.Version)
	}
	clone := *rec
	clone.Version = existing.Version + 1
	r.recs[rec.ID] = &clone
	return nil
}

func (r *fakeReconciliationRepo) ListByAccount(_ context.Context, tenantID, accountID uuid.UUID) ([]*models.Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Reconciliation
	for _, rec := range r.recs {
		if rec.TenantID == tenantID && rec.AccountID == accountID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeTaxRepo struct {
	mu    sync.Mutex
	rates []*models.TaxRate
	saved []*models.TaxCalculation
}

func (r *fakeTaxRepo) ListRates(_ context.Context, tenantID uuid.UUID) ([]*models.TaxRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TaxRate
	for _, rate := range r.rates {
		if rate.TenantID == tenantID {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *fakeTaxRepo) SaveCalculations(_ context.Context, calcs []*models.TaxCalculation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, calcs...)
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) InvalidateTenant(_ context.Context, _ uuid.UUID) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}
