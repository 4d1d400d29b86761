package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// EventKind names a business event that generates an automatic
// journal entry.
type EventKind string

const (
	EventKindSale                EventKind = "sale"
	EventKindPayrollRun          EventKind = "payroll_run"
	EventKindInventoryAdjustment EventKind = "inventory_adjustment"
)

// SaleEvent is a completed sale to record in the ledger.
type SaleEvent struct {
	Amount      decimal.Decimal    `json:"amount"`
	ProductType models.ProductType `json:"product_type"`
	Date        time.Time          `json:"date"`
	Reference   string             `json:"reference"`
}

// PayrollRunEvent is a finished payroll run: gross pay split between
// withholdings and net cash out.
type PayrollRunEvent struct {
	GrossPay     decimal.Decimal `json:"gross_pay"`
	Withholdings decimal.Decimal `json:"withholdings"`
	Date         time.Time       `json:"date"`
	Reference    string          `json:"reference"`
}

// InventoryAdjustmentEvent is a signed inventory value correction:
// positive writes inventory up, negative writes it down.
type InventoryAdjustmentEvent struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference"`
}

// EventRouter is the inbound port for domain-event-triggered automatic
// entries. Each adapter builds a draft entry and posts it; the ledger
// core stays free of any messaging technology.
type EventRouter struct {
	journal   *JournalService
	tax       *TaxService
	accounts  AccountRepository
	cogsRatio decimal.Decimal
	logger    *zap.Logger
}

func NewEventRouter(journal *JournalService, tax *TaxService, accounts AccountRepository, cogsRatio decimal.Decimal, logger *zap.Logger) *EventRouter {
	return &EventRouter{
		journal:   journal,
		tax:       tax,
		accounts:  accounts,
		cogsRatio: cogsRatio,
		logger:    logger,
	}
}

// PostDomainEvent routes a business event to its adapter, which
// creates and posts the corresponding journal entry.
func (r *EventRouter) PostDomainEvent(ctx context.Context, tenantID uuid.UUID, kind EventKind, payload json.RawMessage) (*models.JournalEntry, error) {
	switch kind {
	case EventKindSale:
		var ev SaleEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, apperrors.Validationf("malformed sale payload: %v", err)
		}
		return r.recordSale(ctx, tenantID, ev)
	case EventKindPayrollRun:
		var ev PayrollRunEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, apperrors.Validationf("malformed payroll payload: %v", err)
		}
		return r.recordPayrollRun(ctx, tenantID, ev)
	case EventKindInventoryAdjustment:
		var ev InventoryAdjustmentEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, apperrors.Validationf("malformed inventory payload: %v", err)
		}
		return r.recordInventoryAdjustment(ctx, tenantID, ev)
	default:
		return nil, apperrors.Validationf("unknown event kind %q", kind)
	}
}

// recordSale books revenue, collected tax and cost of goods sold for a
// sale. Tax is calculated first so its amount lands on the tax-payable
// account. The COGS amount is the configured ratio of the sale price.
func (r *EventRouter) recordSale(ctx context.Context, tenantID uuid.UUID, ev SaleEvent) (*models.JournalEntry, error) {
	if !ev.Amount.IsPositive() {
		return nil, apperrors.Validationf("sale amount must be positive")
	}
	when := ev.Date
	if when.IsZero() {
		when = time.Now().UTC()
	}

	taxResult, err := r.tax.CalculateTax(ctx, tenantID, models.TaxCalculationInput{
		TaxableAmount:   ev.Amount,
		ProductType:     ev.ProductType,
		CalculationDate: when,
		SourceType:      string(EventKindSale),
		SourceID:        ev.Reference,
	})
	if err != nil {
		return nil, err
	}

	cash, err := r.lookup(ctx, tenantID, DefaultAccountCash)
	if err != nil {
		return nil, err
	}
	revenue, err := r.lookup(ctx, tenantID, DefaultAccountSalesRevenue)
	if err != nil {
		return nil, err
	}

	lines := []LineInput{
		{AccountID: cash.ID, Description: "Sale proceeds", DebitAmount: ev.Amount.Add(taxResult.TotalTaxAmount)},
		{AccountID: revenue.ID, Description: "Sales revenue", CreditAmount: ev.Amount},
	}
	if taxResult.TotalTaxAmount.IsPositive() {
		taxPayable, err := r.lookup(ctx, tenantID, DefaultAccountTaxPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: taxPayable.ID, Description: "Sales tax collected", CreditAmount: taxResult.TotalTaxAmount})
	}

	// TODO: replace the fixed-ratio COGS placeholder once an inventory
	// costing method (FIFO or weighted average) is available.
	cogsAmount := ev.Amount.Mul(r.cogsRatio).Round(2)
	if cogsAmount.IsPositive() {
		cogs, err := r.lookup(ctx, tenantID, DefaultAccountCOGS)
		if err != nil {
			return nil, err
		}
		inventory, err := r.lookup(ctx, tenantID, DefaultAccountInventory)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			LineInput{AccountID: cogs.ID, Description: "Cost of goods sold", DebitAmount: cogsAmount},
			LineInput{AccountID: inventory.ID, Description: "Inventory relieved", CreditAmount: cogsAmount},
		)
	}

	return r.createAndPost(ctx, tenantID, CreateEntryParams{
		EntryDate:   when,
		Description: "Sale " + ev.Reference,
		SourceType:  string(EventKindSale),
		SourceID:    ev.Reference,
		Lines:       lines,
	})
}

// recordPayrollRun books gross payroll expense against withholdings
// and net cash paid out.
func (r *EventRouter) recordPayrollRun(ctx context.Context, tenantID uuid.UUID, ev PayrollRunEvent) (*models.JournalEntry, error) {
	if !ev.GrossPay.IsPositive() {
		return nil, apperrors.Validationf("gross pay must be positive")
	}
	if ev.Withholdings.IsNegative() || ev.Withholdings.GreaterThan(ev.GrossPay) {
		return nil, apperrors.Validationf("withholdings must be between zero and gross pay")
	}
	when := ev.Date
	if when.IsZero() {
		when = time.Now().UTC()
	}

	expense, err := r.lookup(ctx, tenantID, DefaultAccountPayrollExpense)
	if err != nil {
		return nil, err
	}
	cash, err := r.lookup(ctx, tenantID, DefaultAccountCash)
	if err != nil {
		return nil, err
	}

	lines := []LineInput{
		{AccountID: expense.ID, Description: "Gross payroll", DebitAmount: ev.GrossPay},
	}
	if ev.Withholdings.IsPositive() {
		payable, err := r.lookup(ctx, tenantID, DefaultAccountPayrollPayable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineInput{AccountID: payable.ID, Description: "Payroll withholdings", CreditAmount: ev.Withholdings})
	}
	net := ev.GrossPay.Sub(ev.Withholdings)
	if net.IsPositive() {
		lines = append(lines, LineInput{AccountID: cash.ID, Description: "Net pay disbursed", CreditAmount: net})
	}

	return r.createAndPost(ctx, tenantID, CreateEntryParams{
		EntryDate:   when,
		Description: "Payroll run " + ev.Reference,
		SourceType:  string(EventKindPayrollRun),
		SourceID:    ev.Reference,
		Lines:       lines,
	})
}

// recordInventoryAdjustment books a signed correction between the
// inventory account and the adjustment expense account.
func (r *EventRouter) recordInventoryAdjustment(ctx context.Context, tenantID uuid.UUID, ev InventoryAdjustmentEvent) (*models.JournalEntry, error) {
	if ev.Amount.IsZero() {
		return nil, apperrors.Validationf("adjustment amount must be nonzero")
	}
	when := ev.Date
	if when.IsZero() {
		when = time.Now().UTC()
	}

	inventory, err := r.lookup(ctx, tenantID, DefaultAccountInventory)
	if err != nil {
		return nil, err
	}
	adjust, err := r.lookup(ctx, tenantID, DefaultAccountInventoryAdjust)
	if err != nil {
		return nil, err
	}

	amount := ev.Amount.Abs()
	var lines []LineInput
	if ev.Amount.IsPositive() {
		lines = []LineInput{
			{AccountID: inventory.ID, Description: "Inventory write-up", DebitAmount: amount},
			{AccountID: adjust.ID, Description: "Inventory adjustment", CreditAmount: amount},
		}
	} else {
		lines = []LineInput{
			{AccountID: adjust.ID, Description: "Inventory adjustment", DebitAmount: amount},
			{AccountID: inventory.ID, Description: "Inventory write-down", CreditAmount: amount},
		}
	}

	return r.createAndPost(ctx, tenantID, CreateEntryParams{
		EntryDate:   when,
		Description: "Inventory adjustment " + ev.Reference,
		SourceType:  string(EventKindInventoryAdjustment),
		SourceID:    ev.Reference,
		Lines:       lines,
	})
}

func (r *EventRouter) createAndPost(ctx context.Context, tenantID uuid.UUID, params CreateEntryParams) (*models.JournalEntry, error) {
	entry, err := r.journal.CreateEntry(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}
	posted, err := r.journal.PostEntry(ctx, tenantID, entry.ID, &params.EntryDate)
	if err != nil {
		r.logger.Error("automatic entry left in draft after posting failure",
			zap.String("tenant_id", tenantID.String()),
			zap.Int64("entry_number", entry.EntryNumber),
			zap.Error(err))
		return nil, err
	}
	return posted, nil
}

func (r *EventRouter) lookup(ctx context.Context, tenantID uuid.UUID, number string) (*models.Account, error) {
	account, err := r.accounts.GetByNumber(ctx, tenantID, number)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validationf("default account %s is not set up for this tenant", number)
		}
		return nil, err
	}
	return account, nil
}
