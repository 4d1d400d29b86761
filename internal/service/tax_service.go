package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/metrics"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// TaxService computes jurisdiction/rate-based taxes. Every individual
// calculation is persisted immutably for audit, whether or not a
// journal entry consumes it.
type TaxService struct {
	repo   TaxRepository
	logger *zap.Logger
}

func NewTaxService(repo TaxRepository, logger *zap.Logger) *TaxService {
	return &TaxService{repo: repo, logger: logger}
}

// CalculateTax selects every active rate whose applicability flags
// match the product type, whose thresholds bracket the amount and
// whose effective window, jurisdiction window included, covers the
// calculation date, computes each amount by its method, rounds to the
// cent recording the delta, and sums across jurisdictions.
func (s *TaxService) CalculateTax(ctx context.Context, tenantID uuid.UUID, input models.TaxCalculationInput) (*models.TaxCalculationResult, error) {
	if input.TaxableAmount.IsNegative() {
		return nil, apperrors.Validationf("taxable amount must be non-negative")
	}
	if input.ProductType == "" {
		input.ProductType = models.ProductTypeProduct
	}
	when := input.CalculationDate
	if when.IsZero() {
		when = time.Now().UTC()
	}

	rates, err := s.repo.ListRates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &models.TaxCalculationResult{TotalTaxAmount: decimal.Zero}
	var records []*models.TaxCalculation

	for _, rate := range rates {
		if !s.rateApplies(rate, input.TaxableAmount, input.ProductType, when) {
			continue
		}

		raw, err := computeRateAmount(rate, input.TaxableAmount)
		if err != nil {
			return nil, err
		}
		rounded := raw.Round(2)

		calc := models.TaxCalculation{
			ID:               uuid.New(),
			TenantID:         tenantID,
			JurisdictionID:   rate.JurisdictionID,
			JurisdictionCode: rate.JurisdictionCode,
			RateID:           rate.ID,
			RateName:         rate.Name,
			TaxableAmount:    input.TaxableAmount,
			TaxAmount:        rounded,
			RoundingDelta:    raw.Sub(rounded),
			CalculationDate:  when,
			SourceType:       input.SourceType,
			SourceID:         input.SourceID,
			CreatedAt:        now,
		}
		result.Breakdown = append(result.Breakdown, calc)
		result.TotalTaxAmount = result.TotalTaxAmount.Add(rounded)
		records = append(records, &calc)
	}

	if len(records) > 0 {
		if err := s.repo.SaveCalculations(ctx, records); err != nil {
			return nil, err
		}
		metrics.TaxCalculations.Add(float64(len(records)))
	}

	s.logger.Info("tax calculated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("taxable_amount", input.TaxableAmount.StringFixed(2)),
		zap.String("total_tax", result.TotalTaxAmount.StringFixed(2)),
		zap.Int("rates_applied", len(records)))

	return result, nil
}

func (s *TaxService) rateApplies(rate *models.TaxRate, amount decimal.Decimal, pt models.ProductType, when time.Time) bool {
	if !rate.IsActive {
		return false
	}
	if !rate.AppliesTo(pt) {
		return false
	}
	if rate.MinTaxableAmount != nil && amount.LessThan(*rate.MinTaxableAmount) {
		return false
	}
	if rate.MaxTaxableAmount != nil && amount.GreaterThan(*rate.MaxTaxableAmount) {
		return false
	}
	if when.Before(rate.EffectiveFrom) {
		return false
	}
	if rate.EffectiveTo != nil && when.After(*rate.EffectiveTo) {
		return false
	}
	// The jurisdiction's own window bounds every rate under it.
	if when.Before(rate.JurisdictionEffectiveFrom) {
		return false
	}
	if rate.JurisdictionEffectiveTo != nil && when.After(*rate.JurisdictionEffectiveTo) {
		return false
	}
	return true
}

// computeRateAmount returns the unrounded tax amount for one rate.
func computeRateAmount(rate *models.TaxRate, amount decimal.Decimal) (decimal.Decimal, error) {
	switch rate.Method {
	case models.MethodPercentage:
		return amount.Mul(rate.Rate), nil
	case models.MethodFlat:
		return rate.FlatAmount, nil
	case models.MethodTiered:
		return computeTiered(rate.Brackets, amount)
	default:
		return decimal.Zero, apperrors.Validationf("unknown calculation method %q for rate %s", rate.Method, rate.Name)
	}
}

// computeTiered applies a progressive bracket table: each bracket
// taxes the slice of the amount between the previous cap and its own.
// A nil UpTo marks the open top bracket.
func computeTiered(brackets []models.TaxBracket, amount decimal.Decimal) (decimal.Decimal, error) {
	if len(brackets) == 0 {
		return decimal.Zero, apperrors.Validationf("tiered rate has no brackets")
	}

	sorted := make([]models.TaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].UpTo == nil {
			return false
		}
		if sorted[j].UpTo == nil {
			return true
		}
		return sorted[i].UpTo.LessThan(*sorted[j].UpTo)
	})

	total := decimal.Zero
	prev := decimal.Zero
	for _, b := range sorted {
		upper := amount
		if b.UpTo != nil && b.UpTo.LessThan(amount) {
			upper = *b.UpTo
		}
		portion := upper.Sub(prev)
		if portion.IsNegative() || portion.IsZero() {
			break
		}
		total = total.Add(portion.Mul(b.Rate))
		prev = upper
		if upper.Equal(amount) {
			break
		}
	}
	return total, nil
}
