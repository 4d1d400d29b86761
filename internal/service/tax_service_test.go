package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

func newTaxFixture() (*TaxService, *fakeTaxRepo, uuid.UUID) {
	repo := &fakeTaxRepo{}
	return NewTaxService(repo, zap.NewNop()), repo, uuid.New()
}

func percentageRate(tenant uuid.UUID, code, name, rate string) *models.TaxRate {
	r, _ := decimal.NewFromString(rate)
	return &models.TaxRate{
		ID:                uuid.New(),
		TenantID:          tenant,
		JurisdictionID:    uuid.New(),
		JurisdictionCode:  code,
		Name:              name,
		Method:            models.MethodPercentage,
		Rate:              r,
		AppliesToProducts: true,
		EffectiveFrom:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:          true,
	}
}

func TestCalculateTaxAcrossJurisdictions(t *testing.T) {
	svc, repo, tenant := newTaxFixture()
	repo.rates = []*models.TaxRate{
		percentageRate(tenant, "STATE", "State Sales Tax", "0.05"),
		percentageRate(tenant, "CITY", "City Sales Tax", "0.02"),
	}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.NewFromInt(100),
		ProductType:   models.ProductTypeProduct,
	})
	require.NoError(t, err)

	// 100 at 5% + 2% = 7.00, one audit record per rate.
	assert.Equal(t, "7.00", result.TotalTaxAmount.StringFixed(2))
	assert.Len(t, result.Breakdown, 2)
	assert.Len(t, repo.saved, 2)
}

func TestCalculateTaxRoundsPerRate(t *testing.T) {
	svc, repo, tenant := newTaxFixture()
	repo.rates = []*models.TaxRate{
		percentageRate(tenant, "STATE", "State Sales Tax", "0.0725"),
	}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimalFromString(t, "19.99"),
	})
	require.NoError(t, err)

	// 19.99 * 0.0725 = 1.449275, rounded to 1.45; the delta is kept.
	assert.Equal(t, "1.45", result.TotalTaxAmount.StringFixed(2))
	require.Len(t, result.Breakdown, 1)
	calc := result.Breakdown[0]
	assert.Equal(t, "1.45", calc.TaxAmount.StringFixed(2))
	assert.True(t, calc.RoundingDelta.Equal(decimalFromString(t, "-0.000725")),
		"got delta %s", calc.RoundingDelta)
}

func TestCalculateTaxApplicabilityFlags(t *testing.T) {
	svc, repo, tenant := newTaxFixture()
	productOnly := percentageRate(tenant, "STATE", "Product Tax", "0.05")
	serviceOnly := percentageRate(tenant, "STATE", "Service Tax", "0.03")
	serviceOnly.AppliesToProducts = false
	serviceOnly.AppliesToServices = true
	repo.rates = []*models.TaxRate{productOnly, serviceOnly}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.NewFromInt(100),
		ProductType:   models.ProductTypeService,
	})
	require.NoError(t, err)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "Service Tax", result.Breakdown[0].RateName)
	assert.Equal(t, "3.00", result.TotalTaxAmount.StringFixed(2))
}

func TestCalculateTaxThresholdsAndWindow(t *testing.T) {
	svc, repo, tenant := newTaxFixture()

	min := decimalFromString(t, "50.00")
	thresholded := percentageRate(tenant, "STATE", "Luxury Tax", "0.10")
	thresholded.MinTaxableAmount = &min

	expired := percentageRate(tenant, "OLD", "Expired Tax", "0.99")
	end := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	expired.EffectiveTo = &end

	inactive := percentageRate(tenant, "OFF", "Disabled Tax", "0.50")
	inactive.IsActive = false

	repo.rates = []*models.TaxRate{thresholded, expired, inactive}

	// Below the minimum: nothing applies, nothing is persisted.
	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount:   decimal.NewFromInt(40),
		CalculationDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, result.TotalTaxAmount.IsZero())
	assert.Empty(t, result.Breakdown)
	assert.Empty(t, repo.saved)

	// At the minimum only the thresholded rate applies.
	result, err = svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount:   decimal.NewFromInt(50),
		CalculationDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "5.00", result.TotalTaxAmount.StringFixed(2))
}

func TestCalculateTaxHonorsJurisdictionWindow(t *testing.T) {
	svc, repo, tenant := newTaxFixture()

	// The rate itself is active and in-window, but its jurisdiction
	// lapsed at the end of 2023.
	lapsed := percentageRate(tenant, "OLD", "Lapsed Levy", "0.04")
	lapsedEnd := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	lapsed.JurisdictionEffectiveFrom = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	lapsed.JurisdictionEffectiveTo = &lapsedEnd

	// This jurisdiction only takes effect next year.
	pending := percentageRate(tenant, "NEW", "Pending Levy", "0.03")
	pending.JurisdictionEffectiveFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	current := percentageRate(tenant, "STATE", "State Sales Tax", "0.05")
	current.JurisdictionEffectiveFrom = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.rates = []*models.TaxRate{lapsed, pending, current}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount:   decimal.NewFromInt(100),
		CalculationDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "State Sales Tax", result.Breakdown[0].RateName)
	assert.Equal(t, "5.00", result.TotalTaxAmount.StringFixed(2))
	assert.Len(t, repo.saved, 1)
}

func TestCalculateTaxFlatAndTiered(t *testing.T) {
	svc, repo, tenant := newTaxFixture()

	flat := percentageRate(tenant, "ENV", "Environmental Fee", "0")
	flat.Method = models.MethodFlat
	flat.FlatAmount = decimalFromString(t, "2.50")

	cap1 := decimalFromString(t, "100")
	cap2 := decimalFromString(t, "500")
	tiered := percentageRate(tenant, "PROG", "Progressive Levy", "0")
	tiered.Method = models.MethodTiered
	tiered.Brackets = []models.TaxBracket{
		{UpTo: &cap2, Rate: decimalFromString(t, "0.05")},
		{UpTo: &cap1, Rate: decimalFromString(t, "0.02")},
		{Rate: decimalFromString(t, "0.08")},
	}

	repo.rates = []*models.TaxRate{flat, tiered}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	// Tiered: 100*0.02 + 400*0.05 + 500*0.08 = 2 + 20 + 40 = 62.
	// Flat adds 2.50.
	assert.Equal(t, "64.50", result.TotalTaxAmount.StringFixed(2))
}

func TestCalculateTaxTieredBelowFirstCap(t *testing.T) {
	svc, repo, tenant := newTaxFixture()

	cap1 := decimalFromString(t, "100")
	tiered := percentageRate(tenant, "PROG", "Progressive Levy", "0")
	tiered.Method = models.MethodTiered
	tiered.Brackets = []models.TaxBracket{
		{UpTo: &cap1, Rate: decimalFromString(t, "0.02")},
		{Rate: decimalFromString(t, "0.05")},
	}
	repo.rates = []*models.TaxRate{tiered}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.20", result.TotalTaxAmount.StringFixed(2))
}

func TestCalculateTaxRejectsNegativeAmount(t *testing.T) {
	svc, _, tenant := newTaxFixture()

	_, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCalculateTaxZeroAmount(t *testing.T) {
	svc, repo, tenant := newTaxFixture()
	repo.rates = []*models.TaxRate{percentageRate(tenant, "STATE", "State Sales Tax", "0.05")}

	result, err := svc.CalculateTax(context.Background(), tenant, models.TaxCalculationInput{
		TaxableAmount: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, result.TotalTaxAmount.IsZero())
	// The zero calculation is still recorded for audit.
	assert.Len(t, repo.saved, 1)
}
