package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculationMethod selects how a tax rate computes its amount.
type CalculationMethod string

const (
	MethodPercentage CalculationMethod = "percentage"
	MethodFlat       CalculationMethod = "flat"
	MethodTiered     CalculationMethod = "tiered"
)

// ProductType classifies what is being taxed.
type ProductType string

const (
	ProductTypeProduct  ProductType = "product"
	ProductTypeService  ProductType = "service"
	ProductTypeShipping ProductType = "shipping"
)

// TaxJurisdiction is a taxing authority with an effective window.
type TaxJurisdiction struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	IsActive      bool       `json:"is_active"`
}

// TaxBracket is one step of a tiered rate. A nil UpTo marks the open
// top bracket.
type TaxBracket struct {
	UpTo *decimal.Decimal `json:"up_to,omitempty"`
	Rate decimal.Decimal  `json:"rate"`
}

// TaxRate is a single rate within a jurisdiction. Rate is a fraction
// (0.05 for 5%), not a percentage. The jurisdiction's own effective
// window rides along so selection can honor both windows at once.
type TaxRate struct {
	ID                        uuid.UUID         `json:"id"`
	TenantID                  uuid.UUID         `json:"tenant_id"`
	JurisdictionID            uuid.UUID         `json:"jurisdiction_id"`
	JurisdictionCode          string            `json:"jurisdiction_code"`
	JurisdictionEffectiveFrom time.Time         `json:"jurisdiction_effective_from"`
	JurisdictionEffectiveTo   *time.Time        `json:"jurisdiction_effective_to,omitempty"`
	Name                      string            `json:"name"`
	Method                    CalculationMethod `json:"method"`
	Rate                      decimal.Decimal   `json:"rate"`
	FlatAmount                decimal.Decimal   `json:"flat_amount"`
	Brackets                  []TaxBracket      `json:"brackets,omitempty"`
	AppliesToProducts         bool              `json:"applies_to_products"`
	AppliesToServices         bool              `json:"applies_to_services"`
	AppliesToShipping         bool              `json:"applies_to_shipping"`
	MinTaxableAmount          *decimal.Decimal  `json:"min_taxable_amount,omitempty"`
	MaxTaxableAmount          *decimal.Decimal  `json:"max_taxable_amount,omitempty"`
	EffectiveFrom             time.Time         `json:"effective_from"`
	EffectiveTo               *time.Time        `json:"effective_to,omitempty"`
	IsActive                  bool              `json:"is_active"`
}

// AppliesTo reports whether the rate covers the given product type.
func (r *TaxRate) AppliesTo(pt ProductType) bool {
	switch pt {
	case ProductTypeProduct:
		return r.AppliesToProducts
	case ProductTypeService:
		return r.AppliesToServices
	case ProductTypeShipping:
		return r.AppliesToShipping
	}
	return false
}

// TaxCalculation is an immutable audit record of one rate applied to
// one taxable amount. RoundingDelta = raw amount - rounded amount.
type TaxCalculation struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	JurisdictionID   uuid.UUID       `json:"jurisdiction_id"`
	JurisdictionCode string          `json:"jurisdiction_code"`
	RateID           uuid.UUID       `json:"rate_id"`
	RateName         string          `json:"rate_name"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	RoundingDelta    decimal.Decimal `json:"rounding_delta"`
	CalculationDate  time.Time       `json:"calculation_date"`
	SourceType       string          `json:"source_type,omitempty"`
	SourceID         string          `json:"source_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TaxCalculationInput is the request for a tax calculation.
type TaxCalculationInput struct {
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	ProductType     ProductType     `json:"product_type"`
	CalculationDate time.Time       `json:"calculation_date"`
	SourceType      string          `json:"source_type,omitempty"`
	SourceID        string          `json:"source_id,omitempty"`
}

// TaxCalculationResult is the total plus the per-jurisdiction
// breakdown, one line per applicable rate.
type TaxCalculationResult struct {
	TotalTaxAmount decimal.Decimal  `json:"total_tax_amount"`
	Breakdown      []TaxCalculation `json:"breakdown"`
}
