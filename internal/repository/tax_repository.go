package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
	"github.com/mugisham37/business-management-web-sub004/internal/models"
)

// TaxRepository reads tax configuration and appends immutable
// calculation records. Tiered brackets are stored as JSONB.
type TaxRepository struct {
	db *sql.DB
}

func NewTaxRepository(db *sql.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

// ListRates returns every rate joined with its jurisdiction code and
// the jurisdiction's effective window. Rates under an inactive
// jurisdiction are excluded; window filtering happens in the service
// against the calculation date.
func (r *TaxRepository) ListRates(ctx context.Context, tenantID uuid.UUID) ([]*models.TaxRate, error) {
	query := `
		SELECT r.id, r.tenant_id, r.jurisdiction_id, j.code, j.effective_from, j.effective_to,
			r.name, r.method,
			r.rate, r.flat_amount, r.brackets, r.applies_to_products, r.applies_to_services,
			r.applies_to_shipping, r.min_taxable_amount, r.max_taxable_amount,
			r.effective_from, r.effective_to, r.is_active
		FROM tax_rates r
		JOIN tax_jurisdictions j ON j.id = r.jurisdiction_id
		WHERE r.tenant_id = $1 AND j.is_active
		ORDER BY j.code, r.name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err, "list tax rates")
	}
	defer rows.Close()

	var rates []*models.TaxRate
	for rows.Next() {
		var rate models.TaxRate
		var brackets []byte
		var minAmount, maxAmount decimal.NullDecimal
		var effectiveTo, jurisdictionTo sql.NullTime

		if err := rows.Scan(&rate.ID, &rate.TenantID, &rate.JurisdictionID,
			&rate.JurisdictionCode, &rate.JurisdictionEffectiveFrom, &jurisdictionTo,
			&rate.Name, &rate.Method, &rate.Rate, &rate.FlatAmount,
			&brackets, &rate.AppliesToProducts, &rate.AppliesToServices,
			&rate.AppliesToShipping, &minAmount, &maxAmount,
			&rate.EffectiveFrom, &effectiveTo, &rate.IsActive); err != nil {
			return nil, mapError(err, "list tax rates")
		}

		if len(brackets) > 0 {
			if err := json.Unmarshal(brackets, &rate.Brackets); err != nil {
				return nil, apperrors.Integrityf("decode tax brackets for rate %s: %v", rate.ID, err)
			}
		}
		if minAmount.Valid {
			rate.MinTaxableAmount = &minAmount.Decimal
		}
		if maxAmount.Valid {
			rate.MaxTaxableAmount = &maxAmount.Decimal
		}
		if effectiveTo.Valid {
			rate.EffectiveTo = &effectiveTo.Time
		}
		if jurisdictionTo.Valid {
			rate.JurisdictionEffectiveTo = &jurisdictionTo.Time
		}
		rates = append(rates, &rate)
	}
	return rates, mapError(rows.Err(), "list tax rates")
}

// SaveCalculations appends audit records in one transaction. Records
// are insert-only: there is no update path.
func (r *TaxRepository) SaveCalculations(ctx context.Context, calcs []*models.TaxCalculation) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range calcs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tax_calculations (id, tenant_id, jurisdiction_id, jurisdiction_code,
					rate_id, rate_name, taxable_amount, tax_amount, rounding_delta,
					calculation_date, source_type, source_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				c.ID, c.TenantID, c.JurisdictionID, c.JurisdictionCode, c.RateID, c.RateName,
				c.TaxableAmount, c.TaxAmount, c.RoundingDelta, c.CalculationDate,
				c.SourceType, c.SourceID, c.CreatedAt); err != nil {
				return mapError(err, "save tax calculation")
			}
		}
		return nil
	})
}
