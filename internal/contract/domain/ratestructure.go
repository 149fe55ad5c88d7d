package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateStructure is the resolved rate algorithm of a contract. It is built
// once when the contract is read and handed to the calculator as-is; callers
// switch on the concrete type instead of re-inspecting stored columns.
type RateStructure interface {
	Type() RateType
}

// FlatStructure applies a single fractional rate to total net sales.
type FlatStructure struct {
	Rate decimal.Decimal
}

func (FlatStructure) Type() RateType { return RateTypeFlat }

// TierBand is one marginal bracket. Upper == nil means unbounded.
type TierBand struct {
	Lower decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// TieredStructure applies marginal bracket rates, ascending by Lower.
type TieredStructure struct {
	Tiers []TierBand
}

func (TieredStructure) Type() RateType { return RateTypeTiered }

// CategoryStructure applies a per-category rate to per-category net sales.
type CategoryStructure struct {
	Rates map[string]decimal.Decimal
}

func (CategoryStructure) Type() RateType { return RateTypeCategory }

// RateStructure resolves the stored contract rows into the tagged union.
func (c *Contract) RateStructure() (RateStructure, error) {
	switch c.RateType {
	case RateTypeFlat:
		if c.FlatRate == nil {
			return nil, ErrInvalidRate
		}
		return FlatStructure{Rate: *c.FlatRate}, nil
	case RateTypeTiered:
		if len(c.Tiers) == 0 {
			return nil, ErrInvalidTiers
		}
		bands := make([]TierBand, 0, len(c.Tiers))
		for _, t := range c.Tiers {
			bands = append(bands, TierBand{Lower: t.LowerBound, Upper: t.UpperBound, Rate: t.Rate})
		}
		if err := ValidateTiers(bands); err != nil {
			return nil, err
		}
		return TieredStructure{Tiers: bands}, nil
	case RateTypeCategory:
		if len(c.CategoryRates) == 0 {
			return nil, ErrMissingCategories
		}
		rates := make(map[string]decimal.Decimal, len(c.CategoryRates))
		for _, cr := range c.CategoryRates {
			rates[cr.Category] = cr.Rate
		}
		return CategoryStructure{Rates: rates}, nil
	default:
		return nil, ErrInvalidRateType
	}
}

// ValidateTiers checks that bands are sorted ascending and non-overlapping,
// with at most the last band unbounded.
func ValidateTiers(bands []TierBand) error {
	for i, b := range bands {
		if b.Lower.IsNegative() {
			return ErrInvalidTiers
		}
		if b.Upper != nil && !b.Upper.GreaterThan(b.Lower) {
			return ErrInvalidTiers
		}
		if b.Upper == nil && i != len(bands)-1 {
			return ErrInvalidTiers
		}
		if i > 0 {
			prev := bands[i-1]
			if prev.Upper == nil || b.Lower.LessThan(*prev.Upper) {
				return ErrInvalidTiers
			}
		}
	}
	return nil
}

// ParseRate normalizes a rate written as a percentage or a decimal fraction
// into a fraction in [0,1]. "8%", "8" and "0.08" all parse to 0.08.
func ParseRate(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	percent := strings.HasSuffix(value, "%")
	value = strings.TrimSpace(strings.TrimSuffix(value, "%"))
	if value == "" {
		return decimal.Zero, ErrInvalidRate
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, ErrInvalidRate
	}

	if percent || parsed.GreaterThan(decimal.NewFromInt(1)) {
		parsed = parsed.Div(decimal.NewFromInt(100))
	}
	if parsed.IsNegative() || parsed.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidRate
	}
	return parsed, nil
}
