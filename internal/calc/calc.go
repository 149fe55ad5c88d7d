// Package calc computes the pre-guarantee royalty for a period.
//
// The calculator is pure: it takes a resolved rate structure and aggregated
// net sales and performs exact decimal arithmetic. Year-to-date concerns
// (annual minimum shortfall, advance crediting) are folded externally over
// per-period outputs and deliberately not handled here.
package calc

import (
	"errors"

	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownStructure  = errors.New("unknown_rate_structure")
	ErrUnmappedCategory  = errors.New("unmapped_category")
	ErrMissingAggregates = errors.New("missing_aggregates")
)

// Input is the aggregated sales a calculation runs on. Categories is set for
// category-mode contracts, NetSales otherwise.
type Input struct {
	NetSales   decimal.Decimal
	Categories map[string]decimal.Decimal
}

// Result is the outcome after the period-scoped minimum guarantee rule.
type Result struct {
	Royalty        decimal.Decimal
	FinalRoyalty   decimal.Decimal
	MinimumApplied bool
}

// Calculate computes the pre-guarantee royalty under the given structure.
func Calculate(structure contractdomain.RateStructure, input Input) (decimal.Decimal, error) {
	switch rs := structure.(type) {
	case contractdomain.FlatStructure:
		return input.NetSales.Mul(rs.Rate), nil
	case contractdomain.TieredStructure:
		return calculateTiered(rs, input.NetSales), nil
	case contractdomain.CategoryStructure:
		return calculateCategory(rs, input.Categories)
	default:
		return decimal.Zero, ErrUnknownStructure
	}
}

// calculateTiered sums per-bracket marginal components:
// (min(net, upper) - lower)+ x rate for each band. The result is continuous
// and non-decreasing in net sales.
func calculateTiered(rs contractdomain.TieredStructure, netSales decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, band := range rs.Tiers {
		capped := netSales
		if band.Upper != nil && capped.GreaterThan(*band.Upper) {
			capped = *band.Upper
		}
		slice := capped.Sub(band.Lower)
		if slice.IsNegative() {
			continue
		}
		total = total.Add(slice.Mul(band.Rate))
	}
	return total
}

// calculateCategory rates each contract-defined category at its own rate. A
// category with no aggregated sales contributes exactly zero. An aggregated
// category the contract does not define is an error: unmapped data must have
// been resolved to "excluded" upstream, never silently dropped here.
func calculateCategory(rs contractdomain.CategoryStructure, buckets map[string]decimal.Decimal) (decimal.Decimal, error) {
	if buckets == nil {
		return decimal.Zero, ErrMissingAggregates
	}
	for category := range buckets {
		if _, ok := rs.Rates[category]; !ok {
			return decimal.Zero, ErrUnmappedCategory
		}
	}

	total := decimal.Zero
	for category, rate := range rs.Rates {
		net, ok := buckets[category]
		if !ok {
			continue
		}
		total = total.Add(net.Mul(rate))
	}
	return total, nil
}

// ApplyMinimum applies a period-scoped minimum guarantee. Annual-scoped
// guarantees cannot be evaluated against a single period and pass through
// untouched; the year-to-date surface owns that comparison.
func ApplyMinimum(royalty decimal.Decimal, minimum *decimal.Decimal, scope contractdomain.GuaranteeScope) Result {
	result := Result{Royalty: royalty, FinalRoyalty: royalty}
	if minimum == nil || scope != contractdomain.GuaranteeScopePeriod {
		return result
	}
	if minimum.GreaterThan(royalty) {
		result.FinalRoyalty = *minimum
		result.MinimumApplied = true
	}
	return result
}
