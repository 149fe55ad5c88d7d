package service

import (
	"context"
	"strings"

	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
)

// stage is one step of the resolution cascade. The first stage that answers
// wins; the cascade is shared by field mapping and category aliasing, which
// differ only in their lookup stores.
type stage struct {
	provenance mappingdomain.Provenance
	lookup     func(ctx context.Context, key string) (string, bool)
}

func resolveWithCascade(ctx context.Context, key string, stages []stage) (string, mappingdomain.Provenance) {
	for _, st := range stages {
		if value, ok := st.lookup(ctx, key); ok {
			return value, st.provenance
		}
	}
	return "", mappingdomain.ProvenanceNone
}

// fieldSynonyms maps normalized header spellings to semantic fields.
var fieldSynonyms = map[string]string{
	"net sales":       mappingdomain.FieldNetSales,
	"net sale":        mappingdomain.FieldNetSales,
	"net revenue":     mappingdomain.FieldNetSales,
	"net amount":      mappingdomain.FieldNetSales,
	"net receipts":    mappingdomain.FieldNetSales,
	"total net sales": mappingdomain.FieldNetSales,
	"net":             mappingdomain.FieldNetSales,

	"gross sales":   mappingdomain.FieldGrossSales,
	"gross sale":    mappingdomain.FieldGrossSales,
	"gross revenue": mappingdomain.FieldGrossSales,
	"gross amount":  mappingdomain.FieldGrossSales,
	"gross":         mappingdomain.FieldGrossSales,
	"total sales":   mappingdomain.FieldGrossSales,
	"sales":         mappingdomain.FieldGrossSales,

	"returns":            mappingdomain.FieldReturns,
	"refunds":            mappingdomain.FieldReturns,
	"allowances":         mappingdomain.FieldReturns,
	"returns allowances": mappingdomain.FieldReturns,
	"credits":            mappingdomain.FieldReturns,

	"category":         mappingdomain.FieldProductCategory,
	"product category": mappingdomain.FieldProductCategory,
	"product line":     mappingdomain.FieldProductCategory,
	"product type":     mappingdomain.FieldProductCategory,
	"product class":    mappingdomain.FieldProductCategory,

	"royalty due":      mappingdomain.FieldReportedRoyalty,
	"royalty owed":     mappingdomain.FieldReportedRoyalty,
	"royalty amount":   mappingdomain.FieldReportedRoyalty,
	"reported royalty": mappingdomain.FieldReportedRoyalty,
	"royalties":        mappingdomain.FieldReportedRoyalty,
	"royalty":          mappingdomain.FieldReportedRoyalty,

	"territory": mappingdomain.FieldTerritory,
	"region":    mappingdomain.FieldTerritory,
	"market":    mappingdomain.FieldTerritory,
	"country":   mappingdomain.FieldTerritory,

	"licensee":      mappingdomain.FieldLicenseeName,
	"licensee name": mappingdomain.FieldLicenseeName,
	"company":       mappingdomain.FieldLicenseeName,
	"company name":  mappingdomain.FieldLicenseeName,

	"period":           mappingdomain.FieldReportPeriod,
	"report period":    mappingdomain.FieldReportPeriod,
	"reporting period": mappingdomain.FieldReportPeriod,
	"sales period":     mappingdomain.FieldReportPeriod,
	"month":            mappingdomain.FieldReportPeriod,
	"quarter":          mappingdomain.FieldReportPeriod,

	"rate":         mappingdomain.FieldRoyaltyRate,
	"royalty rate": mappingdomain.FieldRoyaltyRate,
	"rate pct":     mappingdomain.FieldRoyaltyRate,
}

// normalizeKey lowercases and collapses whitespace and common separators so
// "Net_Sales ($)" and "net sales" compare equal.
func normalizeKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '%':
			b.WriteString(" pct ")
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func keywordField(header string) (string, bool) {
	field, ok := fieldSynonyms[normalizeKey(header)]
	return field, ok
}

// dedupeUnique enforces one column per unique field: a later assignment
// reverts the earlier column to ignore and flags it for review.
func dedupeUnique(columns []mappingdomain.ColumnResolution) []mappingdomain.ColumnResolution {
	claimed := make(map[string]int)
	for i := range columns {
		field := columns[i].Field
		if !mappingdomain.IsUniqueField(field) {
			continue
		}
		if prev, ok := claimed[field]; ok {
			columns[prev].Field = mappingdomain.FieldIgnore
			columns[prev].NeedsAttention = true
		}
		claimed[field] = i
	}
	return columns
}

// ValidateNetSales blocks aggregation unless net_sales resolved to exactly
// one column. Dedupe guarantees at most one, so only absence remains.
func ValidateNetSales(columns []mappingdomain.ColumnResolution) error {
	for _, col := range columns {
		if col.Field == mappingdomain.FieldNetSales {
			return nil
		}
	}
	return mappingdomain.ErrNetSalesUnresolved
}
