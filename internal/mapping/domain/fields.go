package domain

// Semantic fields a spreadsheet column can map to.
const (
	FieldNetSales        = "net_sales"
	FieldGrossSales      = "gross_sales"
	FieldReturns         = "returns"
	FieldProductCategory = "product_category"
	FieldReportedRoyalty = "licensee_reported_royalty"
	FieldTerritory       = "territory"
	FieldLicenseeName    = "licensee_name"
	FieldReportPeriod    = "report_period"
	FieldRoyaltyRate     = "royalty_rate"
	FieldMetadata        = "metadata"
	FieldIgnore          = "ignore"
)

// CategoryExcluded marks a raw category label as deliberately outside the
// contract's rate categories.
const CategoryExcluded = "excluded"

// Provenance records which cascade stage resolved an assignment.
type Provenance string

const (
	ProvenanceSaved   Provenance = "saved"
	ProvenanceKeyword Provenance = "keyword"
	ProvenanceAI      Provenance = "ai"
	ProvenanceNone    Provenance = "none"
)

// uniqueFields may claim at most one column; a later claim reverts the
// earlier column to ignore. Metadata and ignore are exempt.
var uniqueFields = map[string]bool{
	FieldNetSales:        true,
	FieldGrossSales:      true,
	FieldReturns:         true,
	FieldProductCategory: true,
	FieldReportedRoyalty: true,
	FieldTerritory:       true,
	FieldLicenseeName:    true,
	FieldReportPeriod:    true,
	FieldRoyaltyRate:     true,
}

// IsUniqueField reports whether the field may claim at most one column.
func IsUniqueField(field string) bool { return uniqueFields[field] }

// KnownField reports whether the value is a recognized semantic field.
func KnownField(field string) bool {
	return uniqueFields[field] || field == FieldMetadata || field == FieldIgnore
}
