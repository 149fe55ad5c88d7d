// Package ingest turns parsed spreadsheet rows into aggregated net sales.
//
// The engine never parses binary spreadsheet formats; an external service
// supplies ordered column/value rows plus the raw headers.
package ingest

import (
	"errors"
	"fmt"

	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	"github.com/shopspring/decimal"
)

// Cell is one column/value pair. Rows preserve the sheet's column order.
type Cell struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// RawRow is one spreadsheet row as delivered by the file-parsing service.
type RawRow []Cell

// Options configures one aggregation run.
type Options struct {
	// Headers are the raw headers the mapping was resolved against.
	Headers []string
	// Columns is the resolved per-header field assignment.
	Columns []mappingdomain.ColumnResolution
	// Mode selects scalar (flat/tiered) or per-category aggregation.
	Mode contractdomain.RateType
	// CategoryAliases maps raw category labels to contract categories or
	// mappingdomain.CategoryExcluded. Category mode only.
	CategoryAliases map[string]string
	// ContractCategories get explicit zero buckets even with no rows.
	ContractCategories []string
}

// Warning is an advisory finding. Warnings never block a commit.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the aggregated outcome of one sales report.
type Result struct {
	NetSales decimal.Decimal
	Buckets  map[string]decimal.Decimal

	GrossSales decimal.Decimal
	Returns    decimal.Decimal

	ReportedRoyalty *decimal.Decimal
	ReportPeriod    string

	RowsUsed int
	Warnings []Warning
}

var (
	ErrNetSalesUnmapped   = errors.New("net_sales_unmapped")
	ErrCategoryUnmapped   = errors.New("category_column_unmapped")
	ErrNoDataRows         = errors.New("no_data_rows")
	ErrNegativeNetSales   = errors.New("negative_net_sales")
	ErrUnresolvedCategory = errors.New("unresolved_category")
)

// UnresolvedCategoryError reports the exact row and label that blocked
// aggregation, for the review UI.
type UnresolvedCategoryError struct {
	Row   int
	Label string
}

func (e *UnresolvedCategoryError) Error() string {
	return fmt.Sprintf("unresolved category %q at row %d", e.Label, e.Row)
}

func (e *UnresolvedCategoryError) Unwrap() error { return ErrUnresolvedCategory }

// NegativeNetSalesError carries the offending bucket (empty for scalar mode).
type NegativeNetSalesError struct {
	Category string
	Amount   decimal.Decimal
}

func (e *NegativeNetSalesError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("negative net sales %s", e.Amount)
	}
	return fmt.Sprintf("negative net sales %s in category %q", e.Amount, e.Category)
}

func (e *NegativeNetSalesError) Unwrap() error { return ErrNegativeNetSales }
