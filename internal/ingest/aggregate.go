package ingest

import (
	"fmt"
	"strings"

	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	"github.com/shopspring/decimal"
)

// headerScanWindow bounds how deep the header-row scan looks. Title and
// metadata blocks above the header rarely exceed a handful of rows.
const headerScanWindow = 20

// headerOverlapThreshold is the share of resolved headers a row must echo to
// count as the header row.
const headerOverlapThreshold = 0.6

var totalRowPrefixes = []string{
	"total", "totals", "subtotal", "sub total", "grand total", "summary", "sum",
}

// Aggregate excludes non-data rows, then sums net sales overall or per
// resolved category with exact decimal arithmetic. Re-running on unchanged
// rows yields an identical result.
func Aggregate(rows []RawRow, opts Options) (*Result, error) {
	netCol, ok := columnFor(opts.Columns, mappingdomain.FieldNetSales)
	if !ok {
		return nil, ErrNetSalesUnmapped
	}
	grossCol, hasGross := columnFor(opts.Columns, mappingdomain.FieldGrossSales)
	returnsCol, hasReturns := columnFor(opts.Columns, mappingdomain.FieldReturns)
	reportedCol, hasReported := columnFor(opts.Columns, mappingdomain.FieldReportedRoyalty)
	periodCol, hasPeriod := columnFor(opts.Columns, mappingdomain.FieldReportPeriod)

	categoryCol := ""
	if opts.Mode == contractdomain.RateTypeCategory {
		col, ok := columnFor(opts.Columns, mappingdomain.FieldProductCategory)
		if !ok {
			return nil, ErrCategoryUnmapped
		}
		categoryCol = col
	}

	numericCols := []string{netCol}
	if hasGross {
		numericCols = append(numericCols, grossCol)
	}
	if hasReturns {
		numericCols = append(numericCols, returnsCol)
	}

	result := &Result{
		NetSales:   decimal.Zero,
		GrossSales: decimal.Zero,
		Returns:    decimal.Zero,
	}
	if opts.Mode == contractdomain.RateTypeCategory {
		result.Buckets = make(map[string]decimal.Decimal, len(opts.ContractCategories))
		for _, category := range opts.ContractCategories {
			result.Buckets[category] = decimal.Zero
		}
	}

	dataStart := detectHeaderRow(rows, opts.Headers)
	var summaryNet *decimal.Decimal
	reportedTotal := decimal.Zero
	sawReported := false

	for i := dataStart; i < len(rows); i++ {
		row := rows[i]

		if isTotalRow(row) {
			if net, err := parseAmount(cellValue(row, netCol)); err == nil {
				summaryNet = &net
			}
			continue
		}
		if !hasNumeric(row, numericCols) {
			// Freestanding text row (notes, section labels).
			continue
		}

		net, err := parseAmount(cellValue(row, netCol))
		if err != nil {
			continue
		}

		if opts.Mode == contractdomain.RateTypeCategory {
			label := strings.TrimSpace(cellValue(row, categoryCol))
			category, ok := opts.CategoryAliases[label]
			if !ok {
				if _, defined := result.Buckets[label]; defined {
					category = label
				} else {
					return nil, &UnresolvedCategoryError{Row: i + 1, Label: label}
				}
			}
			if category == mappingdomain.CategoryExcluded {
				continue
			}
			if _, defined := result.Buckets[category]; !defined {
				return nil, &UnresolvedCategoryError{Row: i + 1, Label: label}
			}
			result.Buckets[category] = result.Buckets[category].Add(net)
		} else {
			result.NetSales = result.NetSales.Add(net)
		}

		if hasGross {
			if gross, err := parseAmount(cellValue(row, grossCol)); err == nil {
				result.GrossSales = result.GrossSales.Add(gross)
			}
		}
		if hasReturns {
			if ret, err := parseAmount(cellValue(row, returnsCol)); err == nil {
				result.Returns = result.Returns.Add(ret)
			}
		}
		if hasReported {
			if reported, err := parseAmount(cellValue(row, reportedCol)); err == nil {
				reportedTotal = reportedTotal.Add(reported)
				sawReported = true
			}
		}
		if hasPeriod && result.ReportPeriod == "" {
			result.ReportPeriod = strings.TrimSpace(cellValue(row, periodCol))
		}

		result.RowsUsed++
	}

	if result.RowsUsed == 0 {
		return nil, ErrNoDataRows
	}
	if sawReported {
		result.ReportedRoyalty = &reportedTotal
	}

	if opts.Mode == contractdomain.RateTypeCategory {
		for category, amount := range result.Buckets {
			if amount.IsNegative() {
				return nil, &NegativeNetSalesError{Category: category, Amount: amount}
			}
		}
	} else if result.NetSales.IsNegative() {
		return nil, &NegativeNetSalesError{Amount: result.NetSales}
	}

	// A summary row is a consistency check only, never the result.
	if summaryNet != nil {
		computed := result.NetSales
		if opts.Mode == contractdomain.RateTypeCategory {
			computed = decimal.Zero
			for _, amount := range result.Buckets {
				computed = computed.Add(amount)
			}
		}
		if !summaryNet.Equal(computed) {
			result.Warnings = append(result.Warnings, Warning{
				Code: "summary_row_mismatch",
				Message: fmt.Sprintf("summary row reports net sales %s but row-level sum is %s",
					summaryNet, computed),
			})
		}
	}

	return result, nil
}

// CategoryLabels returns the distinct raw category labels of the data rows,
// in first-seen order, applying the same row filters as Aggregate. Used to
// drive alias resolution before aggregation runs.
func CategoryLabels(rows []RawRow, opts Options) ([]string, error) {
	netCol, ok := columnFor(opts.Columns, mappingdomain.FieldNetSales)
	if !ok {
		return nil, ErrNetSalesUnmapped
	}
	categoryCol, ok := columnFor(opts.Columns, mappingdomain.FieldProductCategory)
	if !ok {
		return nil, ErrCategoryUnmapped
	}

	seen := make(map[string]bool)
	var labels []string
	for i := detectHeaderRow(rows, opts.Headers); i < len(rows); i++ {
		row := rows[i]
		if isTotalRow(row) || !hasNumeric(row, []string{netCol}) {
			continue
		}
		label := strings.TrimSpace(cellValue(row, categoryCol))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels, nil
}

// detectHeaderRow returns the index of the first data row. Rows are scanned
// within a bounded window for the first row whose cells sufficiently overlap
// the resolved raw headers; everything above it is preamble. When no header
// row is found the parser already stripped it and all rows are data.
func detectHeaderRow(rows []RawRow, headers []string) int {
	if len(headers) == 0 {
		return 0
	}
	wanted := make(map[string]bool, len(headers))
	for _, h := range headers {
		wanted[normalizeCell(h)] = true
	}

	limit := len(rows)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		matches := 0
		for _, cell := range rows[i] {
			if wanted[normalizeCell(cell.Value)] {
				matches++
			}
		}
		if float64(matches) >= headerOverlapThreshold*float64(len(headers)) {
			return i + 1
		}
	}
	return 0
}

func isTotalRow(row RawRow) bool {
	for _, cell := range row {
		value := normalizeCell(cell.Value)
		if value == "" {
			continue
		}
		for _, prefix := range totalRowPrefixes {
			if value == prefix || strings.HasPrefix(value, prefix+" ") {
				return true
			}
		}
		// Only the leading non-empty cell is considered.
		return false
	}
	return false
}

func hasNumeric(row RawRow, columns []string) bool {
	for _, col := range columns {
		if _, err := parseAmount(cellValue(row, col)); err == nil {
			return true
		}
	}
	return false
}

func cellValue(row RawRow, column string) string {
	for _, cell := range row {
		if cell.Column == column {
			return cell.Value
		}
	}
	return ""
}

func columnFor(columns []mappingdomain.ColumnResolution, field string) (string, bool) {
	for _, col := range columns {
		if col.Field == field {
			return col.Header, true
		}
	}
	return "", false
}

// parseAmount reads a currency cell: "$1,234.50", "(200)" for negatives,
// plain decimals. Empty and non-numeric cells are errors.
func parseAmount(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("empty cell")
	}

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = value[1 : len(value)-1]
	}
	value = strings.ReplaceAll(value, "$", "")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimSpace(value)

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		parsed = parsed.Neg()
	}
	return parsed, nil
}

func normalizeCell(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
}
