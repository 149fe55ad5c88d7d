// Package discrepancy compares calculated royalty to the licensee's
// self-reported figure.
package discrepancy

import "github.com/shopspring/decimal"

// Result is a signed comparison outcome. A positive amount means the
// licensee under-reported; negative means over-reported. No correction is
// applied in either case.
type Result struct {
	HasDiscrepancy bool
	Amount         decimal.Decimal
}

// Detect compares exactly, with no tolerance band. A missing reported figure
// yields no discrepancy.
func Detect(finalRoyalty decimal.Decimal, licenseeReported *decimal.Decimal) Result {
	if licenseeReported == nil {
		return Result{}
	}
	amount := finalRoyalty.Sub(*licenseeReported)
	return Result{
		HasDiscrepancy: !amount.IsZero(),
		Amount:         amount,
	}
}
