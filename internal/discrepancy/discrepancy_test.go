package discrepancy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDetect_UnderReported(t *testing.T) {
	reported := dec("11500")
	result := Detect(dec("12000"), &reported)

	assert.True(t, result.HasDiscrepancy)
	assert.True(t, result.Amount.Equal(dec("500")), "got %s", result.Amount)
}

func TestDetect_OverReported(t *testing.T) {
	reported := dec("12500")
	result := Detect(dec("12000"), &reported)

	assert.True(t, result.HasDiscrepancy)
	assert.True(t, result.Amount.Equal(dec("-500")), "got %s", result.Amount)
}

func TestDetect_ExactMatch(t *testing.T) {
	reported := dec("12000.00")
	result := Detect(dec("12000"), &reported)

	assert.False(t, result.HasDiscrepancy)
	assert.True(t, result.Amount.IsZero())
}

func TestDetect_OneCentCounts(t *testing.T) {
	reported := dec("11999.99")
	result := Detect(dec("12000.00"), &reported)

	assert.True(t, result.HasDiscrepancy)
	assert.True(t, result.Amount.Equal(dec("0.01")))
}

func TestDetect_NoReportedFigure(t *testing.T) {
	result := Detect(dec("12000"), nil)

	assert.False(t, result.HasDiscrepancy)
	assert.True(t, result.Amount.IsZero())
}
