// Package domain defines the report-processing pipeline surface.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/licensedesk/royalty/internal/ingest"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Preview runs the full pipeline without persisting anything.
	Preview(ctx context.Context, contractID string, upload Upload) (*ProcessResult, error)

	// Submit runs the pipeline and commits the resulting period under the
	// authoritative overlap guard.
	Submit(ctx context.Context, contractID string, upload Upload) (*SubmitResult, error)

	// SubmitBatch processes several uploads with per-item isolation.
	SubmitBatch(ctx context.Context, contractID string, uploads []Upload) []BatchItemResult
}

// Upload is one parsed sales report handed to the engine. Rows and headers
// come from the external file-parsing service.
type Upload struct {
	LicenseeFormat string              `json:"licensee_format"`
	Headers        []string            `json:"headers"`
	Rows           []ingest.RawRow     `json:"rows"`
	Samples        map[string][]string `json:"samples,omitempty"`

	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	// LicenseeReported overrides any reported-royalty column when set.
	LicenseeReported string `json:"licensee_reported,omitempty"`

	// Override replaces conflicting periods at commit.
	Override bool `json:"override,omitempty"`
}

// ProcessResult is everything the review UI needs before commit.
type ProcessResult struct {
	Columns    []mappingdomain.ColumnResolution   `json:"columns"`
	Categories []mappingdomain.CategoryResolution `json:"categories,omitempty"`

	NetSales decimal.Decimal            `json:"net_sales"`
	Buckets  map[string]decimal.Decimal `json:"buckets,omitempty"`

	Royalty        decimal.Decimal `json:"royalty"`
	FinalRoyalty   decimal.Decimal `json:"final_royalty"`
	MinimumApplied bool            `json:"minimum_applied"`

	LicenseeReported  *decimal.Decimal `json:"licensee_reported,omitempty"`
	HasDiscrepancy    bool             `json:"has_discrepancy"`
	DiscrepancyAmount decimal.Decimal  `json:"discrepancy_amount"`

	Warnings []ingest.Warning `json:"warnings,omitempty"`

	Draft *perioddomain.SalesPeriod `json:"draft,omitempty"`
}

type SubmitResult struct {
	Period    *perioddomain.SalesPeriod  `json:"period,omitempty"`
	Result    *ProcessResult             `json:"result,omitempty"`
	Conflicts []perioddomain.SalesPeriod `json:"conflicts,omitempty"`
}

type BatchItemResult struct {
	Index     int                        `json:"index"`
	Period    *perioddomain.SalesPeriod  `json:"period,omitempty"`
	Conflicts []perioddomain.SalesPeriod `json:"conflicts,omitempty"`
	ErrorCode string                     `json:"error,omitempty"`
}

var (
	ErrInvalidContract      = errors.New("invalid_contract")
	ErrInvalidDates         = errors.New("invalid_dates")
	ErrInvalidReported      = errors.New("invalid_reported_royalty")
	ErrUnresolvedCategories = errors.New("unresolved_categories")
)

// UnresolvedCategoriesError lists the labels that still need a saved alias
// or an explicit exclusion before aggregation may proceed.
type UnresolvedCategoriesError struct {
	Labels []string
}

func (e *UnresolvedCategoriesError) Error() string {
	return fmt.Sprintf("unresolved categories: %s", strings.Join(e.Labels, ", "))
}

func (e *UnresolvedCategoriesError) Unwrap() error { return ErrUnresolvedCategories }
