// Package domain defines the year-to-date royalty view.
//
// The view is recomputed from committed periods on every read; nothing here
// is persisted. Annual minimum shortfall and advance crediting live on this
// surface because no single period can evaluate them.
package domain

import (
	"context"
	"errors"
	"time"

	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Summary folds the committed periods of one contract year. Year 1 starts
	// at the contract start date; each later year at its anniversary.
	Summary(ctx context.Context, contractID string, year int) (*YearSummary, error)
}

// PeriodEntry is one committed period's contribution to the year.
type PeriodEntry struct {
	PeriodID    string          `json:"period_id"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	NetSales    decimal.Decimal `json:"net_sales"`
	Royalty     decimal.Decimal `json:"royalty"`
}

// YearSummary is the recomputed state of one contract year.
type YearSummary struct {
	ContractID string    `json:"contract_id"`
	Year       int       `json:"year"`
	YearStart  time.Time `json:"year_start"`
	YearEnd    time.Time `json:"year_end"`

	Periods       []PeriodEntry   `json:"periods"`
	TotalNetSales decimal.Decimal `json:"total_net_sales"`
	TotalRoyalty  decimal.Decimal `json:"total_royalty"`

	// AnnualMinimum and Shortfall are set only for annual-scoped guarantees.
	AnnualMinimum *decimal.Decimal `json:"annual_minimum,omitempty"`
	Shortfall     decimal.Decimal  `json:"shortfall"`

	// AdvanceRemaining is the uncredited advance balance; advances credit
	// against the first contract year only.
	AdvancePayment   *decimal.Decimal `json:"advance_payment,omitempty"`
	AdvanceRemaining decimal.Decimal  `json:"advance_remaining"`
	RoyaltyPayable   decimal.Decimal  `json:"royalty_payable"`
}

var (
	ErrInvalidContract = errors.New("invalid_contract")
	ErrInvalidYear     = errors.New("invalid_year")
)

// InYear reports whether a committed period belongs to the window; a period
// counts toward the year its start date falls in.
func InYear(p *perioddomain.SalesPeriod, yearStart, yearEnd time.Time) bool {
	return !p.PeriodStart.Before(yearStart) && !p.PeriodStart.After(yearEnd)
}
