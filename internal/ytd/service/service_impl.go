package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	ytddomain "github.com/licensedesk/royalty/internal/ytd/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Contracts contractdomain.Service
	Periods   perioddomain.Service
}

type Service struct {
	log       *zap.Logger
	contracts contractdomain.Service
	periods   perioddomain.Service
}

func New(p Params) ytddomain.Service {
	return &Service{
		log:       p.Log.Named("ytd.service"),
		contracts: p.Contracts,
		periods:   p.Periods,
	}
}

func (s *Service) Summary(ctx context.Context, contractID string, year int) (*ytddomain.YearSummary, error) {
	if _, err := parseID(contractID); err != nil {
		return nil, ytddomain.ErrInvalidContract
	}
	if year < 1 {
		return nil, ytddomain.ErrInvalidYear
	}

	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	yearStart := contract.StartDate.AddDate(year-1, 0, 0)
	yearEnd := contract.StartDate.AddDate(year, 0, -1)

	committed, err := s.periods.List(ctx, contractID)
	if err != nil {
		return nil, err
	}

	summary := &ytddomain.YearSummary{
		ContractID: contractID,
		Year:       year,
		YearStart:  yearStart,
		YearEnd:    yearEnd,
	}

	for i := range committed {
		p := &committed[i]
		if !ytddomain.InYear(p, yearStart, yearEnd) {
			continue
		}
		summary.Periods = append(summary.Periods, ytddomain.PeriodEntry{
			PeriodID:    p.ID.String(),
			PeriodStart: p.PeriodStart,
			PeriodEnd:   p.PeriodEnd,
			NetSales:    periodNetSales(p),
			Royalty:     p.CalculatedRoyalty,
		})
	}
	sort.Slice(summary.Periods, func(i, j int) bool {
		return summary.Periods[i].PeriodStart.Before(summary.Periods[j].PeriodStart)
	})

	for _, entry := range summary.Periods {
		summary.TotalNetSales = summary.TotalNetSales.Add(entry.NetSales)
		summary.TotalRoyalty = summary.TotalRoyalty.Add(entry.Royalty)
	}

	// Annual-scoped guarantees are evaluated only here, never per period.
	due := summary.TotalRoyalty
	if contract.MinimumGuarantee != nil && contract.MinimumGuaranteeScope == contractdomain.GuaranteeScopeAnnual {
		minimum := *contract.MinimumGuarantee
		summary.AnnualMinimum = &minimum
		if minimum.GreaterThan(due) {
			summary.Shortfall = minimum.Sub(due)
			due = minimum
		}
	}

	// Advances credit against earned royalties of the first contract year.
	if contract.AdvancePayment != nil && year == 1 {
		advance := *contract.AdvancePayment
		summary.AdvancePayment = &advance
		if advance.GreaterThan(due) {
			summary.AdvanceRemaining = advance.Sub(due)
			due = decimal.Zero
		} else {
			due = due.Sub(advance)
		}
	}
	summary.RoyaltyPayable = due

	return summary, nil
}

func periodNetSales(p *perioddomain.SalesPeriod) decimal.Decimal {
	if p.NetSales != nil {
		return *p.NetSales
	}
	total := decimal.Zero
	for _, amount := range p.CategoryBuckets() {
		total = total.Add(amount)
	}
	return total
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
