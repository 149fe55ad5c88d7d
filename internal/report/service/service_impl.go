package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/licensedesk/royalty/internal/calc"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"github.com/licensedesk/royalty/internal/discrepancy"
	"github.com/licensedesk/royalty/internal/ingest"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	mappingservice "github.com/licensedesk/royalty/internal/mapping/service"
	"github.com/licensedesk/royalty/internal/observability/metrics"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	reportdomain "github.com/licensedesk/royalty/internal/report/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Contracts contractdomain.Service
	Mapping   mappingdomain.Service
	Periods   perioddomain.Service
	Metrics   *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	contracts contractdomain.Service
	mapping   mappingdomain.Service
	periods   perioddomain.Service
	metrics   *metrics.EngineMetrics
}

func New(p Params) reportdomain.Service {
	return &Service{
		log:       p.Log.Named("report.service"),
		genID:     p.GenID,
		contracts: p.Contracts,
		mapping:   p.Mapping,
		periods:   p.Periods,
		metrics:   p.Metrics,
	}
}

func (s *Service) Preview(ctx context.Context, contractID string, upload reportdomain.Upload) (*reportdomain.ProcessResult, error) {
	_, result, err := s.process(ctx, contractID, upload)
	return result, err
}

func (s *Service) Submit(ctx context.Context, contractID string, upload reportdomain.Upload) (*reportdomain.SubmitResult, error) {
	contract, result, err := s.process(ctx, contractID, upload)
	if err != nil {
		s.metrics.RecordReportProcessed("error")
		return nil, err
	}

	period := result.Draft
	period.ID = s.genID.Generate()

	conflicts, err := s.periods.Commit(ctx, period, upload.Override)
	if err != nil {
		if errors.Is(err, perioddomain.ErrOverlapConflict) {
			s.metrics.RecordReportProcessed("conflict")
			return &reportdomain.SubmitResult{Result: result, Conflicts: conflicts}, err
		}
		s.metrics.RecordReportProcessed("error")
		return nil, err
	}

	s.metrics.RecordReportProcessed("ok")
	if result.HasDiscrepancy {
		s.metrics.RecordDiscrepancy()
	}
	s.log.Info("report submitted",
		zap.String("contract_id", contract.ID.String()),
		zap.String("period_id", period.ID.String()),
		zap.String("royalty", result.FinalRoyalty.String()),
		zap.Bool("minimum_applied", result.MinimumApplied),
		zap.Bool("has_discrepancy", result.HasDiscrepancy),
	)
	return &reportdomain.SubmitResult{Period: period, Result: result}, nil
}

func (s *Service) SubmitBatch(ctx context.Context, contractID string, uploads []reportdomain.Upload) []reportdomain.BatchItemResult {
	results := make([]reportdomain.BatchItemResult, 0, len(uploads))
	for i, upload := range uploads {
		item := reportdomain.BatchItemResult{Index: i}
		submitted, err := s.Submit(ctx, contractID, upload)
		if err != nil {
			item.ErrorCode = errorCode(err)
			if submitted != nil {
				item.Conflicts = submitted.Conflicts
			}
		} else {
			item.Period = submitted.Period
		}
		results = append(results, item)
	}
	return results
}

// process runs the pipeline up to (but excluding) the commit: resolve the
// mapping, aggregate, calculate, apply the period minimum, and compare against
// the licensee's reported figure.
func (s *Service) process(ctx context.Context, contractID string, upload reportdomain.Upload) (*contractdomain.Contract, *reportdomain.ProcessResult, error) {
	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}

	start, end, err := parseDateRange(upload.PeriodStart, upload.PeriodEnd)
	if err != nil {
		return nil, nil, reportdomain.ErrInvalidDates
	}

	resolved, err := s.mapping.Resolve(ctx, contractID, mappingdomain.ResolveRequest{
		LicenseeFormat: upload.LicenseeFormat,
		Headers:        upload.Headers,
		Samples:        upload.Samples,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := mappingservice.ValidateNetSales(resolved.Columns); err != nil {
		return nil, nil, err
	}

	result := &reportdomain.ProcessResult{Columns: resolved.Columns}

	opts := ingest.Options{
		Headers:            upload.Headers,
		Columns:            resolved.Columns,
		Mode:               contract.RateType,
		ContractCategories: contract.Categories(),
	}
	if contract.RateType == contractdomain.RateTypeCategory {
		aliases, categories, err := s.resolveUploadCategories(ctx, contract, upload.Rows, opts)
		if err != nil {
			return nil, nil, err
		}
		opts.CategoryAliases = aliases
		result.Categories = categories
	}

	agg, err := ingest.Aggregate(upload.Rows, opts)
	if err != nil {
		return nil, nil, err
	}
	result.NetSales = agg.NetSales
	result.Buckets = agg.Buckets
	result.Warnings = agg.Warnings

	structure, err := contract.RateStructure()
	if err != nil {
		return nil, nil, err
	}
	royalty, err := calc.Calculate(structure, calc.Input{NetSales: agg.NetSales, Categories: agg.Buckets})
	if err != nil {
		return nil, nil, err
	}
	applied := calc.ApplyMinimum(royalty, contract.MinimumGuarantee, contract.MinimumGuaranteeScope)
	result.Royalty = applied.Royalty
	result.FinalRoyalty = applied.FinalRoyalty
	result.MinimumApplied = applied.MinimumApplied

	reported, err := reportedRoyalty(upload.LicenseeReported, agg.ReportedRoyalty)
	if err != nil {
		return nil, nil, err
	}
	detected := discrepancy.Detect(applied.FinalRoyalty, reported)
	result.LicenseeReported = reported
	result.HasDiscrepancy = detected.HasDiscrepancy
	result.DiscrepancyAmount = detected.Amount

	result.Warnings = append(result.Warnings, advisoryWarnings(contract, start, end, agg.ReportPeriod)...)

	draft := &perioddomain.SalesPeriod{
		ContractID:        contract.ID,
		PeriodStart:       start,
		PeriodEnd:         end,
		CalculatedRoyalty: applied.FinalRoyalty,
		MinimumApplied:    applied.MinimumApplied,
		LicenseeReported:  reported,
		DiscrepancyAmount: detected.Amount,
		HasDiscrepancy:    detected.HasDiscrepancy,
	}
	if contract.RateType == contractdomain.RateTypeCategory {
		draft.SetCategoryBreakdown(agg.Buckets)
	} else {
		net := agg.NetSales
		draft.NetSales = &net
	}
	result.Draft = draft

	return contract, result, nil
}

// resolveUploadCategories runs alias resolution for every distinct raw label
// in the upload. Labels the cascade cannot place block the pipeline; the
// caller must save an alias or an explicit exclusion first.
func (s *Service) resolveUploadCategories(ctx context.Context, contract *contractdomain.Contract, rows []ingest.RawRow, opts ingest.Options) (map[string]string, []mappingdomain.CategoryResolution, error) {
	labels, err := ingest.CategoryLabels(rows, opts)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := s.mapping.ResolveCategories(ctx, contract.ID.String(), mappingdomain.ResolveCategoriesRequest{
		RawCategories:      labels,
		ContractCategories: contract.Categories(),
	})
	if err != nil {
		return nil, nil, err
	}

	aliases := make(map[string]string, len(resolved.Categories))
	var unresolved []string
	for _, res := range resolved.Categories {
		if res.Provenance == mappingdomain.ProvenanceNone {
			unresolved = append(unresolved, res.RawCategory)
			continue
		}
		aliases[res.RawCategory] = res.Category
	}
	if len(unresolved) > 0 {
		return nil, nil, &reportdomain.UnresolvedCategoriesError{Labels: unresolved}
	}
	return aliases, resolved.Categories, nil
}

// advisoryWarnings flags findings that merit review but never block a commit.
func advisoryWarnings(contract *contractdomain.Contract, start, end time.Time, reportPeriod string) []ingest.Warning {
	var warnings []ingest.Warning

	if start.Before(contract.StartDate) || end.After(contract.EndDate) {
		warnings = append(warnings, ingest.Warning{
			Code: "period_outside_contract",
			Message: fmt.Sprintf("period %s to %s falls outside the contract term %s to %s",
				start.Format(dateLayout), end.Format(dateLayout),
				contract.StartDate.Format(dateLayout), contract.EndDate.Format(dateLayout)),
		})
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if min, max, ok := frequencyDayRange(contract.ReportingFrequency); ok && (days < min || days > max) {
		warnings = append(warnings, ingest.Warning{
			Code: "frequency_mismatch",
			Message: fmt.Sprintf("period spans %d days but the contract reports %s",
				days, contract.ReportingFrequency),
		})
	}

	if reportPeriod != "" && !mentionsPeriod(reportPeriod, start) {
		warnings = append(warnings, ingest.Warning{
			Code: "report_period_mismatch",
			Message: fmt.Sprintf("report labels its period %q but the upload covers %s to %s",
				reportPeriod, start.Format(dateLayout), end.Format(dateLayout)),
		})
	}

	return warnings
}

func frequencyDayRange(freq contractdomain.Frequency) (int, int, bool) {
	switch freq {
	case contractdomain.FrequencyMonthly:
		return 28, 31, true
	case contractdomain.FrequencyQuarterly:
		return 89, 92, true
	case contractdomain.FrequencySemiannual:
		return 181, 184, true
	case contractdomain.FrequencyAnnual:
		return 365, 366, true
	default:
		return 0, 0, false
	}
}

// mentionsPeriod loosely checks whether a free-form period label refers to the
// committed window: the start year or the start month name appearing anywhere
// counts as agreement.
func mentionsPeriod(label string, start time.Time) bool {
	lower := strings.ToLower(label)
	if strings.Contains(lower, start.Format("2006")) {
		return true
	}
	return strings.Contains(lower, strings.ToLower(start.Format("January")))
}

func reportedRoyalty(override string, fromRows *decimal.Decimal) (*decimal.Decimal, error) {
	if value := strings.TrimSpace(override); value != "" {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, reportdomain.ErrInvalidReported
		}
		return &parsed, nil
	}
	return fromRows, nil
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, reportdomain.ErrInvalidDates
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, reportdomain.ErrInvalidDates
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, reportdomain.ErrInvalidDates
	}
	return start, end, nil
}

// errorCode maps pipeline errors to stable machine-readable codes for batch
// responses. Typed errors collapse to their sentinel.
func errorCode(err error) string {
	var unresolvedCats *reportdomain.UnresolvedCategoriesError
	if errors.As(err, &unresolvedCats) {
		return reportdomain.ErrUnresolvedCategories.Error()
	}
	var unresolvedCat *ingest.UnresolvedCategoryError
	if errors.As(err, &unresolvedCat) {
		return ingest.ErrUnresolvedCategory.Error()
	}
	var negative *ingest.NegativeNetSalesError
	if errors.As(err, &negative) {
		return ingest.ErrNegativeNetSales.Error()
	}
	return err.Error()
}
