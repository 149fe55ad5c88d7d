package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	contractrepo "github.com/licensedesk/royalty/internal/contract/repository"
	contractservice "github.com/licensedesk/royalty/internal/contract/service"
	"github.com/licensedesk/royalty/internal/inference/client"
	"github.com/licensedesk/royalty/internal/ingest"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	mappingrepo "github.com/licensedesk/royalty/internal/mapping/repository"
	mappingservice "github.com/licensedesk/royalty/internal/mapping/service"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	periodrepo "github.com/licensedesk/royalty/internal/period/repository"
	periodservice "github.com/licensedesk/royalty/internal/period/service"
	reportdomain "github.com/licensedesk/royalty/internal/report/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
)

type engine struct {
	contracts contractdomain.Service
	mappings  mappingdomain.Service
	periods   perioddomain.Service
	reports   reportdomain.Service
	node      *snowflake.Node
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&contractdomain.Contract{},
		&contractdomain.RateTier{},
		&contractdomain.CategoryRate{},
		&mappingdomain.FieldMapping{},
		&mappingdomain.CategoryAlias{},
		&perioddomain.SalesPeriod{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	contracts := contractservice.New(contractservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  contractrepo.Provide(),
	})
	mappings := mappingservice.New(mappingservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      mappingrepo.Provide(),
		Inference: client.NopClient{},
	})
	periods := periodservice.New(periodservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  periodrepo.Provide(),
	})
	reports := New(Params{
		Log:       log,
		GenID:     node,
		Contracts: contracts,
		Mapping:   mappings,
		Periods:   periods,
	})

	return &engine{
		contracts: contracts,
		mappings:  mappings,
		periods:   periods,
		reports:   reports,
		node:      node,
	}
}

func (e *engine) createFlatContract(t *testing.T, guarantee, scope string) *contractdomain.Contract {
	t.Helper()
	created, err := e.contracts.Create(context.Background(), contractdomain.CreateRequest{
		Name:                  "ACME Apparel License",
		LicenseeName:          "ACME Corp",
		RateType:              contractdomain.RateTypeFlat,
		FlatRate:              "8%",
		MinimumGuarantee:      guarantee,
		MinimumGuaranteeScope: scope,
		ReportingFrequency:    contractdomain.FrequencyQuarterly,
		StartDate:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:               time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return created
}

func row(cells ...string) ingest.RawRow {
	out := make(ingest.RawRow, 0, len(cells)/2)
	for i := 0; i < len(cells); i += 2 {
		out = append(out, ingest.Cell{Column: cells[i], Value: cells[i+1]})
	}
	return out
}

func scalarUpload(start, end string) reportdomain.Upload {
	return reportdomain.Upload{
		LicenseeFormat: "acme-v1",
		Headers:        []string{"Product", "Net Sales"},
		Rows: []ingest.RawRow{
			row("Product", "Product", "Net Sales", "Net Sales"),
			row("Product", "Widget A", "Net Sales", "100,000.00"),
			row("Product", "Widget B", "Net Sales", "50,000.00"),
			row("Product", "TOTAL", "Net Sales", "150,000.00"),
		},
		PeriodStart: start,
		PeriodEnd:   end,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPreview_FlatPipeline(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	result, err := e.reports.Preview(context.Background(), contract.ID.String(), scalarUpload("2025-01-01", "2025-03-31"))
	require.NoError(t, err)

	assert.True(t, result.NetSales.Equal(dec("150000.00")), "got %s", result.NetSales)
	assert.True(t, result.FinalRoyalty.Equal(dec("12000.0000")), "got %s", result.FinalRoyalty)
	assert.False(t, result.MinimumApplied)
	assert.False(t, result.HasDiscrepancy)
	assert.Empty(t, result.Warnings)
	require.NotNil(t, result.Draft)
	assert.Equal(t, contract.ID, result.Draft.ContractID)

	// Preview never persists.
	periods, err := e.periods.List(context.Background(), contract.ID.String())
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestSubmit_CommitsAndGuardsOverlap(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")
	ctx := context.Background()

	submitted, err := e.reports.Submit(ctx, contract.ID.String(), scalarUpload("2025-01-01", "2025-03-31"))
	require.NoError(t, err)
	require.NotNil(t, submitted.Period)
	assert.True(t, submitted.Period.CalculatedRoyalty.Equal(dec("12000.0000")))

	// Overlapping resubmission is rejected and reports the conflict.
	conflicted, err := e.reports.Submit(ctx, contract.ID.String(), scalarUpload("2025-02-01", "2025-04-30"))
	assert.ErrorIs(t, err, perioddomain.ErrOverlapConflict)
	require.NotNil(t, conflicted)
	require.Len(t, conflicted.Conflicts, 1)
	assert.Equal(t, submitted.Period.ID, conflicted.Conflicts[0].ID)

	// Override replaces the committed period.
	override := scalarUpload("2025-01-01", "2025-03-31")
	override.Override = true
	replaced, err := e.reports.Submit(ctx, contract.ID.String(), override)
	require.NoError(t, err)

	periods, err := e.periods.List(ctx, contract.ID.String())
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, replaced.Period.ID, periods[0].ID)
}

func TestSubmit_PeriodMinimumApplied(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "5000", "period")

	upload := scalarUpload("2025-01-01", "2025-03-31")
	upload.Rows = []ingest.RawRow{
		row("Product", "Widget A", "Net Sales", "40000"),
	}

	submitted, err := e.reports.Submit(context.Background(), contract.ID.String(), upload)
	require.NoError(t, err)

	assert.True(t, submitted.Result.Royalty.Equal(dec("3200.00")), "got %s", submitted.Result.Royalty)
	assert.True(t, submitted.Result.FinalRoyalty.Equal(dec("5000")), "got %s", submitted.Result.FinalRoyalty)
	assert.True(t, submitted.Result.MinimumApplied)
	assert.True(t, submitted.Period.MinimumApplied)
}

func TestSubmit_AnnualGuaranteeNotAppliedPerPeriod(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "50000", "annual")

	submitted, err := e.reports.Submit(context.Background(), contract.ID.String(), scalarUpload("2025-01-01", "2025-03-31"))
	require.NoError(t, err)

	assert.True(t, submitted.Result.FinalRoyalty.Equal(dec("12000.0000")))
	assert.False(t, submitted.Result.MinimumApplied)
}

func TestSubmit_DiscrepancyFromReportedOverride(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	upload := scalarUpload("2025-01-01", "2025-03-31")
	upload.LicenseeReported = "11500"

	submitted, err := e.reports.Submit(context.Background(), contract.ID.String(), upload)
	require.NoError(t, err)

	assert.True(t, submitted.Result.HasDiscrepancy)
	assert.True(t, submitted.Result.DiscrepancyAmount.Equal(dec("500.0000")), "got %s", submitted.Result.DiscrepancyAmount)
	assert.True(t, submitted.Period.HasDiscrepancy)
}

func TestSubmit_DiscrepancyFromReportedColumn(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	upload := reportdomain.Upload{
		LicenseeFormat: "acme-v1",
		Headers:        []string{"Product", "Net Sales", "Royalty Due"},
		Rows: []ingest.RawRow{
			row("Product", "Widget A", "Net Sales", "100000", "Royalty Due", "8000"),
			row("Product", "Widget B", "Net Sales", "50000", "Royalty Due", "4500"),
		},
		PeriodStart: "2025-01-01",
		PeriodEnd:   "2025-03-31",
	}

	submitted, err := e.reports.Submit(context.Background(), contract.ID.String(), upload)
	require.NoError(t, err)

	require.NotNil(t, submitted.Result.LicenseeReported)
	assert.True(t, submitted.Result.LicenseeReported.Equal(dec("12500")))
	assert.True(t, submitted.Result.DiscrepancyAmount.Equal(dec("-500")), "got %s", submitted.Result.DiscrepancyAmount)
}

func TestPreview_NetSalesUnresolvedBlocks(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	upload := scalarUpload("2025-01-01", "2025-03-31")
	upload.Headers = []string{"Product", "Figures"}
	upload.Rows = []ingest.RawRow{
		row("Product", "Widget A", "Figures", "100"),
	}

	_, err := e.reports.Preview(context.Background(), contract.ID.String(), upload)
	assert.ErrorIs(t, err, mappingdomain.ErrNetSalesUnresolved)
}

func TestPreview_CategoryContract(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	contract, err := e.contracts.Create(ctx, contractdomain.CreateRequest{
		Name:               "Category License",
		LicenseeName:       "ACME Corp",
		RateType:           contractdomain.RateTypeCategory,
		CategoryRates:      []contractdomain.CategoryRateRequest{{Category: "apparel", Rate: "6%"}, {Category: "accessories", Rate: "8%"}, {Category: "footwear", Rate: "9%"}},
		ReportingFrequency: contractdomain.FrequencyQuarterly,
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, e.mappings.SaveAliases(ctx, contract.ID.String(), mappingdomain.SaveAliasesRequest{
		Aliases: map[string]string{
			"Apparel - Men":   "apparel",
			"Apparel - Women": "apparel",
			"Samples":         "excluded",
		},
	}))

	upload := reportdomain.Upload{
		LicenseeFormat: "acme-v1",
		Headers:        []string{"Category", "Net Sales"},
		Rows: []ingest.RawRow{
			row("Category", "Apparel - Men", "Net Sales", "50000"),
			row("Category", "Apparel - Women", "Net Sales", "30000"),
			row("Category", "accessories", "Net Sales", "20000"),
			row("Category", "Samples", "Net Sales", "999"),
		},
		PeriodStart: "2025-01-01",
		PeriodEnd:   "2025-03-31",
	}

	result, err := e.reports.Preview(ctx, contract.ID.String(), upload)
	require.NoError(t, err)

	// 80000*6% + 20000*8% + 0*9%
	assert.True(t, result.FinalRoyalty.Equal(dec("6400.00")), "got %s", result.FinalRoyalty)
	assert.True(t, result.Buckets["footwear"].IsZero())
	require.NotNil(t, result.Draft)
	assert.Nil(t, result.Draft.NetSales)
	assert.NotEmpty(t, result.Draft.CategoryBreakdown)
}

func TestPreview_UnresolvedCategoriesBlock(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	contract, err := e.contracts.Create(ctx, contractdomain.CreateRequest{
		Name:               "Category License",
		LicenseeName:       "ACME Corp",
		RateType:           contractdomain.RateTypeCategory,
		CategoryRates:      []contractdomain.CategoryRateRequest{{Category: "apparel", Rate: "6%"}},
		ReportingFrequency: contractdomain.FrequencyQuarterly,
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	upload := reportdomain.Upload{
		LicenseeFormat: "acme-v1",
		Headers:        []string{"Category", "Net Sales"},
		Rows: []ingest.RawRow{
			row("Category", "apparel", "Net Sales", "1000"),
			row("Category", "Mystery Goods", "Net Sales", "100"),
		},
		PeriodStart: "2025-01-01",
		PeriodEnd:   "2025-03-31",
	}

	_, err = e.reports.Preview(ctx, contract.ID.String(), upload)
	assert.ErrorIs(t, err, reportdomain.ErrUnresolvedCategories)

	var unresolved *reportdomain.UnresolvedCategoriesError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []string{"Mystery Goods"}, unresolved.Labels)
}

func TestPreview_AdvisoryWarnings(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	// One month window on a quarterly contract, outside the contract term.
	upload := scalarUpload("2024-01-01", "2024-01-31")

	result, err := e.reports.Preview(context.Background(), contract.ID.String(), upload)
	require.NoError(t, err)

	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "period_outside_contract")
	assert.Contains(t, codes, "frequency_mismatch")
}

func TestSubmitBatch_PerItemIsolation(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	results := e.reports.SubmitBatch(context.Background(), contract.ID.String(), []reportdomain.Upload{
		scalarUpload("2025-01-01", "2025-03-31"),
		scalarUpload("2025-03-01", "2025-05-31"), // overlaps the first item
		scalarUpload("2025-07-01", "2025-09-30"),
	})
	require.Len(t, results, 3)

	assert.NotNil(t, results[0].Period)
	assert.Empty(t, results[0].ErrorCode)

	assert.Nil(t, results[1].Period)
	assert.Equal(t, "overlap_conflict", results[1].ErrorCode)
	assert.Len(t, results[1].Conflicts, 1)

	assert.NotNil(t, results[2].Period)

	periods, err := e.periods.List(context.Background(), contract.ID.String())
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestPreview_InvalidDates(t *testing.T) {
	e := newEngine(t)
	contract := e.createFlatContract(t, "", "")

	upload := scalarUpload("2025-03-31", "2025-01-01")
	_, err := e.reports.Preview(context.Background(), contract.ID.String(), upload)
	assert.ErrorIs(t, err, reportdomain.ErrInvalidDates)
}
