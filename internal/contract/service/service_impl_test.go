package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"github.com/licensedesk/royalty/internal/contract/repository"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (contractdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&contractdomain.Contract{},
		&contractdomain.RateTier{},
		&contractdomain.CategoryRate{},
		&perioddomain.SalesPeriod{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func strPtr(s string) *string { return &s }

func flatRequest() contractdomain.CreateRequest {
	return contractdomain.CreateRequest{
		Name:               "ACME Apparel License",
		LicenseeName:       "ACME Corp",
		RateType:           contractdomain.RateTypeFlat,
		FlatRate:           "8%",
		ReportingFrequency: contractdomain.FrequencyQuarterly,
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreate_Flat(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), flatRequest())
	require.NoError(t, err)

	require.NotNil(t, created.FlatRate)
	assert.True(t, created.FlatRate.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, "net_sales", created.RoyaltyBase)

	fetched, err := svc.Get(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCreate_TieredOrdered(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := flatRequest()
	req.RateType = contractdomain.RateTypeTiered
	req.FlatRate = ""
	req.Tiers = []contractdomain.TierRequest{
		{LowerBound: "0", UpperBound: strPtr("100000"), Rate: "5%"},
		{LowerBound: "100000", UpperBound: strPtr("500000"), Rate: "7.5%"},
		{LowerBound: "500000", Rate: "10%"},
	}

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), created.ID.String())
	require.NoError(t, err)
	require.Len(t, fetched.Tiers, 3)
	assert.Equal(t, 0, fetched.Tiers[0].Position)
	assert.Nil(t, fetched.Tiers[2].UpperBound)

	structure, err := fetched.RateStructure()
	require.NoError(t, err)
	assert.Equal(t, contractdomain.RateTypeTiered, structure.Type())
}

func TestCreate_TieredRejectsOverlap(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := flatRequest()
	req.RateType = contractdomain.RateTypeTiered
	req.FlatRate = ""
	req.Tiers = []contractdomain.TierRequest{
		{LowerBound: "0", UpperBound: strPtr("100000"), Rate: "5%"},
		{LowerBound: "90000", Rate: "7.5%"},
	}

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidTiers)
}

func TestCreate_CategoryRates(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := flatRequest()
	req.RateType = contractdomain.RateTypeCategory
	req.FlatRate = ""
	req.CategoryRates = []contractdomain.CategoryRateRequest{
		{Category: "apparel", Rate: "6%"},
		{Category: "accessories", Rate: "8%"},
	}

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"apparel", "accessories"}, fetched.Categories())
}

func TestCreate_GuaranteeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := flatRequest()
	req.MinimumGuarantee = "5000"
	req.MinimumGuaranteeScope = "period"
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, contractdomain.GuaranteeScopePeriod, created.MinimumGuaranteeScope)

	req = flatRequest()
	req.MinimumGuarantee = "5000"
	req.MinimumGuaranteeScope = "weekly"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidGuarantee)

	req = flatRequest()
	req.AdvancePayment = "-100"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidAdvance)
}

func TestUpdate_RateStructureLockedOncePeriodsExist(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, flatRequest())
	require.NoError(t, err)

	// Name edits stay allowed at any time.
	updated, err := svc.Update(ctx, created.ID.String(), contractdomain.UpdateRequest{
		Name: strPtr("Renamed License"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed License", updated.Name)

	// Rate edits work while no periods exist.
	updated, err = svc.Update(ctx, created.ID.String(), contractdomain.UpdateRequest{
		FlatRate: strPtr("9%"),
	})
	require.NoError(t, err)
	assert.True(t, updated.FlatRate.Equal(decimal.RequireFromString("0.09")))

	// Commit a period directly, then the rate structure is frozen.
	net := decimal.RequireFromString("1000")
	require.NoError(t, db.Create(&perioddomain.SalesPeriod{
		ID:                node.Generate(),
		ContractID:        created.ID,
		PeriodStart:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		NetSales:          &net,
		CalculatedRoyalty: decimal.RequireFromString("90"),
	}).Error)

	_, err = svc.Update(ctx, created.ID.String(), contractdomain.UpdateRequest{
		FlatRate: strPtr("10%"),
	})
	assert.ErrorIs(t, err, contractdomain.ErrRateStructureFixed)

	// Non-rate fields remain editable.
	_, err = svc.Update(ctx, created.ID.String(), contractdomain.UpdateRequest{
		MinimumGuarantee:      strPtr("2500"),
		MinimumGuaranteeScope: strPtr("period"),
	})
	assert.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := flatRequest()
	req.Name = "  "
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidName)

	req = flatRequest()
	req.ReportingFrequency = "weekly"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidFrequency)

	req = flatRequest()
	req.EndDate = req.StartDate.AddDate(-1, 0, 0)
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidDateRange)

	req = flatRequest()
	req.FlatRate = "not-a-rate"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, contractdomain.ErrInvalidRate)
}
