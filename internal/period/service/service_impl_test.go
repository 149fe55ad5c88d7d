package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/licensedesk/royalty/internal/period/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (perioddomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&perioddomain.SalesPeriod{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func date(s string) time.Time {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func scalarPeriod(contractID snowflake.ID, start, end string) *perioddomain.SalesPeriod {
	net := decimal.RequireFromString("1000")
	return &perioddomain.SalesPeriod{
		ContractID:        contractID,
		PeriodStart:       date(start),
		PeriodEnd:         date(end),
		NetSales:          &net,
		CalculatedRoyalty: decimal.RequireFromString("80"),
	}
}

func TestCommit_OverlapGuard(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	// Jan 1 - Mar 31 committed first.
	first := scalarPeriod(contractID, "2025-01-01", "2025-03-31")
	conflicts, err := svc.Commit(ctx, first, false)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Feb 1 - Apr 30 overlaps and is rejected.
	overlapping := scalarPeriod(contractID, "2025-02-01", "2025-04-30")
	conflicts, err = svc.Commit(ctx, overlapping, false)
	assert.ErrorIs(t, err, perioddomain.ErrOverlapConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, first.ID, conflicts[0].ID)

	// The rejected period was not persisted.
	periods, err := svc.List(ctx, contractID.String())
	require.NoError(t, err)
	assert.Len(t, periods, 1)

	// Apr 1 - Jun 30 is adjacent, not overlapping.
	adjacent := scalarPeriod(contractID, "2025-04-01", "2025-06-30")
	conflicts, err = svc.Commit(ctx, adjacent, false)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCommit_SingleDayBoundaryConflicts(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	_, err := svc.Commit(ctx, scalarPeriod(contractID, "2025-01-01", "2025-03-31"), false)
	require.NoError(t, err)

	// Inclusive bounds: sharing one day is a conflict.
	_, err = svc.Commit(ctx, scalarPeriod(contractID, "2025-03-31", "2025-06-30"), false)
	assert.ErrorIs(t, err, perioddomain.ErrOverlapConflict)
}

func TestCommit_OverrideReplacesConflicts(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	first := scalarPeriod(contractID, "2025-01-01", "2025-03-31")
	_, err := svc.Commit(ctx, first, false)
	require.NoError(t, err)
	second := scalarPeriod(contractID, "2025-04-01", "2025-06-30")
	_, err = svc.Commit(ctx, second, false)
	require.NoError(t, err)

	// Override spans both; both are deleted and replaced atomically.
	replacement := scalarPeriod(contractID, "2025-01-01", "2025-06-30")
	conflicts, err := svc.Commit(ctx, replacement, true)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	periods, err := svc.List(ctx, contractID.String())
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, replacement.ID, periods[0].ID)
}

func TestCommit_OverrideLeavesOtherContractsAlone(t *testing.T) {
	svc, node := newTestService(t)
	contractA := node.Generate()
	contractB := node.Generate()
	ctx := context.Background()

	_, err := svc.Commit(ctx, scalarPeriod(contractA, "2025-01-01", "2025-03-31"), false)
	require.NoError(t, err)
	_, err = svc.Commit(ctx, scalarPeriod(contractB, "2025-01-01", "2025-03-31"), false)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, scalarPeriod(contractA, "2025-01-01", "2025-03-31"), true)
	require.NoError(t, err)

	other, err := svc.List(ctx, contractB.String())
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestCommit_ValidatesPayload(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	// End before start.
	inverted := scalarPeriod(contractID, "2025-03-01", "2025-01-01")
	_, err := svc.Commit(ctx, inverted, false)
	assert.ErrorIs(t, err, perioddomain.ErrInvalidDates)

	// Neither scalar nor breakdown.
	empty := &perioddomain.SalesPeriod{
		ContractID:  contractID,
		PeriodStart: date("2025-01-01"),
		PeriodEnd:   date("2025-03-31"),
	}
	_, err = svc.Commit(ctx, empty, false)
	assert.ErrorIs(t, err, perioddomain.ErrInvalidPeriod)

	// Both at once.
	both := scalarPeriod(contractID, "2025-01-01", "2025-03-31")
	both.SetCategoryBreakdown(map[string]decimal.Decimal{"apparel": decimal.RequireFromString("10")})
	_, err = svc.Commit(ctx, both, false)
	assert.ErrorIs(t, err, perioddomain.ErrInvalidPeriod)
}

func TestCommitBatch_PerItemIsolation(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	_, err := svc.Commit(ctx, scalarPeriod(contractID, "2025-01-01", "2025-01-31"), false)
	require.NoError(t, err)

	batch := []*perioddomain.SalesPeriod{
		scalarPeriod(contractID, "2025-02-01", "2025-02-28"),
		scalarPeriod(contractID, "2025-01-15", "2025-02-14"), // conflicts with January and the item above
		scalarPeriod(contractID, "2025-03-01", "2025-03-31"),
	}
	results := svc.CommitBatch(ctx, batch, false)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, perioddomain.ErrOverlapConflict)
	assert.Equal(t, "overlap_conflict", results[1].ErrorCode)
	assert.NoError(t, results[2].Err)

	periods, err := svc.List(ctx, contractID.String())
	require.NoError(t, err)
	assert.Len(t, periods, 3)
}

func TestCommit_RacingCommitsSerialize(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&perioddomain.SalesPeriod{}))

	// One pooled connection so both goroutines share the in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		contractID := node.Generate()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j := range errs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = svc.Commit(ctx, scalarPeriod(contractID, "2025-01-01", "2025-03-31"), false)
			}(j)
		}
		wg.Wait()

		// Exactly one commit wins; the loser sees the winner's period.
		committed := 0
		for _, err := range errs {
			if err == nil {
				committed++
			} else {
				assert.ErrorIs(t, err, perioddomain.ErrOverlapConflict)
			}
		}
		assert.Equal(t, 1, committed)

		periods, err := svc.List(ctx, contractID.String())
		require.NoError(t, err)
		assert.Len(t, periods, 1)
	}
}

func TestCheckOverlap(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	_, err := svc.Commit(ctx, scalarPeriod(contractID, "2025-01-01", "2025-03-31"), false)
	require.NoError(t, err)

	conflicts, err := svc.CheckOverlap(ctx, contractID.String(), perioddomain.OverlapRequest{
		PeriodStart: "2025-03-01",
		PeriodEnd:   "2025-05-31",
	})
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	conflicts, err = svc.CheckOverlap(ctx, contractID.String(), perioddomain.OverlapRequest{
		PeriodStart: "2025-04-01",
		PeriodEnd:   "2025-06-30",
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	_, err = svc.CheckOverlap(ctx, contractID.String(), perioddomain.OverlapRequest{
		PeriodStart: "2025-06-30",
		PeriodEnd:   "2025-04-01",
	})
	assert.ErrorIs(t, err, perioddomain.ErrInvalidDates)
}

func TestGetAndDelete(t *testing.T) {
	svc, node := newTestService(t)
	contractID := node.Generate()
	ctx := context.Background()

	period := scalarPeriod(contractID, "2025-01-01", "2025-03-31")
	_, err := svc.Commit(ctx, period, false)
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, period.ID.String())
	require.NoError(t, err)
	assert.Equal(t, period.ID, fetched.ID)

	require.NoError(t, svc.Delete(ctx, period.ID.String()))

	_, err = svc.Get(ctx, period.ID.String())
	assert.ErrorIs(t, err, perioddomain.ErrNotFound)
}
