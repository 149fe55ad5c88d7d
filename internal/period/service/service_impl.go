package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/licensedesk/royalty/internal/observability/metrics"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    perioddomain.Repository
	Metrics *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    perioddomain.Repository
	metrics *metrics.EngineMetrics
}

func New(p Params) perioddomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("period.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) CheckOverlap(ctx context.Context, contractID string, req perioddomain.OverlapRequest) ([]perioddomain.SalesPeriod, error) {
	id, err := parseID(contractID)
	if err != nil {
		return nil, perioddomain.ErrInvalidContract
	}

	start, end, err := parseDateRange(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	return s.repo.FindOverlapping(ctx, s.db, id, start, end)
}

func (s *Service) Commit(ctx context.Context, period *perioddomain.SalesPeriod, override bool) ([]perioddomain.SalesPeriod, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	if period.ID == 0 {
		period.ID = s.genID.Generate()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	var conflicts []perioddomain.SalesPeriod
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.LockContract(ctx, tx, period.ContractID); err != nil {
			return err
		}

		existing, err := s.repo.FindOverlapping(ctx, tx, period.ContractID, period.PeriodStart, period.PeriodEnd)
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			if !override {
				conflicts = existing
				return perioddomain.ErrOverlapConflict
			}
			ids := make([]snowflake.ID, 0, len(existing))
			for _, p := range existing {
				ids = append(ids, p.ID)
			}
			if err := s.repo.DeleteByIDs(ctx, tx, ids); err != nil {
				return err
			}
		}

		return s.repo.Insert(ctx, tx, period)
	})
	if err != nil {
		if errors.Is(err, perioddomain.ErrOverlapConflict) {
			s.metrics.RecordOverlapConflict()
			return conflicts, err
		}
		return nil, err
	}

	s.log.Info("period committed",
		zap.String("period_id", period.ID.String()),
		zap.String("contract_id", period.ContractID.String()),
		zap.Time("period_start", period.PeriodStart),
		zap.Time("period_end", period.PeriodEnd),
		zap.Bool("override", override),
	)
	return nil, nil
}

func (s *Service) CommitBatch(ctx context.Context, periods []*perioddomain.SalesPeriod, override bool) []perioddomain.BatchResult {
	results := make([]perioddomain.BatchResult, 0, len(periods))
	for _, period := range periods {
		conflicts, err := s.Commit(ctx, period, override)
		result := perioddomain.BatchResult{Period: period, Conflicts: conflicts, Err: err}
		if err != nil {
			result.Period = nil
			result.ErrorCode = err.Error()
		}
		results = append(results, result)
	}
	return results
}

func (s *Service) List(ctx context.Context, contractID string) ([]perioddomain.SalesPeriod, error) {
	id, err := parseID(contractID)
	if err != nil {
		return nil, perioddomain.ErrInvalidContract
	}
	return s.repo.ListByContract(ctx, s.db, id)
}

func (s *Service) Get(ctx context.Context, id string) (*perioddomain.SalesPeriod, error) {
	periodID, err := parseID(id)
	if err != nil {
		return nil, perioddomain.ErrInvalidID
	}
	period, err := s.repo.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, perioddomain.ErrNotFound
	}
	return period, nil
}

// Delete removes a period. External audit references are nulled by the
// schema, never cascaded.
func (s *Service) Delete(ctx context.Context, id string) error {
	periodID, err := parseID(id)
	if err != nil {
		return perioddomain.ErrInvalidID
	}
	return s.repo.Delete(ctx, s.db, periodID)
}

func validatePeriod(period *perioddomain.SalesPeriod) error {
	if period == nil || period.ContractID == 0 {
		return perioddomain.ErrInvalidContract
	}
	if period.PeriodEnd.Before(period.PeriodStart) {
		return perioddomain.ErrInvalidDates
	}
	hasScalar := period.NetSales != nil
	hasBreakdown := len(period.CategoryBreakdown) > 0
	if hasScalar == hasBreakdown {
		return perioddomain.ErrInvalidPeriod
	}
	return nil
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, perioddomain.ErrInvalidDates
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, perioddomain.ErrInvalidDates
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, perioddomain.ErrInvalidDates
	}
	return start, end, nil
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
