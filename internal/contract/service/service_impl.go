package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  contractdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  contractdomain.Repository
}

func New(p Params) contractdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("contract.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateRequest) (*contractdomain.Contract, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, contractdomain.ErrInvalidName
	}
	licensee := strings.TrimSpace(req.LicenseeName)
	if licensee == "" {
		return nil, contractdomain.ErrInvalidName
	}
	if !validFrequency(req.ReportingFrequency) {
		return nil, contractdomain.ErrInvalidFrequency
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, contractdomain.ErrInvalidDateRange
	}

	now := time.Now().UTC()
	entity := &contractdomain.Contract{
		ID:                 s.genID.Generate(),
		Name:               name,
		LicenseeName:       licensee,
		RateType:           req.RateType,
		RoyaltyBase:        royaltyBaseOrDefault(req.RoyaltyBase),
		ReportingFrequency: req.ReportingFrequency,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.applyRateStructure(entity, req.RateType, req.FlatRate, req.Tiers, req.CategoryRates); err != nil {
		return nil, err
	}
	if err := applyGuarantee(entity, req.MinimumGuarantee, req.MinimumGuaranteeScope, req.AdvancePayment); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contract created",
		zap.String("contract_id", entity.ID.String()),
		zap.String("rate_type", string(entity.RateType)),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*contractdomain.Contract, error) {
	contractID, err := parseID(id)
	if err != nil {
		return nil, contractdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, contractID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, contractdomain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) List(ctx context.Context) ([]contractdomain.Contract, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, id string, req contractdomain.UpdateRequest) (*contractdomain.Contract, error) {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	touchesRates := req.RateType != nil || req.FlatRate != nil || len(req.Tiers) > 0 || len(req.CategoryRates) > 0
	if touchesRates {
		locked, err := s.hasPeriods(ctx, entity.ID)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, contractdomain.ErrRateStructureFixed
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, contractdomain.ErrInvalidName
		}
		entity.Name = name
	}
	if req.LicenseeName != nil {
		licensee := strings.TrimSpace(*req.LicenseeName)
		if licensee == "" {
			return nil, contractdomain.ErrInvalidName
		}
		entity.LicenseeName = licensee
	}
	if req.ReportingFrequency != nil {
		if !validFrequency(*req.ReportingFrequency) {
			return nil, contractdomain.ErrInvalidFrequency
		}
		entity.ReportingFrequency = *req.ReportingFrequency
	}
	if req.StartDate != nil {
		entity.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		entity.EndDate = *req.EndDate
	}
	if entity.EndDate.Before(entity.StartDate) {
		return nil, contractdomain.ErrInvalidDateRange
	}

	if touchesRates {
		rateType := entity.RateType
		if req.RateType != nil {
			rateType = *req.RateType
		}
		flatRate := ""
		if req.FlatRate != nil {
			flatRate = *req.FlatRate
		}
		entity.RateType = rateType
		entity.FlatRate = nil
		entity.Tiers = nil
		entity.CategoryRates = nil
		if err := s.applyRateStructure(entity, rateType, flatRate, req.Tiers, req.CategoryRates); err != nil {
			return nil, err
		}
	}

	guarantee := ""
	if req.MinimumGuarantee != nil {
		guarantee = *req.MinimumGuarantee
	}
	scope := string(entity.MinimumGuaranteeScope)
	if req.MinimumGuaranteeScope != nil {
		scope = *req.MinimumGuaranteeScope
	}
	advance := ""
	if req.AdvancePayment != nil {
		advance = *req.AdvancePayment
	}
	if req.MinimumGuarantee != nil || req.MinimumGuaranteeScope != nil || req.AdvancePayment != nil {
		entity.MinimumGuarantee = nil
		entity.MinimumGuaranteeScope = ""
		entity.AdvancePayment = nil
		if err := applyGuarantee(entity, guarantee, scope, advance); err != nil {
			return nil, err
		}
	}

	entity.UpdatedAt = time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Save(ctx, tx, entity); err != nil {
			return err
		}
		if touchesRates {
			if err := s.repo.ReplaceTiers(ctx, tx, entity.ID, entity.Tiers); err != nil {
				return err
			}
			if err := s.repo.ReplaceCategoryRates(ctx, tx, entity.ID, entity.CategoryRates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, s.db, entity.ID)
}

func (s *Service) hasPeriods(ctx context.Context, contractID snowflake.ID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&perioddomain.SalesPeriod{}).
		Where("contract_id = ?", contractID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) applyRateStructure(
	entity *contractdomain.Contract,
	rateType contractdomain.RateType,
	flatRate string,
	tiers []contractdomain.TierRequest,
	categories []contractdomain.CategoryRateRequest,
) error {
	switch rateType {
	case contractdomain.RateTypeFlat:
		rate, err := contractdomain.ParseRate(flatRate)
		if err != nil {
			return err
		}
		entity.FlatRate = &rate
	case contractdomain.RateTypeTiered:
		if len(tiers) == 0 {
			return contractdomain.ErrInvalidTiers
		}
		bands := make([]contractdomain.TierBand, 0, len(tiers))
		rows := make([]contractdomain.RateTier, 0, len(tiers))
		for i, t := range tiers {
			lower, err := decimal.NewFromString(strings.TrimSpace(t.LowerBound))
			if err != nil {
				return contractdomain.ErrInvalidTiers
			}
			var upper *decimal.Decimal
			if t.UpperBound != nil {
				parsed, err := decimal.NewFromString(strings.TrimSpace(*t.UpperBound))
				if err != nil {
					return contractdomain.ErrInvalidTiers
				}
				upper = &parsed
			}
			rate, err := contractdomain.ParseRate(t.Rate)
			if err != nil {
				return err
			}
			bands = append(bands, contractdomain.TierBand{Lower: lower, Upper: upper, Rate: rate})
			rows = append(rows, contractdomain.RateTier{
				ID:         s.genID.Generate(),
				ContractID: entity.ID,
				Position:   i,
				LowerBound: lower,
				UpperBound: upper,
				Rate:       rate,
			})
		}
		if err := contractdomain.ValidateTiers(bands); err != nil {
			return err
		}
		entity.Tiers = rows
	case contractdomain.RateTypeCategory:
		if len(categories) == 0 {
			return contractdomain.ErrMissingCategories
		}
		seen := make(map[string]bool, len(categories))
		rows := make([]contractdomain.CategoryRate, 0, len(categories))
		for _, cr := range categories {
			category := strings.TrimSpace(cr.Category)
			if category == "" || seen[category] {
				return contractdomain.ErrMissingCategories
			}
			seen[category] = true
			rate, err := contractdomain.ParseRate(cr.Rate)
			if err != nil {
				return err
			}
			rows = append(rows, contractdomain.CategoryRate{
				ID:         s.genID.Generate(),
				ContractID: entity.ID,
				Category:   category,
				Rate:       rate,
			})
		}
		entity.CategoryRates = rows
	default:
		return contractdomain.ErrInvalidRateType
	}
	return nil
}

func applyGuarantee(entity *contractdomain.Contract, guarantee, scope, advance string) error {
	guarantee = strings.TrimSpace(guarantee)
	if guarantee != "" {
		amount, err := decimal.NewFromString(guarantee)
		if err != nil || amount.IsNegative() {
			return contractdomain.ErrInvalidGuarantee
		}
		guaranteeScope := contractdomain.GuaranteeScope(strings.TrimSpace(scope))
		if guaranteeScope != contractdomain.GuaranteeScopePeriod && guaranteeScope != contractdomain.GuaranteeScopeAnnual {
			return contractdomain.ErrInvalidGuarantee
		}
		entity.MinimumGuarantee = &amount
		entity.MinimumGuaranteeScope = guaranteeScope
	}

	advance = strings.TrimSpace(advance)
	if advance != "" {
		amount, err := decimal.NewFromString(advance)
		if err != nil || amount.IsNegative() {
			return contractdomain.ErrInvalidAdvance
		}
		entity.AdvancePayment = &amount
	}
	return nil
}

func royaltyBaseOrDefault(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "net_sales"
	}
	return base
}

func validFrequency(f contractdomain.Frequency) bool {
	switch f {
	case contractdomain.FrequencyMonthly, contractdomain.FrequencyQuarterly,
		contractdomain.FrequencySemiannual, contractdomain.FrequencyAnnual:
		return true
	default:
		return false
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
