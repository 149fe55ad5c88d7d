package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	inferencedomain "github.com/licensedesk/royalty/internal/inference/domain"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	"github.com/licensedesk/royalty/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      mappingdomain.Repository
	Inference inferencedomain.Client
	Metrics   *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      mappingdomain.Repository
	inference inferencedomain.Client
	metrics   *metrics.EngineMetrics
}

func New(p Params) mappingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("mapping.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		inference: p.Inference,
		metrics:   p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, contractID string, req mappingdomain.ResolveRequest) (*mappingdomain.ResolveResponse, error) {
	if _, err := parseID(contractID); err != nil {
		return nil, mappingdomain.ErrInvalidContract
	}
	if len(req.Headers) == 0 {
		return nil, mappingdomain.ErrNoHeaders
	}

	saved, err := s.SavedMapping(ctx, contractID, req.LicenseeFormat)
	if err != nil {
		return nil, err
	}

	columns := make([]mappingdomain.ColumnResolution, 0, len(req.Headers))
	for _, header := range req.Headers {
		samples := req.Samples[header]
		field, provenance := resolveWithCascade(ctx, header, []stage{
			{
				provenance: mappingdomain.ProvenanceSaved,
				lookup: func(_ context.Context, key string) (string, bool) {
					field, ok := saved[key]
					return field, ok
				},
			},
			{
				provenance: mappingdomain.ProvenanceKeyword,
				lookup: func(_ context.Context, key string) (string, bool) {
					return keywordField(key)
				},
			},
			{
				provenance: mappingdomain.ProvenanceAI,
				lookup: func(ctx context.Context, key string) (string, bool) {
					return s.inferField(ctx, key, samples)
				},
			},
		})

		col := mappingdomain.ColumnResolution{Header: header, Field: field, Provenance: provenance}
		if provenance == mappingdomain.ProvenanceNone {
			col.Field = mappingdomain.FieldIgnore
			col.NeedsAttention = true
		}
		columns = append(columns, col)
	}

	columns = dedupeUnique(columns)
	return &mappingdomain.ResolveResponse{Columns: columns}, nil
}

func (s *Service) ResolveCategories(ctx context.Context, contractID string, req mappingdomain.ResolveCategoriesRequest) (*mappingdomain.ResolveCategoriesResponse, error) {
	if _, err := parseID(contractID); err != nil {
		return nil, mappingdomain.ErrInvalidContract
	}

	saved, err := s.SavedAliases(ctx, contractID)
	if err != nil {
		return nil, err
	}

	byNormalized := make(map[string]string, len(req.ContractCategories))
	for _, category := range req.ContractCategories {
		byNormalized[normalizeKey(category)] = category
	}

	resolutions := make([]mappingdomain.CategoryResolution, 0, len(req.RawCategories))
	for _, raw := range req.RawCategories {
		category, provenance := resolveWithCascade(ctx, raw, []stage{
			{
				provenance: mappingdomain.ProvenanceSaved,
				lookup: func(_ context.Context, key string) (string, bool) {
					category, ok := saved[key]
					return category, ok
				},
			},
			{
				provenance: mappingdomain.ProvenanceKeyword,
				lookup: func(_ context.Context, key string) (string, bool) {
					category, ok := byNormalized[normalizeKey(key)]
					return category, ok
				},
			},
			{
				provenance: mappingdomain.ProvenanceAI,
				lookup: func(ctx context.Context, key string) (string, bool) {
					return s.inferCategory(ctx, key, req.ContractCategories)
				},
			},
		})

		resolution := mappingdomain.CategoryResolution{RawCategory: raw, Category: category, Provenance: provenance}
		if provenance == mappingdomain.ProvenanceNone {
			resolution.NeedsAttention = true
		}
		resolutions = append(resolutions, resolution)
	}

	return &mappingdomain.ResolveCategoriesResponse{Categories: resolutions}, nil
}

func (s *Service) SaveMapping(ctx context.Context, contractID string, req mappingdomain.SaveMappingRequest) error {
	id, err := parseID(contractID)
	if err != nil {
		return mappingdomain.ErrInvalidContract
	}

	now := time.Now().UTC()
	mappings := make([]mappingdomain.FieldMapping, 0, len(req.Assignments))
	for header, field := range req.Assignments {
		if !mappingdomain.KnownField(field) {
			return mappingdomain.ErrInvalidField
		}
		mappings = append(mappings, mappingdomain.FieldMapping{
			ID:             s.genID.Generate(),
			ContractID:     id,
			LicenseeFormat: strings.TrimSpace(req.LicenseeFormat),
			Header:         header,
			Field:          field,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	return s.repo.UpsertMappings(ctx, s.db, mappings)
}

func (s *Service) SaveAliases(ctx context.Context, contractID string, req mappingdomain.SaveAliasesRequest) error {
	id, err := parseID(contractID)
	if err != nil {
		return mappingdomain.ErrInvalidContract
	}

	now := time.Now().UTC()
	aliases := make([]mappingdomain.CategoryAlias, 0, len(req.Aliases))
	for raw, category := range req.Aliases {
		aliases = append(aliases, mappingdomain.CategoryAlias{
			ID:          s.genID.Generate(),
			ContractID:  id,
			RawCategory: raw,
			Category:    strings.TrimSpace(category),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return s.repo.UpsertAliases(ctx, s.db, aliases)
}

func (s *Service) SavedMapping(ctx context.Context, contractID, licenseeFormat string) (map[string]string, error) {
	id, err := parseID(contractID)
	if err != nil {
		return nil, mappingdomain.ErrInvalidContract
	}

	items, err := s.repo.FindMappings(ctx, s.db, id, strings.TrimSpace(licenseeFormat))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, m := range items {
		out[m.Header] = m.Field
	}
	return out, nil
}

func (s *Service) SavedAliases(ctx context.Context, contractID string) (map[string]string, error) {
	id, err := parseID(contractID)
	if err != nil {
		return nil, mappingdomain.ErrInvalidContract
	}

	items, err := s.repo.FindAliases(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, a := range items {
		out[a.RawCategory] = a.Category
	}
	return out, nil
}

// inferField asks the external capability for a field guess. Timeouts and
// failures degrade to "no answer"; the caller records provenance none.
func (s *Service) inferField(ctx context.Context, header string, samples []string) (string, bool) {
	field, err := s.inference.InferField(ctx, header, samples)
	if err != nil {
		if err != inferencedomain.ErrUnavailable {
			s.metrics.RecordInferenceCall("error")
			s.log.Debug("field inference failed", zap.String("header", header), zap.Error(err))
		}
		return "", false
	}
	if !mappingdomain.KnownField(field) {
		s.metrics.RecordInferenceCall("unusable")
		return "", false
	}
	s.metrics.RecordInferenceCall("ok")
	return field, true
}

func (s *Service) inferCategory(ctx context.Context, raw string, categories []string) (string, bool) {
	category, err := s.inference.InferCategory(ctx, raw, categories)
	if err != nil {
		if err != inferencedomain.ErrUnavailable {
			s.metrics.RecordInferenceCall("error")
			s.log.Debug("category inference failed", zap.String("raw", raw), zap.Error(err))
		}
		return "", false
	}
	if category == mappingdomain.CategoryExcluded {
		s.metrics.RecordInferenceCall("ok")
		return category, true
	}
	for _, known := range categories {
		if category == known {
			s.metrics.RecordInferenceCall("ok")
			return category, true
		}
	}
	s.metrics.RecordInferenceCall("unusable")
	return "", false
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
