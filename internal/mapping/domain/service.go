package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Resolve maps raw headers to semantic fields via the saved -> keyword ->
	// ai -> none cascade, then deduplicates unique fields.
	Resolve(ctx context.Context, contractID string, req ResolveRequest) (*ResolveResponse, error)

	// ResolveCategories runs the identical cascade for raw category labels,
	// scoped to the given contract categories.
	ResolveCategories(ctx context.Context, contractID string, req ResolveCategoriesRequest) (*ResolveCategoriesResponse, error)

	// SaveMapping upserts header assignments for a (contract, format) pair.
	SaveMapping(ctx context.Context, contractID string, req SaveMappingRequest) error

	// SaveAliases upserts raw-category aliases for a contract.
	SaveAliases(ctx context.Context, contractID string, req SaveAliasesRequest) error

	SavedMapping(ctx context.Context, contractID, licenseeFormat string) (map[string]string, error)
	SavedAliases(ctx context.Context, contractID string) (map[string]string, error)
}

type ResolveRequest struct {
	LicenseeFormat string              `json:"licensee_format"`
	Headers        []string            `json:"headers"`
	Samples        map[string][]string `json:"samples,omitempty"`
}

// ColumnResolution is the per-header outcome shown to the review UI.
type ColumnResolution struct {
	Header         string     `json:"header"`
	Field          string     `json:"field"`
	Provenance     Provenance `json:"provenance"`
	NeedsAttention bool       `json:"needs_attention"`
}

type ResolveResponse struct {
	Columns []ColumnResolution `json:"columns"`
}

type ResolveCategoriesRequest struct {
	RawCategories      []string `json:"raw_categories"`
	ContractCategories []string `json:"contract_categories"`
}

// CategoryResolution is the per-label outcome of alias resolution.
type CategoryResolution struct {
	RawCategory    string     `json:"raw_category"`
	Category       string     `json:"category"`
	Provenance     Provenance `json:"provenance"`
	NeedsAttention bool       `json:"needs_attention"`
}

type ResolveCategoriesResponse struct {
	Categories []CategoryResolution `json:"categories"`
}

type SaveMappingRequest struct {
	LicenseeFormat string            `json:"licensee_format"`
	Assignments    map[string]string `json:"assignments"`
}

type SaveAliasesRequest struct {
	Aliases map[string]string `json:"aliases"`
}

var (
	ErrInvalidContract    = errors.New("invalid_contract")
	ErrInvalidField       = errors.New("invalid_field")
	ErrNoHeaders          = errors.New("no_headers")
	ErrNetSalesUnresolved = errors.New("net_sales_unresolved")
)
