package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Contract, error)
	Get(ctx context.Context, id string) (*Contract, error)
	List(ctx context.Context) ([]Contract, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Contract, error)
}

// TierRequest describes one marginal bracket on input. Rates accept either
// percentage ("8%") or fractional ("0.08") notation.
type TierRequest struct {
	LowerBound string  `json:"lower_bound"`
	UpperBound *string `json:"upper_bound"`
	Rate       string  `json:"rate"`
}

type CategoryRateRequest struct {
	Category string `json:"category"`
	Rate     string `json:"rate"`
}

type CreateRequest struct {
	Name         string `json:"name"`
	LicenseeName string `json:"licensee_name"`

	RateType      RateType              `json:"rate_type"`
	FlatRate      string                `json:"flat_rate,omitempty"`
	Tiers         []TierRequest         `json:"tiers,omitempty"`
	CategoryRates []CategoryRateRequest `json:"category_rates,omitempty"`

	RoyaltyBase           string `json:"royalty_base,omitempty"`
	MinimumGuarantee      string `json:"minimum_guarantee,omitempty"`
	MinimumGuaranteeScope string `json:"minimum_guarantee_scope,omitempty"`
	AdvancePayment        string `json:"advance_payment,omitempty"`

	ReportingFrequency Frequency `json:"reporting_frequency"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
}

// UpdateRequest carries mutable contract fields. Rate-structure fields are
// rejected once sales periods exist against the contract.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	LicenseeName *string `json:"licensee_name,omitempty"`

	RateType      *RateType             `json:"rate_type,omitempty"`
	FlatRate      *string               `json:"flat_rate,omitempty"`
	Tiers         []TierRequest         `json:"tiers,omitempty"`
	CategoryRates []CategoryRateRequest `json:"category_rates,omitempty"`

	MinimumGuarantee      *string `json:"minimum_guarantee,omitempty"`
	MinimumGuaranteeScope *string `json:"minimum_guarantee_scope,omitempty"`
	AdvancePayment        *string `json:"advance_payment,omitempty"`

	ReportingFrequency *Frequency `json:"reporting_frequency,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidRateType    = errors.New("invalid_rate_type")
	ErrInvalidRate        = errors.New("invalid_rate")
	ErrInvalidTiers       = errors.New("invalid_tiers")
	ErrMissingCategories  = errors.New("missing_categories")
	ErrInvalidGuarantee   = errors.New("invalid_guarantee")
	ErrInvalidAdvance     = errors.New("invalid_advance")
	ErrInvalidFrequency   = errors.New("invalid_frequency")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
	ErrRateStructureFixed = errors.New("rate_structure_fixed")
)
