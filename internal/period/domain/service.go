package domain

import (
	"context"
	"errors"
)

type Service interface {
	// CheckOverlap returns the periods conflicting with the candidate window.
	// Used both advisory (before upload effort) and inside Commit.
	CheckOverlap(ctx context.Context, contractID string, req OverlapRequest) ([]SalesPeriod, error)

	// Commit atomically re-checks the overlap guard and persists the period.
	// With Override set, conflicting periods are deleted and replaced in the
	// same transaction; without it a conflict aborts the commit.
	Commit(ctx context.Context, period *SalesPeriod, override bool) ([]SalesPeriod, error)

	// CommitBatch commits each period independently; one item's failure never
	// rolls back its siblings.
	CommitBatch(ctx context.Context, periods []*SalesPeriod, override bool) []BatchResult

	List(ctx context.Context, contractID string) ([]SalesPeriod, error)
	Get(ctx context.Context, id string) (*SalesPeriod, error)
	Delete(ctx context.Context, id string) error
}

type OverlapRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// BatchResult is the per-item outcome of a batch commit.
type BatchResult struct {
	Period    *SalesPeriod  `json:"period,omitempty"`
	Conflicts []SalesPeriod `json:"conflicts,omitempty"`
	Err       error         `json:"-"`
	ErrorCode string        `json:"error,omitempty"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidContract = errors.New("invalid_contract")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidDates    = errors.New("invalid_dates")
	ErrNotFound        = errors.New("not_found")
	ErrOverlapConflict = errors.New("overlap_conflict")
)
