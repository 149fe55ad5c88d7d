// Package domain contains the licensing contract aggregate.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RateType selects the royalty rate algorithm for a contract.
type RateType string

const (
	RateTypeFlat     RateType = "flat"
	RateTypeTiered   RateType = "tiered"
	RateTypeCategory RateType = "category"
)

// GuaranteeScope is the accounting window a minimum guarantee applies to.
type GuaranteeScope string

const (
	GuaranteeScopePeriod GuaranteeScope = "period"
	GuaranteeScopeAnnual GuaranteeScope = "annual"
)

// Frequency is the contractual reporting cadence.
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
)

// Contract is a licensing agreement with a fixed rate structure.
//
// The rate-structure type is immutable once sales periods exist against the
// contract; the service enforces this on update.
type Contract struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	LicenseeName string       `json:"licensee_name" gorm:"type:text;not null"`

	RateType RateType         `json:"rate_type" gorm:"type:text;not null"`
	FlatRate *decimal.Decimal `json:"flat_rate,omitempty" gorm:"type:decimal(10,6)"`

	RoyaltyBase string `json:"royalty_base" gorm:"type:text;not null;default:net_sales"`

	MinimumGuarantee      *decimal.Decimal `json:"minimum_guarantee,omitempty" gorm:"type:decimal(20,4)"`
	MinimumGuaranteeScope GuaranteeScope   `json:"minimum_guarantee_scope,omitempty" gorm:"type:text"`
	AdvancePayment        *decimal.Decimal `json:"advance_payment,omitempty" gorm:"type:decimal(20,4)"`

	ReportingFrequency Frequency `json:"reporting_frequency" gorm:"type:text;not null"`
	StartDate          time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate            time.Time `json:"end_date" gorm:"type:date;not null"`

	Tiers         []RateTier     `json:"tiers,omitempty" gorm:"foreignKey:ContractID"`
	CategoryRates []CategoryRate `json:"category_rates,omitempty" gorm:"foreignKey:ContractID"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Contract) TableName() string { return "contracts" }

// RateTier is one marginal bracket of a tiered contract, ordered by Position.
// A nil UpperBound means the bracket is unbounded.
type RateTier struct {
	ID         snowflake.ID     `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID     `json:"contract_id" gorm:"not null;index"`
	Position   int              `json:"position" gorm:"not null"`
	LowerBound decimal.Decimal  `json:"lower_bound" gorm:"type:decimal(20,4);not null"`
	UpperBound *decimal.Decimal `json:"upper_bound,omitempty" gorm:"type:decimal(20,4)"`
	Rate       decimal.Decimal  `json:"rate" gorm:"type:decimal(10,6);not null"`
}

func (RateTier) TableName() string { return "rate_tiers" }

// CategoryRate is the per-category rate of a category contract.
type CategoryRate struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID    `json:"contract_id" gorm:"not null;index"`
	Category   string          `json:"category" gorm:"type:text;not null"`
	Rate       decimal.Decimal `json:"rate" gorm:"type:decimal(10,6);not null"`
}

func (CategoryRate) TableName() string { return "category_rates" }

// Categories returns the contract-defined category names in definition order.
func (c *Contract) Categories() []string {
	out := make([]string, 0, len(c.CategoryRates))
	for _, cr := range c.CategoryRates {
		out = append(out, cr.Category)
	}
	return out
}
