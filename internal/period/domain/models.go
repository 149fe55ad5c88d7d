// Package domain contains the committed sales-period record.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SalesPeriod is one committed royalty period for a contract.
//
// Exactly one of NetSales and CategoryBreakdown is populated, chosen by the
// contract's rate mode. Dates are inclusive on both ends.
type SalesPeriod struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID `json:"contract_id" gorm:"not null;index"`

	PeriodStart time.Time `json:"period_start" gorm:"type:date;not null"`
	PeriodEnd   time.Time `json:"period_end" gorm:"type:date;not null"`

	NetSales          *decimal.Decimal  `json:"net_sales,omitempty" gorm:"type:decimal(20,4)"`
	CategoryBreakdown datatypes.JSONMap `json:"category_breakdown,omitempty" gorm:"type:jsonb"`

	CalculatedRoyalty decimal.Decimal `json:"calculated_royalty" gorm:"type:decimal(20,4);not null"`
	MinimumApplied    bool            `json:"minimum_applied" gorm:"not null;default:false"`

	LicenseeReported  *decimal.Decimal `json:"licensee_reported,omitempty" gorm:"type:decimal(20,4)"`
	DiscrepancyAmount decimal.Decimal  `json:"discrepancy_amount" gorm:"type:decimal(20,4);not null;default:0"`
	HasDiscrepancy    bool             `json:"has_discrepancy" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SalesPeriod) TableName() string { return "sales_periods" }

// SetCategoryBreakdown stores per-category net sales as a JSON map. Amounts
// are serialized as strings to keep them exact.
func (p *SalesPeriod) SetCategoryBreakdown(buckets map[string]decimal.Decimal) {
	if buckets == nil {
		p.CategoryBreakdown = nil
		return
	}
	out := make(datatypes.JSONMap, len(buckets))
	for category, amount := range buckets {
		out[category] = amount.String()
	}
	p.CategoryBreakdown = out
}

// CategoryBuckets decodes the stored breakdown back into decimals.
func (p *SalesPeriod) CategoryBuckets() map[string]decimal.Decimal {
	if p.CategoryBreakdown == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(p.CategoryBreakdown))
	for category, raw := range p.CategoryBreakdown {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		out[category] = amount
	}
	return out
}
