// Package domain contains saved header mappings and category aliases.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FieldMapping associates one raw column header with a semantic field for a
// (contract, licensee format) pair. Writes are last-writer-wins per key.
type FieldMapping struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	ContractID     snowflake.ID `json:"contract_id" gorm:"not null;uniqueIndex:uq_field_mapping,priority:1"`
	LicenseeFormat string       `json:"licensee_format" gorm:"type:text;not null;uniqueIndex:uq_field_mapping,priority:2"`
	Header         string       `json:"header" gorm:"type:text;not null;uniqueIndex:uq_field_mapping,priority:3"`
	Field          string       `json:"field" gorm:"type:text;not null"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FieldMapping) TableName() string { return "field_mappings" }

// CategoryAlias associates a licensee's free-text category label with a
// contract-defined category, or CategoryExcluded.
type CategoryAlias struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ContractID  snowflake.ID `json:"contract_id" gorm:"not null;uniqueIndex:uq_category_alias,priority:1"`
	RawCategory string       `json:"raw_category" gorm:"type:text;not null;uniqueIndex:uq_category_alias,priority:2"`
	Category    string       `json:"category" gorm:"type:text;not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CategoryAlias) TableName() string { return "category_aliases" }
