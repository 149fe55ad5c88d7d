package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() mappingdomain.Repository {
	return &repo{}
}

// UpsertMappings is last-writer-wins per (contract, format, header).
func (r *repo) UpsertMappings(ctx context.Context, db *gorm.DB, mappings []mappingdomain.FieldMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}, {Name: "licensee_format"}, {Name: "header"}},
		DoUpdates: clause.AssignmentColumns([]string{"field", "updated_at"}),
	}).Create(&mappings).Error
}

func (r *repo) FindMappings(ctx context.Context, db *gorm.DB, contractID snowflake.ID, licenseeFormat string) ([]mappingdomain.FieldMapping, error) {
	var items []mappingdomain.FieldMapping
	err := db.WithContext(ctx).
		Where("contract_id = ? AND licensee_format = ?", contractID, licenseeFormat).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertAliases is last-writer-wins per (contract, raw category).
func (r *repo) UpsertAliases(ctx context.Context, db *gorm.DB, aliases []mappingdomain.CategoryAlias) error {
	if len(aliases) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}, {Name: "raw_category"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "updated_at"}),
	}).Create(&aliases).Error
}

func (r *repo) FindAliases(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]mappingdomain.CategoryAlias, error) {
	var items []mappingdomain.CategoryAlias
	err := db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
