package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	UpsertMappings(ctx context.Context, db *gorm.DB, mappings []FieldMapping) error
	FindMappings(ctx context.Context, db *gorm.DB, contractID snowflake.ID, licenseeFormat string) ([]FieldMapping, error)
	UpsertAliases(ctx context.Context, db *gorm.DB, aliases []CategoryAlias) error
	FindAliases(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]CategoryAlias, error)
}
