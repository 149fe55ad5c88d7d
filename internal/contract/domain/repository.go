package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	List(ctx context.Context, db *gorm.DB) ([]Contract, error)
	Save(ctx context.Context, db *gorm.DB, contract *Contract) error
	ReplaceTiers(ctx context.Context, db *gorm.DB, contractID snowflake.ID, tiers []RateTier) error
	ReplaceCategoryRates(ctx context.Context, db *gorm.DB, contractID snowflake.ID, rates []CategoryRate) error
}
