package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	LockContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) error
	Insert(ctx context.Context, db *gorm.DB, period *SalesPeriod) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SalesPeriod, error)
	ListByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]SalesPeriod, error)
	FindOverlapping(ctx context.Context, db *gorm.DB, contractID snowflake.ID, start, end time.Time) ([]SalesPeriod, error)
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
