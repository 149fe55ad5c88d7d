package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() perioddomain.Repository {
	return &repo{}
}

// LockContract serializes commits for one contract until the surrounding
// transaction ends. Postgres takes a transaction-scoped advisory lock, mysql
// locks the contract row; sqlite has a single writer and needs neither.
func (r *repo) LockContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) error {
	switch db.Dialector.Name() {
	case "postgres":
		return db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", int64(contractID)).Error
	case "mysql":
		return db.WithContext(ctx).Exec("SELECT id FROM contracts WHERE id = ? FOR UPDATE", int64(contractID)).Error
	default:
		return nil
	}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, period *perioddomain.SalesPeriod) error {
	return db.WithContext(ctx).Create(period).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*perioddomain.SalesPeriod, error) {
	var period perioddomain.SalesPeriod
	err := db.WithContext(ctx).First(&period, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *repo) ListByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]perioddomain.SalesPeriod, error) {
	var items []perioddomain.SalesPeriod
	err := db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("period_start ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindOverlapping returns periods with existing.start <= end AND
// existing.end >= start; the inclusive comparison handles single-day periods.
func (r *repo) FindOverlapping(ctx context.Context, db *gorm.DB, contractID snowflake.ID, start, end time.Time) ([]perioddomain.SalesPeriod, error) {
	var items []perioddomain.SalesPeriod
	err := db.WithContext(ctx).
		Where("contract_id = ? AND period_start <= ? AND period_end >= ?", contractID, end, start).
		Order("period_start ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("id IN ?", ids).Delete(&perioddomain.SalesPeriod{}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&perioddomain.SalesPeriod{}).Error
}
