package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() contractdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	return db.WithContext(ctx).Create(contract).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	var contract contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("CategoryRates").
		First(&contract, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]contractdomain.Contract, error) {
	var items []contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("CategoryRates").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	return db.WithContext(ctx).
		Omit("Tiers", "CategoryRates").
		Save(contract).Error
}

func (r *repo) ReplaceTiers(ctx context.Context, db *gorm.DB, contractID snowflake.ID, tiers []contractdomain.RateTier) error {
	if err := db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&contractdomain.RateTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&tiers).Error
}

func (r *repo) ReplaceCategoryRates(ctx context.Context, db *gorm.DB, contractID snowflake.ID, rates []contractdomain.CategoryRate) error {
	if err := db.WithContext(ctx).Where("contract_id = ?", contractID).Delete(&contractdomain.CategoryRate{}).Error; err != nil {
		return err
	}
	if len(rates) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rates).Error
}
