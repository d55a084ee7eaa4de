package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *tierdomain.CommissionTier) error {
	return db.WithContext(ctx).Create(tier).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tier *tierdomain.CommissionTier) error {
	return db.WithContext(ctx).Save(tier).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tierdomain.CommissionTier, error) {
	var tier tierdomain.CommissionTier
	err := db.WithContext(ctx).Where("id = ?", id).First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) FindEffectiveByID(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (*tierdomain.CommissionTier, error) {
	var tier tierdomain.CommissionTier
	err := effective(db.WithContext(ctx), at).
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tierdomain.CommissionTier, error) {
	var items []tierdomain.CommissionTier
	err := db.WithContext(ctx).
		Order("priority_order ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListEffective(ctx context.Context, db *gorm.DB, at time.Time) ([]tierdomain.CommissionTier, error) {
	var items []tierdomain.CommissionTier
	err := effective(db.WithContext(ctx), at).
		Order("priority_order ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func effective(db *gorm.DB, at time.Time) *gorm.DB {
	return db.Where("is_active = ?", true).
		Where("effective_from <= ?", at).
		Where("(effective_until IS NULL OR effective_until >= ?)", at)
}
