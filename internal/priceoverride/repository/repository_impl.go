package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() overridedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, override *overridedomain.ServicePriceOverride) error {
	return db.WithContext(ctx).Create(override).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, override *overridedomain.ServicePriceOverride) error {
	return db.WithContext(ctx).Save(override).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&overridedomain.ServicePriceOverride{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*overridedomain.ServicePriceOverride, error) {
	var item overridedomain.ServicePriceOverride
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListByService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]overridedomain.ServicePriceOverride, error) {
	var items []overridedomain.ServicePriceOverride
	err := db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("effective_from DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindEffective(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, at time.Time) (*overridedomain.ServicePriceOverride, error) {
	var item overridedomain.ServicePriceOverride
	err := db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Where("override_enabled = ?", true).
		Where("effective_from <= ?", at).
		Where("(effective_until IS NULL OR effective_until >= ?)", at).
		Order("effective_from DESC").
		Order("created_at DESC").
		Order("id DESC").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}
