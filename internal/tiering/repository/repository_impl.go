package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tieringdomain.HistoryRepository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *tieringdomain.VendorTierHistory) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, limit int) ([]tieringdomain.VendorTierHistory, error) {
	var items []tieringdomain.VendorTierHistory
	query := db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
