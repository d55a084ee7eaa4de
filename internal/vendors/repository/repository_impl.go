package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() vendordomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vendor *vendordomain.Vendor) error {
	return db.WithContext(ctx).Create(vendor).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repo) ListApproved(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]vendordomain.Vendor, error) {
	var items []vendordomain.Vendor
	err := db.WithContext(ctx).
		Where("status = ? AND id > ?", vendordomain.StatusApproved, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListExpiredManual(ctx context.Context, db *gorm.DB, now time.Time, afterID snowflake.ID, limit int) ([]vendordomain.Vendor, error) {
	var items []vendordomain.Vendor
	err := db.WithContext(ctx).
		Where("manual_tier_id IS NOT NULL AND manual_tier_expires_at IS NOT NULL AND manual_tier_expires_at <= ? AND id > ?", now, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateTier(ctx context.Context, db *gorm.DB, id snowflake.ID, expectedVersion int64, patch vendordomain.TierPatch, now time.Time) (bool, error) {
	if patch.Empty() {
		return true, nil
	}

	result := db.WithContext(ctx).
		Model(&vendordomain.Vendor{}).
		Where("id = ? AND tier_version = ?", id, expectedVersion).
		Updates(patchColumns(patch, now))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func patchColumns(patch vendordomain.TierPatch, now time.Time) map[string]any {
	cols := map[string]any{
		"tier_version": gorm.Expr("tier_version + 1"),
		"updated_at":   now,
	}
	if patch.CurrentTierID != nil {
		cols["current_tier_id"] = *patch.CurrentTierID
	}
	if patch.CurrentCommissionRate != nil {
		cols["current_commission_rate"] = *patch.CurrentCommissionRate
	}
	if patch.EvaluatedAt != nil {
		cols["last_tier_evaluated_at"] = *patch.EvaluatedAt
	}
	switch {
	case patch.Manual != nil:
		cols["manual_tier_id"] = patch.Manual.TierID
		cols["manual_tier_expires_at"] = patch.Manual.ExpiresAt
		cols["manual_tier_reason"] = patch.Manual.Reason
		cols["manual_tier_assigned_by"] = patch.Manual.AssignedBy
	case patch.ClearManual:
		cols["manual_tier_id"] = nil
		cols["manual_tier_expires_at"] = nil
		cols["manual_tier_reason"] = nil
		cols["manual_tier_assigned_by"] = nil
	}
	return cols
}
