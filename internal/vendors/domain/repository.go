package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vendor, error)
	// ListApproved pages approved vendors by ascending id, starting after afterID.
	ListApproved(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Vendor, error)
	// ListExpiredManual pages vendors whose manual tier expired at or before now.
	ListExpiredManual(ctx context.Context, db *gorm.DB, now time.Time, afterID snowflake.ID, limit int) ([]Vendor, error)
	// UpdateTier applies patch only if the row still has expectedVersion and bumps the version.
	// It returns false when another writer got there first.
	UpdateTier(ctx context.Context, db *gorm.DB, id snowflake.ID, expectedVersion int64, patch TierPatch, now time.Time) (bool, error)
}

var (
	ErrNotFound = errors.New("vendor_not_found")
	ErrConflict = errors.New("vendor_tier_conflict")
)
