package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *CommissionTier) error
	Update(ctx context.Context, db *gorm.DB, tier *CommissionTier) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CommissionTier, error)
	// FindEffectiveByID returns the tier only if it is active and effective at at.
	FindEffectiveByID(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (*CommissionTier, error)
	List(ctx context.Context, db *gorm.DB) ([]CommissionTier, error)
	// ListEffective returns tiers effective at at ordered by ascending priority_order.
	ListEffective(ctx context.Context, db *gorm.DB, at time.Time) ([]CommissionTier, error)
}
