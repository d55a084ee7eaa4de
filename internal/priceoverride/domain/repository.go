package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, override *ServicePriceOverride) error
	Update(ctx context.Context, db *gorm.DB, override *ServicePriceOverride) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServicePriceOverride, error)
	ListByService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]ServicePriceOverride, error)
	// FindEffective returns the enabled override whose window contains at. Overlaps
	// resolve to the latest effective_from, then latest created_at, then highest id.
	FindEffective(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, at time.Time) (*ServicePriceOverride, error)
}
