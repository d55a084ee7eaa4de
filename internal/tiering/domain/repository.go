package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type HistoryRepository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *VendorTierHistory) error
	ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, limit int) ([]VendorTierHistory, error)
}
