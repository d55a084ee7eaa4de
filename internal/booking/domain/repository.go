package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BookingDetail, error)
	// WriteSnapshot stores the snapshot only if none exists yet and reports whether it did.
	WriteSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, snapshot Snapshot) (bool, error)
	// CountCompleted counts the vendor's bookings completed within [from, to).
	CountCompleted(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, from, to time.Time) (int64, error)
}
