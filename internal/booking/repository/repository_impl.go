package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() bookingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *bookingdomain.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Booking, error) {
	var booking bookingdomain.Booking
	err := db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repo) FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.BookingDetail, error) {
	var detail bookingdomain.BookingDetail
	err := db.WithContext(ctx).
		Table("bookings").
		Select("bookings.*, services.title AS service_title, services.currency AS service_currency").
		Joins("LEFT JOIN services ON services.id = bookings.service_id").
		Where("bookings.id = ?", id).
		Take(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &detail, nil
}

func (r *repo) WriteSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, snapshot bookingdomain.Snapshot) (bool, error) {
	result := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Where("id = ? AND commission_snapshot_at IS NULL", id).
		Updates(map[string]any{
			"commission_rate_at_booking": snapshot.CommissionRate,
			"commission_amount":          snapshot.CommissionAmount,
			"vendor_payout_amount":       snapshot.VendorPayout,
			"commission_snapshot_at":     snapshot.TakenAt,
			"updated_at":                 snapshot.TakenAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) CountCompleted(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Where("vendor_id = ? AND status = ?", vendorID, bookingdomain.StatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
