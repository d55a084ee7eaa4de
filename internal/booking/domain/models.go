package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking carries the commission snapshot frozen at confirmation. Once
// CommissionSnapshotAt is set the three commission fields never change.
type Booking struct {
	ID                      snowflake.ID        `json:"id" gorm:"primaryKey"`
	ServiceID               snowflake.ID        `json:"service_id" gorm:"column:service_id;not null;index"`
	VendorID                snowflake.ID        `json:"vendor_id" gorm:"column:vendor_id;not null;index:idx_bookings_vendor_status"`
	CustomerName            string              `json:"customer_name" gorm:"type:text;not null"`
	CustomerEmail           string              `json:"customer_email" gorm:"type:text"`
	Quantity                int64               `json:"quantity" gorm:"not null;default:1"`
	TotalAmount             decimal.Decimal     `json:"total_amount" gorm:"type:numeric;not null"`
	Status                  Status              `json:"status" gorm:"type:text;not null;index:idx_bookings_vendor_status"`
	CommissionRateAtBooking decimal.NullDecimal `json:"commission_rate_at_booking" gorm:"type:numeric"`
	CommissionAmount        decimal.NullDecimal `json:"commission_amount" gorm:"type:numeric"`
	VendorPayoutAmount      decimal.NullDecimal `json:"vendor_payout_amount" gorm:"type:numeric"`
	CommissionSnapshotAt    *time.Time          `json:"commission_snapshot_at,omitempty"`
	CompletedAt             *time.Time          `json:"completed_at,omitempty" gorm:"index"`
	CreatedAt               time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt               time.Time           `json:"updated_at" gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

func (b Booking) HasSnapshot() bool {
	return b.CommissionSnapshotAt != nil
}

// Snapshot is the set of values frozen onto a booking.
type Snapshot struct {
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	VendorPayout     decimal.Decimal
	TakenAt          time.Time
}

// BookingDetail is a booking joined with its service display fields.
type BookingDetail struct {
	Booking
	ServiceTitle    string `json:"service_title"`
	ServiceCurrency string `json:"service_currency"`
}
