package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	// ApplyCommission freezes the vendor's tier pricing for servicePrice onto the booking.
	ApplyCommission(ctx context.Context, req ApplyCommissionRequest) (*BookingDetail, error)
	// ApplyCommissionInTx is ApplyCommission inside the caller's confirmation transaction.
	ApplyCommissionInTx(ctx context.Context, tx *gorm.DB, req ApplyCommissionRequest) (*BookingDetail, error)
	Get(ctx context.Context, id string) (*BookingDetail, error)
}

type ApplyCommissionRequest struct {
	BookingID    string          `json:"booking_id"`
	VendorID     string          `json:"vendor_id"`
	ServicePrice decimal.Decimal `json:"service_price"`
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidVendor       = errors.New("invalid_vendor")
	ErrInvalidServicePrice = errors.New("invalid_service_price")
	ErrVendorMismatch      = errors.New("booking_vendor_mismatch")
	ErrBookingCancelled    = errors.New("booking_cancelled")
	ErrNotFound            = errors.New("booking_not_found")
)
