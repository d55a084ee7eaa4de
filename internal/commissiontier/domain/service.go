package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Deactivate(ctx context.Context, id string) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	ListEffective(ctx context.Context, at time.Time) ([]Response, error)
}

type CreateRequest struct {
	Name               string          `json:"name"`
	CommissionType     string          `json:"commission_type"`
	CommissionValue    decimal.Decimal `json:"commission_value"`
	MinMonthlyBookings int64           `json:"min_monthly_bookings"`
	MinRating          *float64        `json:"min_rating"`
	PriorityOrder      int             `json:"priority_order"`
	EffectiveFrom      *time.Time      `json:"effective_from"`
	EffectiveUntil     *time.Time      `json:"effective_until"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name               *string          `json:"name"`
	CommissionType     *string          `json:"commission_type"`
	CommissionValue    *decimal.Decimal `json:"commission_value"`
	MinMonthlyBookings *int64           `json:"min_monthly_bookings"`
	MinRating          *float64         `json:"min_rating"`
	ClearMinRating     bool             `json:"clear_min_rating"`
	PriorityOrder      *int             `json:"priority_order"`
	EffectiveFrom      *time.Time       `json:"effective_from"`
	EffectiveUntil     *time.Time       `json:"effective_until"`
	ClearEffectiveEnd  bool             `json:"clear_effective_until"`
	IsActive           *bool            `json:"is_active"`
}

type Response struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	CommissionType     string          `json:"commission_type"`
	CommissionValue    decimal.Decimal `json:"commission_value"`
	MinMonthlyBookings int64           `json:"min_monthly_bookings"`
	MinRating          *float64        `json:"min_rating,omitempty"`
	PriorityOrder      int             `json:"priority_order"`
	EffectiveFrom      time.Time       `json:"effective_from"`
	EffectiveUntil     *time.Time      `json:"effective_until,omitempty"`
	IsActive           bool            `json:"is_active"`
	CreatedBy          string          `json:"created_by,omitempty"`
	UpdatedBy          string          `json:"updated_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

var (
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidCommissionValue = errors.New("invalid_commission_value")
	ErrInvalidMinBookings     = errors.New("invalid_min_monthly_bookings")
	ErrInvalidMinRating       = errors.New("invalid_min_rating")
	ErrInvalidPriority        = errors.New("invalid_priority_order")
	ErrInvalidEffectiveWindow = errors.New("invalid_effective_window")
	ErrDuplicateName          = errors.New("duplicate_tier_name")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("tier_not_found")
)
