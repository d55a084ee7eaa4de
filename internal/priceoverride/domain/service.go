package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, serviceID string, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
	ListByService(ctx context.Context, serviceID string) ([]Response, error)
	FindEffective(ctx context.Context, serviceID string, at time.Time) (*Response, error)
}

type CreateRequest struct {
	OverrideEnabled   *bool            `json:"override_enabled"`
	OverrideType      string           `json:"override_type"`
	OverrideValue     decimal.Decimal  `json:"override_value"`
	FeePayer          string           `json:"fee_payer"`
	TouristPercentage *decimal.Decimal `json:"tourist_percentage"`
	VendorPercentage  *decimal.Decimal `json:"vendor_percentage"`
	EffectiveFrom     *time.Time       `json:"effective_from"`
	EffectiveUntil    *time.Time       `json:"effective_until"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	OverrideEnabled   *bool            `json:"override_enabled"`
	OverrideType      *string          `json:"override_type"`
	OverrideValue     *decimal.Decimal `json:"override_value"`
	FeePayer          *string          `json:"fee_payer"`
	TouristPercentage *decimal.Decimal `json:"tourist_percentage"`
	VendorPercentage  *decimal.Decimal `json:"vendor_percentage"`
	EffectiveFrom     *time.Time       `json:"effective_from"`
	EffectiveUntil    *time.Time       `json:"effective_until"`
	ClearEffectiveEnd bool             `json:"clear_effective_until"`
}

type Response struct {
	ID                string              `json:"id"`
	ServiceID         string              `json:"service_id"`
	OverrideEnabled   bool                `json:"override_enabled"`
	OverrideType      string              `json:"override_type"`
	OverrideValue     decimal.Decimal     `json:"override_value"`
	FeePayer          string              `json:"fee_payer"`
	TouristPercentage decimal.NullDecimal `json:"tourist_percentage"`
	VendorPercentage  decimal.NullDecimal `json:"vendor_percentage"`
	EffectiveFrom     time.Time           `json:"effective_from"`
	EffectiveUntil    *time.Time          `json:"effective_until,omitempty"`
	CreatedBy         string              `json:"created_by,omitempty"`
	UpdatedBy         string              `json:"updated_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

var (
	ErrInvalidService         = errors.New("invalid_service")
	ErrInvalidOverrideValue   = errors.New("invalid_override_value")
	ErrInvalidSplit           = errors.New("invalid_shared_split")
	ErrInvalidEffectiveWindow = errors.New("invalid_effective_window")
	ErrOverrideExists         = errors.New("override_exists")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("override_not_found")
)
