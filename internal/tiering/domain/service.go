package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// RunMonthlyEvaluation re-tiers every approved vendor without an active manual tier.
	RunMonthlyEvaluation(ctx context.Context) (*BatchResult, error)
	// CleanupExpiredManualTiers clears expired manual tiers and restores the automatic tier.
	CleanupExpiredManualTiers(ctx context.Context) (*BatchResult, error)
	AssignManualTier(ctx context.Context, req AssignManualTierRequest) (*VendorTierResponse, error)
	RemoveManualTier(ctx context.Context, vendorID string, reason string) (*VendorTierResponse, error)
	EvaluateVendor(ctx context.Context, vendorID string) (*VendorTierResponse, error)
	History(ctx context.Context, vendorID string) ([]VendorTierHistory, error)
}

type AssignManualTierRequest struct {
	VendorID  string     `json:"vendor_id"`
	TierID    string     `json:"tier_id"`
	ExpiresAt *time.Time `json:"expires_at"`
	Reason    string     `json:"reason"`
}

type VendorTierResponse struct {
	VendorID              string              `json:"vendor_id"`
	State                 State               `json:"state"`
	EffectiveTierID       string              `json:"effective_tier_id,omitempty"`
	CurrentTierID         string              `json:"current_tier_id,omitempty"`
	CurrentCommissionRate decimal.NullDecimal `json:"current_commission_rate"`
	ManualTierID          string              `json:"manual_tier_id,omitempty"`
	ManualTierExpiresAt   *time.Time          `json:"manual_tier_expires_at,omitempty"`
	ManualTierReason      string              `json:"manual_tier_reason,omitempty"`
	LastTierEvaluatedAt   *time.Time          `json:"last_tier_evaluated_at,omitempty"`
}

var (
	ErrInvalidVendor     = errors.New("invalid_vendor")
	ErrVendorNotApproved = errors.New("vendor_not_approved")
	ErrInvalidTier       = errors.New("invalid_tier")
	ErrTierNotEffective  = errors.New("tier_not_effective")
	ErrInvalidExpiry     = errors.New("invalid_manual_tier_expiry")
	ErrNoManualTier      = errors.New("no_manual_tier")
	ErrNoTiers           = errors.New("no_effective_tiers")
	ErrVendorBusy        = errors.New("vendor_tier_locked")
)
