package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusSuspended Status = "suspended"
)

// Vendor carries the tier assignment fields used by pricing. CurrentTierID and
// CurrentCommissionRate always hold the automatic result; a manual assignment
// lives only in the Manual* fields and is applied through EffectiveTierID.
type Vendor struct {
	ID                    snowflake.ID        `json:"id" gorm:"primaryKey"`
	Name                  string              `json:"name" gorm:"type:text;not null"`
	Status                Status              `json:"status" gorm:"type:text;not null;index"`
	CurrentTierID         *snowflake.ID       `json:"current_tier_id,omitempty" gorm:"column:current_tier_id"`
	CurrentCommissionRate decimal.NullDecimal `json:"current_commission_rate" gorm:"column:current_commission_rate;type:numeric"`
	ManualTierID          *snowflake.ID       `json:"manual_tier_id,omitempty" gorm:"column:manual_tier_id"`
	ManualTierExpiresAt   *time.Time          `json:"manual_tier_expires_at,omitempty" gorm:"column:manual_tier_expires_at;index"`
	ManualTierReason      *string             `json:"manual_tier_reason,omitempty" gorm:"column:manual_tier_reason;type:text"`
	ManualTierAssignedBy  *string             `json:"manual_tier_assigned_by,omitempty" gorm:"column:manual_tier_assigned_by;type:text"`
	LastTierEvaluatedAt   *time.Time          `json:"last_tier_evaluated_at,omitempty" gorm:"column:last_tier_evaluated_at"`
	AverageRating         *float64            `json:"average_rating,omitempty" gorm:"column:average_rating"`
	TierVersion           int64               `json:"tier_version" gorm:"column:tier_version;not null;default:0"`
	CreatedAt             time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt             time.Time           `json:"updated_at" gorm:"not null"`
}

func (Vendor) TableName() string { return "vendors" }

// HasActiveManualTier reports whether a manual tier is set and not yet expired at now.
func (v Vendor) HasActiveManualTier(now time.Time) bool {
	if v.ManualTierID == nil {
		return false
	}
	return v.ManualTierExpiresAt == nil || v.ManualTierExpiresAt.After(now)
}

// ManualTierExpired reports a manual tier whose expiry has passed but has not been cleaned up.
func (v Vendor) ManualTierExpired(now time.Time) bool {
	return v.ManualTierID != nil && !v.HasActiveManualTier(now)
}

// EffectiveTierID is the tier that prices this vendor's sales at the given instant.
func (v Vendor) EffectiveTierID(at time.Time) *snowflake.ID {
	if v.HasActiveManualTier(at) {
		return v.ManualTierID
	}
	return v.CurrentTierID
}

// ManualTier is an administrator-forced tier.
type ManualTier struct {
	TierID     snowflake.ID
	ExpiresAt  *time.Time
	Reason     string
	AssignedBy string
}

// TierPatch describes one write to a vendor's tier fields. Zero-value fields are left untouched.
type TierPatch struct {
	CurrentTierID         *snowflake.ID
	CurrentCommissionRate *decimal.Decimal
	Manual                *ManualTier
	ClearManual           bool
	EvaluatedAt           *time.Time
}

func (p TierPatch) Empty() bool {
	return p.CurrentTierID == nil && p.CurrentCommissionRate == nil && p.Manual == nil && !p.ClearManual && p.EvaluatedAt == nil
}
