package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tourhub/internal/fee"
)

// CommissionTier is a platform-wide commission schedule. Tiers are never
// deleted; they are deactivated.
type CommissionTier struct {
	ID                 snowflake.ID       `json:"id" gorm:"primaryKey"`
	Name               string             `json:"name" gorm:"type:text;not null;uniqueIndex"`
	CommissionType     fee.CommissionType `json:"commission_type" gorm:"type:text;not null"`
	CommissionValue    decimal.Decimal    `json:"commission_value" gorm:"type:numeric;not null"`
	MinMonthlyBookings int64              `json:"min_monthly_bookings" gorm:"not null;default:0"`
	MinRating          *float64           `json:"min_rating,omitempty" gorm:"column:min_rating"`
	PriorityOrder      int                `json:"priority_order" gorm:"not null;index"`
	EffectiveFrom      time.Time          `json:"effective_from" gorm:"not null"`
	EffectiveUntil     *time.Time         `json:"effective_until,omitempty"`
	IsActive           bool               `json:"is_active" gorm:"not null;default:true"`
	CreatedBy          string             `json:"created_by" gorm:"type:text"`
	UpdatedBy          string             `json:"updated_by" gorm:"type:text"`
	CreatedAt          time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"not null"`
}

func (CommissionTier) TableName() string { return "commission_tiers" }

// EffectiveAt reports whether the tier is active and its validity window contains at.
func (t CommissionTier) EffectiveAt(at time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.EffectiveFrom.After(at) {
		return false
	}
	return t.EffectiveUntil == nil || !t.EffectiveUntil.Before(at)
}

// PlatformFee applies the tier's commission to basePrice.
func (t CommissionTier) PlatformFee(basePrice decimal.Decimal) decimal.Decimal {
	return fee.PlatformFee(basePrice, t.CommissionType, t.CommissionValue)
}
