package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tourhub/internal/fee"
)

// ServicePriceOverride replaces tier pricing for one service during its validity window.
type ServicePriceOverride struct {
	ID                snowflake.ID        `json:"id" gorm:"primaryKey"`
	ServiceID         snowflake.ID        `json:"service_id" gorm:"column:service_id;not null;index"`
	OverrideEnabled   bool                `json:"override_enabled" gorm:"not null;default:true"`
	OverrideType      fee.CommissionType  `json:"override_type" gorm:"type:text;not null"`
	OverrideValue     decimal.Decimal     `json:"override_value" gorm:"type:numeric;not null"`
	FeePayer          fee.Payer           `json:"fee_payer" gorm:"type:text;not null"`
	TouristPercentage decimal.NullDecimal `json:"tourist_percentage" gorm:"type:numeric"`
	VendorPercentage  decimal.NullDecimal `json:"vendor_percentage" gorm:"type:numeric"`
	EffectiveFrom     time.Time           `json:"effective_from" gorm:"not null"`
	EffectiveUntil    *time.Time          `json:"effective_until,omitempty"`
	CreatedBy         string              `json:"created_by" gorm:"type:text"`
	UpdatedBy         string              `json:"updated_by" gorm:"type:text"`
	CreatedAt         time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time           `json:"updated_at" gorm:"not null"`
}

func (ServicePriceOverride) TableName() string { return "service_price_overrides" }

// Overlaps reports whether the override's window intersects [from, until]; a nil until is open-ended.
func (o ServicePriceOverride) Overlaps(from time.Time, until *time.Time) bool {
	if until != nil && o.EffectiveFrom.After(*until) {
		return false
	}
	if o.EffectiveUntil != nil && o.EffectiveUntil.Before(from) {
		return false
	}
	return true
}

// Breakdown prices basePrice under this override.
func (o ServicePriceOverride) Breakdown(basePrice decimal.Decimal) (fee.Breakdown, error) {
	platformFee := fee.PlatformFee(basePrice, o.OverrideType, o.OverrideValue)
	return fee.Split(basePrice, platformFee, o.FeePayer, o.TouristPercentage.Decimal, o.VendorPercentage.Decimal)
}
