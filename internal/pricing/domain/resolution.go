package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tourhub/internal/fee"
)

type Source string

const (
	SourceTier     Source = "tier"
	SourceOverride Source = "override"
)

// FeeResolution is the priced outcome of one sale. It is computed on every
// call and never cached. On NotFound Success is false and every amount is zero.
type FeeResolution struct {
	Success              bool               `json:"success"`
	ServiceID            string             `json:"service_id,omitempty"`
	VendorID             string             `json:"vendor_id,omitempty"`
	BasePrice            decimal.Decimal    `json:"base_price"`
	PlatformFee          decimal.Decimal    `json:"platform_fee"`
	TouristFee           decimal.Decimal    `json:"tourist_fee"`
	VendorFee            decimal.Decimal    `json:"vendor_fee"`
	VendorPayout         decimal.Decimal    `json:"vendor_payout"`
	TotalCustomerPayment decimal.Decimal    `json:"total_customer_payment"`
	FeePayer             fee.Payer          `json:"fee_payer,omitempty"`
	PricingSource        Source             `json:"pricing_source,omitempty"`
	PricingReferenceID   string             `json:"pricing_reference_id"`
	CommissionType       fee.CommissionType `json:"commission_type,omitempty"`
	CommissionValue      decimal.Decimal    `json:"commission_value"`
	// CommissionRate is the percentage recorded on bookings: the tier's value for
	// percentage tiers, otherwise the platform fee as a share of the base price.
	CommissionRate decimal.Decimal `json:"commission_rate"`
	// AsOf echoes the instant the caller priced at. It stays zero, and is left
	// out of JSON, when the caller asked for "now", so repeated calls with the
	// same inputs produce identical results.
	AsOf time.Time `json:"as_of,omitzero"`
}

// NotFound returns the zeroed result reported when the service or vendor is missing.
func NotFound(serviceID, vendorID string, asOf time.Time) *FeeResolution {
	return &FeeResolution{
		Success:              false,
		ServiceID:            serviceID,
		VendorID:             vendorID,
		BasePrice:            decimal.Zero,
		PlatformFee:          decimal.Zero,
		TouristFee:           decimal.Zero,
		VendorFee:            decimal.Zero,
		VendorPayout:         decimal.Zero,
		TotalCustomerPayment: decimal.Zero,
		CommissionValue:      decimal.Zero,
		CommissionRate:       decimal.Zero,
		AsOf:                 asOf,
	}
}

// Apply copies a split breakdown into the resolution.
func (r *FeeResolution) Apply(b fee.Breakdown) {
	r.BasePrice = b.BasePrice
	r.PlatformFee = b.PlatformFee
	r.TouristFee = b.TouristFee
	r.VendorFee = b.VendorFee
	r.VendorPayout = b.VendorPayout
	r.TotalCustomerPayment = b.TotalCustomerPayment
	r.FeePayer = b.FeePayer
}
