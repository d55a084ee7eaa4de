// Package fee holds the commission arithmetic shared by tiers, overrides and
// the resolver. Nothing here rounds: callers round only the final charged or
// displayed amount to the currency's minor unit.
package fee

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFlat       CommissionType = "flat"
)

type Payer string

const (
	PayerVendor  Payer = "vendor"
	PayerTourist Payer = "tourist"
	PayerShared  Payer = "shared"
)

var (
	ErrInvalidCommissionType = errors.New("invalid_commission_type")
	ErrInvalidFeePayer       = errors.New("invalid_fee_payer")
)

var hundred = decimal.NewFromInt(100)

func ParseCommissionType(raw string) (CommissionType, error) {
	switch CommissionType(strings.ToLower(strings.TrimSpace(raw))) {
	case CommissionPercentage:
		return CommissionPercentage, nil
	case CommissionFlat:
		return CommissionFlat, nil
	default:
		return "", ErrInvalidCommissionType
	}
}

func ParsePayer(raw string) (Payer, error) {
	switch Payer(strings.ToLower(strings.TrimSpace(raw))) {
	case PayerVendor:
		return PayerVendor, nil
	case PayerTourist:
		return PayerTourist, nil
	case PayerShared:
		return PayerShared, nil
	default:
		return "", ErrInvalidFeePayer
	}
}

// PlatformFee returns value itself for flat commissions and basePrice*value/100
// for percentages. Percentages are always of the base price, never of the total.
func PlatformFee(basePrice decimal.Decimal, commissionType CommissionType, value decimal.Decimal) decimal.Decimal {
	if commissionType == CommissionFlat {
		return value
	}
	return Percent(basePrice, value)
}

// Percent returns amount*pct/100.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Breakdown is the outcome of splitting a platform fee between the parties.
type Breakdown struct {
	BasePrice            decimal.Decimal
	PlatformFee          decimal.Decimal
	TouristFee           decimal.Decimal
	VendorFee            decimal.Decimal
	VendorPayout         decimal.Decimal
	TotalCustomerPayment decimal.Decimal
	FeePayer             Payer
}

// Split distributes platformFee according to payer. For shared splits the two
// percentages are applied as given; they are not normalised to 100.
func Split(basePrice, platformFee decimal.Decimal, payer Payer, touristPct, vendorPct decimal.Decimal) (Breakdown, error) {
	b := Breakdown{
		BasePrice:   basePrice,
		PlatformFee: platformFee,
		FeePayer:    payer,
	}

	switch payer {
	case PayerVendor:
		b.TouristFee = decimal.Zero
		b.VendorFee = platformFee
		b.TotalCustomerPayment = basePrice
		b.VendorPayout = basePrice.Sub(platformFee)
	case PayerTourist:
		b.TouristFee = platformFee
		b.VendorFee = decimal.Zero
		b.TotalCustomerPayment = basePrice.Add(platformFee)
		b.VendorPayout = basePrice
	case PayerShared:
		b.TouristFee = Percent(platformFee, touristPct)
		b.VendorFee = Percent(platformFee, vendorPct)
		b.TotalCustomerPayment = basePrice.Add(b.TouristFee)
		b.VendorPayout = basePrice.Sub(b.VendorFee)
	default:
		return Breakdown{}, ErrInvalidFeePayer
	}

	return b, nil
}

// EffectiveRate expresses platformFee as a percentage of basePrice.
func EffectiveRate(basePrice, platformFee decimal.Decimal) decimal.Decimal {
	if basePrice.IsZero() {
		return decimal.Zero
	}
	return platformFee.Mul(hundred).Div(basePrice)
}

// ValidateSharedSplit checks that both shares are within [0,100] and sum to 100.
func ValidateSharedSplit(touristPct, vendorPct decimal.Decimal) bool {
	if touristPct.IsNegative() || vendorPct.IsNegative() {
		return false
	}
	if touristPct.GreaterThan(hundred) || vendorPct.GreaterThan(hundred) {
		return false
	}
	return touristPct.Add(vendorPct).Equal(hundred)
}
