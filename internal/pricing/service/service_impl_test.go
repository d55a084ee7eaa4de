package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/tourhub/internal/catalog/repository"
	"github.com/smallbiznis/tourhub/internal/clock"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	tierrepo "github.com/smallbiznis/tourhub/internal/commissiontier/repository"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/smallbiznis/tourhub/internal/fee"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	overriderepo "github.com/smallbiznis/tourhub/internal/priceoverride/repository"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
	pricingservice "github.com/smallbiznis/tourhub/internal/pricing/service"
	"github.com/smallbiznis/tourhub/internal/testutil"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	vendorrepo "github.com/smallbiznis/tourhub/internal/vendors/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	clock   *clock.FakeClock
	node    *snowflake.Node
	svc     pricingdomain.Service
	vendor  *vendordomain.Vendor
	service *catalogdomain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t,
		&catalogdomain.Service{},
		&vendordomain.Vendor{},
		&tierdomain.CommissionTier{},
		&overridedomain.ServicePriceOverride{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	vendor := &vendordomain.Vendor{
		ID:        node.Generate(),
		Name:      "Serengeti Trails",
		Status:    vendordomain.StatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(vendor).Error)

	listing := &catalogdomain.Service{
		ID:        node.Generate(),
		VendorID:  vendor.ID,
		Title:     "Ngorongoro crater tour",
		Price:     decimal.NewFromInt(100000),
		Currency:  "TZS",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(listing).Error)

	clk := clock.NewFakeClock(now)
	svc := pricingservice.New(pricingservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        clk,
		PricingCfg:   config.NewStaticPricingConfig(config.DefaultPricingConfig()),
		CatalogRepo:  catalogrepo.Provide(),
		VendorRepo:   vendorrepo.Provide(),
		TierRepo:     tierrepo.Provide(),
		OverrideRepo: overriderepo.Provide(),
	})

	return &fixture{db: db, clock: clk, node: node, svc: svc, vendor: vendor, service: listing}
}

func (f *fixture) addTier(t *testing.T, name string, commissionType fee.CommissionType, value int64) *tierdomain.CommissionTier {
	t.Helper()
	tier := &tierdomain.CommissionTier{
		ID:              f.node.Generate(),
		Name:            name,
		CommissionType:  commissionType,
		CommissionValue: decimal.NewFromInt(value),
		PriorityOrder:   1,
		EffectiveFrom:   now.AddDate(0, -1, 0),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.db.Create(tier).Error)
	return tier
}

func (f *fixture) setCurrentTier(t *testing.T, tier *tierdomain.CommissionTier) {
	t.Helper()
	require.NoError(t, f.db.Model(&vendordomain.Vendor{}).
		Where("id = ?", f.vendor.ID).
		Update("current_tier_id", tier.ID).Error)
}

func (f *fixture) addOverride(t *testing.T, o overridedomain.ServicePriceOverride) *overridedomain.ServicePriceOverride {
	t.Helper()
	o.ID = f.node.Generate()
	o.ServiceID = f.service.ID
	o.OverrideEnabled = true
	if o.EffectiveFrom.IsZero() {
		o.EffectiveFrom = now.AddDate(0, 0, -7)
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	require.NoError(t, f.db.Create(&o).Error)
	return &o
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDecimal(t *testing.T, want, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "%s: want %s got %s", field, want, got)
}

func TestResolveTierPercentage(t *testing.T) {
	f := setup(t)
	tier := f.addTier(t, "Standard", fee.CommissionPercentage, 15)
	f.setCurrentTier(t, tier)

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), time.Time{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, pricingdomain.SourceTier, res.PricingSource)
	assert.Equal(t, tier.ID.String(), res.PricingReferenceID)
	assert.Equal(t, fee.PayerVendor, res.FeePayer)
	assertDecimal(t, d(15000), res.PlatformFee, "platform_fee")
	assertDecimal(t, d(85000), res.VendorPayout, "vendor_payout")
	assertDecimal(t, d(100000), res.TotalCustomerPayment, "total")
	assertDecimal(t, d(0), res.TouristFee, "tourist_fee")
	assertDecimal(t, d(15), res.CommissionRate, "commission_rate")
}

func TestResolveFlatOverrideVendorPays(t *testing.T) {
	f := setup(t)
	f.setCurrentTier(t, f.addTier(t, "Standard", fee.CommissionPercentage, 15))
	override := f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType:  fee.CommissionFlat,
		OverrideValue: d(24000),
		FeePayer:      fee.PayerVendor,
	})

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(200000), now)
	require.NoError(t, err)

	assert.Equal(t, pricingdomain.SourceOverride, res.PricingSource)
	assert.Equal(t, override.ID.String(), res.PricingReferenceID)
	assertDecimal(t, d(176000), res.VendorPayout, "vendor_payout")
	assertDecimal(t, d(200000), res.TotalCustomerPayment, "total")
	assertDecimal(t, d(0), res.TouristFee, "tourist_fee")
	assertDecimal(t, d(12), res.CommissionRate, "commission_rate")
}

func TestResolvePercentageOverrideTouristPays(t *testing.T) {
	f := setup(t)
	f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType:  fee.CommissionPercentage,
		OverrideValue: d(10),
		FeePayer:      fee.PayerTourist,
	})

	for _, base := range []int64{1, 999, 100000, 2500000} {
		res, err := f.svc.Resolve(context.Background(), f.service.ID, d(base), now)
		require.NoError(t, err)
		assertDecimal(t, d(base), res.VendorPayout, "vendor_payout")
		assertDecimal(t, d(base).Mul(decimal.RequireFromString("1.1")), res.TotalCustomerPayment, "total")
	}
}

func TestResolveSharedOverride(t *testing.T) {
	f := setup(t)
	f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType:      fee.CommissionPercentage,
		OverrideValue:     d(10),
		FeePayer:          fee.PayerShared,
		TouristPercentage: decimal.NewNullDecimal(d(60)),
		VendorPercentage:  decimal.NewNullDecimal(d(40)),
	})

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), now)
	require.NoError(t, err)

	assertDecimal(t, d(10000), res.PlatformFee, "platform_fee")
	assertDecimal(t, d(6000), res.TouristFee, "tourist_fee")
	assertDecimal(t, d(4000), res.VendorFee, "vendor_fee")
	assertDecimal(t, d(106000), res.TotalCustomerPayment, "total")
	assertDecimal(t, d(96000), res.VendorPayout, "vendor_payout")
}

func TestResolveLatestOverrideWins(t *testing.T) {
	f := setup(t)
	f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType: fee.CommissionFlat, OverrideValue: d(1000), FeePayer: fee.PayerVendor,
		EffectiveFrom: now.AddDate(0, 0, -30),
	})
	newer := f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType: fee.CommissionFlat, OverrideValue: d(2000), FeePayer: fee.PayerVendor,
		EffectiveFrom: now.AddDate(0, 0, -2),
	})

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(50000), now)
	require.NoError(t, err)
	assert.Equal(t, newer.ID.String(), res.PricingReferenceID)

	past, err := f.svc.Resolve(context.Background(), f.service.ID, d(50000), now.AddDate(0, 0, -10))
	require.NoError(t, err)
	assertDecimal(t, d(1000), past.PlatformFee, "historical platform_fee")
}

func TestResolveIgnoresDisabledAndExpiredOverrides(t *testing.T) {
	f := setup(t)
	tier := f.addTier(t, "Standard", fee.CommissionPercentage, 12)
	f.setCurrentTier(t, tier)

	expired := now.AddDate(0, 0, -1)
	f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType: fee.CommissionFlat, OverrideValue: d(1000), FeePayer: fee.PayerVendor,
		EffectiveFrom: now.AddDate(0, 0, -10), EffectiveUntil: &expired,
	})
	disabled := f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType: fee.CommissionFlat, OverrideValue: d(1000), FeePayer: fee.PayerVendor,
	})
	require.NoError(t, f.db.Model(disabled).Update("override_enabled", false).Error)

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), now)
	require.NoError(t, err)
	assert.Equal(t, pricingdomain.SourceTier, res.PricingSource)
	assertDecimal(t, d(12000), res.PlatformFee, "platform_fee")
}

func TestResolveDefaultRate(t *testing.T) {
	f := setup(t)

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), now)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, pricingdomain.SourceTier, res.PricingSource)
	assert.Empty(t, res.PricingReferenceID)
	assertDecimal(t, d(15000), res.PlatformFee, "platform_fee")
	assertDecimal(t, d(85000), res.VendorPayout, "vendor_payout")
}

func TestResolveDeactivatedTierFallsBackToDefault(t *testing.T) {
	f := setup(t)
	tier := f.addTier(t, "Promo", fee.CommissionPercentage, 5)
	f.setCurrentTier(t, tier)
	require.NoError(t, f.db.Model(tier).Update("is_active", false).Error)

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), now)
	require.NoError(t, err)
	assert.Empty(t, res.PricingReferenceID)
	assertDecimal(t, d(15000), res.PlatformFee, "platform_fee")
}

func TestResolveUsesActiveManualTier(t *testing.T) {
	f := setup(t)
	automatic := f.addTier(t, "Standard", fee.CommissionPercentage, 15)
	manual := f.addTier(t, "Partner", fee.CommissionFlat, 5000)
	f.setCurrentTier(t, automatic)

	expires := now.AddDate(0, 0, 5)
	require.NoError(t, f.db.Model(&vendordomain.Vendor{}).
		Where("id = ?", f.vendor.ID).
		Updates(map[string]any{"manual_tier_id": manual.ID, "manual_tier_expires_at": expires}).Error)

	res, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), now)
	require.NoError(t, err)
	assert.Equal(t, manual.ID.String(), res.PricingReferenceID)
	assertDecimal(t, d(5000), res.PlatformFee, "platform_fee")
	assertDecimal(t, d(5), res.CommissionRate, "commission_rate")

	afterExpiry, err := f.svc.Resolve(context.Background(), f.service.ID, d(100000), expires.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, automatic.ID.String(), afterExpiry.PricingReferenceID)
}

func TestResolveIsIdempotent(t *testing.T) {
	f := setup(t)
	f.setCurrentTier(t, f.addTier(t, "Standard", fee.CommissionPercentage, 15))

	first, err := f.svc.Resolve(context.Background(), f.service.ID, decimal.RequireFromString("333.33"), now)
	require.NoError(t, err)
	second, err := f.svc.Resolve(context.Background(), f.service.ID, decimal.RequireFromString("333.33"), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assertDecimal(t, decimal.RequireFromString("49.9995"), first.PlatformFee, "unrounded platform_fee")
}

func TestPreviewAtNowIsRepeatable(t *testing.T) {
	f := setup(t)
	f.setCurrentTier(t, f.addTier(t, "Standard", fee.CommissionPercentage, 15))
	ctx := context.Background()

	first, err := f.svc.Preview(ctx, f.service.ID, 2, time.Time{})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.Preview(ctx, f.service.ID, 2, time.Time{})
	require.NoError(t, err)

	assert.True(t, first.AsOf.IsZero())
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.NotContains(t, string(firstJSON), "as_of")

	pinned, err := f.svc.Preview(ctx, f.service.ID, 2, now)
	require.NoError(t, err)
	assert.True(t, now.Equal(pinned.AsOf))
}

func TestResolveServiceNotFound(t *testing.T) {
	f := setup(t)

	res, err := f.svc.Resolve(context.Background(), f.node.Generate(), d(100000), now)
	require.ErrorIs(t, err, pricingdomain.ErrServiceNotFound)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.True(t, res.BasePrice.IsZero())
	assert.True(t, res.PlatformFee.IsZero())
	assert.True(t, res.TotalCustomerPayment.IsZero())
}

func TestResolveForVendorSkipsOverrides(t *testing.T) {
	f := setup(t)
	tier := f.addTier(t, "Standard", fee.CommissionPercentage, 15)
	f.setCurrentTier(t, tier)
	f.addOverride(t, overridedomain.ServicePriceOverride{
		OverrideType: fee.CommissionFlat, OverrideValue: d(1), FeePayer: fee.PayerTourist,
	})

	res, err := f.svc.ResolveForVendor(context.Background(), f.vendor.ID, d(40000), now)
	require.NoError(t, err)
	assert.Equal(t, pricingdomain.SourceTier, res.PricingSource)
	assertDecimal(t, d(6000), res.PlatformFee, "platform_fee")

	missing, err := f.svc.ResolveForVendor(context.Background(), f.node.Generate(), d(40000), now)
	require.ErrorIs(t, err, pricingdomain.ErrVendorNotFound)
	assert.False(t, missing.Success)
}

func TestPreviewUsesListingPrice(t *testing.T) {
	f := setup(t)
	f.setCurrentTier(t, f.addTier(t, "Standard", fee.CommissionPercentage, 10))

	res, err := f.svc.Preview(context.Background(), f.service.ID, 3, now)
	require.NoError(t, err)
	assertDecimal(t, d(300000), res.BasePrice, "base_price")
	assertDecimal(t, d(30000), res.PlatformFee, "platform_fee")

	_, err = f.svc.Preview(context.Background(), f.service.ID, 0, now)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidQuantity)
}

func TestResolveRejectsNegativeBasePrice(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Resolve(context.Background(), f.service.ID, d(-1), now)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidBasePrice)
}
