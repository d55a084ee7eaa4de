package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/tourhub/internal/catalog/repository"
	"github.com/smallbiznis/tourhub/internal/clock"
	"github.com/smallbiznis/tourhub/internal/fee"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	overriderepo "github.com/smallbiznis/tourhub/internal/priceoverride/repository"
	overrideservice "github.com/smallbiznis/tourhub/internal/priceoverride/service"
	"github.com/smallbiznis/tourhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc       overridedomain.Service
	clock     *clock.FakeClock
	serviceID string
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := testutil.OpenDB(t, &catalogdomain.Service{}, &overridedomain.ServicePriceOverride{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	listing := &catalogdomain.Service{
		ID:        node.Generate(),
		VendorID:  node.Generate(),
		Title:     "Kilimanjaro day hike",
		Price:     decimal.NewFromInt(100000),
		Currency:  "TZS",
		IsActive:  true,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	require.NoError(t, db.Create(listing).Error)

	clk := clock.NewFakeClock(baseTime)
	svc := overrideservice.New(overrideservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        overriderepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
	})
	return fixture{svc: svc, clock: clk, serviceID: listing.ID.String()}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateOverrideSharedSplit(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.Create(context.Background(), f.serviceID, overridedomain.CreateRequest{
		OverrideType:      "percentage",
		OverrideValue:     decimal.NewFromInt(10),
		FeePayer:          "shared",
		TouristPercentage: dec(60),
		VendorPercentage:  dec(40),
	})
	require.NoError(t, err)
	assert.Equal(t, string(fee.PayerShared), resp.FeePayer)
	assert.True(t, resp.OverrideEnabled)
	assert.True(t, resp.TouristPercentage.Valid)
	assert.True(t, resp.TouristPercentage.Decimal.Equal(decimal.NewFromInt(60)))
}

func TestCreateOverrideRejectsInvalidInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(500), FeePayer: "agent",
	})
	assert.ErrorIs(t, err, fee.ErrInvalidFeePayer)

	_, err = f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "percentage", OverrideValue: decimal.NewFromInt(10), FeePayer: "shared",
		TouristPercentage: dec(60), VendorPercentage: dec(60),
	})
	assert.ErrorIs(t, err, overridedomain.ErrInvalidSplit)

	_, err = f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "percentage", OverrideValue: decimal.NewFromInt(10), FeePayer: "shared",
	})
	assert.ErrorIs(t, err, overridedomain.ErrInvalidSplit)

	_, err = f.svc.Create(ctx, "999", overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(500), FeePayer: "vendor",
	})
	assert.ErrorIs(t, err, overridedomain.ErrInvalidService)
}

func TestCreateOverrideRejectsOverlap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	until := baseTime.Add(30 * 24 * time.Hour)
	_, err := f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(24000), FeePayer: "vendor",
		EffectiveUntil: &until,
	})
	require.NoError(t, err)

	overlapping := baseTime.Add(10 * 24 * time.Hour)
	_, err = f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(20000), FeePayer: "vendor",
		EffectiveFrom: &overlapping,
	})
	assert.ErrorIs(t, err, overridedomain.ErrOverrideExists)

	after := until.Add(time.Second)
	_, err = f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(20000), FeePayer: "vendor",
		EffectiveFrom: &after,
	})
	require.NoError(t, err)

	items, err := f.svc.ListByService(ctx, f.serviceID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestUpdateOverrideSwitchesPayer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "percentage", OverrideValue: decimal.NewFromInt(10), FeePayer: "tourist",
	})
	require.NoError(t, err)
	assert.False(t, created.TouristPercentage.Valid)

	shared := "shared"
	_, err = f.svc.Update(ctx, created.ID, overridedomain.UpdateRequest{FeePayer: &shared})
	assert.ErrorIs(t, err, overridedomain.ErrInvalidSplit)

	f.clock.Advance(2 * time.Hour)
	updated, err := f.svc.Update(ctx, created.ID, overridedomain.UpdateRequest{
		FeePayer:          &shared,
		TouristPercentage: dec(50),
		VendorPercentage:  dec(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "shared", updated.FeePayer)
	assert.True(t, updated.VendorPercentage.Decimal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, baseTime.Add(2*time.Hour), updated.UpdatedAt)

	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, baseTime.Add(2*time.Hour).Equal(stored.UpdatedAt), "stored updated_at %s", stored.UpdatedAt)
	assert.True(t, baseTime.Equal(stored.CreatedAt))
}

func TestFindEffectiveAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	start := baseTime.Add(24 * time.Hour)
	created, err := f.svc.Create(ctx, f.serviceID, overridedomain.CreateRequest{
		OverrideType: "flat", OverrideValue: decimal.NewFromInt(24000), FeePayer: "vendor",
		EffectiveFrom: &start,
	})
	require.NoError(t, err)

	_, err = f.svc.FindEffective(ctx, f.serviceID, baseTime)
	assert.ErrorIs(t, err, overridedomain.ErrNotFound)

	found, err := f.svc.FindEffective(ctx, f.serviceID, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID), overridedomain.ErrNotFound)

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, overridedomain.ErrNotFound)
}
