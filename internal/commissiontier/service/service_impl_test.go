package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tourhub/internal/clock"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	tierrepo "github.com/smallbiznis/tourhub/internal/commissiontier/repository"
	tierservice "github.com/smallbiznis/tourhub/internal/commissiontier/service"
	"github.com/smallbiznis/tourhub/internal/fee"
	obscontext "github.com/smallbiznis/tourhub/internal/observability/context"
	"github.com/smallbiznis/tourhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTierService(t *testing.T) (tierdomain.Service, *clock.FakeClock) {
	t.Helper()

	db := testutil.OpenDB(t, &tierdomain.CommissionTier{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(baseTime)
	svc := tierservice.New(tierservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  tierrepo.Provide(),
	})
	return svc, clk
}

func ptrFloat(v float64) *float64 { return &v }

func TestCreateTierDefaultsAndAudit(t *testing.T) {
	svc, _ := newTierService(t)
	ctx := obscontext.WithActor(context.Background(), "admin", "ops-1")

	resp, err := svc.Create(ctx, tierdomain.CreateRequest{
		Name:               " Gold ",
		CommissionType:     "percentage",
		CommissionValue:    decimal.NewFromInt(10),
		MinMonthlyBookings: 25,
		MinRating:          ptrFloat(4.5),
		PriorityOrder:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Gold", resp.Name)
	assert.Equal(t, string(fee.CommissionPercentage), resp.CommissionType)
	assert.True(t, resp.IsActive)
	assert.Equal(t, baseTime, resp.EffectiveFrom)
	assert.Equal(t, "ops-1", resp.CreatedBy)
}

func TestCreateTierValidation(t *testing.T) {
	svc, _ := newTierService(t)
	ctx := context.Background()
	until := baseTime.Add(-time.Hour)

	cases := []struct {
		name string
		req  tierdomain.CreateRequest
		want error
	}{
		{"empty name", tierdomain.CreateRequest{CommissionType: "flat"}, tierdomain.ErrInvalidName},
		{"bad type", tierdomain.CreateRequest{Name: "x", CommissionType: "tiered"}, fee.ErrInvalidCommissionType},
		{"negative value", tierdomain.CreateRequest{Name: "x", CommissionType: "flat", CommissionValue: decimal.NewFromInt(-1)}, tierdomain.ErrInvalidCommissionValue},
		{"percentage over 100", tierdomain.CreateRequest{Name: "x", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(101)}, tierdomain.ErrInvalidCommissionValue},
		{"negative bookings", tierdomain.CreateRequest{Name: "x", CommissionType: "flat", MinMonthlyBookings: -1}, tierdomain.ErrInvalidMinBookings},
		{"rating range", tierdomain.CreateRequest{Name: "x", CommissionType: "flat", MinRating: ptrFloat(6)}, tierdomain.ErrInvalidMinRating},
		{"window", tierdomain.CreateRequest{Name: "x", CommissionType: "flat", EffectiveUntil: &until}, tierdomain.ErrInvalidEffectiveWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateTierDuplicateName(t *testing.T) {
	svc, _ := newTierService(t)
	ctx := context.Background()

	req := tierdomain.CreateRequest{Name: "Silver", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(12), PriorityOrder: 2}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, tierdomain.ErrDuplicateName)
}

func TestUpdateAndDeactivateTier(t *testing.T) {
	svc, clk := newTierService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, tierdomain.CreateRequest{
		Name:            "Bronze",
		CommissionType:  "percentage",
		CommissionValue: decimal.NewFromInt(15),
		MinRating:       ptrFloat(3),
		PriorityOrder:   3,
	})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	value := decimal.NewFromInt(14)
	updated, err := svc.Update(ctx, created.ID, tierdomain.UpdateRequest{
		CommissionValue: &value,
		ClearMinRating:  true,
	})
	require.NoError(t, err)
	assert.True(t, updated.CommissionValue.Equal(value))
	assert.Nil(t, updated.MinRating)
	assert.Equal(t, baseTime.Add(time.Hour), updated.UpdatedAt)

	deactivated, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, baseTime.Add(time.Hour).Equal(got.UpdatedAt), "stored updated_at %s", got.UpdatedAt)

	effective, err := svc.ListEffective(ctx, clk.Now())
	require.NoError(t, err)
	assert.Empty(t, effective)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListEffectiveOrdersByPriorityAndWindow(t *testing.T) {
	svc, _ := newTierService(t)
	ctx := context.Background()

	future := baseTime.Add(48 * time.Hour)
	expired := baseTime.Add(-time.Hour)
	past := baseTime.Add(-72 * time.Hour)

	for _, req := range []tierdomain.CreateRequest{
		{Name: "Bronze", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(15), PriorityOrder: 3},
		{Name: "Gold", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(10), PriorityOrder: 1},
		{Name: "Silver", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(12), PriorityOrder: 2},
		{Name: "Platinum", CommissionType: "percentage", CommissionValue: decimal.NewFromInt(8), PriorityOrder: 0, EffectiveFrom: &future},
		{Name: "Legacy", CommissionType: "flat", CommissionValue: decimal.NewFromInt(500), PriorityOrder: 0, EffectiveFrom: &past, EffectiveUntil: &expired},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	items, err := svc.ListEffective(ctx, baseTime)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Gold", items[0].Name)
	assert.Equal(t, "Silver", items[1].Name)
	assert.Equal(t, "Bronze", items[2].Name)
}

func TestGetTierErrors(t *testing.T) {
	svc, _ := newTierService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, tierdomain.ErrInvalidID)

	_, err = svc.Get(ctx, "12345")
	assert.ErrorIs(t, err, tierdomain.ErrNotFound)
}
