package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func tier(id int64, name string, minBookings int64, minRating *float64, priority int) tierdomain.CommissionTier {
	return tierdomain.CommissionTier{
		ID:                 snowflake.ID(id),
		Name:               name,
		MinMonthlyBookings: minBookings,
		MinRating:          minRating,
		PriorityOrder:      priority,
		IsActive:           true,
	}
}

// Gold is the best tier, so it carries the lowest priority_order.
func ladder() []tierdomain.CommissionTier {
	return []tierdomain.CommissionTier{
		tier(1, "Gold", 25, rating(4.5), 1),
		tier(2, "Silver", 10, rating(4.0), 2),
		tier(3, "Bronze", 0, nil, 3),
	}
}

func TestBestTierSelectsGoldForStrongVendor(t *testing.T) {
	got, ok := BestTier(Metrics{MonthlyBookings: 30, AverageRating: rating(4.8)}, ladder())
	require.True(t, ok)
	assert.Equal(t, "Gold", got.Name)
}

func TestBestTierScenarios(t *testing.T) {
	cases := []struct {
		name    string
		metrics Metrics
		want    string
	}{
		{"bookings short of gold", Metrics{MonthlyBookings: 24, AverageRating: rating(4.9)}, "Silver"},
		{"rating short of gold", Metrics{MonthlyBookings: 40, AverageRating: rating(4.2)}, "Silver"},
		{"rating short of silver", Metrics{MonthlyBookings: 40, AverageRating: rating(3.9)}, "Bronze"},
		{"no rating", Metrics{MonthlyBookings: 40}, "Bronze"},
		{"rating exempt", Metrics{MonthlyBookings: 40, RatingExempt: true}, "Gold"},
		{"new vendor", Metrics{}, "Bronze"},
		{"exact thresholds", Metrics{MonthlyBookings: 10, AverageRating: rating(4.0)}, "Silver"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BestTier(tc.metrics, ladder())
			require.True(t, ok)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestBestTierReturnsFirstMatchNotLater(t *testing.T) {
	tiers := ladder()
	m := Metrics{MonthlyBookings: 12, AverageRating: rating(4.1)}

	before, ok := BestTier(m, tiers)
	require.True(t, ok)
	require.Equal(t, "Silver", before.Name)

	// Loosening a worse tier never pulls the vendor down.
	tiers[2].MinMonthlyBookings = 0
	tiers[2].MinRating = nil
	after, ok := BestTier(m, tiers)
	require.True(t, ok)
	assert.Equal(t, "Silver", after.Name)
}

func TestSelectTierFallsBackToFloor(t *testing.T) {
	tiers := []tierdomain.CommissionTier{
		tier(1, "Gold", 25, rating(4.5), 1),
		tier(2, "Silver", 10, rating(4.0), 2),
	}

	_, ok := BestTier(Metrics{MonthlyBookings: 2}, tiers)
	assert.False(t, ok)

	got := SelectTier(Metrics{MonthlyBookings: 2}, tiers)
	require.NotNil(t, got)
	assert.Equal(t, "Silver", got.Name)

	assert.Nil(t, SelectTier(Metrics{}, nil))
}

func TestOrderBestFirst(t *testing.T) {
	tiers := []tierdomain.CommissionTier{
		tier(9, "Bronze", 0, nil, 3),
		tier(5, "Gold", 25, nil, 1),
		tier(7, "Silver-B", 10, nil, 2),
		tier(6, "Silver-A", 10, nil, 2),
	}
	OrderBestFirst(tiers)

	names := make([]string, 0, len(tiers))
	for _, tr := range tiers {
		names = append(names, tr.Name)
	}
	assert.Equal(t, []string{"Gold", "Silver-A", "Silver-B", "Bronze"}, names)
}

// A ladder numbered worst first puts an unconditional tier at priority 1, and
// that tier wins for every vendor. Priority order is authoritative; thresholds
// are not used to re-rank.
func TestSelectTierHonoursPriorityOverThresholds(t *testing.T) {
	tiers := []tierdomain.CommissionTier{
		tier(1, "Bronze", 0, nil, 1),
		tier(2, "Silver", 10, rating(4.0), 2),
		tier(3, "Gold", 25, rating(4.5), 3),
	}
	OrderBestFirst(tiers)

	got := SelectTier(Metrics{MonthlyBookings: 30, AverageRating: rating(4.8)}, tiers)
	require.NotNil(t, got)
	assert.Equal(t, "Bronze", got.Name)
}
