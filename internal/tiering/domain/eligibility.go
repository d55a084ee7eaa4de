package domain

import (
	"sort"

	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
)

// Metrics are a vendor's performance figures for one evaluation period.
type Metrics struct {
	MonthlyBookings int64
	AverageRating   *float64
	// RatingExempt ignores every tier's min_rating.
	RatingExempt bool
}

// Eligible reports whether m meets the tier's booking and rating thresholds.
// A tier with a rating floor excludes vendors without a rating unless exempt.
func (m Metrics) Eligible(tier tierdomain.CommissionTier) bool {
	if m.MonthlyBookings < tier.MinMonthlyBookings {
		return false
	}
	if tier.MinRating == nil || m.RatingExempt {
		return true
	}
	return m.AverageRating != nil && *m.AverageRating >= *tier.MinRating
}

// OrderBestFirst sorts tiers by ascending priority_order, breaking ties by id.
func OrderBestFirst(tiers []tierdomain.CommissionTier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].PriorityOrder != tiers[j].PriorityOrder {
			return tiers[i].PriorityOrder < tiers[j].PriorityOrder
		}
		return tiers[i].ID < tiers[j].ID
	})
}

// BestTier scans tiers, which must already be ordered best first, and returns
// the first one m is eligible for.
func BestTier(m Metrics, tiers []tierdomain.CommissionTier) (*tierdomain.CommissionTier, bool) {
	for i := range tiers {
		if m.Eligible(tiers[i]) {
			return &tiers[i], true
		}
	}
	return nil, false
}

// SelectTier is BestTier with the floor fallback: when nothing matches, the
// last (lowest) tier is returned. It returns nil only for an empty list.
func SelectTier(m Metrics, tiers []tierdomain.CommissionTier) *tierdomain.CommissionTier {
	if tier, ok := BestTier(m, tiers); ok {
		return tier
	}
	if len(tiers) == 0 {
		return nil
	}
	return &tiers[len(tiers)-1]
}
