package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
	"github.com/smallbiznis/tourhub/internal/clock"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/smallbiznis/tourhub/internal/config"
	obscontext "github.com/smallbiznis/tourhub/internal/observability/context"
	"github.com/smallbiznis/tourhub/internal/observability/metrics"
	"github.com/smallbiznis/tourhub/internal/ratelimit"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobTierEvaluation    = "tier_evaluation"
	JobManualTierCleanup = "manual_tier_cleanup"

	historyLimit = 100
)

// VendorLocker serialises tier writes for one vendor across processes.
type VendorLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	PricingCfg  *config.PricingConfigHolder
	VendorRepo  vendordomain.Repository
	TierRepo    tierdomain.Repository
	BookingRepo bookingdomain.Repository
	HistoryRepo tieringdomain.HistoryRepository
	Locker      VendorLocker `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	pricingCfg  *config.PricingConfigHolder
	vendorRepo  vendordomain.Repository
	tierRepo    tierdomain.Repository
	bookingRepo bookingdomain.Repository
	historyRepo tieringdomain.HistoryRepository
	locker      VendorLocker
	metrics     *metrics.EngineMetrics
}

func New(p Params) tieringdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("tiering.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		pricingCfg:  p.PricingCfg,
		vendorRepo:  p.VendorRepo,
		tierRepo:    p.TierRepo,
		bookingRepo: p.BookingRepo,
		historyRepo: p.HistoryRepo,
		locker:      p.Locker,
		metrics:     metrics.Engine(),
	}
}

var tracer = otel.Tracer("tourhub/tiering")

// change is one planned write to a vendor's tier fields.
type change struct {
	patch   vendordomain.TierPatch
	source  tieringdomain.ChangeSource
	from    *snowflake.ID
	to      *snowflake.ID
	reason  string
	metrics *tieringdomain.Metrics
}

func (c change) moves() bool {
	return !sameID(c.from, c.to)
}

func (s *Service) RunMonthlyEvaluation(ctx context.Context) (*tieringdomain.BatchResult, error) {
	ctx, span := tracer.Start(ctx, "tiering.RunMonthlyEvaluation")
	defer span.End()

	now := s.clock.Now()
	result := &tieringdomain.BatchResult{Job: JobTierEvaluation, RunAt: now}

	tiers, err := s.effectiveTiers(ctx, now)
	if err != nil {
		return result, err
	}

	err = s.eachVendor(ctx, func(ctx context.Context, afterID snowflake.ID, limit int) ([]vendordomain.Vendor, error) {
		return s.vendorRepo.ListApproved(ctx, s.db, afterID, limit)
	}, func(ctx context.Context, vendor vendordomain.Vendor) {
		result.Scanned++
		skipped, moved, err := s.withVendorLock(ctx, vendor.ID, func(ctx context.Context) (bool, bool, error) {
			return s.evaluate(ctx, vendor.ID, tiers, now)
		})
		switch {
		case err != nil:
			result.Fail(vendor.ID, err)
		case skipped:
			result.Skipped++
		case moved:
			result.Changed++
		default:
			result.Unchanged++
		}
	})

	s.logBatch(result, err)
	span.SetAttributes(
		attribute.Int("tiering.scanned", result.Scanned),
		attribute.Int("tiering.changed", result.Changed),
		attribute.Int("tiering.failed", len(result.Failures)),
	)
	if err != nil {
		return result, err
	}
	return result, result.Err()
}

func (s *Service) CleanupExpiredManualTiers(ctx context.Context) (*tieringdomain.BatchResult, error) {
	ctx, span := tracer.Start(ctx, "tiering.CleanupExpiredManualTiers")
	defer span.End()

	now := s.clock.Now()
	result := &tieringdomain.BatchResult{Job: JobManualTierCleanup, RunAt: now}

	tiers, err := s.effectiveTiers(ctx, now)
	if err != nil {
		return result, err
	}

	err = s.eachVendor(ctx, func(ctx context.Context, afterID snowflake.ID, limit int) ([]vendordomain.Vendor, error) {
		return s.vendorRepo.ListExpiredManual(ctx, s.db, now, afterID, limit)
	}, func(ctx context.Context, vendor vendordomain.Vendor) {
		result.Scanned++
		skipped, moved, err := s.withVendorLock(ctx, vendor.ID, func(ctx context.Context) (bool, bool, error) {
			return s.expire(ctx, vendor.ID, tiers, now)
		})
		switch {
		case err != nil:
			result.Fail(vendor.ID, err)
		case skipped:
			result.Skipped++
		case moved:
			result.Changed++
		default:
			result.Unchanged++
		}
	})

	s.logBatch(result, err)
	span.SetAttributes(
		attribute.Int("tiering.scanned", result.Scanned),
		attribute.Int("tiering.failed", len(result.Failures)),
	)
	if err != nil {
		return result, err
	}
	return result, result.Err()
}

func (s *Service) AssignManualTier(ctx context.Context, req tieringdomain.AssignManualTierRequest) (*tieringdomain.VendorTierResponse, error) {
	vendorID, err := parseID(req.VendorID)
	if err != nil {
		return nil, tieringdomain.ErrInvalidVendor
	}
	tierID, err := parseID(req.TierID)
	if err != nil {
		return nil, tieringdomain.ErrInvalidTier
	}

	now := s.clock.Now()
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		v := req.ExpiresAt.UTC()
		if !v.After(now) {
			return nil, tieringdomain.ErrInvalidExpiry
		}
		expiresAt = &v
	}

	tier, err := s.tierRepo.FindEffectiveByID(ctx, s.db, tierID, now)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, tieringdomain.ErrTierNotEffective
	}

	actor := actorID(ctx)
	_, _, err = s.withVendorLock(ctx, vendorID, func(ctx context.Context) (bool, bool, error) {
		vendor, err := s.loadVendor(ctx, vendorID)
		if err != nil {
			return false, false, err
		}
		if vendor.Status != vendordomain.StatusApproved {
			return false, false, tieringdomain.ErrVendorNotApproved
		}

		c := change{
			patch: vendordomain.TierPatch{
				Manual: &vendordomain.ManualTier{
					TierID:     tier.ID,
					ExpiresAt:  expiresAt,
					Reason:     strings.TrimSpace(req.Reason),
					AssignedBy: actor,
				},
			},
			source: tieringdomain.SourceManual,
			from:   vendor.EffectiveTierID(now),
			to:     &tier.ID,
			reason: strings.TrimSpace(req.Reason),
		}
		return false, true, s.apply(ctx, vendor, c, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("manual tier assigned",
		zap.String("vendor_id", vendorID.String()),
		zap.String("tier_id", tier.ID.String()),
		zap.String("assigned_by", actor),
	)
	return s.describe(ctx, vendorID)
}

func (s *Service) RemoveManualTier(ctx context.Context, vendorID string, reason string) (*tieringdomain.VendorTierResponse, error) {
	id, err := parseID(vendorID)
	if err != nil {
		return nil, tieringdomain.ErrInvalidVendor
	}

	now := s.clock.Now()
	tiers, err := s.effectiveTiers(ctx, now)
	if err != nil {
		return nil, err
	}

	_, _, err = s.withVendorLock(ctx, id, func(ctx context.Context) (bool, bool, error) {
		vendor, err := s.loadVendor(ctx, id)
		if err != nil {
			return false, false, err
		}
		if vendor.ManualTierID == nil {
			return false, false, tieringdomain.ErrNoManualTier
		}

		c, err := s.automaticChange(ctx, vendor, tiers, now)
		if err != nil {
			return false, false, err
		}
		c.patch.ClearManual = true
		c.source = tieringdomain.SourceRemoval
		c.from = vendor.EffectiveTierID(now)
		c.reason = strings.TrimSpace(reason)
		return false, true, s.apply(ctx, vendor, c, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("manual tier removed", zap.String("vendor_id", id.String()), zap.String("removed_by", actorID(ctx)))
	return s.describe(ctx, id)
}

func (s *Service) EvaluateVendor(ctx context.Context, vendorID string) (*tieringdomain.VendorTierResponse, error) {
	id, err := parseID(vendorID)
	if err != nil {
		return nil, tieringdomain.ErrInvalidVendor
	}

	now := s.clock.Now()
	tiers, err := s.effectiveTiers(ctx, now)
	if err != nil {
		return nil, err
	}

	_, _, err = s.withVendorLock(ctx, id, func(ctx context.Context) (bool, bool, error) {
		return s.evaluate(ctx, id, tiers, now)
	})
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, id)
}

func (s *Service) History(ctx context.Context, vendorID string) ([]tieringdomain.VendorTierHistory, error) {
	id, err := parseID(vendorID)
	if err != nil {
		return nil, tieringdomain.ErrInvalidVendor
	}
	if _, err := s.loadVendor(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByVendor(ctx, s.db, id, historyLimit)
}

// evaluate runs the monthly transition for one vendor. It reloads the vendor so
// the decision is made on the row the conditional update will check.
func (s *Service) evaluate(ctx context.Context, vendorID snowflake.ID, tiers []tierdomain.CommissionTier, now time.Time) (skipped bool, moved bool, err error) {
	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return false, false, err
	}

	switch tieringdomain.StateOf(*vendor, now) {
	case tieringdomain.StateManuallyTieredActive:
		return true, false, nil
	case tieringdomain.StateManuallyTieredExpired:
		return s.expireLoaded(ctx, vendor, tiers, now)
	}

	c, err := s.automaticChange(ctx, vendor, tiers, now)
	if err != nil {
		return false, false, err
	}
	if err := s.apply(ctx, vendor, c, now); err != nil {
		return false, false, err
	}
	return false, c.moves(), nil
}

// expire runs the cleanup transition for one vendor.
func (s *Service) expire(ctx context.Context, vendorID snowflake.ID, tiers []tierdomain.CommissionTier, now time.Time) (bool, bool, error) {
	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return false, false, err
	}
	if tieringdomain.StateOf(*vendor, now) != tieringdomain.StateManuallyTieredExpired {
		return true, false, nil
	}
	return s.expireLoaded(ctx, vendor, tiers, now)
}

func (s *Service) expireLoaded(ctx context.Context, vendor *vendordomain.Vendor, tiers []tierdomain.CommissionTier, now time.Time) (bool, bool, error) {
	c, err := s.automaticChange(ctx, vendor, tiers, now)
	if err != nil {
		return false, false, err
	}
	c.patch.ClearManual = true
	c.source = tieringdomain.SourceExpiry
	c.from = vendor.ManualTierID
	c.reason = "manual tier expired"
	if err := s.apply(ctx, vendor, c, now); err != nil {
		return false, false, err
	}
	return false, true, nil
}

// automaticChange computes the metrics-driven tier for vendor.
func (s *Service) automaticChange(ctx context.Context, vendor *vendordomain.Vendor, tiers []tierdomain.CommissionTier, now time.Time) (change, error) {
	m, err := s.metricsFor(ctx, vendor, now)
	if err != nil {
		return change{}, err
	}

	c := change{
		patch:   vendordomain.TierPatch{EvaluatedAt: &now},
		source:  tieringdomain.SourceAutomatic,
		from:    vendor.CurrentTierID,
		metrics: &m,
	}

	selected := tieringdomain.SelectTier(m, tiers)
	if selected == nil {
		return c, nil
	}

	id := selected.ID
	c.to = &id
	if !sameID(vendor.CurrentTierID, c.to) || !vendor.CurrentCommissionRate.Valid {
		rate := selected.CommissionValue
		c.patch.CurrentTierID = &id
		c.patch.CurrentCommissionRate = &rate
	}
	return c, nil
}

func (s *Service) metricsFor(ctx context.Context, vendor *vendordomain.Vendor, now time.Time) (tieringdomain.Metrics, error) {
	cfg := s.pricingCfg.Get().Tiering
	from, to := cfg.MonthWindow(now)

	count, err := s.bookingRepo.CountCompleted(ctx, s.db, vendor.ID, from, to)
	if err != nil {
		return tieringdomain.Metrics{}, fmt.Errorf("count completed bookings: %w", err)
	}

	m := tieringdomain.Metrics{MonthlyBookings: count, RatingExempt: cfg.RatingExempt}
	if vendor.AverageRating != nil {
		r := *vendor.AverageRating
		m.AverageRating = &r
	} else if cfg.PlaceholderRating > 0 {
		r := cfg.PlaceholderRating
		m.AverageRating = &r
	}
	return m, nil
}

// apply writes c with an optimistic version check and records history for real moves.
func (s *Service) apply(ctx context.Context, vendor *vendordomain.Vendor, c change, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.vendorRepo.UpdateTier(ctx, tx, vendor.ID, vendor.TierVersion, c.patch, now)
		if err != nil {
			return err
		}
		if !ok {
			return vendordomain.ErrConflict
		}
		if !c.moves() {
			return nil
		}

		entry := &tieringdomain.VendorTierHistory{
			ID:         s.genID.Generate(),
			VendorID:   vendor.ID,
			FromTierID: c.from,
			ToTierID:   c.to,
			Source:     c.source,
			Reason:     c.reason,
			ChangedBy:  actorID(ctx),
			CreatedAt:  now,
		}
		if c.metrics != nil {
			bookings := c.metrics.MonthlyBookings
			entry.MonthlyBookings = &bookings
			entry.AverageRating = c.metrics.AverageRating
		}
		if err := s.historyRepo.Insert(ctx, tx, entry); err != nil {
			return err
		}

		s.metrics.IncTierChange(string(c.source))
		return nil
	})
}

func (s *Service) withVendorLock(ctx context.Context, vendorID snowflake.ID, fn func(ctx context.Context) (bool, bool, error)) (bool, bool, error) {
	if s.locker == nil {
		return fn(ctx)
	}

	key := ratelimit.VendorTierKey(vendorID.String())
	token, ok, err := s.locker.TryLock(ctx, key, s.pricingCfg.Get().Tiering.LockTTL)
	if err != nil {
		return false, false, fmt.Errorf("lock vendor: %w", err)
	}
	if !ok {
		return false, false, tieringdomain.ErrVendorBusy
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release vendor tier lock failed", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		}
	}()
	return fn(ctx)
}

type pageFunc func(ctx context.Context, afterID snowflake.ID, limit int) ([]vendordomain.Vendor, error)

// eachVendor pages through vendors by id. A page read failure stops the batch;
// per-vendor failures are the visitor's concern.
func (s *Service) eachVendor(ctx context.Context, page pageFunc, visit func(ctx context.Context, vendor vendordomain.Vendor)) error {
	limit := s.pricingCfg.Get().Tiering.BatchSize
	if limit <= 0 {
		limit = 100
	}

	var afterID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		items, err := page(ctx, afterID, limit)
		if err != nil {
			return err
		}
		for _, vendor := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			visit(ctx, vendor)
		}
		if len(items) < limit {
			return nil
		}
		afterID = items[len(items)-1].ID
	}
}

func (s *Service) effectiveTiers(ctx context.Context, now time.Time) ([]tierdomain.CommissionTier, error) {
	tiers, err := s.tierRepo.ListEffective(ctx, s.db, now)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, tieringdomain.ErrNoTiers
	}
	tieringdomain.OrderBestFirst(tiers)
	return tiers, nil
}

func (s *Service) loadVendor(ctx context.Context, id snowflake.ID) (*vendordomain.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, vendordomain.ErrNotFound
	}
	return vendor, nil
}

func (s *Service) describe(ctx context.Context, id snowflake.ID) (*tieringdomain.VendorTierResponse, error) {
	vendor, err := s.loadVendor(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := &tieringdomain.VendorTierResponse{
		VendorID:              vendor.ID.String(),
		State:                 tieringdomain.StateOf(*vendor, now),
		EffectiveTierID:       idString(vendor.EffectiveTierID(now)),
		CurrentTierID:         idString(vendor.CurrentTierID),
		CurrentCommissionRate: vendor.CurrentCommissionRate,
		ManualTierID:          idString(vendor.ManualTierID),
		ManualTierExpiresAt:   vendor.ManualTierExpiresAt,
		LastTierEvaluatedAt:   vendor.LastTierEvaluatedAt,
	}
	if vendor.ManualTierReason != nil {
		resp.ManualTierReason = *vendor.ManualTierReason
	}
	return resp, nil
}

func (s *Service) logBatch(result *tieringdomain.BatchResult, err error) {
	fields := []zap.Field{
		zap.String("job", result.Job),
		zap.Int("scanned", result.Scanned),
		zap.Int("changed", result.Changed),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	}
	if err != nil {
		s.log.Error("tier batch aborted", append(fields, zap.Error(err))...)
		return
	}
	for _, f := range result.Failures {
		s.log.Warn("tier batch vendor failed", zap.String("job", result.Job), zap.String("vendor_id", f.VendorID.String()), zap.Error(f.Err))
	}
	s.log.Info("tier batch finished", fields...)
}

func sameID(a, b *snowflake.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func idString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func actorID(ctx context.Context) string {
	_, id := obscontext.ActorFromContext(ctx)
	return id
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
