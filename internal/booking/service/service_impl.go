package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
	"github.com/smallbiznis/tourhub/internal/clock"
	"github.com/smallbiznis/tourhub/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       bookingdomain.Repository
	PricingSvc pricingdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       bookingdomain.Repository
	pricingSvc pricingdomain.Service
	metrics    *metrics.EngineMetrics
}

func New(p Params) bookingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("booking.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		pricingSvc: p.PricingSvc,
		metrics:    metrics.Engine(),
	}
}

func (s *Service) ApplyCommission(ctx context.Context, req bookingdomain.ApplyCommissionRequest) (*bookingdomain.BookingDetail, error) {
	var detail *bookingdomain.BookingDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		detail, err = s.ApplyCommissionInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) ApplyCommissionInTx(ctx context.Context, tx *gorm.DB, req bookingdomain.ApplyCommissionRequest) (*bookingdomain.BookingDetail, error) {
	bookingID, err := parseID(req.BookingID)
	if err != nil {
		return nil, bookingdomain.ErrInvalidID
	}
	vendorID, err := parseID(req.VendorID)
	if err != nil {
		return nil, bookingdomain.ErrInvalidVendor
	}
	if req.ServicePrice.IsNegative() {
		return nil, bookingdomain.ErrInvalidServicePrice
	}

	booking, err := s.repo.FindByID(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrNotFound
	}
	if booking.VendorID != vendorID {
		return nil, bookingdomain.ErrVendorMismatch
	}
	if booking.Status == bookingdomain.StatusCancelled {
		return nil, bookingdomain.ErrBookingCancelled
	}
	if booking.HasSnapshot() {
		s.metrics.IncSnapshot("already_applied")
		return s.detail(ctx, tx, bookingID)
	}

	now := s.clock.Now()
	resolution, err := s.pricingSvc.ResolveForVendorInTx(ctx, tx, vendorID, req.ServicePrice, now)
	if err != nil {
		s.metrics.IncSnapshot("failed")
		if errors.Is(err, pricingdomain.ErrVendorNotFound) {
			return nil, bookingdomain.ErrInvalidVendor
		}
		return nil, err
	}

	written, err := s.repo.WriteSnapshot(ctx, tx, bookingID, bookingdomain.Snapshot{
		CommissionRate:   resolution.CommissionRate,
		CommissionAmount: resolution.PlatformFee,
		VendorPayout:     resolution.VendorPayout,
		TakenAt:          now,
	})
	if err != nil {
		s.metrics.IncSnapshot("failed")
		return nil, err
	}
	if !written {
		s.metrics.IncSnapshot("already_applied")
		return s.detail(ctx, tx, bookingID)
	}

	s.metrics.IncSnapshot("applied")
	s.log.Info("booking commission snapshot written",
		zap.String("booking_id", bookingID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.String("pricing_reference_id", resolution.PricingReferenceID),
		zap.String("commission_amount", resolution.PlatformFee.String()),
	)
	return s.detail(ctx, tx, bookingID)
}

func (s *Service) Get(ctx context.Context, id string) (*bookingdomain.BookingDetail, error) {
	bookingID, err := parseID(id)
	if err != nil {
		return nil, bookingdomain.ErrInvalidID
	}
	return s.detail(ctx, s.db, bookingID)
}

func (s *Service) detail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.BookingDetail, error) {
	detail, err := s.repo.FindDetail(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, bookingdomain.ErrNotFound
	}
	return detail, nil
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
