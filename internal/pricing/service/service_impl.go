package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	"github.com/smallbiznis/tourhub/internal/clock"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/smallbiznis/tourhub/internal/observability/metrics"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	PricingCfg   *config.PricingConfigHolder
	CatalogRepo  catalogdomain.Repository
	VendorRepo   vendordomain.Repository
	TierRepo     tierdomain.Repository
	OverrideRepo overridedomain.Repository
}

// Service resolves platform fees. It holds no mutable state and is safe for concurrent use.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	pricingCfg   *config.PricingConfigHolder
	catalogRepo  catalogdomain.Repository
	vendorRepo   vendordomain.Repository
	tierRepo     tierdomain.Repository
	overrideRepo overridedomain.Repository
	metrics      *metrics.EngineMetrics
}

func New(p Params) pricingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("pricing.service"),
		clock:        p.Clock,
		pricingCfg:   p.PricingCfg,
		catalogRepo:  p.CatalogRepo,
		vendorRepo:   p.VendorRepo,
		tierRepo:     p.TierRepo,
		overrideRepo: p.OverrideRepo,
		metrics:      metrics.Engine(),
	}
}

var tracer = otel.Tracer("tourhub/pricing")

func (s *Service) Resolve(ctx context.Context, serviceID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*pricingdomain.FeeResolution, error) {
	req := s.newRequest(s.db, basePrice, asOf)
	req.serviceID = serviceID
	req.result.ServiceID = serviceID.String()

	return s.resolve(ctx, "pricing.Resolve", req,
		s.loadService,
		s.loadVendor,
		s.overrideStage,
		s.tierStage,
		s.defaultStage,
	)
}

func (s *Service) ResolveForVendor(ctx context.Context, vendorID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*pricingdomain.FeeResolution, error) {
	return s.ResolveForVendorInTx(ctx, s.db, vendorID, basePrice, asOf)
}

func (s *Service) ResolveForVendorInTx(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*pricingdomain.FeeResolution, error) {
	req := s.newRequest(tx, basePrice, asOf)
	req.vendorID = vendorID
	req.result.VendorID = vendorID.String()

	return s.resolve(ctx, "pricing.ResolveForVendor", req,
		s.loadVendor,
		s.tierStage,
		s.defaultStage,
	)
}

func (s *Service) Preview(ctx context.Context, serviceID snowflake.ID, quantity int64, asOf time.Time) (*pricingdomain.FeeResolution, error) {
	if quantity <= 0 {
		return nil, pricingdomain.ErrInvalidQuantity
	}

	service, err := s.catalogRepo.FindByID(ctx, s.db, serviceID)
	if err != nil {
		s.metrics.IncResolutionError("storage")
		return nil, pricingdomain.NewStorageError("load service", err)
	}
	if service == nil {
		s.metrics.IncResolutionError("not_found")
		return pricingdomain.NotFound(serviceID.String(), "", requestedAsOf(asOf)), pricingdomain.ErrServiceNotFound
	}

	req := s.newRequest(s.db, service.Price.Mul(decimal.NewFromInt(quantity)), asOf)
	req.serviceID = serviceID
	req.service = service
	req.result.ServiceID = serviceID.String()

	return s.resolve(ctx, "pricing.Preview", req,
		s.loadService,
		s.loadVendor,
		s.overrideStage,
		s.tierStage,
		s.defaultStage,
	)
}

func (s *Service) newRequest(db *gorm.DB, basePrice decimal.Decimal, asOf time.Time) *request {
	at := s.asOf(asOf)
	return &request{
		db:        db,
		asOf:      at,
		basePrice: basePrice,
		result: &pricingdomain.FeeResolution{
			Success: true,
			AsOf:    requestedAsOf(asOf),
		},
	}
}

func requestedAsOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return time.Time{}
	}
	return asOf.UTC()
}

func (s *Service) asOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.clock.Now()
	}
	return asOf.UTC()
}

func (s *Service) resolve(ctx context.Context, name string, req *request, stages ...stage) (*pricingdomain.FeeResolution, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(
		attribute.String("pricing.service_id", req.result.ServiceID),
		attribute.String("pricing.vendor_id", req.result.VendorID),
		attribute.String("pricing.as_of", req.asOf.Format(time.RFC3339)),
	)

	if req.basePrice.IsNegative() {
		span.SetStatus(codes.Error, pricingdomain.ErrInvalidBasePrice.Error())
		s.metrics.IncResolutionError("validation")
		return nil, pricingdomain.ErrInvalidBasePrice
	}

	if err := run(ctx, req, stages...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, pricingdomain.ErrServiceNotFound) || errors.Is(err, pricingdomain.ErrVendorNotFound) {
			s.metrics.IncResolutionError("not_found")
			return pricingdomain.NotFound(req.result.ServiceID, req.result.VendorID, req.result.AsOf), err
		}

		s.metrics.IncResolutionError("storage")
		s.log.Error("fee resolution failed",
			zap.String("service_id", req.result.ServiceID),
			zap.String("vendor_id", req.result.VendorID),
			zap.Error(err),
		)
		return nil, err
	}

	res := req.result
	span.SetAttributes(
		attribute.String("pricing.source", string(res.PricingSource)),
		attribute.String("pricing.reference_id", res.PricingReferenceID),
	)
	s.metrics.IncFeeResolution(string(res.PricingSource), string(res.FeePayer))
	return res, nil
}
