package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	"github.com/smallbiznis/tourhub/internal/clock"
	"github.com/smallbiznis/tourhub/internal/fee"
	obscontext "github.com/smallbiznis/tourhub/internal/observability/context"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxPercentage = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        overridedomain.Repository
	CatalogRepo catalogdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        overridedomain.Repository
	catalogRepo catalogdomain.Repository
}

// New stamps gorm-managed timestamps with the injected clock.
func New(p Params) overridedomain.Service {
	return &Service{
		db:          p.DB.Session(&gorm.Session{NowFunc: p.Clock.Now}),
		log:         p.Log.Named("priceoverride.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
	}
}

func (s *Service) Create(ctx context.Context, serviceID string, req overridedomain.CreateRequest) (*overridedomain.Response, error) {
	svcID, err := parseID(serviceID)
	if err != nil {
		return nil, overridedomain.ErrInvalidService
	}

	overrideType, err := fee.ParseCommissionType(req.OverrideType)
	if err != nil {
		return nil, err
	}
	payer, err := fee.ParsePayer(req.FeePayer)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}
	enabled := true
	if req.OverrideEnabled != nil {
		enabled = *req.OverrideEnabled
	}

	actor := actorID(ctx)
	entity := &overridedomain.ServicePriceOverride{
		ID:              s.genID.Generate(),
		ServiceID:       svcID,
		OverrideEnabled: enabled,
		OverrideType:    overrideType,
		OverrideValue:   req.OverrideValue,
		FeePayer:        payer,
		EffectiveFrom:   effectiveFrom,
		EffectiveUntil:  utcPtr(req.EffectiveUntil),
		CreatedBy:       actor,
		UpdatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	setSplit(entity, req.TouristPercentage, req.VendorPercentage)
	if err := validate(entity); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service, err := s.catalogRepo.FindByID(ctx, tx, svcID)
		if err != nil {
			return err
		}
		if service == nil {
			return overridedomain.ErrInvalidService
		}
		if err := s.ensureNoOverlap(ctx, tx, entity); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service price override created",
		zap.String("override_id", entity.ID.String()),
		zap.String("service_id", entity.ServiceID.String()),
		zap.String("fee_payer", string(entity.FeePayer)),
	)
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req overridedomain.UpdateRequest) (*overridedomain.Response, error) {
	overrideID, err := parseID(id)
	if err != nil {
		return nil, overridedomain.ErrInvalidID
	}

	var entity *overridedomain.ServicePriceOverride
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, overrideID)
		if err != nil {
			return err
		}
		if found == nil {
			return overridedomain.ErrNotFound
		}
		entity = found

		if err := applyUpdate(entity, req); err != nil {
			return err
		}
		if err := validate(entity); err != nil {
			return err
		}
		if err := s.ensureNoOverlap(ctx, tx, entity); err != nil {
			return err
		}

		entity.UpdatedBy = actorID(ctx)
		entity.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	return toResponse(entity), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	overrideID, err := parseID(id)
	if err != nil {
		return overridedomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, overrideID)
	if err != nil {
		return err
	}
	if entity == nil {
		return overridedomain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, overrideID); err != nil {
		return err
	}

	s.log.Info("service price override deleted",
		zap.String("override_id", entity.ID.String()),
		zap.String("service_id", entity.ServiceID.String()),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*overridedomain.Response, error) {
	overrideID, err := parseID(id)
	if err != nil {
		return nil, overridedomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, overrideID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, overridedomain.ErrNotFound
	}
	return toResponse(entity), nil
}

func (s *Service) ListByService(ctx context.Context, serviceID string) ([]overridedomain.Response, error) {
	svcID, err := parseID(serviceID)
	if err != nil {
		return nil, overridedomain.ErrInvalidService
	}

	items, err := s.repo.ListByService(ctx, s.db, svcID)
	if err != nil {
		return nil, err
	}

	resp := make([]overridedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) FindEffective(ctx context.Context, serviceID string, at time.Time) (*overridedomain.Response, error) {
	svcID, err := parseID(serviceID)
	if err != nil {
		return nil, overridedomain.ErrInvalidService
	}
	if at.IsZero() {
		at = s.clock.Now()
	}

	entity, err := s.repo.FindEffective(ctx, s.db, svcID, at.UTC())
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, overridedomain.ErrNotFound
	}
	return toResponse(entity), nil
}

// ensureNoOverlap rejects a window that intersects another enabled override of the same service.
func (s *Service) ensureNoOverlap(ctx context.Context, tx *gorm.DB, entity *overridedomain.ServicePriceOverride) error {
	if !entity.OverrideEnabled {
		return nil
	}

	existing, err := s.repo.ListByService(ctx, tx, entity.ServiceID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == entity.ID || !other.OverrideEnabled {
			continue
		}
		if other.Overlaps(entity.EffectiveFrom, entity.EffectiveUntil) {
			return overridedomain.ErrOverrideExists
		}
	}
	return nil
}

func applyUpdate(entity *overridedomain.ServicePriceOverride, req overridedomain.UpdateRequest) error {
	if req.OverrideEnabled != nil {
		entity.OverrideEnabled = *req.OverrideEnabled
	}
	if req.OverrideType != nil {
		overrideType, err := fee.ParseCommissionType(*req.OverrideType)
		if err != nil {
			return err
		}
		entity.OverrideType = overrideType
	}
	if req.OverrideValue != nil {
		entity.OverrideValue = *req.OverrideValue
	}
	if req.FeePayer != nil {
		payer, err := fee.ParsePayer(*req.FeePayer)
		if err != nil {
			return err
		}
		entity.FeePayer = payer
	}
	if req.EffectiveFrom != nil {
		entity.EffectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.ClearEffectiveEnd {
		entity.EffectiveUntil = nil
	} else if req.EffectiveUntil != nil {
		entity.EffectiveUntil = utcPtr(req.EffectiveUntil)
	}

	tourist := nullToPtr(entity.TouristPercentage)
	vendor := nullToPtr(entity.VendorPercentage)
	if req.TouristPercentage != nil {
		tourist = req.TouristPercentage
	}
	if req.VendorPercentage != nil {
		vendor = req.VendorPercentage
	}
	setSplit(entity, tourist, vendor)
	return nil
}

// setSplit stores the shared percentages only for shared payers.
func setSplit(entity *overridedomain.ServicePriceOverride, tourist, vendor *decimal.Decimal) {
	entity.TouristPercentage = decimal.NullDecimal{}
	entity.VendorPercentage = decimal.NullDecimal{}
	if entity.FeePayer != fee.PayerShared {
		return
	}
	if tourist != nil {
		entity.TouristPercentage = decimal.NewNullDecimal(*tourist)
	}
	if vendor != nil {
		entity.VendorPercentage = decimal.NewNullDecimal(*vendor)
	}
}

func validate(o *overridedomain.ServicePriceOverride) error {
	if o.OverrideValue.IsNegative() {
		return overridedomain.ErrInvalidOverrideValue
	}
	if o.OverrideType == fee.CommissionPercentage && o.OverrideValue.GreaterThan(maxPercentage) {
		return overridedomain.ErrInvalidOverrideValue
	}
	if o.FeePayer == fee.PayerShared {
		if !o.TouristPercentage.Valid || !o.VendorPercentage.Valid {
			return overridedomain.ErrInvalidSplit
		}
		if !fee.ValidateSharedSplit(o.TouristPercentage.Decimal, o.VendorPercentage.Decimal) {
			return overridedomain.ErrInvalidSplit
		}
	}
	if o.EffectiveUntil != nil && o.EffectiveUntil.Before(o.EffectiveFrom) {
		return overridedomain.ErrInvalidEffectiveWindow
	}
	return nil
}

func toResponse(o *overridedomain.ServicePriceOverride) *overridedomain.Response {
	return &overridedomain.Response{
		ID:                o.ID.String(),
		ServiceID:         o.ServiceID.String(),
		OverrideEnabled:   o.OverrideEnabled,
		OverrideType:      string(o.OverrideType),
		OverrideValue:     o.OverrideValue,
		FeePayer:          string(o.FeePayer),
		TouristPercentage: o.TouristPercentage,
		VendorPercentage:  o.VendorPercentage,
		EffectiveFrom:     o.EffectiveFrom,
		EffectiveUntil:    o.EffectiveUntil,
		CreatedBy:         o.CreatedBy,
		UpdatedBy:         o.UpdatedBy,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func nullToPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func actorID(ctx context.Context) string {
	_, id := obscontext.ActorFromContext(ctx)
	return id
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
