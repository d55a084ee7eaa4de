package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tourhub/internal/clock"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/smallbiznis/tourhub/internal/fee"
	obscontext "github.com/smallbiznis/tourhub/internal/observability/context"
	dbpkg "github.com/smallbiznis/tourhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxPercentage = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  tierdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  tierdomain.Repository
}

// New stamps gorm-managed timestamps with the injected clock.
func New(p Params) tierdomain.Service {
	return &Service{
		db:    p.DB.Session(&gorm.Session{NowFunc: p.Clock.Now}),
		log:   p.Log.Named("commissiontier.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req tierdomain.CreateRequest) (*tierdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tierdomain.ErrInvalidName
	}

	commissionType, err := fee.ParseCommissionType(req.CommissionType)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	actor := actorID(ctx)
	entity := &tierdomain.CommissionTier{
		ID:                 s.genID.Generate(),
		Name:               name,
		CommissionType:     commissionType,
		CommissionValue:    req.CommissionValue,
		MinMonthlyBookings: req.MinMonthlyBookings,
		MinRating:          req.MinRating,
		PriorityOrder:      req.PriorityOrder,
		EffectiveFrom:      effectiveFrom,
		EffectiveUntil:     utcPtr(req.EffectiveUntil),
		IsActive:           true,
		CreatedBy:          actor,
		UpdatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := validate(entity); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, tierdomain.ErrDuplicateName
		}
		return nil, err
	}

	s.log.Info("commission tier created",
		zap.String("tier_id", entity.ID.String()),
		zap.String("name", entity.Name),
		zap.Int("priority_order", entity.PriorityOrder),
	)
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req tierdomain.UpdateRequest) (*tierdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		entity.Name = strings.TrimSpace(*req.Name)
	}
	if req.CommissionType != nil {
		commissionType, err := fee.ParseCommissionType(*req.CommissionType)
		if err != nil {
			return nil, err
		}
		entity.CommissionType = commissionType
	}
	if req.CommissionValue != nil {
		entity.CommissionValue = *req.CommissionValue
	}
	if req.MinMonthlyBookings != nil {
		entity.MinMonthlyBookings = *req.MinMonthlyBookings
	}
	if req.ClearMinRating {
		entity.MinRating = nil
	} else if req.MinRating != nil {
		entity.MinRating = req.MinRating
	}
	if req.PriorityOrder != nil {
		entity.PriorityOrder = *req.PriorityOrder
	}
	if req.EffectiveFrom != nil {
		entity.EffectiveFrom = req.EffectiveFrom.UTC()
	}
	if req.ClearEffectiveEnd {
		entity.EffectiveUntil = nil
	} else if req.EffectiveUntil != nil {
		entity.EffectiveUntil = utcPtr(req.EffectiveUntil)
	}
	if req.IsActive != nil {
		entity.IsActive = *req.IsActive
	}

	if err := validate(entity); err != nil {
		return nil, err
	}

	entity.UpdatedBy = actorID(ctx)
	entity.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, tierdomain.ErrDuplicateName
		}
		return nil, err
	}

	return toResponse(entity), nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (*tierdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.IsActive {
		return toResponse(entity), nil
	}

	entity.IsActive = false
	entity.UpdatedBy = actorID(ctx)
	entity.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("commission tier deactivated", zap.String("tier_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*tierdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context) ([]tierdomain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ListEffective(ctx context.Context, at time.Time) ([]tierdomain.Response, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}
	items, err := s.repo.ListEffective(ctx, s.db, at.UTC())
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) load(ctx context.Context, id string) (*tierdomain.CommissionTier, error) {
	tierID, err := parseID(id)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tierID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tierdomain.ErrNotFound
	}
	return entity, nil
}

func validate(t *tierdomain.CommissionTier) error {
	if t.Name == "" {
		return tierdomain.ErrInvalidName
	}
	if t.CommissionValue.IsNegative() {
		return tierdomain.ErrInvalidCommissionValue
	}
	if t.CommissionType == fee.CommissionPercentage && t.CommissionValue.GreaterThan(maxPercentage) {
		return tierdomain.ErrInvalidCommissionValue
	}
	if t.MinMonthlyBookings < 0 {
		return tierdomain.ErrInvalidMinBookings
	}
	if t.MinRating != nil && (*t.MinRating < 0 || *t.MinRating > 5) {
		return tierdomain.ErrInvalidMinRating
	}
	if t.PriorityOrder < 0 {
		return tierdomain.ErrInvalidPriority
	}
	if t.EffectiveUntil != nil && t.EffectiveUntil.Before(t.EffectiveFrom) {
		return tierdomain.ErrInvalidEffectiveWindow
	}
	return nil
}

func toResponse(t *tierdomain.CommissionTier) *tierdomain.Response {
	return &tierdomain.Response{
		ID:                 t.ID.String(),
		Name:               t.Name,
		CommissionType:     string(t.CommissionType),
		CommissionValue:    t.CommissionValue,
		MinMonthlyBookings: t.MinMonthlyBookings,
		MinRating:          t.MinRating,
		PriorityOrder:      t.PriorityOrder,
		EffectiveFrom:      t.EffectiveFrom,
		EffectiveUntil:     t.EffectiveUntil,
		IsActive:           t.IsActive,
		CreatedBy:          t.CreatedBy,
		UpdatedBy:          t.UpdatedBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toResponses(items []tierdomain.CommissionTier) []tierdomain.Response {
	resp := make([]tierdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp
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
