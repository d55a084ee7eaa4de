package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/smallbiznis/tourhub/internal/observability"
	obsmiddleware "github.com/smallbiznis/tourhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tourhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tourhub/internal/observability/tracing"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
	"github.com/smallbiznis/tourhub/internal/ratelimit"
	"github.com/smallbiznis/tourhub/internal/scheduler"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log, obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics, log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	pricingSvc     pricingdomain.Service
	bookingSvc     bookingdomain.Service
	tierSvc        tierdomain.Service
	overrideSvc    overridedomain.Service
	tieringSvc     tieringdomain.Service
	pricingLimiter *ratelimit.PricingLimiter
	scheduler      *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	PricingSvc     pricingdomain.Service
	BookingSvc     bookingdomain.Service
	TierSvc        tierdomain.Service
	OverrideSvc    overridedomain.Service
	TieringSvc     tieringdomain.Service
	PricingLimiter *ratelimit.PricingLimiter `optional:"true"`
	Scheduler      *scheduler.Scheduler      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		pricingSvc:     p.PricingSvc,
		bookingSvc:     p.BookingSvc,
		tierSvc:        p.TierSvc,
		overrideSvc:    p.OverrideSvc,
		tieringSvc:     p.TieringSvc,
		pricingLimiter: p.PricingLimiter,
		scheduler:      p.Scheduler,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	pricing := api.Group("", s.PricingRateLimit())
	pricing.GET("/services/:id/pricing", s.GetServicePricing)
	pricing.GET("/vendors/:id/pricing", s.GetVendorPricing)

	api.POST("/bookings/:id/commission", s.ApplyBookingCommission)
	api.GET("/bookings/:id", s.GetBooking)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", AdminActor())

	admin.GET("/tiers", s.ListCommissionTiers)
	admin.POST("/tiers", s.CreateCommissionTier)
	admin.GET("/tiers/:id", s.GetCommissionTier)
	admin.PATCH("/tiers/:id", s.UpdateCommissionTier)
	admin.POST("/tiers/:id/deactivate", s.DeactivateCommissionTier)

	admin.GET("/services/:id/overrides", s.ListServiceOverrides)
	admin.POST("/services/:id/overrides", s.CreateServiceOverride)
	admin.GET("/overrides/:id", s.GetServiceOverride)
	admin.PATCH("/overrides/:id", s.UpdateServiceOverride)
	admin.DELETE("/overrides/:id", s.DeleteServiceOverride)

	admin.POST("/vendors/:id/manual-tier", s.AssignManualTier)
	admin.DELETE("/vendors/:id/manual-tier", s.RemoveManualTier)
	admin.POST("/vendors/:id/evaluate", s.EvaluateVendorTier)
	admin.GET("/vendors/:id/tier-history", s.ListVendorTierHistory)

	admin.POST("/jobs/:name/run", s.RunJob)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
