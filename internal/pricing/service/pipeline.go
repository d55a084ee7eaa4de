package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	"github.com/smallbiznis/tourhub/internal/fee"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	"gorm.io/gorm"
)

// request accumulates lookups as it flows through the stages.
type request struct {
	db        *gorm.DB
	serviceID snowflake.ID
	vendorID  snowflake.ID
	asOf      time.Time
	basePrice decimal.Decimal
	service   *catalogdomain.Service
	vendor    *vendordomain.Vendor
	result    *pricingdomain.FeeResolution
}

// stage returns done=true once the request is resolved.
type stage func(ctx context.Context, req *request) (done bool, err error)

func run(ctx context.Context, req *request, stages ...stage) error {
	for _, st := range stages {
		done, err := st(ctx, req)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

func (s *Service) loadService(ctx context.Context, req *request) (bool, error) {
	if req.service == nil {
		service, err := s.catalogRepo.FindByID(ctx, req.db, req.serviceID)
		if err != nil {
			return true, pricingdomain.NewStorageError("load service", err)
		}
		if service == nil {
			return true, pricingdomain.ErrServiceNotFound
		}
		req.service = service
	}
	req.vendorID = req.service.VendorID
	req.result.VendorID = req.vendorID.String()
	return false, nil
}

func (s *Service) loadVendor(ctx context.Context, req *request) (bool, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, req.db, req.vendorID)
	if err != nil {
		return true, pricingdomain.NewStorageError("load vendor", err)
	}
	if vendor == nil {
		return true, pricingdomain.ErrVendorNotFound
	}
	req.vendor = vendor
	return false, nil
}

func (s *Service) overrideStage(ctx context.Context, req *request) (bool, error) {
	override, err := s.overrideRepo.FindEffective(ctx, req.db, req.service.ID, req.asOf)
	if err != nil {
		return true, pricingdomain.NewStorageError("find override", err)
	}
	if override == nil {
		return false, nil
	}

	breakdown, err := override.Breakdown(req.basePrice)
	if err != nil {
		return true, err
	}

	res := req.result
	res.Apply(breakdown)
	res.PricingSource = pricingdomain.SourceOverride
	res.PricingReferenceID = override.ID.String()
	res.CommissionType = override.OverrideType
	res.CommissionValue = override.OverrideValue
	res.CommissionRate = commissionRate(override.OverrideType, override.OverrideValue, req.basePrice, breakdown.PlatformFee)
	return true, nil
}

func (s *Service) tierStage(ctx context.Context, req *request) (bool, error) {
	tierID := req.vendor.EffectiveTierID(req.asOf)
	if tierID == nil {
		return false, nil
	}

	tier, err := s.tierRepo.FindEffectiveByID(ctx, req.db, *tierID, req.asOf)
	if err != nil {
		return true, pricingdomain.NewStorageError("find tier", err)
	}
	if tier == nil {
		return false, nil
	}

	s.applyTier(req, tier)
	return true, nil
}

func (s *Service) applyTier(req *request, tier *tierdomain.CommissionTier) {
	platformFee := tier.PlatformFee(req.basePrice)
	breakdown, _ := fee.Split(req.basePrice, platformFee, fee.PayerVendor, decimal.Zero, decimal.Zero)

	res := req.result
	res.Apply(breakdown)
	res.PricingSource = pricingdomain.SourceTier
	res.PricingReferenceID = tier.ID.String()
	res.CommissionType = tier.CommissionType
	res.CommissionValue = tier.CommissionValue
	res.CommissionRate = commissionRate(tier.CommissionType, tier.CommissionValue, req.basePrice, platformFee)
}

// defaultStage prices at the configured fallback rate so a sale is never left unpriced.
func (s *Service) defaultStage(ctx context.Context, req *request) (bool, error) {
	rate := decimal.NewFromFloat(s.pricingCfg.Get().DefaultCommissionRate)
	platformFee := fee.PlatformFee(req.basePrice, fee.CommissionPercentage, rate)
	breakdown, _ := fee.Split(req.basePrice, platformFee, fee.PayerVendor, decimal.Zero, decimal.Zero)

	res := req.result
	res.Apply(breakdown)
	res.PricingSource = pricingdomain.SourceTier
	res.PricingReferenceID = ""
	res.CommissionType = fee.CommissionPercentage
	res.CommissionValue = rate
	res.CommissionRate = rate
	return true, nil
}

func commissionRate(commissionType fee.CommissionType, value, basePrice, platformFee decimal.Decimal) decimal.Decimal {
	if commissionType == fee.CommissionPercentage {
		return value
	}
	return fee.EffectiveRate(basePrice, platformFee)
}
