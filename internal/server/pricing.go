package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/tourhub/internal/pricing/domain"
)

// GetServicePricing prices a sale of a listing. With quantity it previews
// quantity units at the listing price; otherwise base_price is required.
func (s *Server) GetServicePricing(c *gin.Context) {
	serviceID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	asOf, ok := asOfQuery(c)
	if !ok {
		return
	}

	quantity, err := parseOptionalInt64(c.Query("quantity"))
	if err != nil {
		AbortWithError(c, newValidationError("quantity", "invalid_quantity", "quantity must be an integer"))
		return
	}

	var resp *pricingdomain.FeeResolution
	if quantity != nil {
		resp, err = s.pricingSvc.Preview(c.Request.Context(), serviceID, *quantity, asOf)
	} else {
		basePrice, parseErr := parseOptionalDecimal(c.Query("base_price"))
		if parseErr != nil || basePrice == nil {
			AbortWithError(c, newValidationError("base_price", "invalid_base_price", "base_price is required"))
			return
		}
		resp, err = s.pricingSvc.Resolve(c.Request.Context(), serviceID, *basePrice, asOf)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetVendorPricing prices a ticket-level sale through the vendor's tier only.
func (s *Server) GetVendorPricing(c *gin.Context) {
	vendorID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	asOf, ok := asOfQuery(c)
	if !ok {
		return
	}
	basePrice, err := parseOptionalDecimal(c.Query("base_price"))
	if err != nil || basePrice == nil {
		AbortWithError(c, newValidationError("base_price", "invalid_base_price", "base_price is required"))
		return
	}

	resp, err := s.pricingSvc.ResolveForVendor(c.Request.Context(), vendorID, *basePrice, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func asOfQuery(c *gin.Context) (time.Time, bool) {
	asOf, err := parseOptionalTime(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "as_of must be RFC3339 or YYYY-MM-DD"))
		return time.Time{}, false
	}
	if asOf == nil {
		return time.Time{}, true
	}
	return *asOf, true
}

func isPricingValidationError(err error) bool {
	switch {
	case errors.Is(err, pricingdomain.ErrInvalidBasePrice),
		errors.Is(err, pricingdomain.ErrInvalidQuantity):
		return true
	default:
		return false
	}
}
