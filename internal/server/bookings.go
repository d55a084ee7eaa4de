package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
)

type applyCommissionRequest struct {
	VendorID     string           `json:"vendor_id"`
	ServicePrice *decimal.Decimal `json:"service_price"`
}

// ApplyBookingCommission freezes the vendor's current commission onto a booking.
func (s *Server) ApplyBookingCommission(c *gin.Context) {
	var req applyCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.ServicePrice == nil {
		AbortWithError(c, newValidationError("service_price", "required", "service_price is required"))
		return
	}

	resp, err := s.bookingSvc.ApplyCommission(c.Request.Context(), bookingdomain.ApplyCommissionRequest{
		BookingID:    strings.TrimSpace(c.Param("id")),
		VendorID:     strings.TrimSpace(req.VendorID),
		ServicePrice: *req.ServicePrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBooking(c *gin.Context) {
	resp, err := s.bookingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isBookingValidationError(err error) bool {
	switch {
	case errors.Is(err, bookingdomain.ErrInvalidID),
		errors.Is(err, bookingdomain.ErrInvalidVendor),
		errors.Is(err, bookingdomain.ErrInvalidServicePrice),
		errors.Is(err, bookingdomain.ErrVendorMismatch):
		return true
	default:
		return false
	}
}
