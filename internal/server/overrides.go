package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
)

// ListServiceOverrides lists a listing's overrides, or the one effective at as_of when given.
func (s *Server) ListServiceOverrides(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Param("id"))
	asOf, err := parseOptionalTime(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "as_of must be RFC3339 or YYYY-MM-DD"))
		return
	}

	if asOf != nil {
		resp, err := s.overrideSvc.FindEffective(c.Request.Context(), serviceID, *asOf)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		data := []overridedomain.Response{}
		if resp != nil {
			data = append(data, *resp)
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
		return
	}

	resp, err := s.overrideSvc.ListByService(c.Request.Context(), serviceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateServiceOverride(c *gin.Context) {
	var req overridedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.OverrideType = strings.TrimSpace(req.OverrideType)
	req.FeePayer = strings.TrimSpace(req.FeePayer)

	resp, err := s.overrideSvc.Create(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetServiceOverride(c *gin.Context) {
	resp, err := s.overrideSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateServiceOverride(c *gin.Context) {
	var req overridedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.overrideSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteServiceOverride(c *gin.Context) {
	if err := s.overrideSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isOverrideValidationError(err error) bool {
	switch {
	case errors.Is(err, overridedomain.ErrInvalidService),
		errors.Is(err, overridedomain.ErrInvalidOverrideValue),
		errors.Is(err, overridedomain.ErrInvalidSplit),
		errors.Is(err, overridedomain.ErrInvalidEffectiveWindow),
		errors.Is(err, overridedomain.ErrInvalidID):
		return true
	default:
		return false
	}
}
