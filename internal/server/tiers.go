package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
)

// ListCommissionTiers lists every tier, or only those effective at as_of when given.
func (s *Server) ListCommissionTiers(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "as_of must be RFC3339 or YYYY-MM-DD"))
		return
	}

	var resp []tierdomain.Response
	if asOf != nil {
		resp, err = s.tierSvc.ListEffective(c.Request.Context(), *asOf)
	} else {
		resp, err = s.tierSvc.List(c.Request.Context())
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommissionTier(c *gin.Context) {
	resp, err := s.tierSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCommissionTier(c *gin.Context) {
	var req tierdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.CommissionType = strings.TrimSpace(req.CommissionType)

	resp, err := s.tierSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateCommissionTier(c *gin.Context) {
	var req tierdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tierSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCommissionTier(c *gin.Context) {
	resp, err := s.tierSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTierValidationError(err error) bool {
	switch {
	case errors.Is(err, tierdomain.ErrInvalidName),
		errors.Is(err, tierdomain.ErrInvalidCommissionValue),
		errors.Is(err, tierdomain.ErrInvalidMinBookings),
		errors.Is(err, tierdomain.ErrInvalidMinRating),
		errors.Is(err, tierdomain.ErrInvalidPriority),
		errors.Is(err, tierdomain.ErrInvalidEffectiveWindow),
		errors.Is(err, tierdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}
