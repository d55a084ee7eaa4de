package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
)

type assignManualTierRequest struct {
	TierID    string     `json:"tier_id"`
	ExpiresAt *time.Time `json:"expires_at"`
	Reason    string     `json:"reason"`
}

type removeManualTierRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) AssignManualTier(c *gin.Context) {
	var req assignManualTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tieringSvc.AssignManualTier(c.Request.Context(), tieringdomain.AssignManualTierRequest{
		VendorID:  strings.TrimSpace(c.Param("id")),
		TierID:    strings.TrimSpace(req.TierID),
		ExpiresAt: req.ExpiresAt,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RemoveManualTier takes the reason from the JSON body or the reason query parameter.
func (s *Server) RemoveManualTier(c *gin.Context) {
	reason := c.Query("reason")
	if c.Request.ContentLength > 0 {
		var req removeManualTierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		if strings.TrimSpace(req.Reason) != "" {
			reason = req.Reason
		}
	}

	resp, err := s.tieringSvc.RemoveManualTier(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) EvaluateVendorTier(c *gin.Context) {
	resp, err := s.tieringSvc.EvaluateVendor(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVendorTierHistory(c *gin.Context) {
	resp, err := s.tieringSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTieringValidationError(err error) bool {
	switch {
	case errors.Is(err, tieringdomain.ErrInvalidVendor),
		errors.Is(err, tieringdomain.ErrInvalidTier),
		errors.Is(err, tieringdomain.ErrInvalidExpiry),
		errors.Is(err, tieringdomain.ErrTierNotEffective):
		return true
	default:
		return false
	}
}
