package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tourhub/internal/observability/logger"
	"go.uber.org/zap"
)

// RunJob triggers a scheduler job immediately. Per-vendor failures are
// reported in the result body rather than as an error status.
func (s *Server) RunJob(c *gin.Context) {
	if s.scheduler == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	result, err := s.scheduler.RunJob(c.Request.Context(), name)
	if err != nil && (result == nil || len(result.Failures) == 0) {
		AbortWithError(c, err)
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("job finished with failures",
			zap.String("job", name),
			zap.Int("failures", len(result.Failures)),
		)
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
