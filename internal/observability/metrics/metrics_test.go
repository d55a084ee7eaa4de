package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, SchedulerJobReasonDeadlineExceeded},
		{"canceled", fmt.Errorf("tier_evaluation: %w", context.Canceled), SchedulerJobReasonDeadlineExceeded},
		{"db_lock_timeout", &pgconn.PgError{Code: "55P03"}, SchedulerJobReasonDBLockTimeout},
		{"serialization_failure", &pgconn.PgError{Code: "40001"}, SchedulerJobReasonSerializationFailure},
		{"unique_violation", gorm.ErrDuplicatedKey, SchedulerJobReasonUniqueViolation},
		{"unique_violation_pg", &pgconn.PgError{Code: "23505"}, SchedulerJobReasonUniqueViolation},
		{"unknown", errors.New("boom"), SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySchedulerJobReason(tc.err))
		})
	}
}

func TestAddBatchProcessedSkipsEmptyCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry, Config{ServiceName: "tourhub", Environment: "test"})

	m.AddBatchProcessed("tier_evaluation", "vendor", 3)
	m.AddBatchProcessed("tier_evaluation", "vendor", 0)
	m.AddBatchFailed("tier_evaluation", "vendor", 1)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.batchProcessed.WithLabelValues("tier_evaluation", "vendor")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.batchFailed.WithLabelValues("tier_evaluation", "vendor")))
}

func TestNilSchedulerMetricsIsSafe(t *testing.T) {
	var m *SchedulerMetrics
	assert.NotPanics(t, func() {
		m.IncJobRun("tier_evaluation")
		m.IncJobError("tier_evaluation", errors.New("boom"))
		m.AddBatchFailed("tier_evaluation", "vendor", 2)
	})
}

func TestEngineMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newEngineMetrics(registry, Config{ServiceName: "tourhub", Environment: "test"})

	m.IncFeeResolution("override", "split")
	m.IncFeeResolution("override", "split")
	m.IncResolutionError("service_not_found")
	m.IncSnapshot("created")
	m.IncTierChange("manual")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.feeResolutions.WithLabelValues("override", "split")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolutionErrors.WithLabelValues("service_not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.snapshots.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tierChanges.WithLabelValues("manual")))

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		for _, metric := range mf.Metric {
			labels := map[string]string{}
			for _, l := range metric.Label {
				labels[l.GetName()] = l.GetValue()
			}
			assert.Equal(t, "tourhub", labels["service"])
			assert.Equal(t, "test", labels["env"])
		}
	}
}

func TestHTTPMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/services/:id/pricing", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services/42/pricing", nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/services/:id/pricing", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unknown", "404")))
}
