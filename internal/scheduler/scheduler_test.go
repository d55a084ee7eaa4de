package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/tourhub/internal/clock"
	obsmetrics "github.com/smallbiznis/tourhub/internal/observability/metrics"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tieringStub struct {
	tieringdomain.Service

	evaluations int
	cleanups    int
	evaluate    func(ctx context.Context) (*tieringdomain.BatchResult, error)
}

func (t *tieringStub) RunMonthlyEvaluation(ctx context.Context) (*tieringdomain.BatchResult, error) {
	t.evaluations++
	if t.evaluate != nil {
		return t.evaluate(ctx)
	}
	return &tieringdomain.BatchResult{Job: JobTierEvaluation, Scanned: 3, Changed: 1, Unchanged: 2}, nil
}

func (t *tieringStub) CleanupExpiredManualTiers(ctx context.Context) (*tieringdomain.BatchResult, error) {
	t.cleanups++
	return &tieringdomain.BatchResult{Job: JobManualTierCleanup}, nil
}

func newTestScheduler(t *testing.T, cfg Config, svc tieringdomain.Service) *Scheduler {
	t.Helper()
	s, err := New(Params{
		Log:        zap.NewNop(),
		Clock:      clock.NewFakeClock(time.Date(2025, 3, 1, 0, 10, 0, 0, time.UTC)),
		TieringSvc: svc,
		Config:     cfg,
	})
	require.NoError(t, err)
	return s
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "tourhub",
		Environment: "test",
	})

	s := newTestScheduler(t, Config{}, &tieringStub{})
	_, err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) (*tieringdomain.BatchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	labels := map[string]string{
		"service": "tourhub",
		"env":     "test",
		"job":     "timeout_job",
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "tourhub_scheduler_job_timeouts_total", labels))

	errorLabels := map[string]string{
		"service": "tourhub",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "tourhub_scheduler_job_errors_total", errorLabels))
}

func TestRunJobRecordsBatchCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "tourhub", Environment: "test"})

	stub := &tieringStub{evaluate: func(ctx context.Context) (*tieringdomain.BatchResult, error) {
		res := &tieringdomain.BatchResult{Job: JobTierEvaluation, Scanned: 3, Changed: 2}
		res.Fail(snowflake.ID(42), errors.New("boom"))
		return res, res.Err()
	}}
	s := newTestScheduler(t, Config{}, stub)

	res, err := s.RunJob(context.Background(), JobTierEvaluation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobTierEvaluation)
	require.NotNil(t, res)
	assert.Len(t, res.Failures, 1)

	labels := map[string]string{"service": "tourhub", "env": "test", "job": JobTierEvaluation, "resource": "vendor"}
	assert.Equal(t, float64(2), getCounterValue(t, registry, "tourhub_scheduler_batch_processed_total", labels))
	assert.Equal(t, float64(1), getCounterValue(t, registry, "tourhub_scheduler_batch_failed_total", labels))
}

func TestRunJobUnknownName(t *testing.T) {
	s := newTestScheduler(t, Config{}, &tieringStub{})
	_, err := s.RunJob(context.Background(), "invoice")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunJobIgnoresEnabledJobs(t *testing.T) {
	stub := &tieringStub{}
	s := newTestScheduler(t, Config{EnabledJobs: []string{JobManualTierCleanup}}, stub)

	res, err := s.RunJob(context.Background(), "TIER_EVALUATION")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.evaluations)
	assert.Equal(t, 3, res.Processed())
}

func TestRunOnceRespectsEnabledJobs(t *testing.T) {
	stub := &tieringStub{}
	s := newTestScheduler(t, Config{EnabledJobs: []string{" manual_tier_cleanup "}}, stub)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 0, stub.evaluations)
	assert.Equal(t, 1, stub.cleanups)

	all := &tieringStub{}
	s = newTestScheduler(t, Config{}, all)
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, all.evaluations)
	assert.Equal(t, 1, all.cleanups)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop(), Clock: clock.NewFakeClock(time.Now())})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "10 0 1 * *", cfg.TierEvaluationCron)
	assert.Equal(t, "5 0 * * *", cfg.ManualTierCleanupCron)
	assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestNewCronRegistersEnabledJobs(t *testing.T) {
	s := newTestScheduler(t, Config{EnabledJobs: []string{JobTierEvaluation}}, &tieringStub{})
	cron, err := NewCron(s, context.Background())
	require.NoError(t, err)
	defer func() { _ = cron.Shutdown() }()

	jobs := cron.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobTierEvaluation, jobs[0].Name())
}

func TestNewCronRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t, Config{TierEvaluationCron: "not a cron"}, &tieringStub{})
	_, err := NewCron(s, context.Background())
	assert.Error(t, err)
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
