package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/tourhub/internal/clock"
	obsmetrics "github.com/smallbiznis/tourhub/internal/observability/metrics"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig = errors.New("scheduler_invalid_config")
	ErrUnknownJob    = errors.New("unknown_job")
)

var tracer = otel.Tracer("tourhub/scheduler")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	TieringSvc tieringdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	tieringSvc tieringdomain.Service
}

type jobFunc func(ctx context.Context) (*tieringdomain.BatchResult, error)

type job struct {
	name string
	spec string
	run  jobFunc
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.TieringSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		tieringSvc: p.TieringSvc,
	}, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobTierEvaluation, spec: s.cfg.TierEvaluationCron, run: s.tieringSvc.RunMonthlyEvaluation},
		{name: JobManualTierCleanup, spec: s.cfg.ManualTierCleanupCron, run: s.tieringSvc.CleanupExpiredManualTiers},
	}
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn jobFunc,
) (*tieringdomain.BatchResult, error) {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "scheduler."+name)
	defer span.End()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	span.SetAttributes(attribute.String("run_id", run.runID))
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	result, err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if result != nil {
		run.AddProcessed(result.Processed())
		schedMetrics.AddBatchProcessed(name, "vendor", result.Processed())
		schedMetrics.AddBatchFailed(name, "vendor", len(result.Failures))
		for _, failure := range result.Failures {
			s.logVendorFailure(ctx, run, failure)
		}
	}
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return result, nil
	}
	span.RecordError(err)

	// deadline is a soft timeout: the next trigger picks up where this run stopped
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return result, nil
	}

	return result, fmt.Errorf("%s: %w", name, err)
}

// RunJob runs one job by name, regardless of EnabledJobs.
func (s *Scheduler) RunJob(ctx context.Context, name string) (*tieringdomain.BatchResult, error) {
	for _, j := range s.jobs() {
		if strings.EqualFold(j.name, strings.TrimSpace(name)) {
			return s.runJob(ctx, j.name, s.cfg.BatchSize, s.cfg.JobTimeout, j.run)
		}
	}
	return nil, ErrUnknownJob
}

// RunOnce runs every enabled job in order and joins their errors.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		_, jobErr := s.runJob(parent, j.name, s.cfg.BatchSize, s.cfg.JobTimeout, j.run)
		err = errors.Join(err, jobErr)
	}
	return err
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty means every job runs in this process
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}
