package scheduler

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"github.com/smallbiznis/tourhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

// NewCron registers every enabled job with a cron trigger in the configured location.
func NewCron(sched *Scheduler, runCtx context.Context) (gocron.Scheduler, error) {
	cron, err := gocron.NewScheduler(gocron.WithLocation(sched.cfg.Location))
	if err != nil {
		return nil, err
	}
	for _, j := range sched.jobs() {
		if !sched.isJobEnabled(j.name) {
			continue
		}
		j := j
		_, err := cron.NewJob(
			gocron.CronJob(j.spec, false),
			gocron.NewTask(func() {
				if _, err := sched.runJob(runCtx, j.name, sched.cfg.BatchSize, sched.cfg.JobTimeout, j.run); err != nil {
					sched.log.Warn("scheduler run failed", zap.String("job", j.name), zap.Error(err))
				}
			}),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = cron.Shutdown()
			return nil, err
		}
		sched.log.Info("scheduler.job.registered",
			zap.String("job", j.name),
			zap.String("cron", j.spec),
			zap.String("location", sched.cfg.Location.String()),
		)
	}
	return cron, nil
}

func NewScheduler(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if !cfg.SchedulerEnabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var cron gocron.Scheduler

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var err error
			cron, err = NewCron(sched, ctx)
			if err != nil {
				cancel()
				return err
			}
			cron.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			if cron == nil {
				return nil
			}
			return cron.Shutdown()
		},
	})
}
