package scheduler

import (
	"time"

	"github.com/smallbiznis/tourhub/internal/config"
	tieringservice "github.com/smallbiznis/tourhub/internal/tiering/service"
)

const (
	JobTierEvaluation    = tieringservice.JobTierEvaluation
	JobManualTierCleanup = tieringservice.JobManualTierCleanup
)

// Config controls job triggers, timeouts and which jobs this process runs.
type Config struct {
	Location              *time.Location
	TierEvaluationCron    string
	ManualTierCleanupCron string
	EnabledJobs           []string
	JobTimeout            time.Duration
	BatchSize             int
}

func DefaultConfig() Config {
	return Config{
		Location:              time.UTC,
		TierEvaluationCron:    "10 0 1 * *",
		ManualTierCleanupCron: "5 0 * * *",
		JobTimeout:            30 * time.Minute,
		BatchSize:             100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Location == nil {
		c.Location = defaults.Location
	}
	if c.TierEvaluationCron == "" {
		c.TierEvaluationCron = defaults.TierEvaluationCron
	}
	if c.ManualTierCleanupCron == "" {
		c.ManualTierCleanupCron = defaults.ManualTierCleanupCron
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}

// ProvideConfig reads the scheduler section of the pricing configuration.
// Cron specs are bound once at startup; a reload only affects the next process.
func ProvideConfig(holder *config.PricingConfigHolder) Config {
	pc := holder.Get()
	return Config{
		Location:              pc.Tiering.Location(),
		TierEvaluationCron:    pc.Scheduler.TierEvaluationCron,
		ManualTierCleanupCron: pc.Scheduler.ManualTierCleanupCron,
		EnabledJobs:           pc.Scheduler.EnabledJobs,
		JobTimeout:            pc.Scheduler.JobTimeout,
		BatchSize:             pc.Tiering.BatchSize,
	}.withDefaults()
}
