package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig holds the tunables of the fee and tier engines. It is read from
// pricing.yml and reloaded when the file changes.
type PricingConfig struct {
	DefaultCommissionRate float64         `mapstructure:"defaultCommissionRate"`
	Tiering               TieringConfig   `mapstructure:"tiering"`
	Scheduler             SchedulerConfig `mapstructure:"scheduler"`
}

type TieringConfig struct {
	Timezone          string        `mapstructure:"timezone"`
	PlaceholderRating float64       `mapstructure:"placeholderRating"`
	RatingExempt      bool          `mapstructure:"ratingExempt"`
	EvaluationWindow  string        `mapstructure:"evaluationWindow"`
	BatchSize         int           `mapstructure:"batchSize"`
	LockTTL           time.Duration `mapstructure:"lockTTL"`
}

// Evaluation windows select which calendar month's completed bookings count.
const (
	WindowCurrentMonth  = "current_month"
	WindowPreviousMonth = "previous_month"
)

type SchedulerConfig struct {
	TierEvaluationCron    string        `mapstructure:"tierEvaluationCron"`
	ManualTierCleanupCron string        `mapstructure:"manualTierCleanupCron"`
	EnabledJobs           []string      `mapstructure:"enabledJobs"`
	JobTimeout            time.Duration `mapstructure:"jobTimeout"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultCommissionRate: 15,
		Tiering: TieringConfig{
			Timezone:          "Africa/Dar_es_Salaam",
			PlaceholderRating: 4.5,
			EvaluationWindow:  WindowCurrentMonth,
			BatchSize:         100,
			LockTTL:           2 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			TierEvaluationCron:    "10 0 1 * *",
			ManualTierCleanupCron: "5 0 * * *",
			JobTimeout:            30 * time.Minute,
		},
	}
}

// MonthWindow returns the [from, to) bounds of the evaluation month for now.
func (c TieringConfig) MonthWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(c.Location())
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	if c.EvaluationWindow == WindowPreviousMonth {
		from = from.AddDate(0, -1, 0)
	}
	return from.UTC(), from.AddDate(0, 1, 0).UTC()
}

// Location returns the timezone used to compute calendar months for tier metrics.
func (c TieringConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/tourhub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TOURHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.defaultCommissionRate", defaults.DefaultCommissionRate)
	v.SetDefault("pricing.tiering.timezone", defaults.Tiering.Timezone)
	v.SetDefault("pricing.tiering.placeholderRating", defaults.Tiering.PlaceholderRating)
	v.SetDefault("pricing.tiering.ratingExempt", defaults.Tiering.RatingExempt)
	v.SetDefault("pricing.tiering.evaluationWindow", defaults.Tiering.EvaluationWindow)
	v.SetDefault("pricing.tiering.batchSize", defaults.Tiering.BatchSize)
	v.SetDefault("pricing.tiering.lockTTL", defaults.Tiering.LockTTL)
	v.SetDefault("pricing.scheduler.tierEvaluationCron", defaults.Scheduler.TierEvaluationCron)
	v.SetDefault("pricing.scheduler.manualTierCleanupCron", defaults.Scheduler.ManualTierCleanupCron)
	v.SetDefault("pricing.scheduler.enabledJobs", defaults.Scheduler.EnabledJobs)
	v.SetDefault("pricing.scheduler.jobTimeout", defaults.Scheduler.JobTimeout)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticPricingConfig(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Warn("pricing config reload failed", zap.Error(err))
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Warn("invalid pricing config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPricingConfig returns a holder that never reloads.
func NewStaticPricingConfig(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	if h == nil {
		return DefaultPricingConfig()
	}
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.DefaultCommissionRate < 0 || cfg.DefaultCommissionRate > 100 {
		return errors.New("pricing.defaultCommissionRate must be within [0, 100]")
	}
	if cfg.Tiering.PlaceholderRating < 0 || cfg.Tiering.PlaceholderRating > 5 {
		return errors.New("pricing.tiering.placeholderRating must be within [0, 5]")
	}
	switch cfg.Tiering.EvaluationWindow {
	case "", WindowCurrentMonth, WindowPreviousMonth:
	default:
		return errors.New("pricing.tiering.evaluationWindow must be current_month or previous_month")
	}
	if cfg.Tiering.BatchSize < 0 {
		return errors.New("pricing.tiering.batchSize cannot be negative")
	}
	if strings.TrimSpace(cfg.Tiering.Timezone) != "" {
		if _, err := time.LoadLocation(cfg.Tiering.Timezone); err != nil {
			return err
		}
	}
	return nil
}
