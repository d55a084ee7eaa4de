package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics counts fee resolutions and tier movements.
type EngineMetrics struct {
	feeResolutions   *prometheus.CounterVec
	resolutionErrors *prometheus.CounterVec
	snapshots        *prometheus.CounterVec
	tierChanges      *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest resets the engine metrics singleton for tests.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	m := &EngineMetrics{
		feeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tourhub_fee_resolutions_total",
			Help:        "Fee resolutions by pricing source and fee payer.",
			ConstLabels: constLabels,
		}, []string{"source", "fee_payer"}),
		resolutionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tourhub_fee_resolution_errors_total",
			Help:        "Fee resolutions that failed, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tourhub_commission_snapshots_total",
			Help:        "Booking commission snapshot writes by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tourhub_vendor_tier_changes_total",
			Help:        "Vendor tier changes by source.",
			ConstLabels: constLabels,
		}, []string{"source"}),
	}

	registerer.MustRegister(m.feeResolutions, m.resolutionErrors, m.snapshots, m.tierChanges)
	return m
}

func (m *EngineMetrics) IncFeeResolution(source, feePayer string) {
	if m == nil {
		return
	}
	m.feeResolutions.WithLabelValues(source, feePayer).Inc()
}

func (m *EngineMetrics) IncResolutionError(reason string) {
	if m == nil {
		return
	}
	m.resolutionErrors.WithLabelValues(reason).Inc()
}

func (m *EngineMetrics) IncSnapshot(outcome string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) IncTierChange(source string) {
	if m == nil {
		return
	}
	m.tierChanges.WithLabelValues(source).Inc()
}
