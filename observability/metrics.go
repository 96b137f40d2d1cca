package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics captures the outcome and latency of quote orchestration.
type QuoteMetrics struct {
	quotes     *prometheus.CounterVec
	stages     *prometheus.HistogramVec
	recoveries *prometheus.CounterVec
	uploads    *prometheus.CounterVec
}

// SwapMetrics counts pure swap and premium calculations served to callers.
type SwapMetrics struct {
	calculations *prometheus.CounterVec
}

var (
	quoteMetricsOnce sync.Once
	quoteRegistry    *QuoteMetrics

	swapMetricsOnce sync.Once
	swapRegistry    *SwapMetrics
)

// Quotes returns the lazily-initialised quote metrics registered on the
// default Prometheus registry.
func Quotes() *QuoteMetrics {
	quoteMetricsOnce.Do(func() {
		quoteRegistry = &QuoteMetrics{
			quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cover",
				Subsystem: "quote",
				Name:      "requests_total",
				Help:      "Quote requests segmented by final outcome.",
			}, []string{"outcome"}),
			stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "cover",
				Subsystem: "quote",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each orchestration state.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"state"}),
			recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cover",
				Subsystem: "quote",
				Name:      "capacity_recoveries_total",
				Help:      "Best-effort capacity lookups after insufficient capacity errors.",
			}, []string{"result"}),
			uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cover",
				Subsystem: "ipfs",
				Name:      "uploads_total",
				Help:      "Cover metadata uploads segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			quoteRegistry.quotes,
			quoteRegistry.stages,
			quoteRegistry.recoveries,
			quoteRegistry.uploads,
		)
	})
	return quoteRegistry
}

// RecordOutcome increments the quote counter. Outcomes should be stable strings
// such as "success", "invalid", "upstream_error" or "internal_error".
func (m *QuoteMetrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveStage records how long the orchestrator spent in a state.
func (m *QuoteMetrics) ObserveStage(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(normalizeLabel(state)).Observe(d.Seconds())
}

// RecordCapacityRecovery tracks whether the secondary capacity fetch succeeded.
func (m *QuoteMetrics) RecordCapacityRecovery(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "recovered"
	}
	m.recoveries.WithLabelValues(result).Inc()
}

// RecordUpload tracks IPFS uploads performed during quoting.
func (m *QuoteMetrics) RecordUpload(ok bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "success"
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// Swaps returns the lazily-initialised swap calculation metrics.
func Swaps() *SwapMetrics {
	swapMetricsOnce.Do(func() {
		swapRegistry = &SwapMetrics{
			calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cover",
				Subsystem: "swap",
				Name:      "calculations_total",
				Help:      "Swap, spot price and premium calculations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
		}
		prometheus.MustRegister(swapRegistry.calculations)
	})
	return swapRegistry
}

// Record counts a calculation; err decides the outcome label.
func (m *SwapMetrics) Record(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calculations.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
