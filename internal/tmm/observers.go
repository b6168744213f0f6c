package tmm

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ChannelObserver forwards progress to a channel, dropping updates when the
// channel is full so a slow consumer never stalls an evaluation.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer sending to ch. A nil channel
// discards updates.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(evalIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- ProgressUpdate{EvaluatorIndex: evalIndex, Value: min(progress, 1.0)}:
	default:
	}
}

// LoggingObserver writes progress to zerolog at debug level, throttled to
// steps of at least threshold.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a throttled logging observer. A non-positive
// threshold defaults to 0.1 (every 10%).
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		lastLog:   make(map[int]float64),
	}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(evalIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, seen := o.lastLog[evalIndex]
	if seen && progress < 1.0 && progress-last < o.threshold {
		return
	}
	o.logger.Debug().
		Int("evaluation", evalIndex).
		Float64("progress", progress).
		Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
		Msg("evaluation progress")
	o.lastLog[evalIndex] = progress
}

var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tmm_evaluation_progress",
		Help: "Current progress of transfer-matrix evaluations (0.0 to 1.0)",
	},
	[]string{"evaluation_index"},
)

// MetricsObserver exports progress as a Prometheus gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver creates an observer backed by the shared progress gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: progressGauge}
}

// Update implements ProgressObserver.
func (o *MetricsObserver) Update(evalIndex int, progress float64) {
	o.gauge.WithLabelValues(strconv.Itoa(evalIndex)).Set(progress)
}

// ResetMetrics clears the gauge, typically before a new batch of
// evaluations.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}

// NoOpObserver discards all updates.
type NoOpObserver struct{}

// NewNoOpObserver creates a no-op observer.
func NewNoOpObserver() *NoOpObserver { return &NoOpObserver{} }

// Update implements ProgressObserver.
func (o *NoOpObserver) Update(int, float64) {}
