package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Trace results.
const (
	ResultPass  = "pass"
	ResultFail  = "fail"
	ResultError = "error"
)

// Mismatch kinds.
const (
	MismatchState = "state"
	MismatchError = "error"
)

// ReplayMetrics counts what a conformance run did.
type ReplayMetrics struct {
	Traces        *prometheus.CounterVec
	Steps         *prometheus.CounterVec
	Mismatches    *prometheus.CounterVec
	TraceDuration prometheus.Histogram
}

// NewReplayMetrics creates the replay metrics and registers them on reg.
func NewReplayMetrics(reg prometheus.Registerer) *ReplayMetrics {
	m := &ReplayMetrics{
		Traces: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankmbt_traces_total",
				Help: "Replayed traces by result.",
			},
			[]string{"result"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankmbt_steps_total",
				Help: "Replayed steps by action and engine error cause.",
			},
			[]string{"action", "cause"},
		),
		Mismatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankmbt_mismatches_total",
				Help: "Steps whose outcome differed from the model, by kind.",
			},
			[]string{"kind"},
		),
		TraceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankmbt_trace_duration_seconds",
			Help:    "Time spent replaying one trace.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Traces, m.Steps, m.Mismatches, m.TraceDuration)
	}
	return m
}

// ObserveTrace records the outcome of one trace. Safe on a nil receiver.
func (m *ReplayMetrics) ObserveTrace(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Traces.WithLabelValues(result).Inc()
	m.TraceDuration.Observe(d.Seconds())
}

// ObserveStep records one replayed step. cause is "" for success.
func (m *ReplayMetrics) ObserveStep(action, cause string) {
	if m == nil {
		return
	}
	if cause == "" {
		cause = "none"
	}
	m.Steps.WithLabelValues(action, cause).Inc()
}

func (m *ReplayMetrics) ObserveMismatch(kind string) {
	if m == nil {
		return
	}
	m.Mismatches.WithLabelValues(kind).Inc()
}

// WriteTextfile exports everything gathered by g in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
