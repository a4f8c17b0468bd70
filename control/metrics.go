// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for sessions and relayed traffic.

package control

import (
	"errors"
	"net/http"
	"time"

	"github.com/momentics/serbridge/core/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session outcome labels.
const (
	OutcomeGraceful = "graceful"
	OutcomeFatal    = "fatal"
	OutcomeSetup    = "setup_failed"
)

// Metrics owns a private registry so several instances can coexist in tests.
// It satisfies relay.Observer.
type Metrics struct {
	reg      *prometheus.Registry
	sessions *prometheus.CounterVec
	active   prometheus.Gauge
	duration prometheus.Histogram
	bytes    *prometheus.CounterVec
	stalls   *prometheus.CounterVec
}

var _ relay.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serbridge_sessions_total",
				Help: "Total number of finished sessions by outcome",
			},
			[]string{"outcome"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serbridge_sessions_active",
			Help: "Number of sessions currently relaying",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "serbridge_session_duration_seconds",
			Help:    "Duration of relay sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serbridge_relay_bytes_total",
				Help: "Bytes delivered to the destination, by direction",
			},
			[]string{"direction"},
		),
		stalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serbridge_relay_stalls_total",
				Help: "Writes that would block, by direction",
			},
			[]string{"direction"},
		),
	}
	m.reg.MustRegister(m.sessions, m.active, m.duration, m.bytes, m.stalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Relayed counts n delivered bytes in direction dir.
func (m *Metrics) Relayed(dir string, n int) {
	m.bytes.WithLabelValues(dir).Add(float64(n))
}

// Stalled counts a would-block write in direction dir.
func (m *Metrics) Stalled(dir string) {
	m.stalls.WithLabelValues(dir).Inc()
}

// SessionStarted marks a session as active.
func (m *Metrics) SessionStarted() {
	m.active.Inc()
}

// SessionEnded records the outcome of a session started at start.
func (m *Metrics) SessionEnded(start time.Time, err error) {
	m.active.Dec()
	m.duration.Observe(time.Since(start).Seconds())
	m.sessions.WithLabelValues(Outcome(err)).Inc()
}

// SetupFailed counts a session that never reached the relay.
func (m *Metrics) SetupFailed() {
	m.sessions.WithLabelValues(OutcomeSetup).Inc()
}

// Outcome classifies a session result.
func Outcome(err error) string {
	var se *relay.SessionError
	switch {
	case err == nil:
		return OutcomeGraceful
	case errors.As(err, &se):
		return OutcomeFatal
	default:
		return OutcomeSetup
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
