package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionMetrics provides observability for text protocol sessions.
//
// Implementations can collect metrics about dispatched commands, session
// lifecycle, and bytes moved over the wire. This interface is optional - if
// not provided to the textproto adapter, a no-op implementation is used with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	sessionMetrics := metrics.NewSessionMetrics()
//	adapter := textproto.New(config, sessionMetrics)
//
//	// Without metrics (no-op)
//	adapter := textproto.New(config, nil)
type SessionMetrics interface {
	// RecordCommand records a completed command with its dispatch name and
	// duration. Lines that match no dispatch entry are recorded under the
	// "unknown" bucket, blank lines under "empty".
	//
	// Parameters:
	//   - command: dispatch name (e.g., "get trainer", "post trainer")
	//   - duration: Time taken to produce the response
	RecordCommand(command string, duration time.Duration)

	// RecordCommandStart increments the in-flight command counter.
	RecordCommandStart(command string)

	// RecordCommandEnd decrements the in-flight command counter.
	RecordCommandEnd(command string)

	// RecordBytesTransferred records bytes received from or sent to clients.
	//
	// Parameters:
	//   - direction: "received" or "sent"
	//   - bytes: Number of bytes moved
	RecordBytesTransferred(direction string, bytes int64)

	// SetActiveSessions updates the current session count.
	SetActiveSessions(count int32)

	// RecordSessionAccepted increments the total accepted sessions counter.
	RecordSessionAccepted()

	// RecordSessionClosed increments the total closed sessions counter.
	RecordSessionClosed()
}

// sessionMetrics is the Prometheus implementation of SessionMetrics.
type sessionMetrics struct {
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	sessionsAccepted prometheus.Counter
	sessionsClosed   prometheus.Counter
}

// NewSessionMetrics creates a new Prometheus-backed SessionMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewSessionMetrics() SessionMetrics {
	if !IsEnabled() {
		return NewNoopSessionMetrics()
	}

	reg := GetRegistry()

	return &sessionMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexd_commands_total",
				Help: "Total number of dispatched commands by name",
			},
			[]string{"command"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dexd_command_duration_seconds",
				Help: "Duration of command dispatch in seconds",
				Buckets: []float64{
					0.0001, // 0.1ms
					0.0005, // 0.5ms
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"command"},
		),
		commandsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dexd_commands_in_flight",
				Help: "Current number of commands being dispatched",
			},
			[]string{"command"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexd_session_bytes_total",
				Help: "Total bytes moved over client sessions",
			},
			[]string{"direction"}, // received or sent
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dexd_active_sessions",
				Help: "Current number of active client sessions",
			},
		),
		sessionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dexd_sessions_accepted_total",
				Help: "Total number of client sessions accepted",
			},
		),
		sessionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dexd_sessions_closed_total",
				Help: "Total number of client sessions closed",
			},
		),
	}
}

func (m *sessionMetrics) RecordCommand(command string, duration time.Duration) {
	m.commandsTotal.WithLabelValues(command).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *sessionMetrics) RecordCommandStart(command string) {
	m.commandsInFlight.WithLabelValues(command).Inc()
}

func (m *sessionMetrics) RecordCommandEnd(command string) {
	m.commandsInFlight.WithLabelValues(command).Dec()
}

func (m *sessionMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

func (m *sessionMetrics) SetActiveSessions(count int32) {
	m.activeSessions.Set(float64(count))
}

func (m *sessionMetrics) RecordSessionAccepted() {
	m.sessionsAccepted.Inc()
}

func (m *sessionMetrics) RecordSessionClosed() {
	m.sessionsClosed.Inc()
}

// NewNoopSessionMetrics returns a SessionMetrics implementation that discards
// everything. Used when metrics collection is disabled.
func NewNoopSessionMetrics() SessionMetrics {
	return noopSessionMetrics{}
}

type noopSessionMetrics struct{}

func (noopSessionMetrics) RecordCommand(command string, duration time.Duration) {}
func (noopSessionMetrics) RecordCommandStart(command string)                    {}
func (noopSessionMetrics) RecordCommandEnd(command string)                      {}
func (noopSessionMetrics) RecordBytesTransferred(direction string, bytes int64) {}
func (noopSessionMetrics) SetActiveSessions(count int32)                        {}
func (noopSessionMetrics) RecordSessionAccepted()                               {}
func (noopSessionMetrics) RecordSessionClosed()                                 {}
