// Package metrics exposes the relay's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP front door
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Chat pipeline
	RepliesTotal *prometheus.CounterVec
	IntentsTotal *prometheus.CounterVec

	// Device round trips
	DeviceCommandsTotal   *prometheus.CounterVec
	DeviceCommandDuration prometheus.Histogram
	TelemetryReadsTotal   *prometheus.CounterVec

	// Tracked joint positions
	JointAngle *prometheus.GaugeVec
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voxgpt"
	}

	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"path"},
	)

	repliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Chat replies by kind and status",
		},
		[]string{"kind", "status"},
	)

	intentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Parsed intents by parser stage and target",
		},
		[]string{"source", "target"},
	)

	deviceCommandsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_commands_total",
			Help:      "Device commands sent, by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	deviceCommandDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_command_duration_seconds",
			Help:      "Device command round trip in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	telemetryReadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_reads_total",
			Help:      "Device telemetry reads by outcome",
		},
		[]string{"outcome"},
	)

	jointAngle := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "joint_angle_degrees",
			Help:      "Tracked joint angle in degrees",
		},
		[]string{"joint"},
	)

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		repliesTotal,
		intentsTotal,
		deviceCommandsTotal,
		deviceCommandDuration,
		telemetryReadsTotal,
		jointAngle,
	)

	return &Metrics{
		registry:              registry,
		HTTPRequestsTotal:     httpRequestsTotal,
		HTTPRequestDuration:   httpRequestDuration,
		RepliesTotal:          repliesTotal,
		IntentsTotal:          intentsTotal,
		DeviceCommandsTotal:   deviceCommandsTotal,
		DeviceCommandDuration: deviceCommandDuration,
		TelemetryReadsTotal:   telemetryReadsTotal,
		JointAngle:            jointAngle,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTP records a completed HTTP request.
func (m *Metrics) RecordHTTP(path, method, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(path, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordReply records a chat reply.
func (m *Metrics) RecordReply(kind, status string) {
	m.RepliesTotal.WithLabelValues(kind, status).Inc()
}

// RecordIntent records a parsed intent.
func (m *Metrics) RecordIntent(source, target string) {
	m.IntentsTotal.WithLabelValues(source, target).Inc()
}

// RecordDeviceCommand records one device round trip. Outcome is "ok" or the
// device error kind.
func (m *Metrics) RecordDeviceCommand(command, outcome string, duration time.Duration) {
	m.DeviceCommandsTotal.WithLabelValues(command, outcome).Inc()
	m.DeviceCommandDuration.Observe(duration.Seconds())
}

// RecordTelemetry records a telemetry read.
func (m *Metrics) RecordTelemetry(outcome string) {
	m.TelemetryReadsTotal.WithLabelValues(outcome).Inc()
}

// SetJointAngle publishes a tracked angle.
func (m *Metrics) SetJointAngle(joint string, angle int) {
	m.JointAngle.WithLabelValues(joint).Set(float64(angle))
}
