// Package metrics holds the Prometheus collectors exported by the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/wgwatch/internal/domain"
)

// Metrics methods are safe on a nil receiver.
type Metrics struct {
	Polls               *prometheus.CounterVec
	PollDuration        prometheus.Histogram
	ConsecutiveFailures prometheus.Gauge
	InterfaceUp         prometheus.Gauge
	PeerConnected       *prometheus.GaugeVec
	Notifications       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Polls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wgwatch_polls_total",
			Help: "Poll cycles by result.",
		}, []string{"result"}), // ok, failed

		PollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wgwatch_poll_duration_seconds",
			Help:    "Time spent fetching status, retries included.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		ConsecutiveFailures: f.NewGauge(prometheus.GaugeOpts{
			Name: "wgwatch_api_consecutive_failures",
			Help: "Failed polls since the last success or escalation.",
		}),

		InterfaceUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "wgwatch_interface_up",
			Help: "1 when the WireGuard interface reports up.",
		}),

		PeerConnected: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wgwatch_peer_connected",
			Help: "1 when the peer counts as connected.",
		}, []string{"peer"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wgwatch_notifications_total",
			Help: "Notifications by event kind and delivery result.",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) ObservePoll(ok bool, seconds float64, failures int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Polls.WithLabelValues(result).Inc()
	m.PollDuration.Observe(seconds)
	m.ConsecutiveFailures.Set(float64(failures))
}

func (m *Metrics) ObserveSnapshot(s domain.Snapshot) {
	if m == nil {
		return
	}
	m.InterfaceUp.Set(b2f(s.InterfaceUp))
	m.PeerConnected.Reset()
	for name, up := range s.Peers {
		m.PeerConnected.WithLabelValues(name).Set(b2f(up))
	}
}

func (m *Metrics) ObserveNotification(kind domain.EventKind, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind.String(), result).Inc()
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
