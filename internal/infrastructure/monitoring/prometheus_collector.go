package monitoring

import (
	"time"

	"canvasrelay/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Session gauges
	participants prometheus.Gauge
	connections  prometheus.Gauge
	canvases     prometheus.Gauge
	segments     prometheus.Gauge

	// Counters
	connectionsTotal prometheus.Counter
	messagesReceived *prometheus.CounterVec
	messagesSent     *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	signalsRelayed   *prometheus.CounterVec

	// Histograms
	eventDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the session metrics with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canvasrelay_participants",
			Help: "Number of participants that have joined the session",
		}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canvasrelay_connections",
			Help: "Number of open websocket connections",
		}),

		canvases: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canvasrelay_canvases",
			Help: "Number of canvas logs held in memory",
		}),

		segments: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canvasrelay_canvas_segments",
			Help: "Number of drawing segments held across all canvases",
		}),

		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvasrelay_connections_total",
			Help: "Total number of websocket connections accepted",
		}),

		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasrelay_messages_received_total",
			Help: "Inbound websocket messages by type",
		}, []string{"type"}),

		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasrelay_messages_sent_total",
			Help: "Outbound websocket messages by type, counted per recipient",
		}, []string{"type"}),

		messagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasrelay_messages_dropped_total",
			Help: "Messages dropped by reason",
		}, []string{"reason"}),

		signalsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasrelay_signals_relayed_total",
			Help: "Signaling messages relayed to a peer by kind",
		}, []string{"kind"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canvasrelay_event_handling_duration_seconds",
			Help:    "Time spent applying one inbound event to session state",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"type"}),
	}
}

func (c *PrometheusCollector) SetSessionStats(stats domain.SessionStats) {
	c.participants.Set(float64(stats.Participants))
	c.connections.Set(float64(stats.Connections))
	c.canvases.Set(float64(stats.Canvases))
	c.segments.Set(float64(stats.Segments))
}

func (c *PrometheusCollector) RecordConnection() {
	c.connectionsTotal.Inc()
}

func (c *PrometheusCollector) RecordMessageReceived(messageType string) {
	c.messagesReceived.WithLabelValues(messageType).Inc()
}

func (c *PrometheusCollector) RecordMessageSent(messageType domain.MessageType, recipients int) {
	c.messagesSent.WithLabelValues(string(messageType)).Add(float64(recipients))
}

func (c *PrometheusCollector) RecordMessageDropped(reason string) {
	c.messagesDropped.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) RecordSignalRelayed(kind domain.SignalKind) {
	c.signalsRelayed.WithLabelValues(string(kind)).Inc()
}

func (c *PrometheusCollector) ObserveEventDuration(messageType string, duration time.Duration) {
	c.eventDuration.WithLabelValues(messageType).Observe(duration.Seconds())
}
