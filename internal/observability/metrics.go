package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bridge.
type Metrics struct {
	ActiveCalls         prometheus.Gauge
	CallEvents          *prometheus.CounterVec
	ControlFrames       *prometheus.CounterVec
	ToolInvocations     *prometheus.CounterVec
	AudioBytes          *prometheus.CounterVec
	AudioFlushes        prometheus.Counter
	InboundDroppedChunk prometheus.Counter
	ProtocolErrors      prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveCalls: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_calls",
			Help:      "Number of calls currently bridged to the voice backend.",
		}),
		CallEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_events_total",
			Help:      "Call lifecycle events by type.",
		}, []string{"event"}),
		ControlFrames: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_frames_total",
			Help:      "Backend control frames by message type.",
		}, []string{"type"}),
		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by outcome.",
		}, []string{"outcome"}),
		AudioBytes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Relayed audio bytes by direction.",
		}, []string{"direction"}),
		AudioFlushes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_flushes_total",
			Help:      "Coalesced audio buffer flushes to the caller stream.",
		}),
		InboundDroppedChunk: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_dropped_chunks_total",
			Help:      "Caller audio chunks dropped because the backend channel was not ready.",
		}),
		ProtocolErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Unparseable control frames received from the backend.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
