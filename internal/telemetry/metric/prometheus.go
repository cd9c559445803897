package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "simsync"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Buffer metrics
	Commits         prometheus.Counter
	Abandons        prometheus.Counter
	SnapshotSeq     prometheus.Gauge
	SnapshotModels  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Worker metrics
	WorkerFailures *prometheus.CounterVec
	WorkerStarts   *prometheus.CounterVec
	StartFailures  *prometheus.CounterVec
	JoinTimeouts   *prometheus.CounterVec

	// Transport metrics
	ClientsConnected prometheus.Gauge
	FramesSent       prometheus.Counter
	FramesDropped    prometheus.Counter
	Commands         *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all application metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "buffer", Name: "commits_total",
			Help: "Snapshots committed to the exchange buffer.",
		}),
		Abandons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "buffer", Name: "abandons_total",
			Help: "Write sessions that ended without a commit.",
		}),
		SnapshotSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "buffer", Name: "snapshot_seq",
			Help: "Sequence number of the latest committed snapshot.",
		}),
		SnapshotModels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "buffer", Name: "snapshot_models",
			Help: "Number of models in the latest committed snapshot.",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "buffer", Name: "write_session_seconds",
			Help:    "Time a write session was held before commit.",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),

		WorkerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "worker", Name: "failures_total",
			Help: "Failed worker iterations.",
		}, []string{"worker", "kind"}),
		WorkerStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "supervisor", Name: "worker_starts_total",
			Help: "Workers started by the supervisor.",
		}, []string{"slot", "kind"}),
		StartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "supervisor", Name: "start_failures_total",
			Help: "Worker factory failures.",
		}, []string{"slot"}),
		JoinTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "supervisor", Name: "join_timeouts_total",
			Help: "Workers that did not stop within their join timeout.",
		}, []string{"slot"}),

		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "ws", Name: "clients_connected",
			Help: "Connected WebSocket clients.",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "ws", Name: "frames_sent_total",
			Help: "Snapshot frames written to clients.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "ws", Name: "frames_dropped_total",
			Help: "Snapshot frames replaced before a slow client received them.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "ws", Name: "commands_total",
			Help: "Inbound commands by result.",
		}, []string{"result"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Commits, r.Abandons, r.SnapshotSeq, r.SnapshotModels, r.SessionDuration,
		r.WorkerFailures, r.WorkerStarts, r.StartFailures, r.JoinTimeouts,
		r.ClientsConnected, r.FramesSent, r.FramesDropped, r.Commands,
		r.RequestsTotal, r.RequestDuration,
	)
	return r
}

// Register adds extra collectors to the registry.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method string, code int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, statusClass(code)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
