package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for checkpointing and validation.
// Each call to NewMetrics uses an independent registry so tests and repeated
// CLI invocations never collide on collector registration.
type Metrics struct {
	registry *prometheus.Registry

	// SnapshotSaves counts checkpoint snapshots written, per phase.
	SnapshotSaves *prometheus.CounterVec

	// SnapshotLoads counts checkpoint snapshots restored, per phase.
	SnapshotLoads *prometheus.CounterVec

	// ChecksTotal counts validation checks by result (pass, fail).
	ChecksTotal *prometheus.CounterVec

	// WarningsTotal counts recorded validation warnings.
	WarningsTotal prometheus.Counter

	// ErrorsTotal counts recorded validation errors.
	ErrorsTotal prometheus.Counter
}

// NewMetrics creates and registers all instruments on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SnapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialpipe_checkpoint_saves_total",
			Help: "Checkpoint snapshots written, per phase.",
		}, []string{"phase"}),
		SnapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialpipe_checkpoint_loads_total",
			Help: "Checkpoint snapshots restored, per phase.",
		}, []string{"phase"}),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialpipe_validation_checks_total",
			Help: "Validation checks executed, by result.",
		}, []string{"result"}),
		WarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trialpipe_validation_warnings_total",
			Help: "Validation warnings recorded.",
		}),
		ErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trialpipe_validation_errors_total",
			Help: "Validation errors recorded.",
		}),
	}

	registry.MustRegister(
		m.SnapshotSaves,
		m.SnapshotLoads,
		m.ChecksTotal,
		m.WarningsTotal,
		m.ErrorsTotal,
	)

	return m
}

// Handler returns the /metrics scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// serveReadHeaderTimeout bounds header reads on the scrape listener.
const serveReadHeaderTimeout = 10 * time.Second

// Serve exposes /metrics on addr. It blocks until the server fails, so
// callers run it in a goroutine alongside a long collection run.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: serveReadHeaderTimeout,
	}

	return server.ListenAndServe()
}
