package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signal_scanner/internal/models"
)

// Metrics holds the scanner collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PassDuration  *prometheus.HistogramVec // labels: profile
	PartialPasses *prometheus.CounterVec   // labels: profile
	Instruments   *prometheus.CounterVec   // labels: profile, status, reason
	Signals       *prometheus.CounterVec   // labels: profile, category

	mu       sync.RWMutex
	lastPass map[string]time.Time
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanner_pass_duration_seconds",
			Help:    "Wall time of one scan pass",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 240},
		}, []string{"profile"}),
		PartialPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_partial_passes_total",
			Help: "Passes cut short by the pass deadline",
		}, []string{"profile"}),
		Instruments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_instruments_total",
			Help: "Instrument outcomes by status and skip reason",
		}, []string{"profile", "status", "reason"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Reported signals by category",
		}, []string{"profile", "category"}),
		lastPass: make(map[string]time.Time),
	}

	m.registry.MustRegister(
		m.PassDuration,
		m.PartialPasses,
		m.Instruments,
		m.Signals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) PassFinished(profile string, d time.Duration, partial bool) {
	m.PassDuration.WithLabelValues(profile).Observe(d.Seconds())
	if partial {
		m.PartialPasses.WithLabelValues(profile).Inc()
	}
	m.mu.Lock()
	m.lastPass[profile] = time.Now()
	m.mu.Unlock()
}

func (m *Metrics) InstrumentDone(profile string, status models.OutcomeStatus, reason models.SkipReason) {
	m.Instruments.WithLabelValues(profile, string(status), string(reason)).Inc()
}

func (m *Metrics) SignalEmitted(profile string, c models.Category) {
	m.Signals.WithLabelValues(profile, string(c)).Inc()
}

// LastPasses returns the finish time of the latest pass per profile.
func (m *Metrics) LastPasses() map[string]time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]time.Time, len(m.lastPass))
	for k, v := range m.lastPass {
		out[k] = v
	}
	return out
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
