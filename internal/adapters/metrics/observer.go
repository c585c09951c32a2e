package metrics

import (
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gidle"

// Observer records orchestrator activity as Prometheus metrics on its own
// registry.
type Observer struct {
	registry *prometheus.Registry

	SessionsRunning prometheus.Gauge
	SessionsPaused  prometheus.Gauge
	Launches        *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	IdleSeconds     *prometheus.CounterVec
}

var _ ports.SessionObserver = (*Observer)(nil)

func NewObserver() *Observer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Observer{
		registry: registry,
		SessionsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_running",
			Help:      "Sessions with a live helper process",
		}),
		SessionsPaused: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_paused",
			Help:      "Sessions kept without a helper process",
		}),
		Launches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "helper_launches_total",
			Help:      "Helper launch attempts by result",
		}, []string{"result"}),
		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions that left the registry by final status",
		}, []string{"status"}),
		IdleSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_seconds_total",
			Help:      "Idle time accrued by ended sessions",
		}, []string{"status"}),
	}
}

func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) LaunchAttempted(_ domain.AppID, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	o.Launches.WithLabelValues(result).Inc()
}

func (o *Observer) SessionEnded(_ domain.AppID, status domain.HistoryStatus, elapsed time.Duration) {
	o.SessionsEnded.WithLabelValues(string(status)).Inc()
	if elapsed > 0 {
		o.IdleSeconds.WithLabelValues(string(status)).Add(elapsed.Seconds())
	}
}

func (o *Observer) SessionsChanged(counts domain.SessionCounts) {
	o.SessionsRunning.Set(float64(counts.Running))
	o.SessionsPaused.Set(float64(counts.Paused))
}
