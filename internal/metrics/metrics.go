// Package metrics exposes run telemetry as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/timer"
)

// Compile-time interface check.
var _ timer.Recorder = (*Registry)(nil)

const namespace = "vibetimer"

// Registry is a private Prometheus registry holding the timer metrics.
type Registry struct {
	prom *prometheus.Registry
	log  *logger.Logger

	boundaries *prometheus.CounterVec
	completed  prometheus.Counter
	commands   *prometheus.CounterVec
	phase      prometheus.Gauge
}

// New creates the registry with the standard Go and process collectors.
func New(log *logger.Logger) (*Registry, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}

	r := &Registry{
		prom: reg,
		log:  log,
		boundaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundaries_total",
			Help:      "Activity boundaries crossed, by kind.",
		}, []string{"kind"}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Runs that reached the end of their last cycle.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Timer commands applied, by command.",
		}, []string{"command"}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_phase",
			Help:      "Current run phase: 0 idle, 1 running, 2 paused, 3 completed.",
		}),
	}

	for _, c := range []prometheus.Collector{r.boundaries, r.completed, r.commands, r.phase} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering timer metrics: %w", err)
		}
	}
	return r, nil
}

// CommandApplied counts a command.
func (r *Registry) CommandApplied(name string) {
	r.commands.WithLabelValues(name).Inc()
}

// BoundaryCrossed counts a boundary and, for the last one, a finished run.
func (r *Registry) BoundaryCrossed(ev domain.CueEvent) {
	r.boundaries.WithLabelValues(ev.Kind.String()).Inc()
	if ev.Kind == domain.BoundaryComplete {
		r.completed.Inc()
	}
}

// PhaseChanged records the current phase.
func (r *Registry) PhaseChanged(phase domain.Phase) {
	r.phase.Set(float64(phase))
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("metrics: serving on %s/metrics", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}
