// Package metrics wires the engine's Prometheus instrumentation: a
// small set of counters/gauges exposed over /metrics, the same
// ambient observability shape the teacher wires for long-running
// commands via --metrics-addr.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric the iteration controller reports.
type Registry struct {
	registry *prometheus.Registry

	IterationsTotal   *prometheus.CounterVec
	LastAcceptance    prometheus.Gauge
	StopRuleCounter   prometheus.Gauge
	IterationDuration prometheus.Histogram
}

// NewRegistry builds a fresh registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		IterationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nlco",
			Name:      "iterations_total",
			Help:      "Total iterations run, labeled by trigger and acceptance outcome.",
		}, []string{"trigger", "accepted"}),
		LastAcceptance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nlco",
			Name:      "last_iteration_accepted",
			Help:      "1 if the most recent iteration was accepted, 0 otherwise.",
		}),
		StopRuleCounter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nlco",
			Name:      "stop_rule_counter",
			Help:      "Current consecutive-unchanged counter used by the burst stop rule.",
		}),
		IterationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nlco",
			Name:      "iteration_duration_seconds",
			Help:      "Wall-clock duration of a single DETECT-through-LOG iteration.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(r.IterationsTotal, r.LastAcceptance, r.StopRuleCounter, r.IterationDuration)
	return r
}

// ObserveIteration records one completed iteration's outcome.
func (r *Registry) ObserveIteration(trigger string, accepted bool, stopRuleCount int, duration time.Duration) {
	acceptedLabel := "false"
	acceptedGauge := 0.0
	if accepted {
		acceptedLabel = "true"
		acceptedGauge = 1.0
	}
	r.IterationsTotal.WithLabelValues(trigger, acceptedLabel).Inc()
	r.LastAcceptance.Set(acceptedGauge)
	r.StopRuleCounter.Set(float64(stopRuleCount))
	r.IterationDuration.Observe(duration.Seconds())
}

// Serve starts an HTTP server exposing /metrics on addr and blocks
// until ctx is cancelled, then shuts the server down gracefully.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
