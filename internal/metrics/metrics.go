// Package metrics exposes the bot's Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's instrumentation. A nil *Metrics is valid and
// records nothing, so wiring stays unconditional.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal    prometheus.Counter
	fetchErrors   prometheus.Counter
	fetchDuration prometheus.Histogram
	sentTotal     prometheus.Counter
	sendErrors    prometheus.Counter
	lastPostTime  prometheus.Gauge
}

// New creates and registers the bot metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mensabot_menu_fetch_total",
			Help: "Number of menu fetch attempts.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mensabot_menu_fetch_errors_total",
			Help: "Number of failed menu fetches.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mensabot_menu_fetch_duration_seconds",
			Help:    "Duration of menu fetches including retries.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mensabot_messages_sent_total",
			Help: "Number of Zulip messages sent.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mensabot_message_send_errors_total",
			Help: "Number of failed Zulip message sends.",
		}),
		lastPostTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mensabot_last_post_timestamp_seconds",
			Help: "Unix time of the last successful menu post.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal, m.fetchErrors, m.fetchDuration,
		m.sentTotal, m.sendErrors, m.lastPostTime,
	)
	return m
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchTotal.Inc()
	m.fetchDuration.Observe(duration.Seconds())
	if err != nil {
		m.fetchErrors.Inc()
	}
}

// ObserveSend records one message send attempt.
func (m *Metrics) ObserveSend(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sendErrors.Inc()
		return
	}
	m.sentTotal.Inc()
}

// ObservePost records a completed menu post.
func (m *Metrics) ObservePost(at time.Time) {
	if m == nil {
		return
	}
	m.lastPostTime.Set(float64(at.Unix()))
}

// Handler returns the scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint on addr until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log logr.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
