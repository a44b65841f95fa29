// Package metrics owns the prometheus registry and the collectors the
// application records into.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"outreach/internal/platform/sl"
)

// Metrics groups every collector on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	QueryDuration   *prometheus.HistogramVec
	QueryErrors     *prometheus.CounterVec
	LoginAttempts   *prometheus.CounterVec
	LeadPageLoads   *prometheus.CounterVec
	Registrations   prometheus.Counter
	LeadsSubmitted  prometheus.Counter
	EmailsSent      *prometheus.CounterVec
	StreamClients   prometheus.Gauge
}

// New registers all collectors, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outreach_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outreach_db_query_duration_seconds",
			Help:    "Database statement latency by statement label.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"statement"}),
		QueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_db_query_errors_total",
			Help: "Database statements that returned an error.",
		}, []string{"statement"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		LeadPageLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_lead_page_loads_total",
			Help: "Leads page loads by outcome (ok, error, busy).",
		}, []string{"outcome"}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "outreach_event_registrations_total",
			Help: "Event registrations accepted.",
		}),
		LeadsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "outreach_leads_submitted_total",
			Help: "Saved forms accepted.",
		}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_emails_total",
			Help: "Transactional emails by kind and outcome.",
		}, []string{"kind", "outcome"}),
		StreamClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_lead_stream_clients",
			Help: "Open leads live-update streams.",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveQuery satisfies storage.QueryObserver.
func (m *Metrics) ObserveQuery(label string, d time.Duration, err error) {
	m.QueryDuration.WithLabelValues(label).Observe(d.Seconds())
	if err != nil {
		m.QueryErrors.WithLabelValues(label).Inc()
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

// Outcome returns "ok" or "error" for counters keyed by outcome.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve runs a dedicated metrics listener until ctx is cancelled.
// The application listener never exposes /metrics.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics_listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics_server_failed", sl.Err(err))
		return err
	}
	return nil
}
