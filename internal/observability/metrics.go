// Package observability exposes the Prometheus registry shared by the API
// and the worker.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects application metrics on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quotationsSaved *prometheus.CounterVec
	numberConflicts prometheus.Counter
	pdfCache        *prometheus.CounterVec
	pdfRenders      *prometheus.HistogramVec
}

// NewMetrics registers the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jag_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jag_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	saved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jag_quotations_saved_total",
		Help: "Quotations persisted by resulting status.",
	}, []string{"status"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jag_quotation_number_conflicts_total",
		Help: "Quotation inserts retried after a duplicate number.",
	})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jag_pdf_cache_requests_total",
		Help: "Quotation PDF cache lookups by result.",
	}, []string{"result"})
	renders := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jag_pdf_render_duration_seconds",
		Help:    "Time spent converting quotation HTML to PDF.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"outcome"})
	registry.MustRegister(
		requests, duration, saved, conflicts, cache, renders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		quotationsSaved: saved,
		numberConflicts: conflicts,
		pdfCache:        cache,
		pdfRenders:      renders,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// QuotationSaved counts a persisted quotation.
func (m *Metrics) QuotationSaved(status string) {
	if m == nil {
		return
	}
	m.quotationsSaved.WithLabelValues(status).Inc()
}

// QuotationNumberConflict counts a retried insert.
func (m *Metrics) QuotationNumberConflict() {
	if m == nil {
		return
	}
	m.numberConflicts.Inc()
}

// PDFCache counts a cache lookup.
func (m *Metrics) PDFCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.pdfCache.WithLabelValues(result).Inc()
}

// PDFRendered observes one Gotenberg conversion.
func (m *Metrics) PDFRendered(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.pdfRenders.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
