// Package metrics exposes HTTP and domain metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LedgerRecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_ledger_records_written_total",
			Help: "Ledger records written, by type and method.",
		},
		[]string{"type", "method"},
	)

	InstantProfitPairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_instant_profit_pairs_total",
			Help: "Instant profit pairs, by outcome (created, replayed, conflict, failed).",
		},
		[]string{"outcome"},
	)

	ReportBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_report_build_seconds",
			Help:    "Time to fetch and aggregate a report.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"},
	)

	ReportCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_report_cache_lookups_total",
			Help: "Report cache lookups, by result (hit, miss).",
		},
		[]string{"result"},
	)

	LiabilityRecordsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_liability_records_dropped_total",
		Help: "Liability records without a company or employee counterparty.",
	})

	DocumentsActionRequired = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backoffice_documents_action_required",
		Help: "Documents expired or expiring within a week at the last sweep.",
	})

	DocumentsDismissed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_documents_dismissed_total",
			Help: "Document dismissals, by reason.",
		},
		[]string{"reason"},
	)

	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_events_processed_total",
			Help: "Domain events handled by the worker, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	initOnce sync.Once
)

// Init registers all collectors in the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			LedgerRecordsWritten, InstantProfitPairs, ReportBuildDuration, ReportCacheLookups,
			LiabilityRecordsDropped, DocumentsActionRequired, DocumentsDismissed, EventsProcessed,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSince records the elapsed time for a report build.
func ObserveSince(report string, start time.Time) {
	ReportBuildDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
}

// Instrument measures request count, latency and in-flight requests. The
// route pattern is used as the path label when available to keep label
// cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
