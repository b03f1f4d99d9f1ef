package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drt_ledger_transactions_total",
			Help: "Transactions processed by the ledger, by instruction and result",
		},
		[]string{"instruction", "result"},
	)

	TransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drt_ledger_transaction_duration_seconds",
			Help:    "Time to validate and commit a transaction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"instruction"},
	)

	LatestSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drt_ledger_latest_slot",
			Help: "Slot of the last committed transaction",
		},
	)

	JournalErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drt_ledger_journal_errors_total",
			Help: "Receipts that could not be written to the journal",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drt_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drt_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CatalogSyncedSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drt_catalog_synced_slot",
			Help: "Last slot mirrored into the off-chain catalog",
		},
	)
)

// Middleware records HTTP request counts and latency by route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
