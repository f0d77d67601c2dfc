package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the storefront's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations sent to the backend, by operation and result.",
		},
		[]string{"op", "result"},
	)

	pendingOverlays = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "pending_overlays",
			Help:      "Cart lines currently displaying an unconfirmed quantity.",
		},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "finalize_total",
			Help:      "Checkout submissions, by result.",
		},
		[]string{"result"},
	)

	remoteCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Duration of calls to the restaurant backend.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"endpoint", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		cartMutations,
		pendingOverlays,
		checkouts,
		remoteCalls,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordCartMutation(op string, err error) {
	cartMutations.WithLabelValues(op, result(err)).Inc()
}

func PendingOverlayAdded() { pendingOverlays.Inc() }
func PendingOverlayCleared() { pendingOverlays.Dec() }

func RecordCheckout(err error) {
	checkouts.WithLabelValues(result(err)).Inc()
}

func ObserveRemoteCall(endpoint string, err error, d time.Duration) {
	remoteCalls.WithLabelValues(endpoint, result(err)).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
