package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bid outcomes used as the label of BidsTotal
const (
	BidAccepted = "accepted"
	BidRejected = "rejected"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auctions",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auctions",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auctions",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	bidsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auctions",
			Name:      "bids_total",
			Help:      "Bids submitted, by outcome.",
		},
		[]string{"outcome"},
	)

	listingsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auctions",
			Name:      "listings_closed_total",
			Help:      "Listings closed by their seller.",
		},
	)

	listingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auctions",
			Name:      "listings_created_total",
			Help:      "Listings created.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		bidsTotal,
		listingsClosed,
		listingsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count, latency and in-flight requests.
// Routes are labelled by their pattern so path parameters do not explode cardinality.
func GinMiddleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}

	start := time.Now()
	httpInFlight.Inc()
	defer httpInFlight.Dec()

	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	method := c.Request.Method

	httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// RecordBid counts a bid by outcome
func RecordBid(outcome string) {
	bidsTotal.WithLabelValues(outcome).Inc()
}

// RecordListingClosed counts a seller closing a listing
func RecordListingClosed() {
	listingsClosed.Inc()
}

// RecordListingCreated counts a new listing
func RecordListingCreated() {
	listingsCreated.Inc()
}
