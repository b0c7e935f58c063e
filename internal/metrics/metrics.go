package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RelationChanges counts favorite, shopping cart and subscription
	// writes. outcome is created, deleted, conflict or missing.
	RelationChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_changes_total",
			Help: "Favorite, shopping cart and subscription changes",
		},
		[]string{"relation", "outcome"},
	)

	ShoppingListExports = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "Number of shopping lists exported",
		},
	)

	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Distinct ingredient lines per exported shopping list",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

// RecordAPIRequest records one finished request. route is the matched route
// template so path parameters do not explode label cardinality.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordRelationChange(relation, outcome string) {
	RelationChanges.WithLabelValues(relation, outcome).Inc()
}

func RecordShoppingListExport(lines int) {
	ShoppingListExports.Inc()
	ShoppingListLines.Observe(float64(lines))
}
