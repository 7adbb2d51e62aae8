package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "reservations_created_total",
			Help:      "Reservations successfully booked.",
		},
	)

	tablesSeated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "tables_seated_total",
			Help:      "Successful seat assignments.",
		},
	)

	tablesFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "tables_finished_total",
			Help:      "Tables released after service.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationsCreated, tablesSeated, tablesFinished)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func IncReservationCreated() { reservationsCreated.Inc() }
func IncTableSeated()        { tablesSeated.Inc() }
func IncTableFinished()      { tablesFinished.Inc() }
