package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jethotel",
			Name:      "reservations_total",
			Help:      "Count of reservation attempts by result.",
		},
		[]string{"result"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jethotel",
			Name:      "payments_total",
			Help:      "Count of payment status transitions.",
		},
		[]string{"transition"},
	)

	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jethotel",
			Name:      "notifications_delivered_total",
			Help:      "Count of outbound notifications by delivery status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jethotel",
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by route and status code class.",
		},
		[]string{"route", "code"},
	)

	revenue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jethotel",
			Name:      "revenue_cents",
			Help:      "Total revenue of paid transactions in cents.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jethotel",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, payments, notificationsDelivered, httpRequests, revenue, cacheLookups)
	})
}

func IncReservation(result string) {
	reservations.WithLabelValues(result).Inc()
}

func IncPayment(transition string) {
	payments.WithLabelValues(transition).Inc()
}

func IncNotification(status string) {
	notificationsDelivered.WithLabelValues(status).Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func SetRevenue(cents int64) {
	revenue.Set(float64(cents))
}

func IncCache(outcome string) {
	cacheLookups.WithLabelValues(outcome).Inc()
}
