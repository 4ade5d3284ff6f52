package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Scheduling metrics
	AppointmentsBooked    prometheus.Counter
	AppointmentsUpdated   prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	BookingRejections     *prometheus.CounterVec
	DegradedReads         *prometheus.CounterVec

	// Event metrics
	EventsDispatched *prometheus.CounterVec

	// Authorization metrics
	AuthorizationFailures *prometheus.CounterVec
	IdentityCache         *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointments_booked_total",
			Help:      "Total number of booked appointments",
		}),
		AppointmentsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointments_updated_total",
			Help:      "Total number of updated appointments",
		}),
		AppointmentsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointments_cancelled_total",
			Help:      "Total number of cancelled appointments",
		}),
		BookingRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "booking_rejections_total",
			Help:      "Bookings refused by validation, by reason",
		}, []string{"reason"}),
		DegradedReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "degraded_reads_total",
			Help:      "Reads answered with an empty fallback after a storage failure",
		}, []string{"operation"}),

		EventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dispatched_total",
			Help:      "Appointment events handed to the broker, by result",
		}, []string{"result"}),

		AuthorizationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "authorization_failures_total",
			Help:      "Requests rejected by the authorization gateway, by required role",
		}, []string{"role"}),
		IdentityCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "identity_cache_lookups_total",
			Help:      "Identity resolver cache lookups, by result",
		}, []string{"result"}),
	}
}
