package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karenta",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "karenta",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created.",
		},
	)

	bookingsDeclined = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karenta",
			Name:      "bookings_declined_total",
			Help:      "Declined bookings by outcome (cancelled or refunded).",
		},
		[]string{"outcome"},
	)

	wizardSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karenta",
			Name:      "wizard_submissions_total",
			Help:      "Wizard submissions by kind and result.",
		},
		[]string{"kind", "result"},
	)

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karenta",
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events published on the bus.",
		},
		[]string{"event"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingsDeclined, wizardSubmissions, bookingEvents)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingDeclined(outcome string) {
	bookingsDeclined.WithLabelValues(outcome).Inc()
}

func IncWizardSubmission(kind, result string) {
	wizardSubmissions.WithLabelValues(kind, result).Inc()
}

func IncBookingEvent(eventType string) {
	bookingEvents.WithLabelValues(eventType).Inc()
}
