package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registrations by final status",
		},
		[]string{"status"},
	)

	paymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment verification attempts by result",
		},
		[]string{"result"},
	)

	tierSoldOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_sold_out_total",
			Help: "Order attempts rejected because a tier ran out",
		},
		[]string{"event_id"},
	)

	availableTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_available_tickets",
			Help: "Remaining ticket count per event",
		},
		[]string{"event_id"},
	)
)

func RecordRegistration(status string) {
	registrationsTotal.WithLabelValues(status).Inc()
}

func RecordVerification(result string) {
	paymentVerifications.WithLabelValues(result).Inc()
}

func RecordTierSoldOut(eventID string) {
	tierSoldOut.WithLabelValues(eventID).Inc()
}

func SetAvailableTickets(eventID string, available int) {
	availableTickets.WithLabelValues(eventID).Set(float64(available))
}
