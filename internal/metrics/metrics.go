// Package metrics registers the domain counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barberpos_settlements_total",
		Help: "Settled transactions by payment method.",
	}, []string{"payment_method"})

	SettlementAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barberpos_settlement_amount_total",
		Help: "Settled revenue in minor currency units by payment method.",
	}, []string{"payment_method"})

	AccrualFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barberpos_shift_accrual_failures_total",
		Help: "Settlements whose shift revenue accrual failed.",
	})

	OutboxDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barberpos_outbox_deliveries_total",
		Help: "WhatsApp delivery attempts by result (sent, retry, failed).",
	}, []string{"result"})

	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barberpos_bookings_total",
		Help: "Booking creations and transitions by resulting status.",
	}, []string{"status"})
)
