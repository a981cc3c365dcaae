// Package metrics exposes Prometheus collectors for the reservation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hotel_booking"

var (
	ReservationsAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_admitted_total",
		Help:      "Reservations admitted by the availability engine, by initial status.",
	}, []string{"status"})

	ReservationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_rejected_total",
		Help:      "Reservation requests rejected, by reason.",
	}, []string{"reason"})

	ReservationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_transitions_total",
		Help:      "Reservation status transitions, by target status.",
	}, []string{"status"})

	StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_retries_total",
		Help:      "Retries of ledger operations after transient store errors.",
	}, []string{"operation"})

	ReserveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "check_and_reserve_duration_seconds",
		Help:      "Latency of CheckAndReserve including retries.",
		Buckets:   prometheus.DefBuckets,
	})
)
