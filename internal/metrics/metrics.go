package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nursecare",
			Name:      "appointment_created_total",
			Help:      "Count of appointments committed, by initial status.",
		},
		[]string{"status"},
	)

	slotConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nursecare",
			Name:      "slot_conflict_total",
			Help:      "Count of commits rejected by the active-slot uniqueness constraint.",
		},
	)

	partialFailure = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nursecare",
			Name:      "booking_partial_failure_total",
			Help:      "Count of bookings rolled back after a failed service-link insert.",
		},
	)

	statusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nursecare",
			Name:      "appointment_status_changed_total",
			Help:      "Count of administrative status transitions, by new status.",
		},
		[]string{"status"},
	)

	notificationOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nursecare",
			Name:      "notification_total",
			Help:      "Count of outbound webhook deliveries, by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			appointmentCreated, slotConflict, partialFailure, statusChanged, notificationOutcome,
		)
	})
}

func IncAppointmentCreated(status string) {
	appointmentCreated.WithLabelValues(status).Inc()
}

func IncSlotConflict() {
	slotConflict.Inc()
}

func IncPartialFailure() {
	partialFailure.Inc()
}

func IncStatusChanged(status string) {
	statusChanged.WithLabelValues(status).Inc()
}

func IncNotificationSent() {
	notificationOutcome.WithLabelValues("sent").Inc()
}

func IncNotificationFailed() {
	notificationOutcome.WithLabelValues("failed").Inc()
}
