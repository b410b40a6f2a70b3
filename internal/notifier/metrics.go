package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plantmanager",
		Subsystem: "notifier",
		Name:      "scheduled_total",
		Help:      "Reminders handed to the device.",
	})

	cancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plantmanager",
		Subsystem: "notifier",
		Name:      "cancelled_total",
		Help:      "Reminders removed from the device.",
	})

	firedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantmanager",
			Subsystem: "notifier",
			Name:      "fired_total",
			Help:      "Due reminders by outcome (sent, failed, skipped).",
		},
		[]string{"outcome"},
	)
)
