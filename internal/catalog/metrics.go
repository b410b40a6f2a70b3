package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantmanager",
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog fetches by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plantmanager",
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Latency of catalog fetches.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
