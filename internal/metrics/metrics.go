package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestgw_deliveries_total",
		Help: "Total webhook deliveries received, labelled by outcome.",
	}, []string{"status"})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestgw_events_processed_total",
		Help: "Total events normalized and written to the store.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestgw_events_dropped_total",
		Help: "Total raw records dropped during normalization (unresolvable id or timestamp).",
	})

	StoreWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestgw_store_write_duration_ms",
		Help:    "Bulk upsert latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)

// Delivery outcome labels.
const (
	StatusOK              = "ok"
	StatusUnauthorized    = "unauthorized"
	StatusForbidden       = "forbidden"
	StatusBadRequest      = "bad_request"
	StatusMisconfigured   = "misconfigured"
	StatusStoreError      = "store_error"
	StatusPayloadTooLarge = "payload_too_large"
)
