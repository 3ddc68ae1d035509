package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsDispatched counts pipeline outcomes per category
	// (persisted|skipped_trigger|skipped_role|error).
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplyhub_notifications_dispatched_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"category", "outcome"},
	)

	// PushDeliveries counts realtime push writes per result (sent|dropped|offline).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplyhub_push_deliveries_total",
			Help: "Total number of realtime push delivery attempts",
		},
		[]string{"result"},
	)

	// PushChannels tracks the number of live push channels.
	PushChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "supplyhub_push_channels",
			Help: "Number of connected push channels",
		},
	)

	// ReconcileCycles counts completed room reconciliation cycles.
	ReconcileCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supplyhub_reconcile_cycles_total",
			Help: "Total number of chat room reconciliation cycles",
		},
	)

	// RoomsDeleted counts chat rooms removed by the reconciliation loop.
	RoomsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supplyhub_chat_rooms_deleted_total",
			Help: "Total number of empty chat rooms deleted",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supplyhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
