package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of orders placed",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Total number of order status transitions by target status",
		},
		[]string{"status"},
	)

	webhooksProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "payments",
			Name:      "webhooks_processed_total",
			Help:      "Total number of gateway webhooks accepted",
		},
	)

	webhooksRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "payments",
			Name:      "webhooks_rejected_total",
			Help:      "Total number of gateway webhooks rejected by signature check",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersPlaced,
		statusTransitions,
		webhooksProcessed,
		webhooksRejected,
	)
}
