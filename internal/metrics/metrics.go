// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomcast_connections_active",
			Help: "Open WebSocket connections",
		},
	)

	DeliveriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomcast_deliveries_dropped_total",
			Help: "Outbound events that could not be queued for a connection",
		},
	)

	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomcast_inbound_events_total",
			Help: "Inbound events accepted by the hub",
		},
		[]string{"event"},
	)

	// Presence metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomcast_rooms_active",
			Help: "Rooms with at least one member",
		},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomcast_messages_total",
			Help: "Messages appended to room history",
		},
		[]string{"type"}, // "user" or "status"
	)

	JoinsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomcast_joins_rejected_total",
			Help: "Join and rename requests rejected by validation",
		},
		[]string{"reason"},
	)
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomcast_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomcast_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
