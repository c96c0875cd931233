package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store Metrics
var (
	// StoreParameterUpdates tracks accepted parameter mutations
	StoreParameterUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_parameter_updates_total",
			Help: "Total accepted parameter updates",
		},
	)

	// StoreRejectedUpdates tracks rejected mutations (unknown id, non-numeric value)
	StoreRejectedUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_rejected_updates_total",
			Help: "Total rejected store mutations (unknown id or malformed value)",
		},
	)
)

// Event Bus Metrics
var (
	// BusEventsPublished tracks events published by type
	BusEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_events_published_total",
			Help: "Total events published on the bus by event type",
		},
		[]string{"type"},
	)

	// BusEventsDropped tracks events dropped because a subscriber buffer was full
	BusEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_events_dropped_total",
			Help: "Total events dropped due to a full subscriber buffer",
		},
	)
)

// Hub Metrics
var (
	// HubConnectedObservers tracks currently connected WebSocket observers
	HubConnectedObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_observers",
			Help: "Current number of connected WebSocket observers",
		},
	)

	// HubCommandsTotal tracks inbound commands by type and result
	HubCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_commands_total",
			Help: "Total inbound commands by type and result (ok/rejected/error)",
		},
		[]string{"type", "result"},
	)

	// HubSlowObserversEvicted tracks observers evicted due to a full send buffer
	HubSlowObserversEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_observers_evicted_total",
			Help: "Total slow observers evicted due to send buffer full",
		},
	)

	// HubSendDuration tracks WebSocket message send duration
	HubSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hub_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total hub panic recoveries",
		},
	)
)

// Connection Limit Metrics
var (
	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/per_ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)
)

// Animator Metrics
var (
	// AnimatorBlinksTotal tracks completed blink sequences
	AnimatorBlinksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animator_blinks_total",
			Help: "Total completed blink sequences",
		},
	)

	// AnimatorTicksTotal tracks animator ticks by channel
	AnimatorTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animator_ticks_total",
			Help: "Total animator ticks by channel (breathing/blink/idle)",
		},
		[]string{"channel"},
	)
)

// Motion Metrics
var (
	// MotionRequestsTotal tracks motion requests by result
	MotionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motion_requests_total",
			Help: "Total motion requests by result (accepted/rejected)",
		},
		[]string{"result"},
	)

	// MotionsActive tracks currently playing (overlapping) motions
	MotionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motions_active",
			Help: "Number of currently playing motions",
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTP Request Metrics
// Note: http_errors_total{type} is provided by the internal/errors package
