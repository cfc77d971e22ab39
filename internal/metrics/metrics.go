// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package metrics exposes Prometheus instruments for the launcher daemon:
// push-channel ingestion, reconciliation cadence, task snapshot state, and
// the local API surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts push-channel events applied to the task store,
	// labeled by event kind (created, updated, removed).
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packboard_task_events_ingested_total",
			Help: "Total push-channel task events applied to the store",
		},
		[]string{"kind"},
	)

	// InvalidRecordsDropped counts raw task records rejected by validation,
	// labeled by the path they arrived on (push, pull).
	InvalidRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packboard_task_invalid_records_dropped_total",
			Help: "Total malformed task records dropped during validation",
		},
		[]string{"source"},
	)

	// Resyncs counts full-pull reconciliations by result (success, failure).
	Resyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packboard_task_resyncs_total",
			Help: "Total full task-list reconciliations",
		},
		[]string{"result"},
	)

	// ResyncDuration observes how long a full pull plus store replacement takes.
	ResyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "packboard_task_resync_duration_seconds",
			Help:    "Duration of full task-list reconciliations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TasksTracked is the current number of tasks in the snapshot.
	TasksTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "packboard_tasks_tracked",
			Help: "Current number of tasks in the local snapshot",
		},
	)

	// RunningTasks is the current number of tasks with status Running.
	RunningTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "packboard_tasks_running",
			Help: "Current number of running tasks in the local snapshot",
		},
	)

	// WebSocketClients is the current number of connected launcher UI clients.
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "packboard_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	// APIRequests counts local API requests by method, route and status.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packboard_api_requests_total",
			Help: "Total local API requests",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration observes local API request latency per route.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "packboard_api_request_duration_seconds",
			Help:    "Local API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// CircuitBreakerState reports the backend client breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "packboard_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerRequests counts requests through the breaker by outcome
	// (success, failure, rejected).
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packboard_circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by outcome",
		},
		[]string{"name", "outcome"},
	)
)
