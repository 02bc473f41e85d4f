// Copyright (c) 2025 BVK Chaitanya

// Package metrics defines the prometheus metrics exported by ledgerwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrackedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "entities",
		Help:      "Number of currently tracked entities",
	})

	Polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "polls_total",
		Help:      "Total poll executions",
	}, []string{"mode"})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "poll_errors_total",
		Help:      "Total poll executions that failed to query the upstream",
	}, []string{"mode"})

	PollLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "poll_duration_seconds",
		Help:      "Poll execution duration including notifications",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	Matches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "matches_total",
		Help:      "Total balance changes and transfer matches detected",
	}, []string{"mode"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Total successful deliveries per channel",
	}, []string{"channel"})

	DeliveryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "notify",
		Name:      "delivery_errors_total",
		Help:      "Total failed deliveries per channel",
	}, []string{"channel"})

	SnapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerwatch",
		Subsystem: "tracker",
		Name:      "snapshot_errors_total",
		Help:      "Total registry snapshot write failures",
	})
)
