// Package metrics provides Prometheus metrics for Qamqor: inbound event
// traffic, lifecycle engine operations, and claim contention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Events ─────────────────────────────────────────────────────────────────

// EventsTotal counts inbound events by kind and resolved role.
var EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "qamqor",
	Name:      "events_total",
	Help:      "Total inbound events handled.",
}, []string{"kind", "role"})

// EventLatency tracks event handling duration in seconds.
var EventLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "qamqor",
	Name:      "event_latency_seconds",
	Help:      "Inbound event handling duration in seconds.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Lifecycle Engine ───────────────────────────────────────────────────────

// EngineOps counts lifecycle operations by name and outcome (ok or the
// failure kind).
var EngineOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "qamqor",
	Name:      "engine_operations_total",
	Help:      "Total lifecycle engine operations.",
}, []string{"op", "outcome"})

// ClaimConflicts counts claim attempts that lost the check-and-set race.
var ClaimConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "qamqor",
	Name:      "claim_conflicts_total",
	Help:      "Total claims rejected because the spec was already taken.",
})

// ─── Sessions ───────────────────────────────────────────────────────────────

// SessionsActive tracks conversations currently holding a step.
var SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "qamqor",
	Name:      "sessions_active",
	Help:      "Number of users with an in-flight conversation step.",
})
