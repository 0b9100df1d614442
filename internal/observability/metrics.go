package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boundary_phase_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boundary_graph_nodes_total",
		Help: "Nodes in the dependency graph of the last run.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boundary_graph_edges_total",
		Help: "Edges in the dependency graph of the last run.",
	})

	DomainsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boundary_domains_total",
		Help: "Domain summaries produced by the last run.",
	})

	ConflictsDetected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "boundary_conflicts_total",
		Help: "Conflicts detected in the last run, by type.",
	}, []string{"type"})

	ReviewItemsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boundary_review_items_pending",
		Help: "Findings currently waiting for human review.",
	})

	LLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boundary_llm_calls_total",
		Help: "Language-model enrichment calls, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boundary_watcher_events_total",
		Help: "File system events received by the watcher.",
	})
)
