package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors, registered on the default registry and exposed
// through the /metrics route.
var (
	// ChatTurns counts completed conversation turns.
	ChatTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tailortalk_chat_turns_total",
		Help: "Number of chat turns processed.",
	})

	// ToolCalls counts tool executions requested by the model, labelled
	// by tool name and outcome ("ok" or "error").
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailortalk_tool_calls_total",
		Help: "Number of tool invocations requested by the model.",
	}, []string{"tool", "outcome"})

	// ModelCalls counts Gemini round trips by outcome ("ok" or "error").
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailortalk_model_calls_total",
		Help: "Number of Gemini round trips.",
	}, []string{"outcome"})

	// ModelLatency observes wall time of individual model round trips.
	ModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tailortalk_model_latency_seconds",
		Help:    "Latency of Gemini round trips.",
		Buckets: prometheus.DefBuckets,
	})

	// ActiveSessions tracks sessions currently held in memory.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tailortalk_active_sessions",
		Help: "Number of live chat sessions.",
	})
)
