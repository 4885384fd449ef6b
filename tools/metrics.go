package tools

import "github.com/prometheus/client_golang/prometheus"

var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexuslm_tool_calls_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "result"},
	)

	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexuslm_tool_call_duration_seconds",
			Help:    "Duration of tool invocations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(toolCallsTotal, toolCallDuration)
}
