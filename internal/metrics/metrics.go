package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruleflow_evaluations_total",
		Help: "Total number of rule evaluations performed.",
	})

	RuleMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleflow_rule_matches_total",
		Help: "Total number of matched evaluations, labelled by rule ID.",
	}, []string{"rule_id"})

	AlertsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleflow_alerts_dispatched_total",
		Help: "Total number of alert deliveries, labelled by sink and status.",
	}, []string{"sink", "status"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ruleflow_evaluation_duration_us",
		Help:    "Single rule evaluation latency in microseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	ActiveMonitors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ruleflow_active_monitors",
		Help: "Number of rule monitors currently running.",
	})
)
