package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_items_fetched_total",
		Help: "Articles returned by fetch adapters",
	}, []string{"side"})

	BatchesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_batches_scored_total",
		Help: "Scoring batches by outcome (scored, defaulted)",
	}, []string{"side", "outcome"})

	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_llm_calls_total",
		Help: "Completion calls by stage and outcome",
	}, []string{"stage", "outcome"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsletter_llm_request_duration_seconds",
		Help:    "Duration of completion calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	DuplicatesRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_duplicates_removed_total",
		Help: "Items dropped as duplicates by stage (signature, final)",
	}, []string{"stage"})

	ItemsSelected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_items_selected_total",
		Help: "Items surviving post-processing, by side and path (threshold, fallback)",
	}, []string{"side", "path"})

	Translations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_translations_total",
		Help: "Translation attempts by outcome (ok, failed, cached)",
	}, []string{"outcome"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_deliveries_total",
		Help: "Digest deliveries by status",
	}, []string{"status"})
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeDefaulted = "defaulted"
	OutcomeCached    = "cached"
)

// ObserveLLM records one completion call.
func ObserveLLM(stage string, seconds float64, err error) {
	LLMRequestDuration.WithLabelValues(stage).Observe(seconds)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	LLMCalls.WithLabelValues(stage, outcome).Inc()
}
