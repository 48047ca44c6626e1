// Package metrics provides Prometheus metrics for newsdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PanelRenders counts panel renders by outcome.
	PanelRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "panel_renders_total",
			Help:      "Total number of panel renders",
		},
		[]string{"status"},
	)

	// PanelDuration measures end-to-end panel render time.
	PanelDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "panel_render_duration_seconds",
			Help:      "Duration of panel renders in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ExternalCalls counts calls to the sentiment and summary services.
	ExternalCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "external_calls_total",
			Help:      "Total number of calls to external services",
		},
		[]string{"service", "status"},
	)

	// BriefCache counts brief lookups by result.
	BriefCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "brief_cache_total",
			Help:      "Brief cache lookups by result (hit, miss, fallback, backoff)",
		},
		[]string{"result"},
	)

	// RankedStories observes candidate and selected story counts.
	RankedStories = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "ranked_stories",
			Help:      "Distribution of cluster counts before and after selection",
			Buckets:   []float64{0, 1, 3, 5, 8, 13, 21, 50, 100, 250, 500},
		},
		[]string{"stage"},
	)
)

// RecordRender records a panel render.
func RecordRender(status string, seconds float64) {
	PanelRenders.WithLabelValues(status).Inc()
	PanelDuration.Observe(seconds)
}

// RecordExternal records the outcome of a call to an external service.
func RecordExternal(service string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ExternalCalls.WithLabelValues(service, status).Inc()
}

// RecordBrief records a brief cache lookup.
func RecordBrief(result string) {
	BriefCache.WithLabelValues(result).Inc()
}

// RecordRanking records the size of a ranking pass.
func RecordRanking(candidates, selected int) {
	RankedStories.WithLabelValues("input").Observe(float64(candidates))
	RankedStories.WithLabelValues("selected").Observe(float64(selected))
}
