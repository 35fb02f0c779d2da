package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ogserve_render_attempts_total",
		Help: "Render attempts by style and outcome.",
	}, []string{"style", "outcome"})

	renderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ogserve_render_errors_total",
		Help: "Failed render attempts by error classification.",
	}, []string{"error_type"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ogserve_render_duration_seconds",
		Help:    "Wall time of successful render attempts.",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ogserve_cache_lookups_total",
		Help: "Image cache lookups by result (hit, stale, miss).",
	}, []string{"result"})

	quotaBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ogserve_quota_blocks_total",
		Help: "Requests rejected by usage quotas, by scope.",
	}, []string{"scope"})
)

// ObserveRender feeds one render attempt into the prometheus collectors.
func ObserveRender(style string, success bool, duration time.Duration, errorType string) {
	outcome := "success"
	if !success {
		outcome = "failure"
		if errorType != "" {
			renderErrors.WithLabelValues(errorType).Inc()
		}
	}
	renderTotal.WithLabelValues(style, outcome).Inc()
	if success {
		renderDuration.Observe(duration.Seconds())
	}
}

// ObserveCacheLookup counts a cache lookup outcome.
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveQuotaBlock counts a quota rejection for each exceeded scope.
func ObserveQuotaBlock(scopes []string) {
	for _, scope := range scopes {
		quotaBlocks.WithLabelValues(scope).Inc()
	}
}
