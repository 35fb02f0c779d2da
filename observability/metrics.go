package observability

import (
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"ogserve/models"
)

// RenderMetrics is the aggregated report for a trailing window.
type RenderMetrics struct {
	WindowHours     int            `json:"window_hours"`
	TotalAttempts   int64          `json:"total_attempts"`
	FailedAttempts  int64          `json:"failed_attempts"`
	FailRatePercent float64        `json:"fail_rate_percent"`
	P95RenderMs     *int           `json:"p95_render_ms"`
	ErrorCounts     map[string]int `json:"error_counts"`
}

// BuildRenderMetrics aggregates render attempts from the trailing window.
// The p95 is nearest-rank over successful attempt durations; with no
// successes it is null rather than zero.
func BuildRenderMetrics(db *gorm.DB, windowHours int, now time.Time) (RenderMetrics, error) {
	if windowHours < 1 {
		windowHours = 24
	}
	since := now.Add(-time.Duration(windowHours) * time.Hour)

	metrics := RenderMetrics{
		WindowHours: windowHours,
		ErrorCounts: map[string]int{},
	}

	window := func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.RenderAttempt{}).Where("created_at >= ?", since)
	}

	if err := window(db).Count(&metrics.TotalAttempts).Error; err != nil {
		return metrics, err
	}
	if err := window(db).Where("success = ?", false).Count(&metrics.FailedAttempts).Error; err != nil {
		return metrics, err
	}

	if metrics.TotalAttempts > 0 {
		rate := float64(metrics.FailedAttempts) / float64(metrics.TotalAttempts) * 100
		metrics.FailRatePercent = math.Round(rate*100) / 100
	}

	var durations []int
	if err := window(db).Where("success = ?", true).Pluck("duration_ms", &durations).Error; err != nil {
		return metrics, err
	}
	if len(durations) > 0 {
		sort.Ints(durations)
		rank := int(math.Ceil(0.95*float64(len(durations)))) - 1
		if rank < 0 {
			rank = 0
		}
		p95 := durations[rank]
		metrics.P95RenderMs = &p95
	}

	type errorRow struct {
		ErrorType string
		Count     int
	}
	var rows []errorRow
	err := window(db).
		Where("success = ? AND error_type <> ''", false).
		Select("error_type, count(*) as count").
		Group("error_type").
		Scan(&rows).Error
	if err != nil {
		return metrics, err
	}
	for _, row := range rows {
		metrics.ErrorCounts[row.ErrorType] = row.Count
	}

	return metrics, nil
}
