// Package observability records render attempts and aggregates them into the
// operator-facing metrics report, plus the prometheus counters exposed on
// /metrics.
package observability

import (
	"gorm.io/gorm"

	"ogserve/models"
)

// RecordAttempt persists one render attempt outcome. Failed attempts carry
// their error classification tag; successful ones leave it empty.
func RecordAttempt(db *gorm.DB, profileID *uint, key, style string, success bool, durationMs int, errorType string, attemptNumber int) error {
	attempt := models.RenderAttempt{
		ProfileID:     profileID,
		Key:           key,
		Style:         style,
		Success:       success,
		ErrorType:     errorType,
		DurationMs:    durationMs,
		AttemptNumber: attemptNumber,
	}
	return db.Create(&attempt).Error
}
