package models

import "time"

// RenderAttempt is an append-only observability record, one per render
// invocation including retries. Never mutated after creation.
type RenderAttempt struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	ProfileID     *uint  `json:"profile_id" gorm:"index"`
	Key           string `json:"key" gorm:"size:16;index"`
	Style         string `json:"style" gorm:"size:20"`
	Success       bool   `json:"success"`
	ErrorType     string `json:"error_type" gorm:"size:40;index"`
	DurationMs    int    `json:"duration_ms"`
	AttemptNumber int    `json:"attempt_number"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
