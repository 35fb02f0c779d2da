package models

import "time"

// ProfileUsage holds the daily and monthly render counters for one profile.
// Rows are only ever mutated inside a row-locked transaction (see usage package);
// counters and warning flags reset when the stored period no longer matches.
type ProfileUsage struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ProfileID uint `json:"profile_id" gorm:"uniqueIndex;not null"`

	DailyDate        time.Time `json:"daily_date"` // the day the daily counter belongs to
	DailyCount       int       `json:"daily_count"`
	DailyWarningSent bool      `json:"daily_warning_sent"`

	MonthlyDate        time.Time `json:"monthly_date"` // first of the counted month
	MonthlyCount       int       `json:"monthly_count"`
	MonthlyWarningSent bool      `json:"monthly_warning_sent"`

	UpdatedAt time.Time `json:"updated_at"`
}
