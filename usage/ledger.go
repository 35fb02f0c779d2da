// Package usage enforces per-profile daily and monthly render quotas.
// All counter mutation happens inside one row-locked transaction per call,
// so two concurrent requests can never both slip past the limit.
package usage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ogserve/database"
	"ogserve/models"
)

// Limits configures the ledger. A limit of 0 disables that scope.
type Limits struct {
	Daily       int
	Monthly     int
	WarnPercent float64 // fraction of the limit that triggers a one-time warning
}

// State is the outcome of one recorded attempt.
type State struct {
	Blocked        bool
	BlockedReasons []string // "daily" and/or "monthly"
	Warnings       []string // scopes whose warning fired on this call
	DailyCount     int
	MonthlyCount   int
	DailyLimit     int
	MonthlyLimit   int
}

func enabled(limit int) bool { return limit > 0 }

func warnThreshold(limit int, percent float64) int {
	return int(float64(limit) * percent)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

// RecordAttempt counts one render attempt against the profile.
//
// Inside the transaction: the counter row is locked, expired periods are
// reset, and the tentative next counts are compared against the limits. A
// blocked attempt leaves the counters untouched and reports every exceeded
// scope; a successful one commits the increments and fires any pending
// warnings exactly once per period.
func RecordAttempt(db *gorm.DB, profileID uint, now time.Time, limits Limits) (State, error) {
	today := dateOnly(now)
	month := monthStart(today)

	state := State{DailyLimit: limits.Daily, MonthlyLimit: limits.Monthly}

	err := db.Transaction(func(tx *gorm.DB) error {
		var usage models.ProfileUsage
		err := database.ForUpdate(tx).Where("profile_id = ?", profileID).First(&usage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First attempt for this profile. A plain INSERT racing another
			// first request would abort the whole transaction on postgres, so
			// insert conflict-tolerantly and lock whichever row won.
			usage = models.ProfileUsage{ProfileID: profileID, DailyDate: today, MonthlyDate: month}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage).Error; err != nil {
				return err
			}
			if err := database.ForUpdate(tx).Where("profile_id = ?", profileID).First(&usage).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if !sameDate(usage.DailyDate, today) {
			usage.DailyDate = today
			usage.DailyCount = 0
			usage.DailyWarningSent = false
		}
		if !sameDate(usage.MonthlyDate, month) {
			usage.MonthlyDate = month
			usage.MonthlyCount = 0
			usage.MonthlyWarningSent = false
		}

		nextDaily := usage.DailyCount + 1
		nextMonthly := usage.MonthlyCount + 1

		var blockedReasons []string
		if enabled(limits.Daily) && nextDaily >= limits.Daily {
			blockedReasons = append(blockedReasons, "daily")
		}
		if enabled(limits.Monthly) && nextMonthly >= limits.Monthly {
			blockedReasons = append(blockedReasons, "monthly")
		}

		if len(blockedReasons) > 0 {
			state.Blocked = true
			state.BlockedReasons = blockedReasons
			state.DailyCount = usage.DailyCount
			state.MonthlyCount = usage.MonthlyCount
			// Period resets still need to land even when the attempt is blocked.
			return tx.Save(&usage).Error
		}

		usage.DailyCount = nextDaily
		usage.MonthlyCount = nextMonthly

		var warnings []string
		if enabled(limits.Daily) && !usage.DailyWarningSent &&
			usage.DailyCount >= warnThreshold(limits.Daily, limits.WarnPercent) {
			usage.DailyWarningSent = true
			warnings = append(warnings, "daily")
		}
		if enabled(limits.Monthly) && !usage.MonthlyWarningSent &&
			usage.MonthlyCount >= warnThreshold(limits.Monthly, limits.WarnPercent) {
			usage.MonthlyWarningSent = true
			warnings = append(warnings, "monthly")
		}

		state.Warnings = warnings
		state.DailyCount = usage.DailyCount
		state.MonthlyCount = usage.MonthlyCount

		return tx.Save(&usage).Error
	})

	return state, err
}
