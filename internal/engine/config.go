// Package engine turns raw punch events into attendance records.
//
// Everything here is a pure function of its inputs: no I/O, no clock reads.
// Re-running ProcessDay or ReconcileWeek with the same inputs yields records
// with the same Fingerprint, so retries after a partial failure are safe.
package engine

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

type Config struct {
	// DebounceWindow collapses repeated reads from one device.
	DebounceWindow time.Duration
	// MaxIntervalMinutes flags intervals long enough to suggest a forgotten punch.
	MaxIntervalMinutes int
	// DuplicateEventThreshold flags a day when more debounced reads than this were dropped.
	DuplicateEventThreshold int
	// ShortShiftRatio flags complete days whose net time is below this share of the required time.
	ShortShiftRatio float64
	// WeekendDays are ISO weekdays treated as weekend for overtime.
	WeekendDays []int
	// DefaultLeaveMinutes is the full-day leave allocation when no shift is assigned.
	DefaultLeaveMinutes int
}

func DefaultConfig() Config {
	return Config{
		DebounceWindow:          60 * time.Second,
		MaxIntervalMinutes:      16 * 60,
		DuplicateEventThreshold: 3,
		ShortShiftRatio:         0.5,
		WeekendDays:             []int{6, 7},
		DefaultLeaveMinutes:     8 * 60,
	}
}

func (c Config) IsWeekend(date time.Time) bool {
	iso := schedule.ISOWeekday(date)
	for _, d := range c.WeekendDays {
		if d == iso {
			return true
		}
	}
	return false
}
