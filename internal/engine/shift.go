package engine

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// ResolveShift returns the shift in effect for the staff member on date, using
// the assignment history rather than the current assignment. When several
// assignments cover the date the one with the latest EffectiveFrom wins.
// It returns nil when no shift is assigned.
func ResolveShift(assignments []schedule.ShiftAssignment, shifts map[string]schedule.Shift, date time.Time) *schedule.Shift {
	covering := make([]schedule.ShiftAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Covers(date) {
			covering = append(covering, a)
		}
	}
	if len(covering) == 0 {
		return nil
	}

	sort.Slice(covering, func(i, j int) bool {
		if !covering[i].EffectiveFrom.Equal(covering[j].EffectiveFrom) {
			return covering[i].EffectiveFrom.After(covering[j].EffectiveFrom)
		}
		return covering[i].ID > covering[j].ID
	})

	for _, a := range covering {
		if s, ok := shifts[a.ShiftID]; ok {
			return &s
		}
	}
	return nil
}

// ScheduledDates lists the dates of the week starting at weekStart on which
// the resolved shift expects the staff member to work.
func ScheduledDates(assignments []schedule.ShiftAssignment, shifts map[string]schedule.Shift, weekStart time.Time) []time.Time {
	var dates []time.Time
	for i := 0; i < 7; i++ {
		d := schedule.DateOnly(weekStart).AddDate(0, 0, i)
		if s := ResolveShift(assignments, shifts, d); s != nil && s.IsWorkDay(d) {
			dates = append(dates, d)
		}
	}
	return dates
}
