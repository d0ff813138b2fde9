package engine

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// Window is the half-open span [Start, End) of instants that belong to one attendance day.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow anchors a 24 hour window on the shift start. The window opens
// halfway through the off-shift gap before the shift, so early arrivals and
// overnight shifts land on the day the shift starts. Without a shift the
// window is the local calendar day.
func DayWindow(date time.Time, shift *schedule.Shift, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	if shift == nil {
		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}
	}

	lead := (schedule.MinutesPerDay - shift.DurationMinutes()) / 2
	if lead < 0 {
		lead = 0
	}
	start := shift.Start(date, loc).Add(-time.Duration(lead) * time.Minute)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}
