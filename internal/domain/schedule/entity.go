package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes after local midnight.
type TimeOfDay int

const MinutesPerDay = 24 * 60

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "15:04" or "15:04:05" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromClock(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// FromClock takes the hour and minute of t, ignoring its date.
func FromClock(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On places the time of day on the given local calendar date.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

type Shift struct {
	ID                         string
	CompanyID                  string
	Name                       string
	StartTime                  TimeOfDay
	EndTime                    TimeOfDay // before StartTime means the shift ends on the next day
	RequiredMinutes            int
	GracePeriodMinutes         int
	LateThresholdMinutes       int
	EarlyLeaveThresholdMinutes int
	BreakStart                 *TimeOfDay
	BreakMinutes               int
	AutoDeductBreak            bool
	OvertimePolicyID           *string
	WorkDays                   []int // ISO weekdays, 1=Monday ... 7=Sunday
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

var defaultWorkDays = []int{1, 2, 3, 4, 5}

// WrapsMidnight reports whether the shift ends on the day after it starts.
func (s Shift) WrapsMidnight() bool {
	return s.EndTime <= s.StartTime
}

// DurationMinutes is the scheduled span from start to end.
func (s Shift) DurationMinutes() int {
	d := int(s.EndTime - s.StartTime)
	if d <= 0 {
		d += MinutesPerDay
	}
	return d
}

// Start returns the scheduled start instant of the shift beginning on date.
func (s Shift) Start(date time.Time, loc *time.Location) time.Time {
	return s.StartTime.On(date, loc)
}

// End returns the scheduled end instant of the shift beginning on date.
func (s Shift) End(date time.Time, loc *time.Location) time.Time {
	end := s.EndTime.On(date, loc)
	if s.WrapsMidnight() {
		end = s.EndTime.On(date.AddDate(0, 0, 1), loc)
	}
	return end
}

// IsWorkDay reports whether the shift is scheduled on the date's weekday.
func (s Shift) IsWorkDay(date time.Time) bool {
	days := s.WorkDays
	if len(days) == 0 {
		days = defaultWorkDays
	}
	iso := ISOWeekday(date)
	for _, d := range days {
		if d == iso {
			return true
		}
	}
	return false
}

// ISOWeekday maps time.Weekday to 1=Monday ... 7=Sunday.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ShiftAssignment is one entry of a staff member's shift history.
// EffectiveTo is inclusive; nil means open ended.
type ShiftAssignment struct {
	ID            string
	EmployeeID    string
	ShiftID       string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	CreatedAt     time.Time
}

// Covers reports whether the assignment is in effect on the calendar date.
func (a ShiftAssignment) Covers(date time.Time) bool {
	d := DateOnly(date)
	if d.Before(DateOnly(a.EffectiveFrom)) {
		return false
	}
	return a.EffectiveTo == nil || !d.After(DateOnly(*a.EffectiveTo))
}

// DateOnly truncates t to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
