package engine

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// Cover is the leave and holiday context of one staff day.
type Cover struct {
	Leave   *leave.LeaveRequest
	Holiday *leave.Holiday
}

// FullDayLeave reports whether an approved leave covers the whole day.
func (c Cover) FullDayLeave() bool {
	return c.Leave != nil && !c.Leave.IsHalfDay()
}

func (c Cover) HalfDayLeave() bool {
	return c.Leave != nil && c.Leave.IsHalfDay()
}

// LeaveMinutes is the time credited by the leave: the required time for a full
// day, half of it for a half day.
func (c Cover) LeaveMinutes(requiredMinutes int) int {
	switch {
	case c.FullDayLeave():
		return requiredMinutes
	case c.HalfDayLeave():
		return requiredMinutes / 2
	}
	return 0
}

// ResolveCover finds the approved leave and the holiday that apply to date.
// A full-day leave is preferred over a half-day one; ties go to the lowest ID.
func ResolveCover(date time.Time, locationID *string, leaves []leave.LeaveRequest, holidays []leave.Holiday) Cover {
	var cover Cover
	d := schedule.DateOnly(date)

	var matching []leave.LeaveRequest
	for _, l := range leaves {
		if l.Status == leave.LeaveRequestStatusApproved && l.Covers(d) {
			matching = append(matching, l)
		}
	}
	if len(matching) > 0 {
		sort.Slice(matching, func(i, j int) bool {
			if matching[i].IsHalfDay() != matching[j].IsHalfDay() {
				return !matching[i].IsHalfDay()
			}
			return matching[i].ID < matching[j].ID
		})
		l := matching[0]
		cover.Leave = &l
	}

	var observed []leave.Holiday
	for _, h := range holidays {
		if schedule.DateOnly(h.Date).Equal(d) && h.AppliesTo(locationID) {
			observed = append(observed, h)
		}
	}
	if len(observed) > 0 {
		sort.Slice(observed, func(i, j int) bool { return observed[i].ID < observed[j].ID })
		h := observed[0]
		cover.Holiday = &h
	}

	return cover
}
