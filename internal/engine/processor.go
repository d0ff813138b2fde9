package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// Override applies an approved correction to a day. The corrected clock-in/out
// become the outer bounds of the day; punched intervals inside them are kept so
// an explicit break survives the correction.
type Override struct {
	CorrectionID string
	ClockIn      time.Time
	ClockOut     time.Time
}

// DayInput is everything needed to compute one (staff, date) record. Punches
// may extend beyond the day; only those inside the day window are used.
type DayInput struct {
	EmployeeID         string
	Date               time.Time
	Location           *time.Location
	LocationID         *string
	DepartmentPolicyID *string

	Assignments []schedule.ShiftAssignment
	Shifts      map[string]schedule.Shift
	Policies    []overtime.Policy
	Punches     []punch.Event
	Leaves      []leave.LeaveRequest
	Holidays    []leave.Holiday

	Override *Override
	Config   Config
}

type DayResult struct {
	Record attendance.Record
	// Warnings are configuration problems that skipped overtime but not the day.
	Warnings []string
	Window   Window
	// PunchIDs are the events attributed to this day, duplicates included.
	PunchIDs []string
	Shift    *schedule.Shift
	Policy   *overtime.Policy
}

// ProcessDay runs the daily pipeline: shift resolution, windowing, pairing (or
// the correction override), deviation, leave and holiday cover, overtime and
// anomaly detection. Data problems become anomaly flags; only unusable input
// such as a zero punch timestamp returns an error.
func ProcessDay(in DayInput) (DayResult, error) {
	date := schedule.DateOnly(in.Date)
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	cfg := in.Config

	for _, e := range in.Punches {
		if e.Timestamp.IsZero() || e.Timestamp.Year() < 1970 {
			return DayResult{}, fmt.Errorf("%w: event %s", punch.ErrMalformedTimestamp, e.ID)
		}
	}

	shift := ResolveShift(in.Assignments, in.Shifts, date)
	window := DayWindow(date, shift, loc)

	var dayPunches []punch.Event
	for _, e := range in.Punches {
		if window.Contains(e.Timestamp) {
			dayPunches = append(dayPunches, e)
		}
	}
	dayPunches = SortEvents(dayPunches)

	cover := ResolveCover(date, in.LocationID, in.Leaves, in.Holidays)

	var pairs PairResult
	if in.Override != nil {
		if !in.Override.ClockOut.After(in.Override.ClockIn) {
			return DayResult{}, attendance.ErrInvalidCorrectionWindow
		}
		punched := PairPunches(dayPunches, cfg.DebounceWindow)
		pairs = PairResult{
			Intervals:  overrideIntervals(*in.Override, punched.Intervals),
			Kept:       punched.Kept,
			Duplicates: punched.Duplicates,
		}
	} else {
		pairs = PairPunches(dayPunches, cfg.DebounceWindow)
	}

	required := cfg.DefaultLeaveMinutes
	isWorkDay := false
	if shift != nil {
		required = requiredMinutes(*shift)
		isWorkDay = shift.IsWorkDay(date)
	}
	isHoliday := cover.Holiday != nil
	restDay := !isWorkDay || isHoliday

	dev := CalculateDeviation(pairs.Intervals, shift, date, loc, DeviationOptions{
		SuppressLate: restDay || cover.FullDayLeave() ||
			(cover.Leave != nil && cover.Leave.DurationType == leave.LeaveDurationHalfDayMorning),
		SuppressEarlyLeave: restDay || cover.FullDayLeave() ||
			(cover.Leave != nil && cover.Leave.DurationType == leave.LeaveDurationHalfDayAfternoon),
	})

	rec := attendance.Record{
		EmployeeID:       in.EmployeeID,
		Date:             date,
		PunchCount:       len(dayPunches),
		OvertimeApproval: attendance.OvertimeApprovalNone,
		Stage:            attendance.StageFinal,
	}
	if shift != nil {
		id := shift.ID
		rec.ShiftID = &id
	}
	if in.Override != nil {
		id := in.Override.CorrectionID
		rec.CorrectionID = &id
	}

	if n := len(pairs.Intervals); n > 0 {
		clockIn := pairs.Intervals[0].Start.UTC()
		clockOut := pairs.Intervals[n-1].End.UTC()
		rec.ClockIn, rec.ClockOut = &clockIn, &clockOut
	} else if pairs.Unpaired != nil {
		clockIn := pairs.Unpaired.Timestamp.UTC()
		rec.ClockIn = &clockIn
	}

	attended := len(pairs.Intervals) > 0 || pairs.Unpaired != nil
	switch {
	case cover.FullDayLeave():
		rec.Presence = attendance.PresenceOnLeave
	case attended:
		rec.Presence = attendance.PresencePresent
	case cover.HalfDayLeave():
		rec.Presence = attendance.PresenceOnLeave
	case isHoliday:
		rec.Presence = attendance.PresenceHoliday
	case isWorkDay:
		rec.Presence = attendance.PresenceAbsent
	default:
		rec.Presence = attendance.PresenceRestDay
	}

	var (
		warnings []string
		policy   *overtime.Policy
		ot       OvertimeResult
		noPolicy bool
	)

	if cover.FullDayLeave() {
		// Hours come from the leave allocation; punches stay on the record for audit only.
		zero := 0
		rec.LeaveMinutes = cover.LeaveMinutes(required)
		rec.TotalMinutes = rec.LeaveMinutes
		rec.RegularMinutes = rec.LeaveMinutes
		rec.LateMinutes = &zero
		rec.EarlyLeaveMinutes = &zero
	} else {
		rec.WorkedMinutes = dev.WorkedMinutes
		rec.BreakDeductedMinutes = dev.BreakDeductedMinutes
		rec.TotalMinutes = dev.NetMinutes
		rec.LeaveMinutes = cover.LeaveMinutes(required)
		rec.LateMinutes = dev.LateMinutes
		rec.EarlyLeaveMinutes = dev.EarlyLeaveMinutes

		if rec.Presence == attendance.PresencePresent && shift != nil {
			p, err := ResolvePolicy(in.Policies, shift.OvertimePolicyID, in.DepartmentPolicyID, date)
			switch {
			case err == nil:
				policy = p
				id := p.ID
				rec.OvertimePolicyID = &id
				ot = ComputeOvertime(dev.NetMinutes, required, *p, DayKind{
					IsWeekend: cfg.IsWeekend(date),
					IsHoliday: isHoliday,
				})
			case errors.Is(err, overtime.ErrConflictingDefaultPolicies):
				noPolicy = true
				warnings = append(warnings, err.Error())
			default:
				noPolicy = true
				warnings = append(warnings, err.Error())
			}
		}

		rec.OvertimeMinutes = ot.PlainMinutes
		rec.WeekendOvertimeMinutes = ot.WeekendMinutes
		rec.HolidayOvertimeMinutes = ot.HolidayMinutes
		rec.CappedMinutes = ot.CappedMinutes
		rec.RegularMinutes = rec.TotalMinutes - ot.PaidMinutes() - ot.CappedMinutes
	}

	rec.WeightedOvertimeHours = WeightedHours(rec, policy, nil)
	rec.OvertimeApproval = ApprovalFor(rec.PaidOvertimeMinutes(), policy)
	if policy != nil && policy.ApplyWeeklyRule {
		rec.Stage = attendance.StageProvisional
	}

	rec.Anomalies = DetectAnomalies(AnomalyInput{
		ShiftAssigned:   shift != nil,
		IsWorkDay:       isWorkDay,
		Presence:        rec.Presence,
		Cover:           cover,
		Intervals:       pairs.Intervals,
		Unpaired:        pairs.Unpaired != nil,
		Overridden:      in.Override != nil,
		Duplicates:      pairs.Duplicates,
		NetMinutes:      dev.NetMinutes,
		RequiredMinutes: required,
		OvertimeCapped:  ot.Capped(),
		NoPolicy:        noPolicy,
	}, cfg)

	rec.Fingerprint = Fingerprint(rec)

	ids := make([]string, 0, len(dayPunches))
	for _, e := range dayPunches {
		ids = append(ids, e.ID)
	}

	return DayResult{
		Record:   rec,
		Warnings: warnings,
		Window:   window,
		PunchIDs: ids,
		Shift:    shift,
		Policy:   policy,
	}, nil
}

// requiredMinutes falls back to the scheduled span minus the break when the
// shift does not state its required time.
func requiredMinutes(s schedule.Shift) int {
	if s.RequiredMinutes > 0 {
		return s.RequiredMinutes
	}
	return s.DurationMinutes() - s.BreakMinutes
}

// overrideIntervals clips the punched intervals to the corrected bounds and
// stretches the first and last to meet them. With nothing punched inside the
// bounds the correction is a single interval.
func overrideIntervals(o Override, punched []Interval) []Interval {
	in, out := o.ClockIn.UTC(), o.ClockOut.UTC()

	var kept []Interval
	for _, iv := range punched {
		start, end := iv.Start.UTC(), iv.End.UTC()
		if start.Before(in) {
			start = in
		}
		if end.After(out) {
			end = out
		}
		if end.After(start) {
			kept = append(kept, Interval{Start: start, End: end})
		}
	}
	if len(kept) == 0 {
		return []Interval{{Start: in, End: out}}
	}
	kept[0].Start = in
	kept[len(kept)-1].End = out
	return kept
}
