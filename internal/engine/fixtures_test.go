package engine

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// 2025-03-03 is a Monday.
var (
	monday   = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
)

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

func officeShift() schedule.Shift {
	return schedule.Shift{
		ID:                 "shift-office",
		Name:               "Office",
		StartTime:          schedule.NewTimeOfDay(9, 0),
		EndTime:            schedule.NewTimeOfDay(17, 0),
		RequiredMinutes:    480,
		GracePeriodMinutes: 10,
	}
}

func nightShift() schedule.Shift {
	return schedule.Shift{
		ID:              "shift-night",
		Name:            "Night",
		StartTime:       schedule.NewTimeOfDay(22, 0),
		EndTime:         schedule.NewTimeOfDay(6, 0),
		RequiredMinutes: 480,
	}
}

func assignment(shiftID string) schedule.ShiftAssignment {
	return schedule.ShiftAssignment{
		ID:            "asg-" + shiftID,
		EmployeeID:    "emp-1",
		ShiftID:       shiftID,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func defaultPolicy() overtime.Policy {
	return overtime.Policy{
		ID:                           "pol-default",
		Name:                         "Default",
		Scope:                        overtime.ScopeDefault,
		DailyThresholdMinutes:        480,
		DailyMultiplier:              decimal.RequireFromString("1.5"),
		ApplyWeekendRule:             true,
		WeekendMultiplier:            decimal.RequireFromString("2"),
		ApplyHolidayRule:             true,
		HolidayMultiplier:            decimal.RequireFromString("3"),
		MaxDailyOvertimeMinutes:      120,
		MinimumOvertimeMinutes:       15,
		AutoApprovalThresholdMinutes: 60,
		IsDefault:                    true,
		IsActive:                     true,
		EffectiveFrom:                time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func events(times ...time.Time) []punch.Event {
	out := make([]punch.Event, 0, len(times))
	for i, ts := range times {
		out = append(out, punch.Event{
			ID:                 fmt.Sprintf("evt-%02d", i+1),
			EmployeeID:         "emp-1",
			DeviceID:           "dev-1",
			Timestamp:          ts,
			DeclaredKind:       punch.KindIn,
			VerificationMethod: punch.VerificationFingerprint,
		})
	}
	return out
}

func dayInput(date time.Time, shift schedule.Shift, punches []punch.Event) DayInput {
	return DayInput{
		EmployeeID:  "emp-1",
		Date:        date,
		Location:    time.UTC,
		Assignments: []schedule.ShiftAssignment{assignment(shift.ID)},
		Shifts:      map[string]schedule.Shift{shift.ID: shift},
		Policies:    []overtime.Policy{defaultPolicy()},
		Punches:     punches,
		Config:      DefaultConfig(),
	}
}
