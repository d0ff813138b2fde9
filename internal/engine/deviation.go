package engine

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// Deviation is the time accounting of one day against its shift.
type Deviation struct {
	WorkedMinutes        int
	ExplicitBreakMinutes int // gaps between the day's intervals
	BreakDeductedMinutes int
	NetMinutes           int
	LateMinutes          *int
	EarlyLeaveMinutes    *int
}

type DeviationOptions struct {
	SuppressLate       bool
	SuppressEarlyLeave bool
}

// CalculateDeviation measures worked time, break deduction, lateness and early
// leave. Intervals must be ordered and the instants already in a comparable
// zone; shift times are placed on date in loc.
//
// With AutoDeductBreak the punched gaps between intervals count toward the
// configured break: only BreakMinutes minus the gaps is deducted, so a 45 minute
// punched lunch against a 60 minute break deducts 15 more minutes and a gap at
// least as long as the break deducts nothing.
func CalculateDeviation(intervals []Interval, shift *schedule.Shift, date time.Time, loc *time.Location, opts DeviationOptions) Deviation {
	var dev Deviation

	var worked, gaps time.Duration
	for i, iv := range intervals {
		worked += iv.Duration()
		if i > 0 {
			if gap := iv.Start.Sub(intervals[i-1].End); gap > 0 {
				gaps += gap
			}
		}
	}
	dev.WorkedMinutes = wholeMinutes(worked)
	dev.ExplicitBreakMinutes = wholeMinutes(gaps)
	dev.NetMinutes = dev.WorkedMinutes

	if shift == nil || len(intervals) == 0 {
		return dev
	}

	// An explicit break already recorded by punches counts against the
	// configured break so it is never subtracted twice.
	if shift.AutoDeductBreak && shift.BreakMinutes > 0 && dev.WorkedMinutes > 0 {
		deduct := shift.BreakMinutes - dev.ExplicitBreakMinutes
		if deduct < 0 {
			deduct = 0
		}
		if deduct > dev.WorkedMinutes {
			deduct = dev.WorkedMinutes
		}
		dev.BreakDeductedMinutes = deduct
		dev.NetMinutes = dev.WorkedMinutes - deduct
	}

	if loc == nil {
		loc = time.UTC
	}
	first := intervals[0].Start
	last := intervals[len(intervals)-1].End

	if !opts.SuppressLate {
		allowed := shift.Start(date, loc).Add(time.Duration(shift.GracePeriodMinutes) * time.Minute)
		late := thresholded(wholeMinutes(first.Sub(allowed)), shift.LateThresholdMinutes)
		dev.LateMinutes = &late
	}

	if !opts.SuppressEarlyLeave {
		expected := shift.End(date, loc).Add(-time.Duration(shift.EarlyLeaveThresholdMinutes) * time.Minute)
		early := thresholded(wholeMinutes(expected.Sub(last)), 0)
		dev.EarlyLeaveMinutes = &early
	}

	return dev
}

// thresholded records minutes only when they exceed the threshold.
func thresholded(minutes, threshold int) int {
	if minutes <= 0 || minutes <= threshold {
		return 0
	}
	return minutes
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
