package engine

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// AnomalyInput is what the detector looks at for one day.
type AnomalyInput struct {
	ShiftAssigned   bool
	IsWorkDay       bool
	Presence        attendance.Presence
	Cover           Cover
	Intervals       []Interval
	Unpaired        bool
	Overridden      bool
	Duplicates      int
	NetMinutes      int
	RequiredMinutes int
	OvertimeCapped  bool
	NoPolicy        bool
}

// DetectAnomalies flags incomplete, contradictory or suspicious day data.
// Flags are advisory and returned sorted.
func DetectAnomalies(in AnomalyInput, cfg Config) []attendance.Anomaly {
	var flags []attendance.Anomaly

	if !in.ShiftAssigned {
		flags = append(flags, attendance.AnomalyNoShiftAssigned)
	}
	if in.Unpaired && !in.Overridden {
		flags = append(flags, attendance.AnomalyIncompletePunch)
	}
	if in.Presence == attendance.PresenceAbsent && in.Cover.Leave == nil && in.Cover.Holiday == nil {
		flags = append(flags, attendance.AnomalyNoPunchesOnWorkday)
	}

	if cfg.MaxIntervalMinutes > 0 {
		for _, iv := range in.Intervals {
			if wholeMinutes(iv.Duration()) > cfg.MaxIntervalMinutes {
				flags = append(flags, attendance.AnomalyExcessiveGap)
				break
			}
		}
	}

	complete := len(in.Intervals) > 0 && (!in.Unpaired || in.Overridden)
	if complete && in.ShiftAssigned && in.IsWorkDay && in.Cover.Holiday == nil && !in.Cover.FullDayLeave() {
		required := in.RequiredMinutes - in.Cover.LeaveMinutes(in.RequiredMinutes)
		if required > 0 && float64(in.NetMinutes) < cfg.ShortShiftRatio*float64(required) {
			flags = append(flags, attendance.AnomalyShortShift)
		}
	}

	if in.Duplicates > cfg.DuplicateEventThreshold {
		flags = append(flags, attendance.AnomalyDuplicateDeviceEvents)
	}
	if in.OvertimeCapped {
		flags = append(flags, attendance.AnomalyOvertimeCapped)
	}
	if in.NoPolicy {
		flags = append(flags, attendance.AnomalyNoOvertimePolicy)
	}

	return attendance.SortAnomalies(flags)
}
