package attendance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Presence string

const (
	PresencePresent Presence = "PRESENT"
	PresenceAbsent  Presence = "ABSENT"
	PresenceOnLeave Presence = "ON_LEAVE"
	PresenceHoliday Presence = "HOLIDAY"
	PresenceRestDay Presence = "REST_DAY"
)

// Anomaly is advisory metadata; it never blocks record creation.
type Anomaly string

const (
	AnomalyNoShiftAssigned       Anomaly = "NO_SHIFT_ASSIGNED"
	AnomalyIncompletePunch       Anomaly = "INCOMPLETE_PUNCH"
	AnomalyNoPunchesOnWorkday    Anomaly = "NO_PUNCHES_ON_WORKDAY"
	AnomalyExcessiveGap          Anomaly = "EXCESSIVE_GAP"
	AnomalyShortShift            Anomaly = "SHORT_SHIFT"
	AnomalyDuplicateDeviceEvents Anomaly = "DUPLICATE_DEVICE_EVENTS"
	AnomalyOvertimeCapped        Anomaly = "OVERTIME_CAPPED"
	AnomalyNoOvertimePolicy      Anomaly = "NO_OVERTIME_POLICY"
)

// SortAnomalies returns a de-duplicated, sorted copy so records compare stably.
func SortAnomalies(in []Anomaly) []Anomaly {
	seen := make(map[Anomaly]struct{}, len(in))
	out := make([]Anomaly, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type OvertimeApproval string

const (
	OvertimeApprovalNone             OvertimeApproval = "NONE"
	OvertimeApprovalAutoApproved     OvertimeApproval = "AUTO_APPROVED"
	OvertimeApprovalRequiresApproval OvertimeApproval = "REQUIRES_APPROVAL"
)

// Stage tracks the two-phase pipeline: the daily pass writes PROVISIONAL
// records, the weekly pass finalizes them.
type Stage string

const (
	StageProvisional Stage = "PROVISIONAL"
	StageFinal       Stage = "FINAL"
)

// Record is the authoritative attendance outcome for one staff member on one date.
// All durations are whole minutes.
type Record struct {
	ID         string
	EmployeeID string
	Date       time.Time // calendar date, UTC midnight

	ShiftID          *string
	OvertimePolicyID *string
	CorrectionID     *string

	ClockIn  *time.Time
	ClockOut *time.Time

	PunchCount           int
	WorkedMinutes        int // sum of paired intervals
	BreakDeductedMinutes int
	TotalMinutes         int // worked minus deducted break, or leave allocation on a leave day
	RegularMinutes       int
	LeaveMinutes         int

	OvertimeMinutes        int // plain daily overtime
	WeekendOvertimeMinutes int
	HolidayOvertimeMinutes int
	WeeklyOvertimeMinutes  int // converted by the weekly pass
	CappedMinutes          int // excess above the daily cap, worked but not paid
	WeightedOvertimeHours  decimal.Decimal

	// nil means there was nothing to measure; zero means on time.
	LateMinutes       *int
	EarlyLeaveMinutes *int

	Presence         Presence
	Anomalies        []Anomaly
	OvertimeApproval OvertimeApproval
	Stage            Stage

	Fingerprint string
	Version     int
	ProcessedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaidOvertimeMinutes is every overtime minute that is paid, across categories.
func (r Record) PaidOvertimeMinutes() int {
	return r.OvertimeMinutes + r.WeekendOvertimeMinutes + r.HolidayOvertimeMinutes + r.WeeklyOvertimeMinutes
}

func (r Record) HasAnomaly(a Anomaly) bool {
	for _, x := range r.Anomalies {
		if x == a {
			return true
		}
	}
	return false
}

func (r Record) TotalHours() decimal.Decimal    { return MinutesToHours(r.TotalMinutes) }
func (r Record) RegularHours() decimal.Decimal  { return MinutesToHours(r.RegularMinutes) }
func (r Record) OvertimeHours() decimal.Decimal { return MinutesToHours(r.PaidOvertimeMinutes()) }

var sixty = decimal.NewFromInt(60)

// MinutesToHours converts minutes to hours rounded to two places.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2)
}
