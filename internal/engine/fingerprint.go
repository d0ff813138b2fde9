package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// fingerprintView holds the computed fields of a record. Identity, version and
// bookkeeping timestamps are left out so reprocessing unchanged input yields
// the same fingerprint.
type fingerprintView struct {
	EmployeeID       string               `json:"employee_id"`
	Date             string               `json:"date"`
	ShiftID          *string              `json:"shift_id"`
	OvertimePolicyID *string              `json:"overtime_policy_id"`
	CorrectionID     *string              `json:"correction_id"`
	ClockIn          *string              `json:"clock_in"`
	ClockOut         *string              `json:"clock_out"`
	PunchCount       int                  `json:"punch_count"`
	Worked           int                  `json:"worked"`
	BreakDeducted    int                  `json:"break_deducted"`
	Total            int                  `json:"total"`
	Regular          int                  `json:"regular"`
	Leave            int                  `json:"leave"`
	Overtime         int                  `json:"overtime"`
	WeekendOvertime  int                  `json:"weekend_overtime"`
	HolidayOvertime  int                  `json:"holiday_overtime"`
	WeeklyOvertime   int                  `json:"weekly_overtime"`
	Capped           int                  `json:"capped"`
	Weighted         string               `json:"weighted"`
	Late             *int                 `json:"late"`
	EarlyLeave       *int                 `json:"early_leave"`
	Presence         attendance.Presence  `json:"presence"`
	Anomalies        []attendance.Anomaly `json:"anomalies"`
	OvertimeApproval string               `json:"overtime_approval"`
	Stage            attendance.Stage     `json:"stage"`
}

// Fingerprint hashes the computed content of a record. Storage compares it to
// decide whether an upsert changes anything.
func Fingerprint(r attendance.Record) string {
	view := fingerprintView{
		EmployeeID:       r.EmployeeID,
		Date:             r.Date.Format("2006-01-02"),
		ShiftID:          r.ShiftID,
		OvertimePolicyID: r.OvertimePolicyID,
		CorrectionID:     r.CorrectionID,
		ClockIn:          formatInstant(r.ClockIn),
		ClockOut:         formatInstant(r.ClockOut),
		PunchCount:       r.PunchCount,
		Worked:           r.WorkedMinutes,
		BreakDeducted:    r.BreakDeductedMinutes,
		Total:            r.TotalMinutes,
		Regular:          r.RegularMinutes,
		Leave:            r.LeaveMinutes,
		Overtime:         r.OvertimeMinutes,
		WeekendOvertime:  r.WeekendOvertimeMinutes,
		HolidayOvertime:  r.HolidayOvertimeMinutes,
		WeeklyOvertime:   r.WeeklyOvertimeMinutes,
		Capped:           r.CappedMinutes,
		Weighted:         r.WeightedOvertimeHours.StringFixed(2),
		Late:             r.LateMinutes,
		EarlyLeave:       r.EarlyLeaveMinutes,
		Presence:         r.Presence,
		Anomalies:        attendance.SortAnomalies(r.Anomalies),
		OvertimeApproval: string(r.OvertimeApproval),
		Stage:            r.Stage,
	}

	// Marshal cannot fail on this view: it only holds strings, ints and pointers to them.
	raw, _ := json.Marshal(view)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func formatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
