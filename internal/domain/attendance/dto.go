package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// PROCESSING TRIGGER DTOs
// ========================================

type ProcessDayRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
}

func (r *ProcessDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ParsedDate returns the date; call Validate first.
func (r *ProcessDayRequest) ParsedDate() time.Time {
	d, _ := validator.IsValidDate(r.Date)
	return d
}

type ProcessRangeRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`   // YYYY-MM-DD
}

// maxRangeDays bounds a single backfill request.
const maxRangeDays = 366

func (r *ProcessRangeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		} else if end.Sub(start) > maxRangeDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "range must not exceed " + validator.Itoa(maxRangeDays) + " days",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ParsedRange returns start and end; call Validate first.
func (r *ProcessRangeRequest) ParsedRange() (time.Time, time.Time) {
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	return start, end
}

// ========================================
// CORRECTION DTOs
// ========================================

// MaxCorrectionSpan bounds a corrected clock-in to clock-out interval.
const MaxCorrectionSpan = 24 * time.Hour

type SubmitCorrectionRequest struct {
	RecordID          string `json:"record_id"`
	CorrectedClockIn  string `json:"corrected_clock_in"`  // RFC3339
	CorrectedClockOut string `json:"corrected_clock_out"` // RFC3339
	Reason            string `json:"reason"`
	SubmittedBy       string `json:"-"`
}

func (r *SubmitCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "record_id",
			Message: "record_id is required",
		})
	}

	in, inOK := validator.IsValidDateTime(r.CorrectedClockIn)
	if !inOK {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_clock_in",
			Message: "corrected_clock_in must be an RFC3339 timestamp",
		})
	}

	out, outOK := validator.IsValidDateTime(r.CorrectedClockOut)
	if !outOK {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_clock_out",
			Message: "corrected_clock_out must be an RFC3339 timestamp",
		})
	}

	if inOK && outOK {
		switch {
		case !out.After(in):
			errs = append(errs, validator.ValidationError{
				Field:   "corrected_clock_out",
				Message: "corrected_clock_out must be after corrected_clock_in",
			})
		case out.Sub(in) > MaxCorrectionSpan:
			errs = append(errs, validator.ValidationError{
				Field:   "corrected_clock_out",
				Message: "corrected interval must not exceed 24 hours",
			})
		}
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ParsedTimes returns the corrected clock-in/out in UTC; call Validate first.
func (r *SubmitCorrectionRequest) ParsedTimes() (time.Time, time.Time) {
	in, _ := validator.IsValidDateTime(r.CorrectedClockIn)
	out, _ := validator.IsValidDateTime(r.CorrectedClockOut)
	return in.UTC(), out.UTC()
}

type ReviewCorrectionRequest struct {
	ID         string  `json:"-"`
	ReviewerID string  `json:"-"`
	Note       *string `json:"note,omitempty"`
}

func (r *ReviewCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "correction id is required",
		})
	}

	if validator.IsEmpty(r.ReviewerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewer",
			Message: "reviewer is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecordFilter struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (f *RecordFilter) Validate() error {
	req := ProcessRangeRequest{EmployeeID: f.EmployeeID, StartDate: f.StartDate, EndDate: f.EndDate}
	return req.Validate()
}

// ========================================
// RESPONSE DTOs
// ========================================

type RecordResponse struct {
	ID                     string   `json:"id"`
	EmployeeID             string   `json:"employee_id"`
	Date                   string   `json:"date"`
	ShiftID                *string  `json:"shift_id,omitempty"`
	OvertimePolicyID       *string  `json:"overtime_policy_id,omitempty"`
	CorrectionID           *string  `json:"correction_id,omitempty"`
	ClockIn                *string  `json:"clock_in,omitempty"`
	ClockOut               *string  `json:"clock_out,omitempty"`
	PunchCount             int      `json:"punch_count"`
	TotalHours             string   `json:"total_hours"`
	RegularHours           string   `json:"regular_hours"`
	OvertimeHours          string   `json:"overtime_hours"`
	WeekendOvertimeMinutes int      `json:"weekend_overtime_minutes"`
	HolidayOvertimeMinutes int      `json:"holiday_overtime_minutes"`
	WeeklyOvertimeMinutes  int      `json:"weekly_overtime_minutes"`
	PlainOvertimeMinutes   int      `json:"plain_overtime_minutes"`
	WeightedOvertimeHours  string   `json:"weighted_overtime_hours"`
	LateMinutes            *int     `json:"late_minutes"`
	EarlyLeaveMinutes      *int     `json:"early_leave_minutes"`
	LeaveMinutes           int      `json:"leave_minutes"`
	Presence               string   `json:"presence"`
	Anomalies              []string `json:"anomalies"`
	OvertimeApproval       string   `json:"overtime_approval"`
	Stage                  string   `json:"stage"`
	Version                int      `json:"version"`
	ProcessedAt            string   `json:"processed_at"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func NewRecordResponse(r Record) RecordResponse {
	anomalies := make([]string, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		anomalies = append(anomalies, string(a))
	}
	return RecordResponse{
		ID:                     r.ID,
		EmployeeID:             r.EmployeeID,
		Date:                   r.Date.Format("2006-01-02"),
		ShiftID:                r.ShiftID,
		OvertimePolicyID:       r.OvertimePolicyID,
		CorrectionID:           r.CorrectionID,
		ClockIn:                timePtrToString(r.ClockIn),
		ClockOut:               timePtrToString(r.ClockOut),
		PunchCount:             r.PunchCount,
		TotalHours:             r.TotalHours().StringFixed(2),
		RegularHours:           r.RegularHours().StringFixed(2),
		OvertimeHours:          r.OvertimeHours().StringFixed(2),
		PlainOvertimeMinutes:   r.OvertimeMinutes,
		WeekendOvertimeMinutes: r.WeekendOvertimeMinutes,
		HolidayOvertimeMinutes: r.HolidayOvertimeMinutes,
		WeeklyOvertimeMinutes:  r.WeeklyOvertimeMinutes,
		WeightedOvertimeHours:  r.WeightedOvertimeHours.StringFixed(2),
		LateMinutes:            r.LateMinutes,
		EarlyLeaveMinutes:      r.EarlyLeaveMinutes,
		LeaveMinutes:           r.LeaveMinutes,
		Presence:               string(r.Presence),
		Anomalies:              anomalies,
		OvertimeApproval:       string(r.OvertimeApproval),
		Stage:                  string(r.Stage),
		Version:                r.Version,
		ProcessedAt:            r.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

type CorrectionResponse struct {
	ID                string  `json:"id"`
	RecordID          string  `json:"record_id"`
	EmployeeID        string  `json:"employee_id"`
	Date              string  `json:"date"`
	OriginalClockIn   *string `json:"original_clock_in,omitempty"`
	OriginalClockOut  *string `json:"original_clock_out,omitempty"`
	CorrectedClockIn  string  `json:"corrected_clock_in"`
	CorrectedClockOut string  `json:"corrected_clock_out"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	SubmittedBy       string  `json:"submitted_by"`
	ReviewedBy        *string `json:"reviewed_by,omitempty"`
	ReviewNote        *string `json:"review_note,omitempty"`
	ReviewedAt        *string `json:"reviewed_at,omitempty"`
}

func NewCorrectionResponse(c Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:                c.ID,
		RecordID:          c.RecordID,
		EmployeeID:        c.EmployeeID,
		Date:              c.Date.Format("2006-01-02"),
		OriginalClockIn:   timePtrToString(c.OriginalClockIn),
		OriginalClockOut:  timePtrToString(c.OriginalClockOut),
		CorrectedClockIn:  c.CorrectedClockIn.UTC().Format(time.RFC3339),
		CorrectedClockOut: c.CorrectedClockOut.UTC().Format(time.RFC3339),
		Reason:            c.Reason,
		Status:            string(c.Status),
		SubmittedBy:       c.SubmittedBy,
		ReviewedBy:        c.ReviewedBy,
		ReviewNote:        c.ReviewNote,
		ReviewedAt:        timePtrToString(c.ReviewedAt),
	}
}

// ReviewResponse shows a reviewer the effect of their decision.
type ReviewResponse struct {
	Correction     CorrectionResponse `json:"correction"`
	Before         *RecordResponse    `json:"before,omitempty"`
	After          *RecordResponse    `json:"after,omitempty"`
	Week           []RecordResponse   `json:"week,omitempty"`
	WeeklyDeferred bool               `json:"weekly_deferred"`
}
