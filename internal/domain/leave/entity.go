package leave

import (
	"time"
)

type LeaveRequestStatus string

const (
	LeaveRequestStatusWaitingApproval LeaveRequestStatus = "waiting_approval"
	LeaveRequestStatusApproved        LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected        LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled       LeaveRequestStatus = "cancelled"
)

// LeaveDurationEnum maps to leave_duration_enum in DB
type LeaveDurationEnum string

const (
	LeaveDurationFullDay          LeaveDurationEnum = "full_day"
	LeaveDurationHalfDayMorning   LeaveDurationEnum = "half_day_morning"
	LeaveDurationHalfDayAfternoon LeaveDurationEnum = "half_day_afternoon"
)

// LeaveRequest entity. StartDate and EndDate are inclusive calendar dates.
type LeaveRequest struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate time.Time
	EndDate   time.Time

	DurationType LeaveDurationEnum
	Status       LeaveRequestStatus

	ApprovedBy *string
	ApprovedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the request spans the calendar date.
func (r LeaveRequest) Covers(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(r.StartDate)) && !d.After(dateOnly(r.EndDate))
}

func (r LeaveRequest) IsHalfDay() bool {
	return r.DurationType == LeaveDurationHalfDayMorning || r.DurationType == LeaveDurationHalfDayAfternoon
}

// Holiday is a calendar entry. A nil LocationID applies to every location.
type Holiday struct {
	ID         string
	CompanyID  string
	Date       time.Time
	Name       string
	LocationID *string
	CreatedAt  time.Time
}

// AppliesTo reports whether the holiday is observed at the location.
func (h Holiday) AppliesTo(locationID *string) bool {
	if h.LocationID == nil {
		return true
	}
	return locationID != nil && *locationID == *h.LocationID
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
