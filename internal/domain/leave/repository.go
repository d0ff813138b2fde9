package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	// ListApprovedOverlapping returns approved requests of the employee that overlap [from, to].
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
}

type HolidayRepository interface {
	// ListBetween returns holidays for the location (plus global ones) with from <= date <= to.
	ListBetween(ctx context.Context, locationID *string, from, to time.Time) ([]Holiday, error)
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
}
