package attendance

import (
	"context"
	"time"
)

// RecordRepository persists attendance records. (employee_id, date) is unique;
// Upsert updates in place and never inserts a duplicate.
type RecordRepository interface {
	// GetByEmployeeAndDate returns nil, nil when no record exists yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	GetByID(ctx context.Context, id string) (Record, error)

	// ListByEmployeeBetween returns records with from <= date <= to ordered by date.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)

	// Upsert writes the record keyed by (employee_id, date). The stored version
	// only advances when the fingerprint changes. The stored row is returned.
	Upsert(ctx context.Context, record Record) (Record, error)

	// ListProvisionalWeeks returns (employee, week start) pairs that still hold
	// provisional records dated on or after since.
	ListProvisionalWeeks(ctx context.Context, since time.Time) ([]WeekKey, error)

	// LockWeek serializes weekly reconciliation of one staff week across processes.
	// It must run inside a transaction and is released when that transaction ends.
	LockWeek(ctx context.Context, key WeekKey) error
}

type CorrectionRepository interface {
	Create(ctx context.Context, correction Correction) (Correction, error)
	GetByID(ctx context.Context, id string) (Correction, error)

	// GetPendingByRecord returns nil, nil when the record has no pending correction.
	GetPendingByRecord(ctx context.Context, recordID string) (*Correction, error)

	// GetLatestApprovedByRecord returns nil, nil when nothing was approved.
	GetLatestApprovedByRecord(ctx context.Context, recordID string) (*Correction, error)

	UpdateReview(ctx context.Context, correction Correction) error
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// WeekKey identifies one ISO week (Monday start) of one staff member.
type WeekKey struct {
	EmployeeID string
	WeekStart  time.Time
}

func (k WeekKey) String() string {
	return k.EmployeeID + "|" + k.WeekStart.Format("2006-01-02")
}

// WeekOf returns the Monday of the ISO week containing date.
func WeekOf(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
