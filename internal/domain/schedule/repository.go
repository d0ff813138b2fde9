package schedule

import (
	"context"
)

type ShiftRepository interface {
	// GetByIDs returns the shifts with the given IDs keyed by ID. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) (map[string]Shift, error)
	Create(ctx context.Context, shift Shift) (Shift, error)
}

// ShiftAssignmentRepository reads the append-only shift history of a staff member.
type ShiftAssignmentRepository interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]ShiftAssignment, error)
	Create(ctx context.Context, assignment ShiftAssignment) (ShiftAssignment, error)
}
