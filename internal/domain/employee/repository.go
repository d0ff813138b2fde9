package employee

import "context"

type StaffRepository interface {
	GetByID(ctx context.Context, id string) (Staff, error)
	Create(ctx context.Context, staff Staff) (Staff, error)
	// ListIDs returns every staff ID in ascending order.
	ListIDs(ctx context.Context) ([]string, error)
}
