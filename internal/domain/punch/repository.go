package punch

import (
	"context"
	"time"
)

type EventRepository interface {
	// ListByEmployeeBetween returns events with from <= timestamp < to, ordered by timestamp.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)

	// ListUnprocessed returns events not yet consumed by a processing run, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]Event, error)

	// MarkProcessed stamps the given events as consumed.
	MarkProcessed(ctx context.Context, ids []string, at time.Time) error

	Create(ctx context.Context, event Event) (Event, error)
}
