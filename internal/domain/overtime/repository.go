package overtime

import "context"

type PolicyRepository interface {
	// ListActive returns every active policy regardless of date range; resolution
	// against a date happens in the engine.
	ListActive(ctx context.Context) ([]Policy, error)
	Create(ctx context.Context, policy Policy) (Policy, error)
}
