package overtime

import "errors"

var (
	ErrNoPolicy                   = errors.New("no overtime policy resolves for this day")
	ErrConflictingDefaultPolicies = errors.New("more than one default overtime policy is effective")
)
