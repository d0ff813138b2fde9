package punch

import "errors"

var (
	ErrMalformedTimestamp = errors.New("punch event has an unusable timestamp")
)
