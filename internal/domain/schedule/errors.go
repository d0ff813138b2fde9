package schedule

import "errors"

var (
	ErrShiftNotFound     = errors.New("shift not found")
	ErrInvalidShiftTimes = errors.New("shift start and end time must differ")
)
