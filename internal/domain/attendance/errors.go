package attendance

import "errors"

// Attendance domain errors
var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrCorrectionNotFound = errors.New("attendance correction not found")

	// Correction workflow errors
	ErrCorrectionAlreadyReviewed = errors.New("attendance correction has already been approved or rejected")
	ErrCorrectionPending         = errors.New("an attendance correction is already pending for this record")
	ErrInvalidCorrectionWindow   = errors.New("corrected clock-out must be after corrected clock-in")

	// Cross-day consistency; the weekly pass is retried on the next run.
	ErrWeekIncomplete = errors.New("week has scheduled days without a record")

	ErrInvalidDateRange = errors.New("end date must not be before start date")
)
