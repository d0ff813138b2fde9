package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, "Token is not linked to an employee")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrCorrectionNotFound):
		NotFound(w, "Attendance correction not found")
	case errors.Is(err, attendance.ErrCorrectionAlreadyReviewed):
		Conflict(w, "Attendance correction already reviewed")
	case errors.Is(err, attendance.ErrCorrectionPending):
		Conflict(w, "A correction is already pending for this record")
	case errors.Is(err, attendance.ErrInvalidCorrectionWindow):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrWeekIncomplete):
		Conflict(w, "Week is still open and has scheduled days without a record")

	// Reference data errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, schedule.ErrInvalidShiftTimes):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, punch.ErrMalformedTimestamp):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, overtime.ErrConflictingDefaultPolicies):
		UnprocessableEntity(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled request error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
