package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// SubmitCorrection implements attendance.AttendanceService. The record's
// current clock-in/out are snapshotted so a reviewer sees what is replaced.
func (s *AttendanceServiceImpl) SubmitCorrection(ctx context.Context, req attendance.SubmitCorrectionRequest) (attendance.Correction, error) {
	if err := req.Validate(); err != nil {
		return attendance.Correction{}, err
	}

	record, err := s.repos.Records.GetByID(ctx, req.RecordID)
	if err != nil {
		return attendance.Correction{}, err
	}

	in, out := req.ParsedTimes()
	sc, err := s.loadStaff(ctx, record.EmployeeID)
	if err != nil {
		return attendance.Correction{}, err
	}
	if err := correctionFitsDay(sc, record.Date, in, out); err != nil {
		return attendance.Correction{}, err
	}

	now := s.now()
	correction := attendance.Correction{
		ID:                newID(),
		RecordID:          record.ID,
		EmployeeID:        record.EmployeeID,
		Date:              record.Date,
		OriginalClockIn:   record.ClockIn,
		OriginalClockOut:  record.ClockOut,
		CorrectedClockIn:  in,
		CorrectedClockOut: out,
		Reason:            req.Reason,
		Status:            attendance.CorrectionStatusPending,
		SubmittedBy:       req.SubmittedBy,
		SubmittedAt:       now,
	}

	created, err := s.repos.Corrections.Create(ctx, correction)
	if err != nil {
		return attendance.Correction{}, err
	}

	s.logger.Info("Attendance correction submitted",
		"correction_id", created.ID, "record_id", record.ID, "employee_id", record.EmployeeID,
		"date", record.Date.Format("2006-01-02"), "submitted_by", req.SubmittedBy)
	return created, nil
}

// correctionFitsDay rejects corrected times outside the attendance day of the
// record, the same window punches are attributed by.
func correctionFitsDay(sc staffContext, date, in, out time.Time) error {
	shift := engine.ResolveShift(sc.assignments, sc.shifts, date)
	w := engine.DayWindow(date, shift, sc.location)

	var errs validator.ValidationErrors
	if !w.Contains(in) {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_clock_in",
			Message: fmt.Sprintf("corrected_clock_in must fall within the attendance day %s to %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339)),
		})
	}
	if out.After(w.End) {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_clock_out",
			Message: fmt.Sprintf("corrected_clock_out must not be later than %s", w.End.Format(time.RFC3339)),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApproveCorrection implements attendance.AttendanceService. The review and
// the reprocessed day and week are written in one transaction under the week
// lock; the outcome carries the record before and after.
func (s *AttendanceServiceImpl) ApproveCorrection(ctx context.Context, req attendance.ReviewCorrectionRequest) (attendance.CorrectionOutcome, error) {
	if err := req.Validate(); err != nil {
		return attendance.CorrectionOutcome{}, err
	}

	pending, err := s.repos.Corrections.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.CorrectionOutcome{}, err
	}
	if pending.IsTerminal() {
		return attendance.CorrectionOutcome{}, attendance.ErrCorrectionAlreadyReviewed
	}

	key := attendance.WeekKey{EmployeeID: pending.EmployeeID, WeekStart: attendance.WeekOf(pending.Date)}
	unlock := s.locks.Lock(key.String())
	defer unlock()

	var outcome attendance.CorrectionOutcome
	err = s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Records.LockWeek(ctx, key); err != nil {
			return err
		}

		// Re-read inside the transaction; a concurrent review may have won.
		current, err := s.repos.Corrections.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		reviewed, err := engine.ReviewCorrection(current, engine.DecisionApprove, req.ReviewerID, req.Note, s.now())
		if err != nil {
			return err
		}
		if err := s.repos.Corrections.UpdateReview(ctx, reviewed); err != nil {
			return err
		}

		before, err := s.repos.Records.GetByEmployeeAndDate(ctx, reviewed.EmployeeID, reviewed.Date)
		if err != nil {
			return fmt.Errorf("failed to load attendance record: %w", err)
		}

		sc, err := s.loadStaff(ctx, reviewed.EmployeeID)
		if err != nil {
			return err
		}
		res, err := s.processDayLocked(ctx, sc, reviewed.Date, nil)
		if err != nil {
			return err
		}

		after := res.Record
		outcome = attendance.CorrectionOutcome{
			Correction:     reviewed,
			Before:         before,
			After:          &after,
			WeeklyDeferred: res.State == weekDeferred,
		}
		if res.State == weekReconciled {
			outcome.Week = res.Week
		}
		return nil
	})
	if err != nil {
		return attendance.CorrectionOutcome{}, err
	}

	s.logger.Info("Attendance correction approved",
		"correction_id", outcome.Correction.ID, "employee_id", outcome.Correction.EmployeeID,
		"date", outcome.Correction.Date.Format("2006-01-02"), "reviewed_by", req.ReviewerID,
		"version", outcome.After.Version, "weekly_deferred", outcome.WeeklyDeferred)
	return outcome, nil
}

// RejectCorrection implements attendance.AttendanceService. The record is
// not recomputed, so before and after are the same stored record.
func (s *AttendanceServiceImpl) RejectCorrection(ctx context.Context, req attendance.ReviewCorrectionRequest) (attendance.CorrectionOutcome, error) {
	if err := req.Validate(); err != nil {
		return attendance.CorrectionOutcome{}, err
	}

	var outcome attendance.CorrectionOutcome
	err := s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repos.Corrections.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		reviewed, err := engine.ReviewCorrection(current, engine.DecisionReject, req.ReviewerID, req.Note, s.now())
		if err != nil {
			return err
		}
		if err := s.repos.Corrections.UpdateReview(ctx, reviewed); err != nil {
			return err
		}

		record, err := s.repos.Records.GetByEmployeeAndDate(ctx, reviewed.EmployeeID, reviewed.Date)
		if err != nil {
			return fmt.Errorf("failed to load attendance record: %w", err)
		}
		outcome = attendance.CorrectionOutcome{Correction: reviewed, Before: record, After: record}
		return nil
	})
	if err != nil {
		return attendance.CorrectionOutcome{}, err
	}

	s.logger.Info("Attendance correction rejected",
		"correction_id", outcome.Correction.ID, "employee_id", outcome.Correction.EmployeeID,
		"reviewed_by", req.ReviewerID)
	return outcome, nil
}
