package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

const (
	JobProcessPendingPunches = "process_pending_punches"
	JobReconcileClosedWeeks  = "reconcile_closed_weeks"
	JobMarkAbsentDays        = "mark_absent_days"
)

// AttendanceJobs are the recurring triggers of the attendance engine.
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	logger            *slog.Logger
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, logger *slog.Logger) *AttendanceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, pendingInterval, reconcileInterval, absentInterval time.Duration) {
	scheduler.AddJob(JobProcessPendingPunches, pendingInterval, j.ProcessPendingPunches)
	scheduler.AddJob(JobMarkAbsentDays, absentInterval, j.MarkAbsentDays)
	scheduler.AddJob(JobReconcileClosedWeeks, reconcileInterval, j.ReconcileClosedWeeks)
}

// ProcessPendingPunches processes every day that owns unprocessed punch events.
// Failed units stay pending and are picked up by the next run.
func (j *AttendanceJobs) ProcessPendingPunches(ctx context.Context) error {
	result, err := j.attendanceService.ProcessPending(ctx)
	if err != nil {
		return fmt.Errorf("process pending punches: %w", err)
	}

	j.logBatch(JobProcessPendingPunches, result)
	return nil
}

// MarkAbsentDays gives every ended scheduled workday without a record its
// ABSENT record. A day whose punches are still pending is processed with them
// and comes out present.
func (j *AttendanceJobs) MarkAbsentDays(ctx context.Context) error {
	result, err := j.attendanceService.MarkAbsentDays(ctx)
	if err != nil {
		return fmt.Errorf("mark absent days: %w", err)
	}

	j.logBatch(JobMarkAbsentDays, result)
	return nil
}

// ReconcileClosedWeeks retries the weekly pass for weeks that still hold
// provisional records, which finalizes them once the week has closed.
func (j *AttendanceJobs) ReconcileClosedWeeks(ctx context.Context) error {
	result, err := j.attendanceService.ReconcileOpenWeeks(ctx)
	if err != nil {
		return fmt.Errorf("reconcile open weeks: %w", err)
	}

	j.logBatch(JobReconcileClosedWeeks, result)
	return nil
}

func (j *AttendanceJobs) logBatch(job string, result attendance.BatchResult) {
	if result.Processed == 0 && len(result.Failed) == 0 && result.WeeksReconciled == 0 && result.WeeksDeferred == 0 {
		j.logger.Debug("Cron: nothing to do", "job", job, "run_id", result.RunID)
		return
	}

	j.logger.Info("Cron: batch finished",
		"job", job,
		"run_id", result.RunID,
		"processed", result.Processed,
		"failed", len(result.Failed),
		"weeks_reconciled", result.WeeksReconciled,
		"weeks_deferred", result.WeeksDeferred,
		"cancelled", result.Cancelled,
	)
}
