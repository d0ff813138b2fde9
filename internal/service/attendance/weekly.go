package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
)

// weekClosed reports whether no more punches are expected for the week.
func (s *AttendanceServiceImpl) weekClosed(weekStart time.Time) bool {
	return !s.now().Before(weekStart.AddDate(0, 0, 7).Add(s.weekCloseGrace))
}

// weekState says what happened to the week of a processed day.
type weekState int

const (
	weekUntouched weekState = iota
	weekReconciled
	weekDeferred
)

func needsWeeklyPass(records []attendance.Record) bool {
	for _, r := range records {
		if r.Stage == attendance.StageProvisional || r.WeeklyOvertimeMinutes > 0 {
			return true
		}
	}
	return false
}

// settleWeek stores a freshly computed day record together with whatever the
// weekly pass makes of its week. An incomplete open week stores the day alone
// and reports weekDeferred; the week is retried by ReconcileOpenWeeks.
func (s *AttendanceServiceImpl) settleWeek(ctx context.Context, sc staffContext, rec attendance.Record) ([]attendance.Record, weekState, error) {
	key := attendance.WeekKey{EmployeeID: rec.EmployeeID, WeekStart: attendance.WeekOf(rec.Date)}

	stored, err := s.repos.Records.ListByEmployeeBetween(ctx, key.EmployeeID, key.WeekStart, key.WeekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, weekUntouched, fmt.Errorf("failed to load week records: %w", err)
	}

	week := make([]attendance.Record, 0, len(stored)+1)
	for _, r := range stored {
		if !r.Date.Equal(rec.Date) {
			week = append(week, r)
		}
	}
	week = append(week, rec)

	if !needsWeeklyPass(week) {
		saved, err := s.repos.Records.Upsert(ctx, rec)
		if err != nil {
			return nil, weekUntouched, err
		}
		return []attendance.Record{saved}, weekUntouched, nil
	}

	result, err := engine.ReconcileWeek(engine.WeekInput{
		Key:            key,
		Records:        week,
		Policies:       sc.policyIndex(),
		ScheduledDates: sc.scheduledDates(key.WeekStart),
		Closed:         s.weekClosed(key.WeekStart),
	})
	if errors.Is(err, attendance.ErrWeekIncomplete) {
		saved, err := s.repos.Records.Upsert(ctx, rec)
		if err != nil {
			return nil, weekUntouched, err
		}
		return []attendance.Record{saved}, weekDeferred, nil
	}
	if err != nil {
		return nil, weekUntouched, err
	}

	saved, err := s.upsertAll(ctx, result.Records)
	if err != nil {
		return nil, weekUntouched, err
	}
	return saved, weekReconciled, nil
}

func (s *AttendanceServiceImpl) upsertAll(ctx context.Context, records []attendance.Record) ([]attendance.Record, error) {
	saved := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		out, err := s.repos.Records.Upsert(ctx, r)
		if err != nil {
			return nil, err
		}
		saved = append(saved, out)
	}
	return saved, nil
}

// ReconcileWeek implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ReconcileWeek(ctx context.Context, employeeID string, date time.Time) ([]attendance.Record, error) {
	key := attendance.WeekKey{EmployeeID: employeeID, WeekStart: attendance.WeekOf(schedule.DateOnly(date))}
	return s.reconcile(ctx, key)
}

// reconcile runs the weekly pass for one staff week under the week lock.
func (s *AttendanceServiceImpl) reconcile(ctx context.Context, key attendance.WeekKey) ([]attendance.Record, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	var saved []attendance.Record
	err := s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Records.LockWeek(ctx, key); err != nil {
			return err
		}

		sc, err := s.loadStaff(ctx, key.EmployeeID)
		if err != nil {
			return err
		}

		records, err := s.repos.Records.ListByEmployeeBetween(ctx, key.EmployeeID, key.WeekStart, key.WeekStart.AddDate(0, 0, 6))
		if err != nil {
			return fmt.Errorf("failed to load week records: %w", err)
		}

		result, err := engine.ReconcileWeek(engine.WeekInput{
			Key:            key,
			Records:        records,
			Policies:       sc.policyIndex(),
			ScheduledDates: sc.scheduledDates(key.WeekStart),
			Closed:         s.weekClosed(key.WeekStart),
		})
		if err != nil {
			return err
		}

		saved, err = s.upsertAll(ctx, result.Records)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
