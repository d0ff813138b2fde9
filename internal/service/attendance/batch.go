package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"golang.org/x/sync/errgroup"
)

// unit is one (staff, date) of a batch. EventIDs are pending punches the
// batch attributed to the unit; they are marked processed with it.
type unit struct {
	EmployeeID string
	Date       time.Time
	EventIDs   []string
}

func (u unit) week() attendance.WeekKey {
	return attendance.WeekKey{EmployeeID: u.EmployeeID, WeekStart: attendance.WeekOf(u.Date)}
}

// batch collects the outcome of concurrently running units.
type batch struct {
	mu     sync.Mutex
	result attendance.BatchResult
	weeks  map[string]attendance.WeekKey
	states map[string]weekState
}

func newBatch() *batch {
	return &batch{
		result: attendance.BatchResult{RunID: newID()},
		weeks:  make(map[string]attendance.WeekKey),
		states: make(map[string]weekState),
	}
}

func (b *batch) fail(employeeID string, date time.Time, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.result.Failed = append(b.result.Failed, attendance.UnitError{EmployeeID: employeeID, Date: date, Err: err})
}

func (b *batch) cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.result.Cancelled = true
}

func (b *batch) done(u unit, res unitResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.result.Processed++
	for _, w := range res.Warnings {
		b.result.Warnings = append(b.result.Warnings,
			fmt.Sprintf("%s %s: %s", u.EmployeeID, u.Date.Format("2006-01-02"), w))
	}

	key := u.week()
	b.weeks[key.String()] = key
	if res.State > b.states[key.String()] {
		b.states[key.String()] = res.State
	}
}

// sortedWeeks returns the touched weeks in a stable order.
func (b *batch) sortedWeeks() []attendance.WeekKey {
	keys := make([]attendance.WeekKey, 0, len(b.weeks))
	for _, k := range b.weeks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// runUnits executes the daily stage with at most s.workers units in flight.
// Cancellation is checked between units only: a started unit always finishes.
func (s *AttendanceServiceImpl) runUnits(ctx context.Context, b *batch, units []unit) {
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, u := range units {
		u := u
		if ctx.Err() != nil {
			b.cancel()
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				b.cancel()
				return nil
			}

			res, err := s.runDayUnit(context.WithoutCancel(ctx), u.EmployeeID, u.Date, u.EventIDs)
			if err != nil {
				s.logUnitFailure(b.result.RunID, u.EmployeeID, u.Date, err)
				b.fail(u.EmployeeID, u.Date, err)
				return nil
			}
			b.done(u, res)
			return nil
		})
	}

	_ = g.Wait()
}

// runWeeks is the weekly stage: every touched week whose units left it
// deferred gets one more reconcile attempt now that the whole batch is stored.
func (s *AttendanceServiceImpl) runWeeks(ctx context.Context, b *batch) {
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, key := range b.sortedWeeks() {
		key := key
		switch b.states[key.String()] {
		case weekUntouched:
			continue
		case weekReconciled:
			b.weekDone(key, nil)
			continue
		}

		if ctx.Err() != nil {
			b.cancel()
			break
		}

		g.Go(func() error {
			_, err := s.reconcile(context.WithoutCancel(ctx), key)
			b.weekDone(key, err)
			if err != nil && !errors.Is(err, attendance.ErrWeekIncomplete) {
				s.logUnitFailure(b.result.RunID, key.EmployeeID, key.WeekStart, err)
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (b *batch) weekDone(key attendance.WeekKey, err error) {
	switch {
	case err == nil:
		b.mu.Lock()
		b.result.WeeksReconciled++
		b.mu.Unlock()
	case errors.Is(err, attendance.ErrWeekIncomplete):
		b.mu.Lock()
		b.result.WeeksDeferred++
		b.mu.Unlock()
	default:
		b.fail(key.EmployeeID, key.WeekStart, err)
	}
}

func (s *AttendanceServiceImpl) logUnitFailure(runID, employeeID string, date time.Time, err error) {
	const msg = "Attendance unit failed"
	if isInputError(err) {
		s.logger.Warn(msg, "run_id", runID, "employee_id", employeeID, "date", date.Format("2006-01-02"), "error", err)
		return
	}
	s.logger.Error(msg, "run_id", runID, "employee_id", employeeID, "date", date.Format("2006-01-02"), "error", err)
}

func (s *AttendanceServiceImpl) finish(b *batch, trigger string, started time.Time) attendance.BatchResult {
	s.logger.Info("Attendance batch finished",
		"run_id", b.result.RunID,
		"trigger", trigger,
		"processed", b.result.Processed,
		"failed", len(b.result.Failed),
		"warnings", len(b.result.Warnings),
		"weeks_reconciled", b.result.WeeksReconciled,
		"weeks_deferred", b.result.WeeksDeferred,
		"cancelled", b.result.Cancelled,
		"duration", time.Since(started).String(),
	)
	return b.result
}

// ProcessRange implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ProcessRange(ctx context.Context, employeeID string, from, to time.Time) (attendance.BatchResult, error) {
	from, to = schedule.DateOnly(from), schedule.DateOnly(to)
	if to.Before(from) {
		return attendance.BatchResult{}, attendance.ErrInvalidDateRange
	}
	if _, err := s.repos.Staff.GetByID(ctx, employeeID); err != nil {
		return attendance.BatchResult{}, err
	}

	started := time.Now()
	b := newBatch()

	var units []unit
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		units = append(units, unit{EmployeeID: employeeID, Date: d})
	}

	s.runUnits(ctx, b, units)
	s.runWeeks(ctx, b)
	return s.finish(b, "range", started), nil
}

// ProcessPending implements attendance.AttendanceService. Each pending punch
// is attributed to the day whose window holds it; events that cannot be
// placed fail their unit and stay pending.
func (s *AttendanceServiceImpl) ProcessPending(ctx context.Context) (attendance.BatchResult, error) {
	events, err := s.repos.Events.ListUnprocessed(ctx, s.pendingLimit)
	if err != nil {
		return attendance.BatchResult{}, fmt.Errorf("failed to list pending punch events: %w", err)
	}

	started := time.Now()
	b := newBatch()

	byEmployee := make(map[string][]punch.Event)
	var employees []string
	for _, e := range events {
		if _, ok := byEmployee[e.EmployeeID]; !ok {
			employees = append(employees, e.EmployeeID)
		}
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}
	sort.Strings(employees)

	var units []unit
	for _, employeeID := range employees {
		sc, err := s.loadStaff(ctx, employeeID)
		if err != nil {
			s.logUnitFailure(b.result.RunID, employeeID, time.Time{}, err)
			b.fail(employeeID, time.Time{}, err)
			continue
		}
		units = append(units, s.attribute(b, sc, byEmployee[employeeID])...)
	}

	s.runUnits(ctx, b, units)
	s.runWeeks(ctx, b)
	return s.finish(b, "pending", started), nil
}

// attribute groups one staff member's pending events into day units.
func (s *AttendanceServiceImpl) attribute(b *batch, sc staffContext, events []punch.Event) []unit {
	byDate := make(map[string]*unit)
	var order []string

	for _, e := range events {
		if e.Timestamp.IsZero() || e.Timestamp.Year() < 1970 {
			err := fmt.Errorf("%w: event %s", punch.ErrMalformedTimestamp, e.ID)
			s.logUnitFailure(b.result.RunID, sc.staff.ID, e.Timestamp, err)
			b.fail(sc.staff.ID, e.Timestamp, err)
			continue
		}

		date := s.dayOf(sc, e.Timestamp)
		k := date.Format("2006-01-02")
		u, ok := byDate[k]
		if !ok {
			u = &unit{EmployeeID: sc.staff.ID, Date: date}
			byDate[k] = u
			order = append(order, k)
		}
		u.EventIDs = append(u.EventIDs, e.ID)
	}

	sort.Strings(order)
	units := make([]unit, 0, len(order))
	for _, k := range order {
		units = append(units, *byDate[k])
	}
	return units
}

// dayOf finds the day whose window contains t. Windows are anchored on the
// shift start, so the owning day can be the local date or either neighbour.
func (s *AttendanceServiceImpl) dayOf(sc staffContext, t time.Time) time.Time {
	local := schedule.DateOnly(t.In(sc.location))
	for _, offset := range []int{0, -1, 1} {
		d := local.AddDate(0, 0, offset)
		shift := engine.ResolveShift(sc.assignments, sc.shifts, d)
		if engine.DayWindow(d, shift, sc.location).Contains(t) {
			return d
		}
	}
	return local
}

// ReconcileOpenWeeks implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ReconcileOpenWeeks(ctx context.Context) (attendance.BatchResult, error) {
	since := attendance.WeekOf(s.now()).AddDate(0, 0, -7*s.lookbackWeeks)
	keys, err := s.repos.Records.ListProvisionalWeeks(ctx, since)
	if err != nil {
		return attendance.BatchResult{}, fmt.Errorf("failed to list provisional weeks: %w", err)
	}

	started := time.Now()
	b := newBatch()
	for _, k := range keys {
		b.weeks[k.String()] = k
		b.states[k.String()] = weekDeferred
	}

	s.runWeeks(ctx, b)
	return s.finish(b, "reconcile", started), nil
}

// MarkAbsentDays implements attendance.AttendanceService. Only days whose
// window has ended are considered, so a shift still in progress is never
// marked absent.
func (s *AttendanceServiceImpl) MarkAbsentDays(ctx context.Context) (attendance.BatchResult, error) {
	ids, err := s.repos.Staff.ListIDs(ctx)
	if err != nil {
		return attendance.BatchResult{}, fmt.Errorf("failed to list staff: %w", err)
	}

	started := time.Now()
	b := newBatch()
	now := s.now()
	since := attendance.WeekOf(now).AddDate(0, 0, -7*s.lookbackWeeks)

	var units []unit
	for _, employeeID := range ids {
		if ctx.Err() != nil {
			b.cancel()
			break
		}
		sc, err := s.loadStaff(ctx, employeeID)
		if err != nil {
			s.logUnitFailure(b.result.RunID, employeeID, time.Time{}, err)
			b.fail(employeeID, time.Time{}, err)
			continue
		}
		missing, err := s.missingWorkdays(ctx, sc, since, now)
		if err != nil {
			s.logUnitFailure(b.result.RunID, employeeID, time.Time{}, err)
			b.fail(employeeID, time.Time{}, err)
			continue
		}
		for _, d := range missing {
			units = append(units, unit{EmployeeID: employeeID, Date: d})
		}
	}

	s.runUnits(ctx, b, units)
	s.runWeeks(ctx, b)
	return s.finish(b, "absent", started), nil
}

// missingWorkdays lists the scheduled dates from since whose day window ended
// before now and which have no record.
func (s *AttendanceServiceImpl) missingWorkdays(ctx context.Context, sc staffContext, since, now time.Time) ([]time.Time, error) {
	var missing []time.Time
	for week := since; !week.After(now); week = week.AddDate(0, 0, 7) {
		for _, d := range sc.scheduledDates(week) {
			shift := engine.ResolveShift(sc.assignments, sc.shifts, d)
			if engine.DayWindow(d, shift, sc.location).End.After(now) {
				continue
			}
			rec, err := s.repos.Records.GetByEmployeeAndDate(ctx, sc.staff.ID, d)
			if err != nil {
				return nil, fmt.Errorf("failed to load attendance record: %w", err)
			}
			if rec == nil {
				missing = append(missing, d)
			}
		}
	}
	return missing, nil
}
