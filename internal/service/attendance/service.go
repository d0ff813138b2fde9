package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/google/uuid"
)

// Repositories are the collaborators the service reads from and writes to.
type Repositories struct {
	Records     attendance.RecordRepository
	Corrections attendance.CorrectionRepository
	Events      punch.EventRepository
	Shifts      schedule.ShiftRepository
	Assignments schedule.ShiftAssignmentRepository
	Policies    overtime.PolicyRepository
	Staff       employee.StaffRepository
	Leaves      leave.LeaveRequestRepository
	Holidays    leave.HolidayRepository
	Transactor  attendance.Transactor
}

type Options struct {
	Rules engine.Config
	// Workers bounds how many units a batch runs at once.
	Workers int
	// WeekCloseGrace is how long after its Sunday a week stays open for late punches.
	WeekCloseGrace time.Duration
	// LookbackWeeks limits how far back ReconcileOpenWeeks and MarkAbsentDays look.
	LookbackWeeks int
	// PendingLimit caps the punch events read by one ProcessPending run.
	PendingLimit int
	// DefaultTimezone applies to staff without a timezone of their own.
	DefaultTimezone string

	Logger *slog.Logger
	Now    func() time.Time
}

type AttendanceServiceImpl struct {
	repos           Repositories
	rules           engine.Config
	workers         int
	weekCloseGrace  time.Duration
	lookbackWeeks   int
	pendingLimit    int
	defaultLocation *time.Location

	locks  *keylock.KeyLock
	logger *slog.Logger
	now    func() time.Time
}

func NewAttendanceService(repos Repositories, opts Options) *AttendanceServiceImpl {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.LookbackWeeks < 1 {
		opts.LookbackWeeks = 8
	}
	if opts.PendingLimit < 1 {
		opts.PendingLimit = 5000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	loc := time.UTC
	if opts.DefaultTimezone != "" {
		if l, err := time.LoadLocation(opts.DefaultTimezone); err == nil {
			loc = l
		}
	}

	return &AttendanceServiceImpl{
		repos:           repos,
		rules:           opts.Rules,
		workers:         opts.Workers,
		weekCloseGrace:  opts.WeekCloseGrace,
		lookbackWeeks:   opts.LookbackWeeks,
		pendingLimit:    opts.PendingLimit,
		defaultLocation: loc,
		locks:           keylock.New(),
		logger:          opts.Logger,
		now:             func() time.Time { return opts.Now().UTC() },
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// staffContext is the per-staff reference data shared by every day of a unit.
type staffContext struct {
	staff       employee.Staff
	location    *time.Location
	assignments []schedule.ShiftAssignment
	shifts      map[string]schedule.Shift
	policies    []overtime.Policy
}

func (c staffContext) policyIndex() map[string]overtime.Policy {
	idx := make(map[string]overtime.Policy, len(c.policies))
	for _, p := range c.policies {
		idx[p.ID] = p
	}
	return idx
}

func (c staffContext) scheduledDates(weekStart time.Time) []time.Time {
	return engine.ScheduledDates(c.assignments, c.shifts, weekStart)
}

func (s *AttendanceServiceImpl) loadStaff(ctx context.Context, employeeID string) (staffContext, error) {
	staff, err := s.repos.Staff.GetByID(ctx, employeeID)
	if err != nil {
		return staffContext{}, err
	}

	loc := s.defaultLocation
	if staff.Timezone != "" {
		if l, err := time.LoadLocation(staff.Timezone); err == nil {
			loc = l
		} else {
			s.logger.Warn("Unknown staff timezone, using default",
				"employee_id", employeeID, "timezone", staff.Timezone, "default", loc.String())
		}
	}

	assignments, err := s.repos.Assignments.ListByEmployee(ctx, employeeID)
	if err != nil {
		return staffContext{}, fmt.Errorf("failed to load shift assignments: %w", err)
	}

	shiftIDs := make([]string, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.ShiftID]; ok {
			continue
		}
		seen[a.ShiftID] = struct{}{}
		shiftIDs = append(shiftIDs, a.ShiftID)
	}
	shifts, err := s.repos.Shifts.GetByIDs(ctx, shiftIDs)
	if err != nil {
		return staffContext{}, fmt.Errorf("failed to load shifts: %w", err)
	}

	policies, err := s.repos.Policies.ListActive(ctx)
	if err != nil {
		return staffContext{}, fmt.Errorf("failed to load overtime policies: %w", err)
	}

	return staffContext{
		staff:       staff,
		location:    loc,
		assignments: assignments,
		shifts:      shifts,
		policies:    policies,
	}, nil
}

// loadDay gathers the engine input for one date. It also returns the stored
// record, if any, and the IDs of unprocessed punch events inside the window.
func (s *AttendanceServiceImpl) loadDay(ctx context.Context, sc staffContext, date time.Time) (engine.DayInput, *attendance.Record, []string, error) {
	shift := engine.ResolveShift(sc.assignments, sc.shifts, date)
	window := engine.DayWindow(date, shift, sc.location)

	events, err := s.repos.Events.ListByEmployeeBetween(ctx, sc.staff.ID, window.Start.UTC(), window.End.UTC())
	if err != nil {
		return engine.DayInput{}, nil, nil, fmt.Errorf("failed to load punch events: %w", err)
	}
	var pending []string
	for _, e := range events {
		if e.ProcessedAt == nil {
			pending = append(pending, e.ID)
		}
	}

	leaves, err := s.repos.Leaves.ListApprovedOverlapping(ctx, sc.staff.ID, date, date)
	if err != nil {
		return engine.DayInput{}, nil, nil, fmt.Errorf("failed to load leave requests: %w", err)
	}

	holidays, err := s.repos.Holidays.ListBetween(ctx, sc.staff.LocationID, date, date)
	if err != nil {
		return engine.DayInput{}, nil, nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	existing, err := s.repos.Records.GetByEmployeeAndDate(ctx, sc.staff.ID, date)
	if err != nil {
		return engine.DayInput{}, nil, nil, fmt.Errorf("failed to load attendance record: %w", err)
	}

	var override *engine.Override
	if existing != nil {
		approved, err := s.repos.Corrections.GetLatestApprovedByRecord(ctx, existing.ID)
		if err != nil {
			return engine.DayInput{}, nil, nil, fmt.Errorf("failed to load approved correction: %w", err)
		}
		override = engine.OverrideFromCorrection(approved)
	}

	return engine.DayInput{
		EmployeeID:         sc.staff.ID,
		Date:               date,
		Location:           sc.location,
		LocationID:         sc.staff.LocationID,
		DepartmentPolicyID: sc.staff.DepartmentPolicyID,
		Assignments:        sc.assignments,
		Shifts:             sc.shifts,
		Policies:           sc.policies,
		Punches:            events,
		Leaves:             leaves,
		Holidays:           holidays,
		Override:           override,
		Config:             s.rules,
	}, existing, pending, nil
}

// unitResult is what one (staff, date) unit wrote.
type unitResult struct {
	Record   attendance.Record
	Week     []attendance.Record
	State    weekState
	Warnings []string
}

// runDayUnit processes one (staff, date) under the week lock and inside one
// transaction, so a failure leaves neither a half-written record nor punches
// marked processed.
func (s *AttendanceServiceImpl) runDayUnit(ctx context.Context, employeeID string, date time.Time, extraProcessed []string) (unitResult, error) {
	date = schedule.DateOnly(date)
	key := attendance.WeekKey{EmployeeID: employeeID, WeekStart: attendance.WeekOf(date)}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	var res unitResult
	err := s.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Records.LockWeek(ctx, key); err != nil {
			return err
		}
		sc, err := s.loadStaff(ctx, employeeID)
		if err != nil {
			return err
		}
		res, err = s.processDayLocked(ctx, sc, date, extraProcessed)
		return err
	})
	return res, err
}

// processDayLocked expects the caller to hold the week lock and a transaction.
func (s *AttendanceServiceImpl) processDayLocked(ctx context.Context, sc staffContext, date time.Time, extraProcessed []string) (unitResult, error) {
	in, existing, pending, err := s.loadDay(ctx, sc, date)
	if err != nil {
		return unitResult{}, err
	}

	result, err := engine.ProcessDay(in)
	if err != nil {
		return unitResult{}, err
	}

	rec := result.Record
	if existing != nil {
		rec.ID = existing.ID
	} else {
		rec.ID = newID()
	}
	rec.ProcessedAt = s.now()

	week, state, err := s.settleWeek(ctx, sc, rec)
	if err != nil {
		return unitResult{}, err
	}

	stored := rec
	for _, r := range week {
		if r.Date.Equal(rec.Date) {
			stored = r
		}
	}

	if ids := append(pending, extraProcessed...); len(ids) > 0 {
		if err := s.repos.Events.MarkProcessed(ctx, ids, s.now()); err != nil {
			return unitResult{}, err
		}
	}

	return unitResult{
		Record:   stored,
		Week:     week,
		State:    state,
		Warnings: result.Warnings,
	}, nil
}

// ProcessDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ProcessDay(ctx context.Context, employeeID string, date time.Time) (attendance.DayOutcome, error) {
	res, err := s.runDayUnit(ctx, employeeID, date, nil)
	if err != nil {
		return attendance.DayOutcome{}, err
	}
	for _, w := range res.Warnings {
		s.logger.Warn("Attendance configuration warning",
			"employee_id", employeeID, "date", date.Format("2006-01-02"), "warning", w)
	}
	return attendance.DayOutcome{Record: res.Record, Warnings: res.Warnings}, nil
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	if to.Before(from) {
		return nil, attendance.ErrInvalidDateRange
	}
	records, err := s.repos.Records.ListByEmployeeBetween(ctx, employeeID, schedule.DateOnly(from), schedule.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}

func isInputError(err error) bool {
	return errors.Is(err, punch.ErrMalformedTimestamp) || errors.Is(err, employee.ErrEmployeeNotFound)
}
