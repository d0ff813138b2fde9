package postgresql_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "0191a4b2-0000-7000-8000-000000000001"

type pgFixture struct {
	setup      *TestDatabaseSetup
	repos      attendanceService.Repositories
	employeeID string
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	setup := NewTestDatabase(t)
	db := setup.DB
	ctx := context.Background()

	repos := attendanceService.Repositories{
		Records:     postgresql.NewRecordRepository(db),
		Corrections: postgresql.NewCorrectionRepository(db),
		Events:      postgresql.NewEventRepository(db),
		Shifts:      postgresql.NewShiftRepository(db),
		Assignments: postgresql.NewShiftAssignmentRepository(db),
		Policies:    postgresql.NewPolicyRepository(db),
		Staff:       postgresql.NewStaffRepository(db),
		Leaves:      postgresql.NewLeaveRequestRepository(db),
		Holidays:    postgresql.NewHolidayRepository(db),
		Transactor:  postgresql.NewTransactor(db),
	}

	staff, err := repos.Staff.Create(ctx, employee.Staff{CompanyID: testCompanyID, FullName: "Ayu Lestari"})
	require.NoError(t, err)

	_, err = repos.Policies.Create(ctx, overtime.Policy{
		CompanyID:               testCompanyID,
		Name:                    "Default",
		Scope:                   overtime.ScopeDefault,
		DailyThresholdMinutes:   480,
		DailyMultiplier:         decimal.RequireFromString("1.5"),
		MaxDailyOvertimeMinutes: 120,
		IsDefault:               true,
		IsActive:                true,
		EffectiveFrom:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	shift, err := repos.Shifts.Create(ctx, schedule.Shift{
		CompanyID:          testCompanyID,
		Name:               "Office",
		StartTime:          schedule.NewTimeOfDay(9, 0),
		EndTime:            schedule.NewTimeOfDay(17, 0),
		RequiredMinutes:    480,
		GracePeriodMinutes: 10,
	})
	require.NoError(t, err)

	_, err = repos.Assignments.Create(ctx, schedule.ShiftAssignment{
		EmployeeID:    staff.ID,
		ShiftID:       shift.ID,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return &pgFixture{setup: setup, repos: repos, employeeID: staff.ID}
}

func (f *pgFixture) service(now time.Time) *attendanceService.AttendanceServiceImpl {
	return attendanceService.NewAttendanceService(f.repos, attendanceService.Options{
		Rules:          engine.DefaultConfig(),
		Workers:        2,
		WeekCloseGrace: 48 * time.Hour,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:            func() time.Time { return now },
	})
}

func TestPostgres_ShiftTimesRoundTrip(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	assignments, err := f.repos.Assignments.ListByEmployee(ctx, f.employeeID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	shifts, err := f.repos.Shifts.GetByIDs(ctx, []string{assignments[0].ShiftID})
	require.NoError(t, err)
	shift := shifts[assignments[0].ShiftID]
	assert.Equal(t, schedule.NewTimeOfDay(9, 0), shift.StartTime)
	assert.Equal(t, schedule.NewTimeOfDay(17, 0), shift.EndTime)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, shift.WorkDays)

	policies, err := f.repos.Policies.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.True(t, decimal.RequireFromString("1.5").Equal(policies[0].DailyMultiplier))
}

func TestPostgres_ProcessDayIsIdempotent(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	tuesday := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	for _, ts := range []time.Time{tuesday.Add(9 * time.Hour), tuesday.Add(18 * time.Hour)} {
		_, err := f.repos.Events.Create(ctx, punch.Event{
			EmployeeID:         f.employeeID,
			DeviceID:           "dev-1",
			Timestamp:          ts,
			DeclaredKind:       punch.KindIn,
			VerificationMethod: punch.VerificationFingerprint,
		})
		require.NoError(t, err)
	}

	svc := f.service(time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC))
	result, err := svc.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Empty(t, result.Failed)

	rec, err := f.repos.Records.GetByEmployeeAndDate(ctx, f.employeeID, tuesday)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 540, rec.TotalMinutes)
	assert.Equal(t, 60, rec.OvertimeMinutes)
	assert.Equal(t, "1.50", rec.WeightedOvertimeHours.StringFixed(2))
	assert.Equal(t, 1, rec.Version)

	pending, err := f.repos.Events.ListUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	again, err := svc.ProcessDay(ctx, f.employeeID, tuesday)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.Record.ID)
	assert.Equal(t, 1, again.Record.Version)
}

func TestPostgres_LockWeekRequiresTransaction(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	key := attendance.WeekKey{EmployeeID: f.employeeID, WeekStart: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)}

	assert.Error(t, f.repos.Records.LockWeek(ctx, key))

	err := f.repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		return f.repos.Records.LockWeek(ctx, key)
	})
	assert.NoError(t, err)
}

func TestPostgres_MarkAbsentDays(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	ids, err := f.repos.Staff.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{f.employeeID}, ids)

	svc := attendanceService.NewAttendanceService(f.repos, attendanceService.Options{
		Rules:         engine.DefaultConfig(),
		LookbackWeeks: 1,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:           func() time.Time { return time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC) },
	})

	result, err := svc.MarkAbsentDays(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	// 2025-02-24 through 2025-03-05 holds eight ended weekdays.
	assert.Equal(t, 8, result.Processed)

	rec, err := f.repos.Records.GetByEmployeeAndDate(ctx, f.employeeID, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.PresenceAbsent, rec.Presence)
	assert.True(t, rec.HasAnomaly(attendance.AnomalyNoPunchesOnWorkday))
}
