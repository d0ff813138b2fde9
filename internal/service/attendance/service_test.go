package attendance

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
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	svc   *AttendanceServiceImpl
	clock time.Time
}

func newFixture(t *testing.T, shift schedule.Shift, policy overtime.Policy) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
		clock: time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC),
	}

	_, err := f.store.Staff().Create(f.ctx, employee.Staff{ID: "emp-1", FullName: "Ayu Lestari", Timezone: "UTC"})
	require.NoError(t, err)
	_, err = f.store.Shifts().Create(f.ctx, shift)
	require.NoError(t, err)
	_, err = f.store.Assignments().Create(f.ctx, schedule.ShiftAssignment{
		EmployeeID:    "emp-1",
		ShiftID:       shift.ID,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = f.store.Policies().Create(f.ctx, policy)
	require.NoError(t, err)

	f.svc = NewAttendanceService(Repositories{
		Records:     f.store.Records(),
		Corrections: f.store.Corrections(),
		Events:      f.store.Events(),
		Shifts:      f.store.Shifts(),
		Assignments: f.store.Assignments(),
		Policies:    f.store.Policies(),
		Staff:       f.store.Staff(),
		Leaves:      f.store.LeaveRequests(),
		Holidays:    f.store.Holidays(),
		Transactor:  f.store,
	}, Options{
		Rules:          engine.DefaultConfig(),
		Workers:        2,
		WeekCloseGrace: 48 * time.Hour,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:            func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) punch(ts ...time.Time) {
	f.t.Helper()
	for _, t := range ts {
		_, err := f.store.Events().Create(f.ctx, punch.Event{
			EmployeeID:         "emp-1",
			DeviceID:           "dev-1",
			Timestamp:          t,
			DeclaredKind:       punch.KindIn,
			VerificationMethod: punch.VerificationFingerprint,
		})
		require.NoError(f.t, err)
	}
}

func (f *fixture) record(date time.Time) attendance.Record {
	f.t.Helper()
	rec, err := f.store.Records().GetByEmployeeAndDate(f.ctx, "emp-1", date)
	require.NoError(f.t, err)
	require.NotNil(f.t, rec)
	return *rec
}

func officeShift() schedule.Shift {
	return schedule.Shift{
		ID:                 "shift-office",
		Name:               "Office",
		StartTime:          schedule.NewTimeOfDay(9, 0),
		EndTime:            schedule.NewTimeOfDay(17, 0),
		RequiredMinutes:    480,
		GracePeriodMinutes: 10,
	}
}

func dailyPolicy() overtime.Policy {
	return overtime.Policy{
		ID:                           "pol-default",
		Name:                         "Default",
		Scope:                        overtime.ScopeDefault,
		DailyThresholdMinutes:        480,
		DailyMultiplier:              decimal.RequireFromString("1.5"),
		MaxDailyOvertimeMinutes:      120,
		MinimumOvertimeMinutes:       15,
		AutoApprovalThresholdMinutes: 60,
		IsDefault:                    true,
		IsActive:                     true,
		EffectiveFrom:                time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func weeklyPolicy() overtime.Policy {
	p := dailyPolicy()
	p.ID = "pol-weekly"
	p.DailyThresholdMinutes = 600
	p.ApplyWeeklyRule = true
	p.WeeklyThresholdMinutes = 2400
	p.WeeklyMultiplier = decimal.RequireFromString("1.5")
	p.MaxDailyOvertimeMinutes = 600
	return p
}

func TestProcessDay_StandardDay(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	tuesday := monday.AddDate(0, 0, 1)
	f.punch(at(tuesday, 9, 12), at(tuesday, 17, 5))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", tuesday)
	require.NoError(t, err)

	rec := out.Record
	assert.Equal(t, attendance.PresencePresent, rec.Presence)
	assert.Equal(t, 473, rec.TotalMinutes)
	require.NotNil(t, rec.LateMinutes)
	assert.Equal(t, 2, *rec.LateMinutes)
	assert.Equal(t, 0, rec.PaidOvertimeMinutes())
	assert.Equal(t, attendance.StageFinal, rec.Stage)
	assert.Equal(t, 1, rec.Version)
	assert.NotEmpty(t, rec.ID)

	pending, err := f.store.Events().ListUnprocessed(f.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	again, err := f.svc.ProcessDay(f.ctx, "emp-1", tuesday)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.Record.ID)
	assert.Equal(t, 1, again.Record.Version)
	assert.Equal(t, rec.Fingerprint, again.Record.Fingerprint)
}

func TestProcessDay_UnknownEmployee(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())

	_, err := f.svc.ProcessDay(f.ctx, "emp-404", monday)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestProcessRange_WeeklyThreshold(t *testing.T) {
	f := newFixture(t, officeShift(), weeklyPolicy())
	for i := 0; i < 5; i++ {
		d := monday.AddDate(0, 0, i)
		f.punch(at(d, 8, 0), at(d, 17, 0))
	}

	result, err := f.svc.ProcessRange(f.ctx, "emp-1", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 7, result.Processed)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, result.WeeksReconciled)
	assert.Equal(t, 0, result.WeeksDeferred)

	thursday := f.record(monday.AddDate(0, 0, 3))
	assert.Equal(t, 0, thursday.WeeklyOvertimeMinutes)
	assert.Equal(t, 540, thursday.RegularMinutes)

	friday := f.record(monday.AddDate(0, 0, 4))
	assert.Equal(t, 300, friday.WeeklyOvertimeMinutes)
	assert.Equal(t, 240, friday.RegularMinutes)
	assert.Equal(t, attendance.StageFinal, friday.Stage)
	assert.True(t, decimal.RequireFromString("7.5").Equal(friday.WeightedOvertimeHours))

	sunday := f.record(monday.AddDate(0, 0, 6))
	assert.Equal(t, attendance.PresenceRestDay, sunday.Presence)

	// A second run over unchanged input writes nothing new.
	versions := map[string]int{}
	for i := 0; i < 7; i++ {
		r := f.record(monday.AddDate(0, 0, i))
		versions[r.ID] = r.Version
	}
	_, err = f.svc.ProcessRange(f.ctx, "emp-1", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		r := f.record(monday.AddDate(0, 0, i))
		assert.Equal(t, versions[r.ID], r.Version, r.Date.Format("2006-01-02"))
	}
}

func TestProcessDay_OpenWeekDefersThenCloses(t *testing.T) {
	f := newFixture(t, officeShift(), weeklyPolicy())
	f.clock = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	f.punch(at(monday, 9, 0), at(monday, 17, 0))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StageProvisional, out.Record.Stage)

	_, err = f.svc.ReconcileWeek(f.ctx, "emp-1", monday)
	assert.ErrorIs(t, err, attendance.ErrWeekIncomplete)

	result, err := f.svc.ReconcileOpenWeeks(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.WeeksDeferred)
	assert.Equal(t, 0, result.WeeksReconciled)
	assert.Empty(t, result.Failed)

	f.clock = time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	result, err = f.svc.ReconcileOpenWeeks(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.WeeksReconciled)
	assert.Equal(t, attendance.StageFinal, f.record(monday).Stage)

	result, err = f.svc.ReconcileOpenWeeks(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.WeeksReconciled)
}

func TestMarkAbsentDays_RecordsScheduledDaysWithoutPunches(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	tuesday := monday.AddDate(0, 0, 1)
	wednesday := monday.AddDate(0, 0, 2)
	f.punch(at(monday, 9, 0), at(monday, 17, 0), at(wednesday, 9, 0), at(wednesday, 17, 0))

	result, err := f.svc.ProcessPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	rec, err := f.store.Records().GetByEmployeeAndDate(f.ctx, "emp-1", tuesday)
	require.NoError(t, err)
	assert.Nil(t, rec)

	result, err = f.svc.MarkAbsentDays(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	// Eight lookback weeks of weekdays up to the last ended day, less the two punched days.
	assert.Equal(t, 41, result.Processed)

	absent := f.record(tuesday)
	assert.Equal(t, attendance.PresenceAbsent, absent.Presence)
	assert.True(t, absent.HasAnomaly(attendance.AnomalyNoPunchesOnWorkday))
	assert.Equal(t, 0, absent.TotalMinutes)

	assert.Equal(t, attendance.PresencePresent, f.record(monday).Presence)
	assert.Equal(t, 1, f.record(monday).Version)

	saturday := monday.AddDate(0, 0, 5)
	rec, err = f.store.Records().GetByEmployeeAndDate(f.ctx, "emp-1", saturday)
	require.NoError(t, err)
	assert.Nil(t, rec, "rest days are not marked")

	inProgress, err := f.store.Records().GetByEmployeeAndDate(f.ctx, "emp-1", schedule.DateOnly(f.clock))
	require.NoError(t, err)
	assert.Nil(t, inProgress, "a day whose window is still open is not marked")

	again, err := f.svc.MarkAbsentDays(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
}

func TestMarkAbsentDays_PicksUpPendingPunches(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	tuesday := monday.AddDate(0, 0, 1)
	f.punch(at(tuesday, 9, 0), at(tuesday, 17, 0))

	_, err := f.svc.MarkAbsentDays(f.ctx)
	require.NoError(t, err)

	rec := f.record(tuesday)
	assert.Equal(t, attendance.PresencePresent, rec.Presence)
	assert.Equal(t, 480, rec.TotalMinutes)

	result, err := f.svc.ProcessPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestProcessPending_AttributesAndIsolatesFailures(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	tuesday := monday.AddDate(0, 0, 1)
	f.punch(at(monday, 9, 0), at(monday, 17, 0), at(tuesday, 9, 0), at(tuesday, 17, 30))

	_, err := f.store.Events().Create(f.ctx, punch.Event{EmployeeID: "emp-1", DeviceID: "dev-1"})
	require.NoError(t, err)
	_, err = f.store.Events().Create(f.ctx, punch.Event{EmployeeID: "emp-ghost", DeviceID: "dev-1", Timestamp: at(monday, 9, 0)})
	require.NoError(t, err)

	result, err := f.svc.ProcessPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	require.Len(t, result.Failed, 2)
	assert.False(t, result.Cancelled)

	assert.Equal(t, 480, f.record(monday).TotalMinutes)
	assert.Equal(t, 510, f.record(tuesday).TotalMinutes)

	pending, err := f.store.Events().ListUnprocessed(f.ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestProcessPending_OvernightShiftLandsOnStartDay(t *testing.T) {
	night := schedule.Shift{
		ID:              "shift-night",
		Name:            "Night",
		StartTime:       schedule.NewTimeOfDay(22, 0),
		EndTime:         schedule.NewTimeOfDay(6, 0),
		RequiredMinutes: 480,
	}
	f := newFixture(t, night, dailyPolicy())
	f.punch(at(monday, 22, 0), at(monday.AddDate(0, 0, 1), 6, 0))

	result, err := f.svc.ProcessPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	rec := f.record(monday)
	assert.Equal(t, 480, rec.TotalMinutes)
	assert.Equal(t, 2, rec.PunchCount)
}

func TestProcessRange_Validation(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())

	_, err := f.svc.ProcessRange(f.ctx, "emp-1", monday, monday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, attendance.ErrInvalidDateRange)

	_, err = f.svc.ProcessRange(f.ctx, "emp-404", monday, monday)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestProcessRange_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	result, err := f.svc.ProcessRange(ctx, "emp-1", monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 0, result.Processed)
}

func TestCorrection_ApproveReprocessesDay(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	f.punch(at(monday, 9, 0))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)
	require.True(t, out.Record.HasAnomaly(attendance.AnomalyIncompletePunch))

	correction, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          out.Record.ID,
		CorrectedClockIn:  "2025-03-03T09:00:00Z",
		CorrectedClockOut: "2025-03-03T17:00:00Z",
		Reason:            "forgot to clock out",
		SubmittedBy:       "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.CorrectionStatusPending, correction.Status)
	require.NotNil(t, correction.OriginalClockIn)
	assert.Nil(t, correction.OriginalClockOut)

	_, err = f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          out.Record.ID,
		CorrectedClockIn:  "2025-03-03T09:00:00Z",
		CorrectedClockOut: "2025-03-03T16:00:00Z",
		Reason:            "second try",
		SubmittedBy:       "user-1",
	})
	assert.ErrorIs(t, err, attendance.ErrCorrectionPending)

	outcome, err := f.svc.ApproveCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.CorrectionStatusApproved, outcome.Correction.Status)
	require.NotNil(t, outcome.Before)
	require.NotNil(t, outcome.After)
	assert.True(t, outcome.Before.HasAnomaly(attendance.AnomalyIncompletePunch))
	assert.False(t, outcome.After.HasAnomaly(attendance.AnomalyIncompletePunch))
	assert.Equal(t, 0, outcome.Before.TotalMinutes)
	assert.Equal(t, 480, outcome.After.TotalMinutes)
	require.NotNil(t, outcome.After.CorrectionID)
	assert.Equal(t, correction.ID, *outcome.After.CorrectionID)
	assert.Equal(t, 2, outcome.After.Version)

	_, err = f.svc.ApproveCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1"})
	assert.ErrorIs(t, err, attendance.ErrCorrectionAlreadyReviewed)

	// Later reprocessing keeps honouring the approved correction.
	again, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)
	assert.Equal(t, 480, again.Record.TotalMinutes)
	assert.Equal(t, 2, again.Record.Version)
}

func TestCorrection_RoundTripKeepsNumbers(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	f.punch(at(monday, 9, 12), at(monday, 17, 5))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)

	correction, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          out.Record.ID,
		CorrectedClockIn:  "2025-03-03T09:12:00Z",
		CorrectedClockOut: "2025-03-03T17:05:00Z",
		Reason:            "confirm",
		SubmittedBy:       "user-1",
	})
	require.NoError(t, err)

	outcome, err := f.svc.ApproveCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)

	before, after := outcome.Before, outcome.After
	assert.Equal(t, before.TotalMinutes, after.TotalMinutes)
	assert.Equal(t, before.RegularMinutes, after.RegularMinutes)
	assert.Equal(t, *before.LateMinutes, *after.LateMinutes)
	assert.Equal(t, *before.EarlyLeaveMinutes, *after.EarlyLeaveMinutes)
	assert.Equal(t, before.PaidOvertimeMinutes(), after.PaidOvertimeMinutes())
	assert.Equal(t, before.Anomalies, after.Anomalies)
}

func TestCorrection_RoundTripKeepsLunchBreak(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	f.punch(at(monday, 9, 0), at(monday, 12, 0), at(monday, 13, 0), at(monday, 17, 0))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)
	require.Equal(t, 420, out.Record.WorkedMinutes)

	correction, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          out.Record.ID,
		CorrectedClockIn:  out.Record.ClockIn.Format(time.RFC3339),
		CorrectedClockOut: out.Record.ClockOut.Format(time.RFC3339),
		Reason:            "confirm",
		SubmittedBy:       "user-1",
	})
	require.NoError(t, err)

	outcome, err := f.svc.ApproveCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)

	before, after := outcome.Before, outcome.After
	assert.Equal(t, 420, after.WorkedMinutes)
	assert.Equal(t, before.WorkedMinutes, after.WorkedMinutes)
	assert.Equal(t, before.TotalMinutes, after.TotalMinutes)
	assert.Equal(t, before.RegularMinutes, after.RegularMinutes)
	assert.Equal(t, before.PaidOvertimeMinutes(), after.PaidOvertimeMinutes())
	assert.Equal(t, before.Anomalies, after.Anomalies)
	assert.Equal(t, 420, f.record(monday).TotalMinutes)
}

func TestCorrection_Reject(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	f.punch(at(monday, 9, 0))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)

	correction, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          out.Record.ID,
		CorrectedClockIn:  "2025-03-03T09:00:00Z",
		CorrectedClockOut: "2025-03-03T17:00:00Z",
		Reason:            "forgot to clock out",
		SubmittedBy:       "user-1",
	})
	require.NoError(t, err)

	note := "no badge record"
	outcome, err := f.svc.RejectCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1", Note: &note})
	require.NoError(t, err)
	assert.Equal(t, attendance.CorrectionStatusRejected, outcome.Correction.Status)
	assert.Equal(t, outcome.Before, outcome.After)
	assert.Equal(t, 1, f.record(monday).Version)

	_, err = f.svc.ApproveCorrection(f.ctx, attendance.ReviewCorrectionRequest{ID: correction.ID, ReviewerID: "mgr-1"})
	assert.ErrorIs(t, err, attendance.ErrCorrectionAlreadyReviewed)
}

func TestCorrection_Validation(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())

	_, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          "rec-1",
		CorrectedClockIn:  "2025-03-03T17:00:00Z",
		CorrectedClockOut: "2025-03-03T09:00:00Z",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	_, err = f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
		RecordID:          "rec-404",
		CorrectedClockIn:  "2025-03-03T09:00:00Z",
		CorrectedClockOut: "2025-03-03T17:00:00Z",
		Reason:            "missing",
	})
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestCorrection_OutsideAttendanceDay(t *testing.T) {
	f := newFixture(t, officeShift(), dailyPolicy())
	f.punch(at(monday, 9, 0))

	out, err := f.svc.ProcessDay(f.ctx, "emp-1", monday)
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    string
		out   string
		field string
	}{
		{"clock-in a week later", "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z", "corrected_clock_in"},
		{"clock-in before the day opens", "2025-03-02T22:00:00Z", "2025-03-03T17:00:00Z", "corrected_clock_in"},
		{"clock-out after the day closes", "2025-03-03T09:00:00Z", "2025-03-04T03:00:00Z", "corrected_clock_out"},
		{"longer than a day", "2025-03-03T09:00:00Z", "2025-03-04T09:30:00Z", "corrected_clock_out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitCorrection(f.ctx, attendance.SubmitCorrectionRequest{
				RecordID:          out.Record.ID,
				CorrectedClockIn:  tt.in,
				CorrectedClockOut: tt.out,
				Reason:            "wrong day",
				SubmittedBy:       "user-1",
			})
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}

	pending, err := f.store.Corrections().GetPendingByRecord(f.ctx, out.Record.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
