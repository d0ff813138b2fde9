package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type recordRepository struct {
	db *database.DB
}

const recordColumns = `
	id, employee_id, date, shift_id, overtime_policy_id, correction_id,
	clock_in, clock_out, punch_count, worked_minutes, break_deducted_minutes,
	total_minutes, regular_minutes, leave_minutes,
	overtime_minutes, weekend_overtime_minutes, holiday_overtime_minutes, weekly_overtime_minutes,
	capped_minutes, weighted_overtime_hours::text, late_minutes, early_leave_minutes,
	presence, anomalies, overtime_approval, stage, fingerprint, version,
	processed_at, created_at, updated_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		r         attendance.Record
		weighted  string
		anomalies []string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Date, &r.ShiftID, &r.OvertimePolicyID, &r.CorrectionID,
		&r.ClockIn, &r.ClockOut, &r.PunchCount, &r.WorkedMinutes, &r.BreakDeductedMinutes,
		&r.TotalMinutes, &r.RegularMinutes, &r.LeaveMinutes,
		&r.OvertimeMinutes, &r.WeekendOvertimeMinutes, &r.HolidayOvertimeMinutes, &r.WeeklyOvertimeMinutes,
		&r.CappedMinutes, &weighted, &r.LateMinutes, &r.EarlyLeaveMinutes,
		&r.Presence, &anomalies, &r.OvertimeApproval, &r.Stage, &r.Fingerprint, &r.Version,
		&r.ProcessedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	r.WeightedOvertimeHours, err = decimal.NewFromString(weighted)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("parse weighted_overtime_hours %q: %w", weighted, err)
	}
	r.Anomalies = make([]attendance.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		r.Anomalies = append(r.Anomalies, attendance.Anomaly(a))
	}
	r.Date = dateUTC(r.Date)
	return r, nil
}

// GetByEmployeeAndDate implements attendance.RecordRepository.
func (r *recordRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, dateUTC(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record by employee and date: %w", err)
	}
	return &rec, nil
}

// GetByID implements attendance.RecordRepository.
func (r *recordRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

// ListByEmployeeBetween implements attendance.RecordRepository.
func (r *recordRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	rows, err := q.Query(ctx, query, employeeID, dateUTC(from), dateUTC(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

// Upsert implements attendance.RecordRepository. The unique (employee_id, date)
// constraint arbitrates concurrent writers; a row whose fingerprint already
// matches is left untouched, so its version does not move.
func (r *recordRepository) Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	anomalies := make([]string, 0, len(rec.Anomalies))
	for _, a := range rec.Anomalies {
		anomalies = append(anomalies, string(a))
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, shift_id, overtime_policy_id, correction_id,
			clock_in, clock_out, punch_count, worked_minutes, break_deducted_minutes,
			total_minutes, regular_minutes, leave_minutes,
			overtime_minutes, weekend_overtime_minutes, holiday_overtime_minutes, weekly_overtime_minutes,
			capped_minutes, weighted_overtime_hours, late_minutes, early_leave_minutes,
			presence, anomalies, overtime_approval, stage, fingerprint, version,
			processed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20::numeric, $21, $22, $23, $24, $25, $26, $27, 1, $28, NOW(), NOW()
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			shift_id                 = EXCLUDED.shift_id,
			overtime_policy_id       = EXCLUDED.overtime_policy_id,
			correction_id            = EXCLUDED.correction_id,
			clock_in                 = EXCLUDED.clock_in,
			clock_out                = EXCLUDED.clock_out,
			punch_count              = EXCLUDED.punch_count,
			worked_minutes           = EXCLUDED.worked_minutes,
			break_deducted_minutes   = EXCLUDED.break_deducted_minutes,
			total_minutes            = EXCLUDED.total_minutes,
			regular_minutes          = EXCLUDED.regular_minutes,
			leave_minutes            = EXCLUDED.leave_minutes,
			overtime_minutes         = EXCLUDED.overtime_minutes,
			weekend_overtime_minutes = EXCLUDED.weekend_overtime_minutes,
			holiday_overtime_minutes = EXCLUDED.holiday_overtime_minutes,
			weekly_overtime_minutes  = EXCLUDED.weekly_overtime_minutes,
			capped_minutes           = EXCLUDED.capped_minutes,
			weighted_overtime_hours  = EXCLUDED.weighted_overtime_hours,
			late_minutes             = EXCLUDED.late_minutes,
			early_leave_minutes      = EXCLUDED.early_leave_minutes,
			presence                 = EXCLUDED.presence,
			anomalies                = EXCLUDED.anomalies,
			overtime_approval        = EXCLUDED.overtime_approval,
			stage                    = EXCLUDED.stage,
			fingerprint              = EXCLUDED.fingerprint,
			version                  = attendance_records.version + 1,
			processed_at             = EXCLUDED.processed_at,
			updated_at               = NOW()
		WHERE attendance_records.fingerprint IS DISTINCT FROM EXCLUDED.fingerprint
	`

	_, err := q.Exec(ctx, query,
		rec.ID, rec.EmployeeID, dateUTC(rec.Date), rec.ShiftID, rec.OvertimePolicyID, rec.CorrectionID,
		rec.ClockIn, rec.ClockOut, rec.PunchCount, rec.WorkedMinutes, rec.BreakDeductedMinutes,
		rec.TotalMinutes, rec.RegularMinutes, rec.LeaveMinutes,
		rec.OvertimeMinutes, rec.WeekendOvertimeMinutes, rec.HolidayOvertimeMinutes, rec.WeeklyOvertimeMinutes,
		rec.CappedMinutes, rec.WeightedOvertimeHours.StringFixed(2), rec.LateMinutes, rec.EarlyLeaveMinutes,
		string(rec.Presence), anomalies, string(rec.OvertimeApproval), string(rec.Stage), rec.Fingerprint,
		rec.ProcessedAt,
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	stored, err := r.GetByEmployeeAndDate(ctx, rec.EmployeeID, rec.Date)
	if err != nil {
		return attendance.Record{}, err
	}
	if stored == nil {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return *stored, nil
}

// ListProvisionalWeeks implements attendance.RecordRepository.
func (r *recordRepository) ListProvisionalWeeks(ctx context.Context, since time.Time) ([]attendance.WeekKey, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id, date_trunc('week', date)::date AS week_start
		FROM attendance_records
		WHERE stage = 'PROVISIONAL' AND date >= $1
		ORDER BY week_start, employee_id
	`

	rows, err := q.Query(ctx, query, dateUTC(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list provisional weeks: %w", err)
	}
	defer rows.Close()

	var keys []attendance.WeekKey
	for rows.Next() {
		var k attendance.WeekKey
		if err := rows.Scan(&k.EmployeeID, &k.WeekStart); err != nil {
			return nil, fmt.Errorf("failed to scan provisional week: %w", err)
		}
		k.WeekStart = dateUTC(k.WeekStart)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provisional weeks: %w", err)
	}
	return keys, nil
}

// LockWeek implements attendance.RecordRepository with a transaction-scoped
// advisory lock, released on commit or rollback.
func (r *recordRepository) LockWeek(ctx context.Context, key attendance.WeekKey) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); !ok {
		return errors.New("lock week: no transaction on context")
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("failed to lock week %s: %w", key, err)
	}
	return nil
}

func NewRecordRepository(db *database.DB) attendance.RecordRepository {
	return &recordRepository{db: db}
}

// dateUTC keeps the calendar date of t at UTC midnight; DATE columns carry no zone.
func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
