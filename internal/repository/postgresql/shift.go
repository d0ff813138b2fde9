package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

// GetByIDs implements schedule.ShiftRepository. Times of day are read as
// minutes after midnight.
func (r *shiftRepository) GetByIDs(ctx context.Context, ids []string) (map[string]schedule.Shift, error) {
	shifts := make(map[string]schedule.Shift, len(ids))
	if len(ids) == 0 {
		return shifts, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name,
			   (EXTRACT(EPOCH FROM start_time)::int / 60),
			   (EXTRACT(EPOCH FROM end_time)::int / 60),
			   required_minutes, grace_period_minutes, late_threshold_minutes, early_leave_threshold_minutes,
			   (EXTRACT(EPOCH FROM break_start)::int / 60),
			   break_minutes, auto_deduct_break, overtime_policy_id, work_days,
			   created_at, updated_at
		FROM shifts
		WHERE id = ANY($1::uuid[])
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s          schedule.Shift
			start, end int
			breakStart *int
		)
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.Name, &start, &end,
			&s.RequiredMinutes, &s.GracePeriodMinutes, &s.LateThresholdMinutes, &s.EarlyLeaveThresholdMinutes,
			&breakStart, &s.BreakMinutes, &s.AutoDeductBreak, &s.OvertimePolicyID, &s.WorkDays,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.StartTime = schedule.TimeOfDay(start)
		s.EndTime = schedule.TimeOfDay(end)
		if breakStart != nil {
			b := schedule.TimeOfDay(*breakStart)
			s.BreakStart = &b
		}
		shifts[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}
	return shifts, nil
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	if s.StartTime == s.EndTime {
		return schedule.Shift{}, schedule.ErrInvalidShiftTimes
	}
	q := GetQuerier(ctx, r.db)
	if s.ID == "" {
		s.ID = newID()
	}

	var breakStart *string
	if s.BreakStart != nil {
		b := s.BreakStart.String()
		breakStart = &b
	}
	workDays := s.WorkDays
	if len(workDays) == 0 {
		workDays = []int{1, 2, 3, 4, 5}
	}

	query := `
		INSERT INTO shifts (
			id, company_id, name, start_time, end_time, required_minutes, grace_period_minutes,
			late_threshold_minutes, early_leave_threshold_minutes, break_start, break_minutes,
			auto_deduct_break, overtime_policy_id, work_days
		) VALUES ($1, $2, $3, $4::time, $5::time, $6, $7, $8, $9, $10::time, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.ID, s.CompanyID, s.Name, s.StartTime.String(), s.EndTime.String(), s.RequiredMinutes, s.GracePeriodMinutes,
		s.LateThresholdMinutes, s.EarlyLeaveThresholdMinutes, breakStart, s.BreakMinutes,
		s.AutoDeductBreak, s.OvertimePolicyID, workDays,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return s, nil
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

type shiftAssignmentRepository struct {
	db *database.DB
}

// ListByEmployee implements schedule.ShiftAssignmentRepository.
func (r *shiftAssignmentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, shift_id, effective_from, effective_to, created_at
		FROM shift_assignments
		WHERE employee_id = $1
		ORDER BY effective_from, id
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift assignments: %w", err)
	}
	defer rows.Close()

	var assignments []schedule.ShiftAssignment
	for rows.Next() {
		var a schedule.ShiftAssignment
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.ShiftID, &a.EffectiveFrom, &a.EffectiveTo, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift assignments: %w", err)
	}
	return assignments, nil
}

// Create implements schedule.ShiftAssignmentRepository.
func (r *shiftAssignmentRepository) Create(ctx context.Context, a schedule.ShiftAssignment) (schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)
	if a.ID == "" {
		a.ID = newID()
	}

	query := `
		INSERT INTO shift_assignments (id, employee_id, shift_id, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		a.ID, a.EmployeeID, a.ShiftID, dateUTC(a.EffectiveFrom), a.EffectiveTo,
	).Scan(&a.CreatedAt)
	if err != nil {
		return schedule.ShiftAssignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}
	return a, nil
}

func NewShiftAssignmentRepository(db *database.DB) schedule.ShiftAssignmentRepository {
	return &shiftAssignmentRepository{db: db}
}
