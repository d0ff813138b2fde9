package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type leaveRequestRepository struct {
	db *database.DB
}

// ListApprovedOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, leave_type_id, start_date, end_date, duration_type, status,
			   approved_by, approved_at, created_at, updated_at
		FROM leave_requests
		WHERE employee_id = $1
		  AND status = $2
		  AND start_date <= $4
		  AND end_date >= $3
		ORDER BY start_date, id
	`

	rows, err := q.Query(ctx, query, employeeID, string(leave.LeaveRequestStatusApproved), dateUTC(from), dateUTC(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var l leave.LeaveRequest
		if err := rows.Scan(
			&l.ID, &l.EmployeeID, &l.LeaveTypeID, &l.StartDate, &l.EndDate, &l.DurationType, &l.Status,
			&l.ApprovedBy, &l.ApprovedAt, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, l leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	if l.ID == "" {
		l.ID = newID()
	}

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type_id, start_date, end_date, duration_type, status, approved_by, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		l.ID, l.EmployeeID, l.LeaveTypeID, dateUTC(l.StartDate), dateUTC(l.EndDate),
		string(l.DurationType), string(l.Status), l.ApprovedBy, l.ApprovedAt,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return l, nil
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepository{db: db}
}

type holidayRepository struct {
	db *database.DB
}

// ListBetween implements leave.HolidayRepository.
func (r *holidayRepository) ListBetween(ctx context.Context, locationID *string, from, to time.Time) ([]leave.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, date, name, location_id, created_at
		FROM holidays
		WHERE date BETWEEN $1 AND $2
		  AND (location_id IS NULL OR location_id = $3)
		ORDER BY date, id
	`

	rows, err := q.Query(ctx, query, dateUTC(from), dateUTC(to), locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.LocationID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}
	return holidays, nil
}

// Create implements leave.HolidayRepository.
func (r *holidayRepository) Create(ctx context.Context, h leave.Holiday) (leave.Holiday, error) {
	q := GetQuerier(ctx, r.db)
	if h.ID == "" {
		h.ID = newID()
	}

	query := `
		INSERT INTO holidays (id, company_id, date, name, location_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query, h.ID, h.CompanyID, dateUTC(h.Date), h.Name, h.LocationID).Scan(&h.CreatedAt)
	if err != nil {
		return leave.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return h, nil
}

func NewHolidayRepository(db *database.DB) leave.HolidayRepository {
	return &holidayRepository{db: db}
}
