package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type staffRepository struct {
	db *database.DB
}

// GetByID implements employee.StaffRepository.
func (r *staffRepository) GetByID(ctx context.Context, id string) (employee.Staff, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, full_name, department_id, department_policy_id, location_id, timezone,
			   created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var s employee.Staff
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CompanyID, &s.FullName, &s.DepartmentID, &s.DepartmentPolicyID, &s.LocationID, &s.Timezone,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Staff{}, employee.ErrEmployeeNotFound
		}
		return employee.Staff{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return s, nil
}

// Create implements employee.StaffRepository.
func (r *staffRepository) Create(ctx context.Context, s employee.Staff) (employee.Staff, error) {
	q := GetQuerier(ctx, r.db)
	if s.ID == "" {
		s.ID = newID()
	}

	timezone := s.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	query := `
		INSERT INTO employees (id, company_id, full_name, department_id, department_policy_id, location_id, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.ID, s.CompanyID, s.FullName, s.DepartmentID, s.DepartmentPolicyID, s.LocationID, timezone,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return employee.Staff{}, fmt.Errorf("failed to create employee: %w", err)
	}
	s.Timezone = timezone
	return s, nil
}

// ListIDs implements employee.StaffRepository.
func (r *staffRepository) ListIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return ids, nil
}

func NewStaffRepository(db *database.DB) employee.StaffRepository {
	return &staffRepository{db: db}
}
