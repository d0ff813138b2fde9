package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type eventRepository struct {
	db *database.DB
}

const eventColumns = `id, employee_id, device_id, punched_at, declared_kind, verification_method, processed_at, created_at`

func scanEvents(rows pgx.Rows) ([]punch.Event, error) {
	defer rows.Close()

	var events []punch.Event
	for rows.Next() {
		var e punch.Event
		if err := rows.Scan(
			&e.ID, &e.EmployeeID, &e.DeviceID, &e.Timestamp, &e.DeclaredKind,
			&e.VerificationMethod, &e.ProcessedAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch events: %w", err)
	}
	return events, nil
}

// ListByEmployeeBetween implements punch.EventRepository.
func (r *eventRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + eventColumns + `
		FROM punch_events
		WHERE employee_id = $1 AND punched_at >= $2 AND punched_at < $3
		ORDER BY punched_at, device_id, id`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events: %w", err)
	}
	return scanEvents(rows)
}

// ListUnprocessed implements punch.EventRepository.
func (r *eventRepository) ListUnprocessed(ctx context.Context, limit int) ([]punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + eventColumns + `
		FROM punch_events
		WHERE processed_at IS NULL
		ORDER BY punched_at, id
		LIMIT $1`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed punch events: %w", err)
	}
	return scanEvents(rows)
}

// MarkProcessed implements punch.EventRepository.
func (r *eventRepository) MarkProcessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE punch_events SET processed_at = $2 WHERE id = ANY($1::uuid[])`, ids, at)
	if err != nil {
		return fmt.Errorf("failed to mark punch events processed: %w", err)
	}
	return nil
}

// Create implements punch.EventRepository.
func (r *eventRepository) Create(ctx context.Context, e punch.Event) (punch.Event, error) {
	q := GetQuerier(ctx, r.db)
	if e.ID == "" {
		e.ID = newID()
	}

	query := `
		INSERT INTO punch_events (id, employee_id, device_id, punched_at, declared_kind, verification_method, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		e.ID, e.EmployeeID, e.DeviceID, e.Timestamp, string(e.DeclaredKind), string(e.VerificationMethod), e.ProcessedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return punch.Event{}, fmt.Errorf("failed to create punch event: %w", err)
	}
	return e, nil
}

func NewEventRepository(db *database.DB) punch.EventRepository {
	return &eventRepository{db: db}
}
