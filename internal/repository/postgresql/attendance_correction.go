package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type correctionRepository struct {
	db *database.DB
}

const correctionColumns = `
	id, record_id, employee_id, date, original_clock_in, original_clock_out,
	corrected_clock_in, corrected_clock_out, reason, status, submitted_by,
	reviewed_by, review_note, submitted_at, reviewed_at, created_at, updated_at`

func scanCorrection(row pgx.Row) (attendance.Correction, error) {
	var c attendance.Correction
	err := row.Scan(
		&c.ID, &c.RecordID, &c.EmployeeID, &c.Date, &c.OriginalClockIn, &c.OriginalClockOut,
		&c.CorrectedClockIn, &c.CorrectedClockOut, &c.Reason, &c.Status, &c.SubmittedBy,
		&c.ReviewedBy, &c.ReviewNote, &c.SubmittedAt, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return attendance.Correction{}, err
	}
	c.Date = dateUTC(c.Date)
	return c, nil
}

// Create implements attendance.CorrectionRepository.
func (r *correctionRepository) Create(ctx context.Context, c attendance.Correction) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)
	if c.ID == "" {
		c.ID = newID()
	}

	query := `
		INSERT INTO attendance_corrections (
			id, record_id, employee_id, date, original_clock_in, original_clock_out,
			corrected_clock_in, corrected_clock_out, reason, status, submitted_by, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		c.ID, c.RecordID, c.EmployeeID, dateUTC(c.Date), c.OriginalClockIn, c.OriginalClockOut,
		c.CorrectedClockIn, c.CorrectedClockOut, c.Reason, string(c.Status), c.SubmittedBy, c.SubmittedAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.Correction{}, attendance.ErrCorrectionPending
		}
		return attendance.Correction{}, fmt.Errorf("failed to create attendance correction: %w", err)
	}
	return c, nil
}

// GetByID implements attendance.CorrectionRepository.
func (r *correctionRepository) GetByID(ctx context.Context, id string) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanCorrection(q.QueryRow(ctx, `SELECT `+correctionColumns+` FROM attendance_corrections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Correction{}, attendance.ErrCorrectionNotFound
		}
		return attendance.Correction{}, fmt.Errorf("failed to get attendance correction: %w", err)
	}
	return c, nil
}

// GetPendingByRecord implements attendance.CorrectionRepository.
func (r *correctionRepository) GetPendingByRecord(ctx context.Context, recordID string) (*attendance.Correction, error) {
	return r.getOne(ctx, `SELECT `+correctionColumns+`
		FROM attendance_corrections
		WHERE record_id = $1 AND status = 'PENDING'
		LIMIT 1`, recordID)
}

// GetLatestApprovedByRecord implements attendance.CorrectionRepository.
func (r *correctionRepository) GetLatestApprovedByRecord(ctx context.Context, recordID string) (*attendance.Correction, error) {
	return r.getOne(ctx, `SELECT `+correctionColumns+`
		FROM attendance_corrections
		WHERE record_id = $1 AND status = 'APPROVED'
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1`, recordID)
}

func (r *correctionRepository) getOne(ctx context.Context, query string, args ...interface{}) (*attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanCorrection(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance correction: %w", err)
	}
	return &c, nil
}

// UpdateReview implements attendance.CorrectionRepository. Only a pending
// correction can be reviewed; the status guard makes concurrent reviews lose.
func (r *correctionRepository) UpdateReview(ctx context.Context, c attendance.Correction) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_corrections
		SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	tag, err := q.Exec(ctx, query, c.ID, string(c.Status), c.ReviewedBy, c.ReviewNote, c.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to update attendance correction review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrCorrectionAlreadyReviewed
	}
	return nil
}

func NewCorrectionRepository(db *database.DB) attendance.CorrectionRepository {
	return &correctionRepository{db: db}
}
