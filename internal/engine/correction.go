package engine

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Decision is a reviewer's verdict on a pending correction.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ReviewCorrection moves a correction out of PENDING. APPROVED and REJECTED
// are terminal; reviewing either again returns ErrCorrectionAlreadyReviewed.
func ReviewCorrection(c attendance.Correction, decision Decision, reviewerID string, note *string, at time.Time) (attendance.Correction, error) {
	if c.IsTerminal() {
		return c, attendance.ErrCorrectionAlreadyReviewed
	}
	if decision == DecisionApprove && !c.CorrectedClockOut.After(c.CorrectedClockIn) {
		return c, attendance.ErrInvalidCorrectionWindow
	}

	switch decision {
	case DecisionApprove:
		c.Status = attendance.CorrectionStatusApproved
	default:
		c.Status = attendance.CorrectionStatusRejected
	}

	reviewer := reviewerID
	reviewedAt := at.UTC()
	c.ReviewedBy = &reviewer
	c.ReviewNote = note
	c.ReviewedAt = &reviewedAt
	c.UpdatedAt = reviewedAt
	return c, nil
}

// OverrideFromCorrection turns an approved correction into the day override.
// It returns nil for anything not approved.
func OverrideFromCorrection(c *attendance.Correction) *Override {
	if c == nil || c.Status != attendance.CorrectionStatusApproved {
		return nil
	}
	return &Override{
		CorrectionID: c.ID,
		ClockIn:      c.CorrectedClockIn,
		ClockOut:     c.CorrectedClockOut,
	}
}
