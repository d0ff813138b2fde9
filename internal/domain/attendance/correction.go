package attendance

import "time"

type CorrectionStatus string

const (
	CorrectionStatusPending  CorrectionStatus = "PENDING"
	CorrectionStatusApproved CorrectionStatus = "APPROVED"
	CorrectionStatusRejected CorrectionStatus = "REJECTED"
)

// Correction is a human request to replace a day's clock-in/out.
// OriginalClockIn/Out snapshot the record at submission time.
type Correction struct {
	ID                string
	RecordID          string
	EmployeeID        string
	Date              time.Time
	OriginalClockIn   *time.Time
	OriginalClockOut  *time.Time
	CorrectedClockIn  time.Time
	CorrectedClockOut time.Time
	Reason            string
	Status            CorrectionStatus
	SubmittedBy       string
	ReviewedBy        *string
	ReviewNote        *string
	SubmittedAt       time.Time
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c Correction) IsTerminal() bool {
	return c.Status == CorrectionStatusApproved || c.Status == CorrectionStatusRejected
}
