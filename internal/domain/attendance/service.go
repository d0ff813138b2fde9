package attendance

import (
	"context"
	"time"
)

// AttendanceService is the trigger surface of the processing engine.
type AttendanceService interface {
	// ProcessDay computes and upserts one staff member's record for one date.
	ProcessDay(ctx context.Context, employeeID string, date time.Time) (DayOutcome, error)

	// ProcessRange processes every date in [from, to] then reconciles the touched weeks.
	ProcessRange(ctx context.Context, employeeID string, from, to time.Time) (BatchResult, error)

	// ProcessPending processes every (staff, date) owning unprocessed punch events.
	ProcessPending(ctx context.Context) (BatchResult, error)

	// ReconcileWeek runs the weekly overtime pass for the ISO week containing date.
	ReconcileWeek(ctx context.Context, employeeID string, date time.Time) ([]Record, error)

	// ReconcileOpenWeeks retries the weekly pass for weeks still holding provisional records.
	ReconcileOpenWeeks(ctx context.Context) (BatchResult, error)

	// MarkAbsentDays processes the ended scheduled workdays of the lookback
	// period that have no record yet, so days without punches become ABSENT.
	MarkAbsentDays(ctx context.Context) (BatchResult, error)

	ListRecords(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)

	SubmitCorrection(ctx context.Context, req SubmitCorrectionRequest) (Correction, error)
	ApproveCorrection(ctx context.Context, req ReviewCorrectionRequest) (CorrectionOutcome, error)
	RejectCorrection(ctx context.Context, req ReviewCorrectionRequest) (CorrectionOutcome, error)
}

// DayOutcome is the result of one processing unit. Warnings carry configuration
// problems (for example conflicting default policies) that did not stop the unit.
type DayOutcome struct {
	Record   Record
	Warnings []string
}

// UnitError records a failed (staff, date) unit inside a batch.
type UnitError struct {
	EmployeeID string
	Date       time.Time
	Err        error
}

func (e UnitError) Error() string {
	return "process " + e.EmployeeID + " on " + e.Date.Format("2006-01-02") + ": " + e.Err.Error()
}

func (e UnitError) Unwrap() error { return e.Err }

type BatchResult struct {
	RunID           string
	Processed       int
	Failed          []UnitError
	Warnings        []string
	WeeksReconciled int
	WeeksDeferred   int
	Cancelled       bool
}

// CorrectionOutcome exposes the record state before and after a reviewed correction.
type CorrectionOutcome struct {
	Correction     Correction
	Before         *Record
	After          *Record
	Week           []Record
	WeeklyDeferred bool
}

type BatchResultResponse struct {
	RunID           string   `json:"run_id"`
	Processed       int      `json:"processed"`
	Failed          []string `json:"failed,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	WeeksReconciled int      `json:"weeks_reconciled"`
	WeeksDeferred   int      `json:"weeks_deferred"`
	Cancelled       bool     `json:"cancelled"`
}

func NewBatchResultResponse(r BatchResult) BatchResultResponse {
	failed := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		failed = append(failed, f.Error())
	}
	return BatchResultResponse{
		RunID:           r.RunID,
		Processed:       r.Processed,
		Failed:          failed,
		Warnings:        r.Warnings,
		WeeksReconciled: r.WeeksReconciled,
		WeeksDeferred:   r.WeeksDeferred,
		Cancelled:       r.Cancelled,
	}
}

func NewReviewResponse(o CorrectionOutcome) ReviewResponse {
	resp := ReviewResponse{
		Correction:     NewCorrectionResponse(o.Correction),
		WeeklyDeferred: o.WeeklyDeferred,
	}
	if o.Before != nil {
		before := NewRecordResponse(*o.Before)
		resp.Before = &before
	}
	if o.After != nil {
		after := NewRecordResponse(*o.After)
		resp.After = &after
	}
	for _, r := range o.Week {
		resp.Week = append(resp.Week, NewRecordResponse(r))
	}
	return resp
}
