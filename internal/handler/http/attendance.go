package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Process(w http.ResponseWriter, r *http.Request)
	ProcessRange(w http.ResponseWriter, r *http.Request)
	ProcessPending(w http.ResponseWriter, r *http.Request)
	ReconcileWeek(w http.ResponseWriter, r *http.Request)
	ListRecords(w http.ResponseWriter, r *http.Request)
	SubmitCorrection(w http.ResponseWriter, r *http.Request)
	ApproveCorrection(w http.ResponseWriter, r *http.Request)
	RejectCorrection(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("Failed to decode request body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// writeBatch answers 200 when every unit succeeded and 202 otherwise, so
// callers can retry without parsing the body.
func writeBatch(w http.ResponseWriter, result attendance.BatchResult) {
	data := attendance.NewBatchResultResponse(result)
	if len(result.Failed) > 0 || result.Cancelled {
		response.Accepted(w, "Attendance batch finished with failures", data)
		return
	}
	response.SuccessWithMessage(w, "Attendance batch finished", data)
}

// Process implements AttendanceHandler.
func (h *attendanceHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	var req attendance.ProcessDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.attendanceService.ProcessDay(r.Context(), req.EmployeeID, req.ParsedDate())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance processed successfully", map[string]interface{}{
		"record":   attendance.NewRecordResponse(outcome.Record),
		"warnings": outcome.Warnings,
	})
}

// ProcessRange implements AttendanceHandler.
func (h *attendanceHandlerImpl) ProcessRange(w http.ResponseWriter, r *http.Request) {
	var req attendance.ProcessRangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	from, to := req.ParsedRange()
	result, err := h.attendanceService.ProcessRange(r.Context(), req.EmployeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeBatch(w, result)
}

// ProcessPending implements AttendanceHandler.
func (h *attendanceHandlerImpl) ProcessPending(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ProcessPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeBatch(w, result)
}

// ReconcileWeek implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReconcileWeek(w http.ResponseWriter, r *http.Request) {
	var req attendance.ProcessDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.attendanceService.ReconcileWeek(r.Context(), req.EmployeeID, req.ParsedDate())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		data = append(data, attendance.NewRecordResponse(rec))
	}
	response.SuccessWithMessage(w, "Week reconciled successfully", data)
}

// ListRecords implements AttendanceHandler. Callers without a manager role
// only see their own records.
func (h *attendanceHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	p, err := jwt.PrincipalFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	query := r.URL.Query()
	filter := attendance.RecordFilter{
		EmployeeID: query.Get("employee_id"),
		StartDate:  query.Get("start_date"),
		EndDate:    query.Get("end_date"),
	}

	if !p.IsManager() {
		if p.EmployeeID == nil {
			response.HandleError(w, user.ErrEmployeeIDRequired)
			return
		}
		if filter.EmployeeID != "" && filter.EmployeeID != *p.EmployeeID {
			response.HandleError(w, user.ErrManagerAccessRequired)
			return
		}
		filter.EmployeeID = *p.EmployeeID
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	rng := attendance.ProcessRangeRequest{EmployeeID: filter.EmployeeID, StartDate: filter.StartDate, EndDate: filter.EndDate}
	from, to := rng.ParsedRange()
	records, err := h.attendanceService.ListRecords(r.Context(), filter.EmployeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		data = append(data, attendance.NewRecordResponse(rec))
	}
	response.SuccessWithMeta(w, data, &response.Meta{
		TotalItems: len(data),
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
	})
}

// SubmitCorrection implements AttendanceHandler.
func (h *attendanceHandlerImpl) SubmitCorrection(w http.ResponseWriter, r *http.Request) {
	p, err := jwt.PrincipalFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.SubmitCorrectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SubmittedBy = p.UserID

	correction, err := h.attendanceService.SubmitCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance correction submitted", attendance.NewCorrectionResponse(correction))
}

func (h *attendanceHandlerImpl) reviewRequest(w http.ResponseWriter, r *http.Request) (attendance.ReviewCorrectionRequest, bool) {
	p, err := jwt.PrincipalFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return attendance.ReviewCorrectionRequest{}, false
	}

	var req attendance.ReviewCorrectionRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return attendance.ReviewCorrectionRequest{}, false
		}
	}
	req.ID = chi.URLParam(r, "id")
	req.ReviewerID = p.UserID
	return req, true
}

// ApproveCorrection implements AttendanceHandler.
func (h *attendanceHandlerImpl) ApproveCorrection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.reviewRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.attendanceService.ApproveCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance correction approved", attendance.NewReviewResponse(outcome))
}

// RejectCorrection implements AttendanceHandler.
func (h *attendanceHandlerImpl) RejectCorrection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.reviewRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.attendanceService.RejectCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance correction rejected", attendance.NewReviewResponse(outcome))
}
