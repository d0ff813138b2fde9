package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type testEnv struct {
	t      *testing.T
	store  *memory.Store
	jwt    jwt.Service
	server *httptest.Server
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.Staff().Create(ctx, employee.Staff{ID: "emp-1", FullName: "Ayu Lestari", Timezone: "UTC"})
	require.NoError(t, err)
	_, err = store.Shifts().Create(ctx, schedule.Shift{
		ID:                 "shift-office",
		Name:               "Office",
		StartTime:          schedule.NewTimeOfDay(9, 0),
		EndTime:            schedule.NewTimeOfDay(17, 0),
		RequiredMinutes:    480,
		GracePeriodMinutes: 10,
	})
	require.NoError(t, err)
	_, err = store.Assignments().Create(ctx, schedule.ShiftAssignment{
		EmployeeID:    "emp-1",
		ShiftID:       "shift-office",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = store.Policies().Create(ctx, overtime.Policy{
		ID:                    "pol-default",
		Name:                  "Default",
		Scope:                 overtime.ScopeDefault,
		DailyThresholdMinutes: 480,
		DailyMultiplier:       decimal.RequireFromString("1.5"),
		IsDefault:             true,
		IsActive:              true,
		EffectiveFrom:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := attendanceService.NewAttendanceService(attendanceService.Repositories{
		Records:     store.Records(),
		Corrections: store.Corrections(),
		Events:      store.Events(),
		Shifts:      store.Shifts(),
		Assignments: store.Assignments(),
		Policies:    store.Policies(),
		Staff:       store.Staff(),
		Leaves:      store.LeaveRequests(),
		Holidays:    store.Holidays(),
		Transactor:  store,
	}, attendanceService.Options{
		Rules:          engine.DefaultConfig(),
		Workers:        2,
		WeekCloseGrace: 48 * time.Hour,
		Logger:         logger,
		Now:            func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) },
	})

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	router := NewRouter(jwtService, RouterOptions{Logger: logger, AllowedOrigins: []string{"http://localhost:3000"}}, NewAttendanceHandler(svc))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{t: t, store: store, jwt: jwtService, server: server}
}

func (e *testEnv) token(role user.Role, employeeID *string) string {
	e.t.Helper()
	token, _, err := e.jwt.GenerateAccessToken("usr-"+string(role), employeeID, role)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) punch(ts ...time.Time) {
	e.t.Helper()
	for _, at := range ts {
		_, err := e.store.Events().Create(context.Background(), punch.Event{
			EmployeeID:         "emp-1",
			DeviceID:           "dev-1",
			Timestamp:          at,
			DeclaredKind:       punch.KindIn,
			VerificationMethod: punch.VerificationFingerprint,
		})
		require.NoError(e.t, err)
	}
}

func (e *testEnv) do(method, path, token string, body interface{}) (int, envelope) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestAttendanceRoutes_RequireToken(t *testing.T) {
	env := setupHandlerTest(t)

	status, body := env.do(http.MethodGet, "/api/v1/attendance/records?employee_id=emp-1&start_date=2025-03-01&end_date=2025-03-07", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)
}

func TestAttendanceRoutes_ProcessingRequiresManager(t *testing.T) {
	env := setupHandlerTest(t)
	employeeID := "emp-1"

	status, body := env.do(http.MethodPost, "/api/v1/attendance/process", env.token(user.RoleEmployee, &employeeID),
		map[string]string{"employee_id": "emp-1", "date": "2025-03-03"})
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestAttendanceRoutes_ProcessAndList(t *testing.T) {
	env := setupHandlerTest(t)
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	env.punch(monday.Add(9*time.Hour), monday.Add(17*time.Hour))
	manager := env.token(user.RoleManager, nil)

	status, body := env.do(http.MethodPost, "/api/v1/attendance/process", manager,
		map[string]string{"employee_id": "emp-1", "date": "2025-03-03"})
	require.Equal(t, http.StatusOK, status)

	var processed struct {
		Record attendance.RecordResponse `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &processed))
	assert.Equal(t, "2025-03-03", processed.Record.Date)
	assert.Equal(t, "8.00", processed.Record.TotalHours)
	assert.Equal(t, 1, processed.Record.Version)

	employeeID := "emp-1"
	status, body = env.do(http.MethodGet, "/api/v1/attendance/records?start_date=2025-03-01&end_date=2025-03-07",
		env.token(user.RoleEmployee, &employeeID), nil)
	require.Equal(t, http.StatusOK, status)

	var records []attendance.RecordResponse
	require.NoError(t, json.Unmarshal(body.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, processed.Record.ID, records[0].ID)

	other := "emp-2"
	status, _ = env.do(http.MethodGet, "/api/v1/attendance/records?employee_id=emp-1&start_date=2025-03-01&end_date=2025-03-07",
		env.token(user.RoleEmployee, &other), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAttendanceRoutes_ValidationErrors(t *testing.T) {
	env := setupHandlerTest(t)
	manager := env.token(user.RoleManager, nil)

	status, body := env.do(http.MethodPost, "/api/v1/attendance/process-range", manager,
		map[string]string{"employee_id": "emp-1", "start_date": "2025-03-07", "end_date": "2025-03-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Details, "end_date")

	status, _ = env.do(http.MethodPost, "/api/v1/attendance/process", manager,
		map[string]string{"employee_id": "emp-404", "date": "2025-03-03"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAttendanceRoutes_ProcessPendingBatch(t *testing.T) {
	env := setupHandlerTest(t)
	tuesday := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	env.punch(tuesday.Add(9*time.Hour), tuesday.Add(17*time.Hour))

	status, body := env.do(http.MethodPost, "/api/v1/attendance/process-pending", env.token(user.RoleOwner, nil), nil)
	require.Equal(t, http.StatusOK, status)

	var result attendance.BatchResultResponse
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, 1, result.Processed)
	assert.Empty(t, result.Failed)
	assert.NotEmpty(t, result.RunID)
}

func TestAttendanceRoutes_CorrectionFlow(t *testing.T) {
	env := setupHandlerTest(t)
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	env.punch(monday.Add(9 * time.Hour))
	manager := env.token(user.RoleManager, nil)
	employeeID := "emp-1"
	staff := env.token(user.RoleEmployee, &employeeID)

	status, body := env.do(http.MethodPost, "/api/v1/attendance/process", manager,
		map[string]string{"employee_id": "emp-1", "date": "2025-03-03"})
	require.Equal(t, http.StatusOK, status)
	var processed struct {
		Record attendance.RecordResponse `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &processed))

	status, body = env.do(http.MethodPost, "/api/v1/attendance/corrections", staff, map[string]string{
		"record_id":           processed.Record.ID,
		"corrected_clock_in":  "2025-03-03T09:00:00Z",
		"corrected_clock_out": "2025-03-03T17:00:00Z",
		"reason":              "forgot to clock out",
	})
	require.Equal(t, http.StatusCreated, status)
	var correction attendance.CorrectionResponse
	require.NoError(t, json.Unmarshal(body.Data, &correction))
	assert.Equal(t, "usr-employee", correction.SubmittedBy)

	status, _ = env.do(http.MethodPost, "/api/v1/attendance/corrections/"+correction.ID+"/approve", staff, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(http.MethodPost, "/api/v1/attendance/corrections/"+correction.ID+"/approve", manager,
		map[string]string{"note": "confirmed with supervisor"})
	require.Equal(t, http.StatusOK, status)
	var review attendance.ReviewResponse
	require.NoError(t, json.Unmarshal(body.Data, &review))
	require.NotNil(t, review.Correction.ReviewedBy)
	assert.Equal(t, "usr-manager", *review.Correction.ReviewedBy)
	require.NotNil(t, review.Before)
	require.NotNil(t, review.After)
	assert.Equal(t, "0.00", review.Before.TotalHours)
	assert.Equal(t, "8.00", review.After.TotalHours)

	status, _ = env.do(http.MethodPost, "/api/v1/attendance/corrections/"+correction.ID+"/reject", manager, nil)
	assert.Equal(t, http.StatusConflict, status)
}
