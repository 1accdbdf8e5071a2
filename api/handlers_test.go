/*
handlers_test.go - HTTP tests for the API adapter

Tests run the real router over an in-memory SQLite store, covering:
- attendance record / preview / import and error mapping
- the leave lifecycle and its effect on attendance
- policy CRUD with export / import
- report rendering in each format
- the daily report scheduler
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router *chi.Mux
	store  *sqlite.Store
	svc    *attendance.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	emps := s.Employees()
	require.NoError(t, emps.SaveEmployee(ctx, store.Employee{ID: "001", Name: "Ana", Role: "engineer", Active: true}))
	require.NoError(t, emps.SaveEmployee(ctx, store.Employee{ID: "002", Name: "Bo", Role: "intern", Active: true}))

	audit := s.AuditLog()
	policies := attendance.NewPolicyRegistry(audit, nil)
	policies.SetPersister(s.Policies())
	rated := attendance.StandardPolicy("Standard")
	rated.BaseHourlyRate = generic.DecimalPtr(generic.Hours(20))
	require.NoError(t, policies.Add(ctx, rated))
	require.NoError(t, policies.Add(ctx, attendance.PartTimePolicy("Part Time")))

	ledger, err := leave.NewLedger(ctx, s.LeaveRequests(), emps, leave.WithAudit(audit))
	require.NoError(t, err)

	svc := &attendance.Service{
		Policies:      policies,
		Ledger:        attendance.NewLedger(s.Outcomes()),
		Employees:     emps,
		Leave:         ledger,
		Audit:         audit,
		RolePolicies:  map[generic.Role]generic.PolicyName{"intern": "Part Time"},
		DefaultPolicy: "Standard",
	}

	h := api.NewHandler(policies, svc, ledger, emps)
	return &testServer{
		router: api.NewRouter(h, api.RouterOptions{Health: s}),
		store:  s,
		svc:    svc,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func observation(emp, date, checkIn string, worked float64) api.ObservationRequest {
	return api.ObservationRequest{EmployeeID: emp, Date: date, CheckIn: checkIn, WorkedHours: worked}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestRecordAttendance_Overtime(t *testing.T) {
	// GIVEN: Employee 001 on the Standard policy (8h max, 1.5x, rate 20)
	// WHEN: Recording 10 hours on Monday 2025-04-14
	// THEN: 201, Overtime, 2 overtime hours paid 60

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/attendance", observation("001", "2025-04-14", "09:00", 10))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Overtime", out["classification"])
	assert.Equal(t, "2", out["overtime_hours"])
	assert.Equal(t, "60", out["overtime_pay"])

	got := ts.do(t, http.MethodGet, "/api/attendance/001/2025-04-14", nil)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestRecordAttendance_DuplicateIsConflict(t *testing.T) {
	ts := newTestServer(t)
	body := observation("001", "2025-04-14", "09:00", 8)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/attendance", body).Code)

	rec := ts.do(t, http.MethodPost, "/api/attendance", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate", decodeBody[api.ErrorResponse](t, rec).Code)
}

func TestRecordAttendance_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"bad check-in", observation("001", "2025-04-14", "9am", 8), http.StatusBadRequest},
		{"bad date", observation("001", "14/04/2025", "09:00", 8), http.StatusBadRequest},
		{"negative hours", observation("001", "2025-04-14", "09:00", -1), http.StatusBadRequest},
		{"unknown employee", observation("999", "2025-04-14", "09:00", 8), http.StatusNotFound},
		{"unknown field", []byte(`{"employee_id": "001", "mood": "happy"}`), http.StatusBadRequest},
		{"malformed", []byte(`{`), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/attendance", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPreviewAttendance_RolePolicy(t *testing.T) {
	// GIVEN: Intern 002 mapped to Part Time (4h max)
	// WHEN: Previewing 5 hours
	// THEN: Overtime under Part Time, nothing recorded

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/attendance/preview", observation("002", "2025-04-14", "09:00", 5))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody[attendance.Outcome](t, rec)
	assert.Equal(t, attendance.Overtime, out.Classification)
	assert.Equal(t, generic.PolicyName("Part Time"), out.Policy.Name)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/attendance/002/2025-04-14", nil).Code)
}

func TestImportAttendance_Workbook(t *testing.T) {
	// GIVEN: A workbook with three rows, one a repeat of an earlier day
	// WHEN: Uploading it
	// THEN: Two recorded, the repeat reported as a duplicate

	ts := newTestServer(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"employee_id", "date", "check_in", "check_out", "worked_hours", "policy"},
		{"001", "2025-04-14", "09:00", "17:00", "8", ""},
		{"002", "2025-04-14", "09:00", "", "3", ""},
		{"001", "2025-04-14", "09:00", "", "7", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/attendance/import", buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[api.ImportResponse](t, rec)
	assert.Len(t, resp.Recorded, 2)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, 2, resp.Failed[0].Index)
	assert.Equal(t, "duplicate", resp.Failed[0].Code)

	garbage := ts.do(t, http.MethodPost, "/api/attendance/import", []byte("not a workbook"))
	assert.Equal(t, http.StatusBadRequest, garbage.Code)
}

// =============================================================================
// LEAVE
// =============================================================================

func TestLeaveLifecycle(t *testing.T) {
	// GIVEN: Employee 001
	// WHEN: Requesting leave, approving it, then recording attendance inside it
	// THEN: The day is classified OnLeave and a second approval conflicts

	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/leave", api.LeaveRequestBody{
		EmployeeID: "001", LeaveType: "Vacation", StartDate: "2025-04-14", EndDate: "2025-04-16",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[leave.Request](t, rec)
	assert.Equal(t, leave.ID(1), created.ID)
	assert.Equal(t, leave.StatusPending, created.Status)

	rec = ts.do(t, http.MethodPost, "/api/leave/1/approve", api.DecisionRequest{Actor: "manager-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, leave.StatusApproved, decodeBody[leave.Request](t, rec).Status)

	again := ts.do(t, http.MethodPost, "/api/leave/1/approve", nil)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, "invalid_transition", decodeBody[api.ErrorResponse](t, again).Code)

	rec = ts.do(t, http.MethodPost, "/api/attendance", observation("001", "2025-04-15", "09:00", 8))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, attendance.OnLeave, decodeBody[attendance.Outcome](t, rec).Classification)

	events := decodeBody[[]leave.Event](t, ts.do(t, http.MethodGet, "/api/leave/1/events", nil))
	require.Len(t, events, 2)
	assert.Equal(t, "manager-1", events[1].Actor)
}

func TestLeave_ListAndErrors(t *testing.T) {
	ts := newTestServer(t)
	for _, emp := range []string{"001", "002"} {
		rec := ts.do(t, http.MethodPost, "/api/leave", api.LeaveRequestBody{
			EmployeeID: emp, LeaveType: "Sick Leave", StartDate: "2025-04-14", EndDate: "2025-04-14",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/leave/2/reject",
		api.DecisionRequest{Actor: "hr", Note: "no cover"}).Code)

	pending := decodeBody[[]leave.Request](t, ts.do(t, http.MethodGet, "/api/leave?status=PENDING", nil))
	require.Len(t, pending, 1)
	assert.Equal(t, leave.ID(1), pending[0].ID)

	mine := decodeBody[[]leave.Request](t, ts.do(t, http.MethodGet, "/api/employees/002/leave", nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "no cover", mine[0].Note)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/leave?status=maybe", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/leave/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/leave/42/cancel", nil).Code)

	backwards := ts.do(t, http.MethodPost, "/api/leave", api.LeaveRequestBody{
		EmployeeID: "001", LeaveType: "Vacation", StartDate: "2025-04-20", EndDate: "2025-04-15",
	})
	assert.Equal(t, http.StatusBadRequest, backwards.Code)
}

func TestLeaveUsage(t *testing.T) {
	// GIVEN: Employee 001 with approved Vacation Mon-Wed 2025-04-14..16
	//        and a pending Sick Leave on Fri 2025-04-18
	// WHEN: Asking for usage over 2025, then from 2025-04-15
	// THEN: 3 consumed and 1 pending, then 2 consumed

	ts := newTestServer(t)
	for _, body := range []api.LeaveRequestBody{
		{EmployeeID: "001", LeaveType: "Vacation", StartDate: "2025-04-14", EndDate: "2025-04-16"},
		{EmployeeID: "001", LeaveType: "Sick Leave", StartDate: "2025-04-18", EndDate: "2025-04-18"},
	} {
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/leave", body).Code)
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/leave/1/approve", nil).Code)

	rec := ts.do(t, http.MethodGet, "/api/employees/001/leave/usage?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	year := decodeBody[leave.Usage](t, rec)
	assert.Equal(t, 3, year.Consumed)
	assert.Equal(t, 1, year.Pending)
	require.Contains(t, year.ByType, "Vacation")
	assert.Equal(t, 3, year.ByType["Vacation"].Consumed)

	rec = ts.do(t, http.MethodGet, "/api/employees/001/leave/usage?from=2025-04-15&to=2025-04-30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeBody[leave.Usage](t, rec).Consumed)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/employees/999/leave/usage", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/employees/001/leave/usage?year=soon", nil).Code)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestPolicies_CRUD(t *testing.T) {
	ts := newTestServer(t)

	body := []byte(`{"name": "Night", "work_start": "06:00", "work_end": "22:00", "min_hours_per_day": 8, "max_hours_per_day": 10, "overtime_multiplier": 2}`)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	rec := ts.do(t, http.MethodPatch, "/api/policies/Night", []byte(`{"grace_period_minutes": 20}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(20), decodeBody[map[string]any](t, rec)["grace_period_minutes"])

	invalid := ts.do(t, http.MethodPatch, "/api/policies/Night", []byte(`{"min_hours_per_day": 11}`))
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	// Persisted through the registry
	stored, err := ts.store.GetPolicy(context.Background(), "Night")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.ConfigJSON, `"grace_period_minutes":20`)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/policies/Night", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/policies/Night", nil).Code)
}

func TestPolicies_ExportImport(t *testing.T) {
	ts := newTestServer(t)

	export := ts.do(t, http.MethodGet, "/api/policies/export", nil)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Disposition"), "policies.json")

	doc := strings.Replace(export.Body.String(), `"Part Time"`, `"Part Time B"`, 1)
	rec := ts.do(t, http.MethodPost, "/api/policies/import", []byte(doc))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeBody[map[string]int](t, rec)["imported"])

	list := decodeBody[[]map[string]any](t, ts.do(t, http.MethodGet, "/api/policies", nil))
	assert.Len(t, list, 3)

	bad := ts.do(t, http.MethodPost, "/api/policies/import", []byte(`{"version": 9, "policies": []}`))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func seedMonth(t *testing.T, ts *testServer) {
	t.Helper()
	for _, obs := range []api.ObservationRequest{
		observation("001", "2025-04-14", "09:00", 10),
		observation("001", "2025-04-15", "09:00", 8),
		observation("002", "2025-04-15", "09:00", 3),
		observation("001", "2025-05-02", "09:00", 9),
	} {
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/attendance", obs).Code)
	}
}

func TestReports_MonthlyJSON(t *testing.T) {
	ts := newTestServer(t)
	seedMonth(t, ts)

	rec := ts.do(t, http.MethodGet, "/api/reports/monthly?year=2025&month=4", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[api.ReportResponse](t, rec)
	assert.Equal(t, report.KindMonthly, resp.Kind)
	assert.Len(t, resp.Records, 3)
	assert.Equal(t, 2, resp.Summary.EmployeeCount)
	assert.True(t, resp.Summary.TotalHours.Equal(generic.Hours(19)))
	assert.Equal(t, 1, resp.ByClassification[attendance.InsufficientHours])
}

func TestReports_Formats(t *testing.T) {
	ts := newTestServer(t)
	seedMonth(t, ts)

	xlsx := ts.do(t, http.MethodGet, "/api/reports/overtime?from=2025-04-01&to=2025-05-31&format=xlsx", nil)
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Contains(t, xlsx.Header().Get("Content-Type"), "spreadsheetml")
	wb, err := excelize.OpenReader(bytes.NewReader(xlsx.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	pdf := ts.do(t, http.MethodGet, "/api/reports/yearly?year=2025&format=pdf", nil)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.True(t, bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/daily?date=2025-04-14&format=doc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/overtime?from=2025-05-01&to=2025-04-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/monthly?year=2025&month=13", nil).Code)
}

// =============================================================================
// EMPLOYEES, AUDIT, HEALTH
// =============================================================================

func TestEmployees(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{ID: "003", Name: "Cy", Role: "intern"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusConflict,
		ts.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{ID: "003", Name: "Cy"}).Code)

	list := decodeBody[[]api.EmployeeDTO](t, ts.do(t, http.MethodGet, "/api/employees", nil))
	assert.Len(t, list, 3)

	require.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/employees/003", nil).Code)
	emp := decodeBody[api.EmployeeDTO](t, ts.do(t, http.MethodGet, "/api/employees/003", nil))
	assert.False(t, emp.Active)

	// Inactive employees are unknown to the engine
	rec = ts.do(t, http.MethodPost, "/api/attendance", observation("003", "2025-04-14", "09:00", 4))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployeeAttendanceRange(t *testing.T) {
	ts := newTestServer(t)
	seedMonth(t, ts)

	all := decodeBody[[]attendance.Outcome](t, ts.do(t, http.MethodGet, "/api/employees/001/attendance", nil))
	assert.Len(t, all, 3)

	april := decodeBody[[]attendance.Outcome](t,
		ts.do(t, http.MethodGet, "/api/employees/001/attendance?from=2025-04-01&to=2025-04-30", nil))
	assert.Len(t, april, 2)

	assert.Equal(t, http.StatusBadRequest,
		ts.do(t, http.MethodGet, "/api/employees/001/attendance?from=2025-04-30&to=2025-04-01", nil).Code)
}

func TestAuditAndHealth(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/attendance", observation("001", "2025-04-14", "09:00", 8)).Code)

	entries := decodeBody[[]generic.AuditEntry](t,
		ts.do(t, http.MethodGet, "/api/audit?action=attendance_recorded", nil))
	require.Len(t, entries, 1)
	assert.Equal(t, "001/2025-04-14", entries[0].Subject)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/health", nil).Code)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestReportScheduler_RunNow(t *testing.T) {
	// GIVEN: Attendance for 2025-04-14 and a clock on 2025-04-15
	// WHEN: Running the scheduler twice
	// THEN: The daily workbook is written once

	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/attendance", observation("001", "2025-04-14", "09:00", 8)).Code)

	dir := t.TempDir()
	sched := api.NewReportScheduler(report.NewAggregator(ts.svc.Ledger), dir, nil)
	sched.Now = func() time.Time { return time.Date(2025, 4, 15, 6, 0, 0, 0, time.UTC) }

	path, written, err := sched.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, filepath.Join(dir, "daily-2025-04-14.xlsx"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	_, written, err = sched.RunNow(context.Background())
	require.NoError(t, err)
	assert.False(t, written)
}
