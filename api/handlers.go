/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance and leave engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                   List all employees
    POST   /api/employees                   Create employee
    GET    /api/employees/{id}              Get employee details
    DELETE /api/employees/{id}              Deactivate employee
    GET    /api/employees/{id}/attendance   Outcomes (?from=&to=)
    GET    /api/employees/{id}/leave        Leave requests
    GET    /api/employees/{id}/leave/usage  Leave days taken (?year= or ?from=&to=)

  Policies:
    GET    /api/policies                    List all policies
    POST   /api/policies                    Create policy from JSON
    GET    /api/policies/export             Registry export document
    POST   /api/policies/import             Registry import (all or nothing)
    GET    /api/policies/{name}             Get policy
    PATCH  /api/policies/{name}             Partial update
    DELETE /api/policies/{name}             Remove policy

  Attendance:
    POST   /api/attendance                  Evaluate and record one day
    POST   /api/attendance/preview          Evaluate without recording
    POST   /api/attendance/import           Record every row of an XLSX upload
    GET    /api/attendance/{employee}/{date} Get a recorded outcome

  Leave:
    GET    /api/leave                       List requests (?status=)
    POST   /api/leave                       Request leave
    GET    /api/leave/{id}                  Get request
    POST   /api/leave/{id}/approve          Pending -> Approved
    POST   /api/leave/{id}/reject           Pending -> Rejected
    POST   /api/leave/{id}/cancel           Pending -> Cancelled
    GET    /api/leave/{id}/events           Transition history

  Reports (?format=json|xlsx|pdf):
    GET    /api/reports/daily               ?date=
    GET    /api/reports/monthly             ?year=&month=
    GET    /api/reports/yearly              ?year=
    GET    /api/reports/overtime            ?from=&to=

  Audit:
    GET    /api/audit                       ?employee_id=&subject=

ARCHITECTURE:
  Handler struct holds all dependencies. The engine types do the work; the
  handlers only translate.

ERROR HANDLING:
  Domain errors are mapped by category (generic.Kind):
  - 400: validation
  - 404: not found
  - 409: invalid transition, duplicate
  - 500: everything else

SECURITY NOTE:
  No authentication or authorization. Actors are taken from the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/report/export"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeDirectory is the employee storage the API manages.
// sqlite.Employees implements it.
type EmployeeDirectory interface {
	SaveEmployee(ctx context.Context, e store.Employee) error
	GetEmployee(ctx context.Context, id generic.EmployeeID) (store.Employee, error)
	ListEmployees(ctx context.Context) ([]store.Employee, error)
	Deactivate(ctx context.Context, id generic.EmployeeID) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Policies   *attendance.PolicyRegistry
	Attendance *attendance.Service
	Leave      *leave.Ledger
	Reports    *report.Aggregator
	Employees  EmployeeDirectory
	Audit      generic.AuditLog // optional

	PolicyFactory *factory.PolicyFactory
	MaxBodyBytes  int64
	Logger        *slog.Logger
}

// NewHandler wires a handler. The report aggregator reads the service's
// ledger.
func NewHandler(policies *attendance.PolicyRegistry, svc *attendance.Service, ledger *leave.Ledger, employees EmployeeDirectory) *Handler {
	return &Handler{
		Policies:      policies,
		Attendance:    svc,
		Leave:         ledger,
		Reports:       report.NewAggregator(svc.Ledger),
		Employees:     employees,
		Audit:         svc.Audit,
		PolicyFactory: factory.NewPolicyFactory(),
		MaxBodyBytes:  1 << 20,
		Logger:        slog.Default(),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := generic.EmployeeID(strings.TrimSpace(req.ID))
	if _, err := h.Employees.GetEmployee(ctx, id); err == nil {
		h.writeDomainError(w, "Failed to create employee", generic.Duplicate("employee", string(id)))
		return
	}

	emp := store.Employee{
		ID:         id,
		Name:       req.Name,
		Department: req.Department,
		Role:       generic.Role(req.Role),
		Active:     true,
	}
	if err := h.Employees.SaveEmployee(ctx, emp); err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Employees.Deactivate(r.Context(), generic.EmployeeID(chi.URLParam(r, "id"))); err != nil {
		h.writeDomainError(w, "Failed to deactivate employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEmployeeAttendance returns an employee's outcomes, optionally bounded
// by ?from= and ?to=.
func (h *Handler) GetEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	emp := generic.EmployeeID(chi.URLParam(r, "id"))
	q := attendance.Query{EmployeeID: &emp}

	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from != "" || to != "" {
		period, err := parsePeriod(from, to)
		if err != nil {
			h.writeDomainError(w, "Invalid range", err)
			return
		}
		q.Period = &period
	}

	outcomes, err := h.Attendance.Ledger.Query(r.Context(), q)
	if err != nil {
		h.writeDomainError(w, "Failed to load attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (h *Handler) GetEmployeeLeave(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Leave.ForEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to load leave", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetEmployeeLeaveUsage counts leave days against the holidays of the
// employee's policy. Defaults to the current year.
func (h *Handler) GetEmployeeLeaveUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	q := r.URL.Query()
	var period generic.Period
	switch {
	case q.Get("from") != "" || q.Get("to") != "":
		p, err := parsePeriod(q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		period = p
	case q.Get("year") != "":
		year, err := queryInt(r, "year")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		period = generic.YearPeriod(year)
	default:
		period = generic.YearPeriod(time.Now().Year())
	}

	policy, err := h.Attendance.PolicyFor(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to resolve policy", err)
		return
	}
	usage, err := h.Leave.Usage(ctx, id, period, policy.Holidays)
	if err != nil {
		h.writeDomainError(w, "Failed to compute leave usage", err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies := h.Policies.List(r.Context())
	dtos := make([]factory.PolicyJSON, len(policies))
	for i, p := range policies {
		dtos[i] = h.PolicyFactory.ToJSON(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.Get(r.Context(), generic.PolicyName(chi.URLParam(r, "name")))
	if err != nil {
		h.writeDomainError(w, "Failed to get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(p))
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PolicyJSON
	if !h.decode(w, r, &pj) {
		return
	}
	p, err := h.PolicyFactory.FromJSON(pj)
	if err != nil {
		h.writeDomainError(w, "Invalid policy", err)
		return
	}
	if err := h.Policies.Add(r.Context(), p); err != nil {
		h.writeDomainError(w, "Failed to create policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.PolicyFactory.ToJSON(p))
}

func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var uj factory.PolicyUpdateJSON
	if !h.decode(w, r, &uj) {
		return
	}
	u, err := h.PolicyFactory.ParseUpdate(uj)
	if err != nil {
		h.writeDomainError(w, "Invalid update", err)
		return
	}
	p, err := h.Policies.Update(r.Context(), generic.PolicyName(chi.URLParam(r, "name")), u)
	if err != nil {
		h.writeDomainError(w, "Failed to update policy", err)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(p))
}

func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.Policies.Remove(r.Context(), generic.PolicyName(chi.URLParam(r, "name"))); err != nil {
		h.writeDomainError(w, "Failed to delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportPolicies(w http.ResponseWriter, r *http.Request) {
	data, err := factory.ExportPolicies(r.Context(), h.Policies)
	if err != nil {
		h.writeDomainError(w, "Failed to export policies", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="policies.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) ImportPolicies(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	n, err := factory.ImportPolicies(r.Context(), h.Policies, data)
	if err != nil {
		h.writeDomainError(w, "Failed to import policies", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	obs, ok := h.decodeObservation(w, r)
	if !ok {
		return
	}
	out, err := h.Attendance.Record(r.Context(), obs)
	if err != nil {
		h.writeDomainError(w, "Failed to record attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) PreviewAttendance(w http.ResponseWriter, r *http.Request) {
	obs, ok := h.decodeObservation(w, r)
	if !ok {
		return
	}
	out, err := h.Attendance.Preview(r.Context(), obs)
	if err != nil {
		h.writeDomainError(w, "Failed to evaluate attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ImportAttendance records every row of an uploaded workbook. The workbook
// must parse completely; rows that then fail to record are reported without
// stopping the rest.
func (h *Handler) ImportAttendance(w http.ResponseWriter, r *http.Request) {
	observations, err := export.ReadObservations(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
	if err != nil {
		h.writeDomainError(w, "Invalid workbook", err)
		return
	}

	resp := ImportResponse{Recorded: []attendance.Outcome{}, Failed: []ImportFailure{}}
	for i, obs := range observations {
		out, err := h.Attendance.Record(r.Context(), obs)
		if err != nil {
			resp.Failed = append(resp.Failed, ImportFailure{
				Index:      i,
				EmployeeID: string(obs.EmployeeID),
				Date:       obs.Date.String(),
				Error:      err.Error(),
				Code:       generic.Kind(err),
			})
			continue
		}
		resp.Recorded = append(resp.Recorded, out)
	}

	status := http.StatusOK
	if len(resp.Recorded) == 0 && len(resp.Failed) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, "Invalid date", err)
		return
	}
	out, err := h.Attendance.Ledger.Get(r.Context(), generic.EmployeeID(chi.URLParam(r, "employee")), date)
	if err != nil {
		h.writeDomainError(w, "Failed to get attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) decodeObservation(w http.ResponseWriter, r *http.Request) (attendance.Observation, bool) {
	var req ObservationRequest
	if !h.decode(w, r, &req) {
		return attendance.Observation{}, false
	}
	obs, err := req.toObservation()
	if err != nil {
		h.writeDomainError(w, "Invalid observation", err)
		return attendance.Observation{}, false
	}
	return obs, true
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) ListLeave(w http.ResponseWriter, r *http.Request) {
	var status leave.Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := leave.ParseStatus(s)
		if err != nil {
			h.writeDomainError(w, "Invalid status", err)
			return
		}
		status = parsed
	}
	reqs, err := h.Leave.List(r.Context(), status)
	if err != nil {
		h.writeDomainError(w, "Failed to list leave", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) RequestLeave(w http.ResponseWriter, r *http.Request) {
	var body LeaveRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	start, err := generic.ParseDate(body.StartDate)
	if err != nil {
		h.writeDomainError(w, "Invalid start_date", err)
		return
	}
	end, err := generic.ParseDate(body.EndDate)
	if err != nil {
		h.writeDomainError(w, "Invalid end_date", err)
		return
	}

	ctx := r.Context()
	id, err := h.Leave.RequestLeave(ctx, generic.EmployeeID(body.EmployeeID), body.LeaveType, start, end)
	if err != nil {
		h.writeDomainError(w, "Failed to request leave", err)
		return
	}
	req, err := h.Leave.Get(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to load leave request", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}
	req, err := h.Leave.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, id leave.ID, d DecisionRequest) (leave.Request, error) {
		return h.Leave.Approve(ctx, id, d.Actor)
	})
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, id leave.ID, d DecisionRequest) (leave.Request, error) {
		return h.Leave.Reject(ctx, id, d.Actor, d.Note)
	})
}

func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, id leave.ID, d DecisionRequest) (leave.Request, error) {
		return h.Leave.Cancel(ctx, id, d.Actor)
	})
}

func (h *Handler) GetLeaveEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}
	events, err := h.Leave.Events(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get leave events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// decide runs a transition. The body is optional.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, leave.ID, DecisionRequest) (leave.Request, error)) {
	id, ok := h.leaveID(w, r)
	if !ok {
		return
	}
	var d DecisionRequest
	if r.ContentLength != 0 && !h.decode(w, r, &d) {
		return
	}
	req, err := fn(r.Context(), id, d)
	if err != nil {
		h.writeDomainError(w, "Failed to update leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) leaveID(w http.ResponseWriter, r *http.Request) (leave.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		h.writeDomainError(w, "Invalid leave id", generic.Invalid("id", "%q is not a leave request id", raw))
		return 0, false
	}
	return leave.ID(n), true
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.writeDomainError(w, "Invalid date", err)
		return
	}
	rep, err := h.Reports.ByDate(r.Context(), date)
	h.writeReport(w, r, rep, err)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.writeDomainError(w, "Invalid year", err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		h.writeDomainError(w, "Invalid month", err)
		return
	}
	rep, err := h.Reports.ByMonth(r.Context(), year, time.Month(month))
	h.writeReport(w, r, rep, err)
}

func (h *Handler) YearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.writeDomainError(w, "Invalid year", err)
		return
	}
	rep, err := h.Reports.ByYear(r.Context(), year)
	h.writeReport(w, r, rep, err)
}

func (h *Handler) OvertimeReport(w http.ResponseWriter, r *http.Request) {
	from, err := generic.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		h.writeDomainError(w, "Invalid from", err)
		return
	}
	to, err := generic.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		h.writeDomainError(w, "Invalid to", err)
		return
	}
	rep, err := h.Reports.OvertimeInRange(r.Context(), from, to)
	h.writeReport(w, r, rep, err)
}

// writeReport renders rep as JSON, or as a file download for ?format=xlsx
// and ?format=pdf.
func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, rep report.Report, err error) {
	if err != nil {
		h.writeDomainError(w, "Failed to build report", err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	var (
		data        []byte
		contentType string
	)
	switch format {
	case "", "json":
		writeJSON(w, http.StatusOK, toReportResponse(rep))
		return
	case "xlsx":
		data, err = export.XLSX(rep, report.Summarize(rep))
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = export.PDF(rep, report.Summarize(rep))
		contentType = "application/pdf"
	default:
		h.writeDomainError(w, "Invalid format", generic.Invalid("format", "%q is not one of json, xlsx, pdf", format))
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to render report", err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", rep.Kind, rep.From, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, bytes.NewReader(data))
}

// =============================================================================
// AUDIT
// =============================================================================

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeJSON(w, http.StatusOK, []generic.AuditEntry{})
		return
	}

	var f generic.AuditFilter
	if v := r.URL.Query().Get("employee_id"); v != "" {
		emp := generic.EmployeeID(v)
		f.EmployeeID = &emp
	}
	if v := r.URL.Query().Get("subject"); v != "" {
		f.Subject = &v
	}
	for _, a := range r.URL.Query()["action"] {
		f.Actions = append(f.Actions, generic.AuditAction(a))
	}

	entries, err := h.Audit.Query(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to query audit log", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: generic.Kind(err)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category. Internal
// errors are logged and their details withheld.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch generic.Kind(err) {
	case "validation":
		writeError(w, http.StatusBadRequest, message, err)
	case "not_found":
		writeError(w, http.StatusNotFound, message, err)
	case "invalid_transition", "duplicate":
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Logger.Error(message, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: message, Code: "internal"})
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, generic.Invalid(key, "%q is not a number", raw)
	}
	return n, nil
}

func parsePeriod(from, to string) (generic.Period, error) {
	start, err := generic.ParseDate(from)
	if err != nil {
		return generic.Period{}, err
	}
	end, err := generic.ParseDate(to)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.NewPeriod(start, end)
}
