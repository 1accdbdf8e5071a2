/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Attendance:
    ObservationRequest, ImportResponse (attendance.Outcome is returned as is)

  Leave:
    LeaveRequestBody, DecisionRequest (leave.Request / leave.Event as is)

  Policy:
    factory.PolicyJSON, factory.PolicyUpdateJSON

  Reports:
    ReportResponse

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
	Active     bool   `json:"active"`
}

type CreateEmployeeRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

func toEmployeeDTO(e store.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		Department: e.Department,
		Role:       string(e.Role),
		Active:     e.Active,
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// ObservationRequest is one day of raw attendance.
type ObservationRequest struct {
	EmployeeID     string   `json:"employee_id"`
	Date           string   `json:"date"`
	CheckIn        string   `json:"check_in"`
	CheckOut       string   `json:"check_out,omitempty"`
	WorkedHours    float64  `json:"worked_hours"`
	BaseHourlyRate *float64 `json:"base_hourly_rate,omitempty"`
	Policy         string   `json:"policy,omitempty"`
}

func (r ObservationRequest) toObservation() (attendance.Observation, error) {
	date, err := generic.ParseDate(r.Date)
	if err != nil {
		return attendance.Observation{}, err
	}
	checkIn, err := generic.ParseTimeOfDay(r.CheckIn)
	if err != nil {
		return attendance.Observation{}, err
	}
	obs := attendance.Observation{
		EmployeeID:  generic.EmployeeID(r.EmployeeID),
		Date:        date,
		CheckIn:     checkIn,
		WorkedHours: decimal.NewFromFloat(r.WorkedHours),
		PolicyName:  generic.PolicyName(r.Policy),
	}
	if r.CheckOut != "" {
		checkOut, err := generic.ParseTimeOfDay(r.CheckOut)
		if err != nil {
			return attendance.Observation{}, err
		}
		obs.CheckOut = &checkOut
	}
	if r.BaseHourlyRate != nil {
		obs.BaseHourlyRate = generic.DecimalPtr(decimal.NewFromFloat(*r.BaseHourlyRate))
	}
	return obs, nil
}

// ImportFailure describes one row that could not be recorded.
type ImportFailure struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

type ImportResponse struct {
	Recorded []attendance.Outcome `json:"recorded"`
	Failed   []ImportFailure      `json:"failed"`
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveRequestBody struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// DecisionRequest carries the actor for approve, reject and cancel.
type DecisionRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note,omitempty"`
}

// =============================================================================
// REPORTS
// =============================================================================

type ReportResponse struct {
	Kind             report.Kind                       `json:"kind"`
	Title            string                            `json:"title"`
	From             generic.Date                      `json:"from"`
	To               generic.Date                      `json:"to"`
	Records          []attendance.Outcome              `json:"records"`
	Summary          report.Summary                    `json:"summary"`
	ByEmployee       []report.EmployeeTotal            `json:"by_employee"`
	ByClassification map[attendance.Classification]int `json:"by_classification"`
}

func toReportResponse(r report.Report) ReportResponse {
	return ReportResponse{
		Kind:             r.Kind,
		Title:            r.Title(),
		From:             r.From,
		To:               r.To,
		Records:          r.Records,
		Summary:          report.Summarize(r),
		ByEmployee:       report.ByEmployee(r),
		ByClassification: report.CountByClassification(r),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
