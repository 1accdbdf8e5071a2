/*
evaluator.go - Classifying one day of attendance against a policy

PURPOSE:
  Turns an Observation (check-in, optional check-out, worked hours) into an
  Outcome with exactly one Classification and the overtime figures.
  Evaluation is a pure function of (policy, observation): no clock, no store.

RULE ORDER (first match wins):
  1. NonWorkday        weekend or a holiday in the policy's set
  2. OnLeave           employee has approved leave covering the date
  3. InvalidCheckIn    check-in outside [work_start, work_end], or a late
                       arrival / early leave the policy rejects
  4. InsufficientHours worked < min_hours_per_day
  5. Overtime          worked > max_hours_per_day
  6. Normal

OVERTIME:
  overtime_hours = worked - max            (only when classified Overtime)
  overtime_pay   = overtime_hours * multiplier * rate
  The rate comes from the observation when present, else from the policy.
  With neither, overtime_pay is nil.

SEE ALSO:
  - policy.go: Policy, PolicyTerms
  - service.go: resolves the policy and leave status, then evaluates
*/
package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Classification is the single category assigned to an evaluated day.
type Classification string

const (
	NonWorkday        Classification = "non_workday"
	OnLeave           Classification = "on_leave"
	InvalidCheckIn    Classification = "invalid_check_in"
	InsufficientHours Classification = "insufficient_hours"
	Overtime          Classification = "overtime"
	Normal            Classification = "normal"
)

// Classifications lists every classification in rule order.
var Classifications = []Classification{NonWorkday, OnLeave, InvalidCheckIn, InsufficientHours, Overtime, Normal}

func (c Classification) IsValid() bool {
	for _, known := range Classifications {
		if c == known {
			return true
		}
	}
	return false
}

// Observation is the raw input for one employee-day.
type Observation struct {
	EmployeeID  generic.EmployeeID
	Date        generic.Date
	CheckIn     generic.TimeOfDay
	CheckOut    *generic.TimeOfDay
	WorkedHours decimal.Decimal

	// BaseHourlyRate overrides the policy's rate for this day.
	BaseHourlyRate *decimal.Decimal

	// PolicyName selects the policy explicitly. Empty means resolve by role.
	PolicyName generic.PolicyName
}

// Validate checks the observation on its own, without a policy.
func (o Observation) Validate() error {
	if strings.TrimSpace(string(o.EmployeeID)) == "" {
		return generic.Invalid("employee_id", "must not be empty")
	}
	if o.Date.IsZero() {
		return generic.Invalid("date", "must be set")
	}
	if !o.CheckIn.Valid() {
		return generic.Invalid("check_in", "out of range: %d", int(o.CheckIn))
	}
	if o.CheckOut != nil {
		if !o.CheckOut.Valid() {
			return generic.Invalid("check_out", "out of range: %d", int(*o.CheckOut))
		}
		if o.CheckOut.Before(o.CheckIn) {
			return generic.Invalid("check_out", "%s is before check_in %s", *o.CheckOut, o.CheckIn)
		}
	}
	if o.WorkedHours.IsNegative() {
		return generic.Invalid("worked_hours", "must not be negative, got %s", o.WorkedHours)
	}
	if o.BaseHourlyRate != nil && o.BaseHourlyRate.IsNegative() {
		return generic.Invalid("base_hourly_rate", "must not be negative, got %s", *o.BaseHourlyRate)
	}
	return nil
}

// Outcome is an evaluated, immutable attendance record.
type Outcome struct {
	EmployeeID     generic.EmployeeID `json:"employee_id"`
	Date           generic.Date       `json:"date"`
	Classification Classification     `json:"classification"`
	CheckIn        generic.TimeOfDay  `json:"check_in"`
	CheckOut       *generic.TimeOfDay `json:"check_out,omitempty"`
	WorkedHours    decimal.Decimal    `json:"worked_hours"`
	OvertimeHours  decimal.Decimal    `json:"overtime_hours"`
	OvertimePay    *decimal.Decimal   `json:"overtime_pay,omitempty"`
	Late           bool               `json:"late"`
	LateMinutes    int                `json:"late_minutes"`
	EarlyLeave     bool               `json:"early_leave"`
	Policy         PolicyTerms        `json:"policy"`
	RecordedAt     time.Time          `json:"recorded_at"`
}

// Key identifies the employee-day; at most one outcome exists per key.
func (o Outcome) Key() string {
	return string(o.EmployeeID) + "/" + o.Date.String()
}

func (o Outcome) HasOvertime() bool {
	return o.Classification == Overtime && o.OvertimeHours.IsPositive()
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate classifies obs under policy. Leave is not considered here; the
// Service layers approved leave on top.
func Evaluate(policy Policy, obs Observation) (Outcome, error) {
	return evaluate(policy, obs, false)
}

func evaluate(policy Policy, obs Observation, onLeave bool) (Outcome, error) {
	if err := policy.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := obs.Validate(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		EmployeeID:    obs.EmployeeID,
		Date:          obs.Date,
		CheckIn:       obs.CheckIn,
		WorkedHours:   obs.WorkedHours,
		OvertimeHours: decimal.Zero,
		Policy:        policy.Terms(),
	}
	out.Policy.OnHoliday = policy.Holidays.IsHoliday(obs.Date)
	if obs.CheckOut != nil {
		co := *obs.CheckOut
		out.CheckOut = &co
	}

	if !policy.IsWorkday(obs.Date) {
		out.Classification = NonWorkday
		return out, nil
	}

	if onLeave {
		out.Classification = OnLeave
		return out, nil
	}

	threshold := policy.LateThreshold()
	if obs.CheckIn.After(threshold) {
		out.Late = true
		out.LateMinutes = obs.CheckIn.MinutesAfter(threshold)
	}
	if obs.CheckOut != nil && obs.CheckOut.Before(policy.WorkEnd) {
		out.EarlyLeave = true
	}

	switch {
	case obs.CheckIn.Before(policy.WorkStart) || obs.CheckIn.After(policy.WorkEnd):
		out.Classification = InvalidCheckIn
	case out.Late && policy.RejectLateCheckIn:
		out.Classification = InvalidCheckIn
	case out.EarlyLeave && policy.RejectEarlyLeave:
		out.Classification = InvalidCheckIn
	case obs.WorkedHours.LessThan(policy.MinHoursPerDay):
		out.Classification = InsufficientHours
	case obs.WorkedHours.GreaterThan(policy.MaxHoursPerDay):
		out.Classification = Overtime
		out.OvertimeHours = obs.WorkedHours.Sub(policy.MaxHoursPerDay)
		if rate := overtimeRate(policy, obs); rate != nil {
			pay := out.OvertimeHours.Mul(policy.OvertimeMultiplier).Mul(*rate)
			out.OvertimePay = &pay
		}
	default:
		out.Classification = Normal
	}
	return out, nil
}

func overtimeRate(policy Policy, obs Observation) *decimal.Decimal {
	if obs.BaseHourlyRate != nil {
		return obs.BaseHourlyRate
	}
	return policy.BaseHourlyRate
}
