// Package attendance implements attendance policies, check-in evaluation and
// the append-only attendance ledger.
package attendance

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// POLICY - Work-time rules applied to one day of attendance
// =============================================================================

// Policy is an attendance policy. Saturday and Sunday are always non-workdays;
// Holidays adds company-declared days on top.
type Policy struct {
	Name               generic.PolicyName
	WorkStart          generic.TimeOfDay
	WorkEnd            generic.TimeOfDay
	GracePeriodMinutes int
	MinHoursPerDay     decimal.Decimal
	MaxHoursPerDay     decimal.Decimal
	OvertimeMultiplier decimal.Decimal

	// BaseHourlyRate prices overtime. When nil and the observation carries no
	// rate either, overtime pay is left unset.
	BaseHourlyRate *decimal.Decimal

	Holidays generic.HolidaySet

	// Late arrival and early leave are always reported as flags on the
	// outcome. These switches escalate them to InvalidCheckIn.
	RejectLateCheckIn bool
	RejectEarlyLeave  bool
}

// Validate checks the policy invariants. min <= max is the one the rest of
// the engine depends on.
func (p Policy) Validate() error {
	if strings.TrimSpace(string(p.Name)) == "" {
		return generic.Invalid("name", "must not be empty")
	}
	if !p.WorkStart.Valid() || !p.WorkEnd.Valid() {
		return generic.Invalid("work_window", "times must be within a single day")
	}
	if !p.WorkStart.Before(p.WorkEnd) {
		return generic.Invalid("work_window", "work_start %s must be before work_end %s", p.WorkStart, p.WorkEnd)
	}
	if p.GracePeriodMinutes < 0 {
		return generic.Invalid("grace_period_minutes", "must not be negative, got %d", p.GracePeriodMinutes)
	}
	if p.MinHoursPerDay.IsNegative() {
		return generic.Invalid("min_hours_per_day", "must not be negative, got %s", p.MinHoursPerDay)
	}
	if p.MaxHoursPerDay.IsNegative() {
		return generic.Invalid("max_hours_per_day", "must not be negative, got %s", p.MaxHoursPerDay)
	}
	if p.MinHoursPerDay.GreaterThan(p.MaxHoursPerDay) {
		return generic.Invalid("min_hours_per_day", "%s exceeds max_hours_per_day %s", p.MinHoursPerDay, p.MaxHoursPerDay)
	}
	if p.OvertimeMultiplier.IsNegative() {
		return generic.Invalid("overtime_multiplier", "must not be negative, got %s", p.OvertimeMultiplier)
	}
	if p.BaseHourlyRate != nil && p.BaseHourlyRate.IsNegative() {
		return generic.Invalid("base_hourly_rate", "must not be negative, got %s", *p.BaseHourlyRate)
	}
	return nil
}

// LateThreshold is the last minute a check-in counts as on time.
func (p Policy) LateThreshold() generic.TimeOfDay {
	return p.WorkStart.AddMinutes(p.GracePeriodMinutes)
}

// IsWorkday applies the weekend rule and the holiday set.
func (p Policy) IsWorkday(d generic.Date) bool {
	return d.IsWorkdayWithHolidays(p.Holidays)
}

// Clone returns a deep copy; the holiday set and rate are not shared.
func (p Policy) Clone() Policy {
	c := p
	if p.Holidays != nil {
		c.Holidays = p.Holidays.Clone()
	}
	if p.BaseHourlyRate != nil {
		c.BaseHourlyRate = generic.DecimalPtr(*p.BaseHourlyRate)
	}
	return c
}

// Terms snapshots the fields an outcome was evaluated against.
func (p Policy) Terms() PolicyTerms {
	t := PolicyTerms{
		Name:               p.Name,
		WorkStart:          p.WorkStart,
		WorkEnd:            p.WorkEnd,
		GracePeriodMinutes: p.GracePeriodMinutes,
		MinHoursPerDay:     p.MinHoursPerDay,
		MaxHoursPerDay:     p.MaxHoursPerDay,
		OvertimeMultiplier: p.OvertimeMultiplier,
		RejectLateCheckIn:  p.RejectLateCheckIn,
		RejectEarlyLeave:   p.RejectEarlyLeave,
	}
	if p.BaseHourlyRate != nil {
		t.BaseHourlyRate = generic.DecimalPtr(*p.BaseHourlyRate)
	}
	return t
}

// PolicyTerms is the copy of a policy stored on each Outcome, so later edits
// to the policy never rewrite history.
type PolicyTerms struct {
	Name               generic.PolicyName `json:"name"`
	WorkStart          generic.TimeOfDay  `json:"work_start"`
	WorkEnd            generic.TimeOfDay  `json:"work_end"`
	GracePeriodMinutes int                `json:"grace_period_minutes"`
	MinHoursPerDay     decimal.Decimal    `json:"min_hours_per_day"`
	MaxHoursPerDay     decimal.Decimal    `json:"max_hours_per_day"`
	OvertimeMultiplier decimal.Decimal    `json:"overtime_multiplier"`
	BaseHourlyRate     *decimal.Decimal   `json:"base_hourly_rate,omitempty"`
	RejectLateCheckIn  bool               `json:"reject_late_check_in,omitempty"`
	RejectEarlyLeave   bool               `json:"reject_early_leave,omitempty"`

	// OnHoliday records that the evaluated date was in the policy's holiday
	// set, which may since have changed.
	OnHoliday bool `json:"on_holiday,omitempty"`
}

// =============================================================================
// PARTIAL UPDATE
// =============================================================================

// PolicyUpdate is a partial update: nil fields leave the policy unchanged.
type PolicyUpdate struct {
	WorkStart          *generic.TimeOfDay
	WorkEnd            *generic.TimeOfDay
	GracePeriodMinutes *int
	MinHoursPerDay     *decimal.Decimal
	MaxHoursPerDay     *decimal.Decimal
	OvertimeMultiplier *decimal.Decimal
	BaseHourlyRate     *decimal.Decimal
	RejectLateCheckIn  *bool
	RejectEarlyLeave   *bool
	AddHolidays        []generic.Date
	RemoveHolidays     []generic.Date
}

func (u PolicyUpdate) IsEmpty() bool {
	return u.WorkStart == nil && u.WorkEnd == nil && u.GracePeriodMinutes == nil &&
		u.MinHoursPerDay == nil && u.MaxHoursPerDay == nil && u.OvertimeMultiplier == nil &&
		u.BaseHourlyRate == nil && u.RejectLateCheckIn == nil && u.RejectEarlyLeave == nil &&
		len(u.AddHolidays) == 0 && len(u.RemoveHolidays) == 0
}

// Apply returns a copy of p with the present fields of u applied.
// The receiver is not modified; callers validate the result.
func (p Policy) Apply(u PolicyUpdate) Policy {
	next := p.Clone()
	if u.WorkStart != nil {
		next.WorkStart = *u.WorkStart
	}
	if u.WorkEnd != nil {
		next.WorkEnd = *u.WorkEnd
	}
	if u.GracePeriodMinutes != nil {
		next.GracePeriodMinutes = *u.GracePeriodMinutes
	}
	if u.MinHoursPerDay != nil {
		next.MinHoursPerDay = *u.MinHoursPerDay
	}
	if u.MaxHoursPerDay != nil {
		next.MaxHoursPerDay = *u.MaxHoursPerDay
	}
	if u.OvertimeMultiplier != nil {
		next.OvertimeMultiplier = *u.OvertimeMultiplier
	}
	if u.BaseHourlyRate != nil {
		next.BaseHourlyRate = generic.DecimalPtr(*u.BaseHourlyRate)
	}
	if u.RejectLateCheckIn != nil {
		next.RejectLateCheckIn = *u.RejectLateCheckIn
	}
	if u.RejectEarlyLeave != nil {
		next.RejectEarlyLeave = *u.RejectEarlyLeave
	}
	if len(u.AddHolidays) > 0 && next.Holidays == nil {
		next.Holidays = generic.NewHolidaySet()
	}
	for _, d := range u.AddHolidays {
		next.Holidays.Add(d)
	}
	for _, d := range u.RemoveHolidays {
		next.Holidays.Remove(d)
	}
	return next
}
