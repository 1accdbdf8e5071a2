/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into attendance.Policy values and back,
  and moves a whole registry in and out of a JSON document. Policies can
  be configured without code changes and kept under version control.

JSON SCHEMA:
  {
    "name": "Standard",
    "work_start": "09:00",
    "work_end": "18:00",
    "grace_period_minutes": 0,
    "min_hours_per_day": 4,
    "max_hours_per_day": 8,
    "overtime_multiplier": 1.5,
    "base_hourly_rate": 20,
    "holidays": ["2025-05-01", "2025-12-25"],
    "reject_late_check_in": false,
    "reject_early_leave": false
  }

  A registry export wraps a list of these:
  {"version": 1, "policies": [ ... ]}

DEFAULTS:
  work_start 09:00, work_end 18:00, overtime_multiplier 1.0 when omitted.

USAGE:
  factory := NewPolicyFactory()
  policy, err := factory.ParsePolicy(jsonString)

  data, err := ExportPolicies(ctx, registry)
  n, err := ImportPolicies(ctx, registry, data)

SEE ALSO:
  - attendance/policy.go: Policy type definition
  - attendance/policies.go: Go-based policy configurations
*/
package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

const documentVersion = 1

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy.
type PolicyJSON struct {
	Name               string   `json:"name"`
	WorkStart          string   `json:"work_start,omitempty"`
	WorkEnd            string   `json:"work_end,omitempty"`
	GracePeriodMinutes int      `json:"grace_period_minutes"`
	MinHoursPerDay     float64  `json:"min_hours_per_day"`
	MaxHoursPerDay     float64  `json:"max_hours_per_day"`
	OvertimeMultiplier *float64 `json:"overtime_multiplier,omitempty"`
	BaseHourlyRate     *float64 `json:"base_hourly_rate,omitempty"`
	Holidays           []string `json:"holidays,omitempty"`
	RejectLateCheckIn  bool     `json:"reject_late_check_in,omitempty"`
	RejectEarlyLeave   bool     `json:"reject_early_leave,omitempty"`
}

// PolicyUpdateJSON is a partial update. Absent fields are left unchanged.
type PolicyUpdateJSON struct {
	WorkStart          *string  `json:"work_start,omitempty"`
	WorkEnd            *string  `json:"work_end,omitempty"`
	GracePeriodMinutes *int     `json:"grace_period_minutes,omitempty"`
	MinHoursPerDay     *float64 `json:"min_hours_per_day,omitempty"`
	MaxHoursPerDay     *float64 `json:"max_hours_per_day,omitempty"`
	OvertimeMultiplier *float64 `json:"overtime_multiplier,omitempty"`
	BaseHourlyRate     *float64 `json:"base_hourly_rate,omitempty"`
	AddHolidays        []string `json:"add_holidays,omitempty"`
	RemoveHolidays     []string `json:"remove_holidays,omitempty"`
	RejectLateCheckIn  *bool    `json:"reject_late_check_in,omitempty"`
	RejectEarlyLeave   *bool    `json:"reject_early_leave,omitempty"`
}

// Document is a registry export.
type Document struct {
	Version  int          `json:"version"`
	Policies []PolicyJSON `json:"policies"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON string into a validated Policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (attendance.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return attendance.Policy{}, generic.Invalid("policy", "malformed JSON: %v", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PolicyJSON to a validated attendance.Policy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (attendance.Policy, error) {
	policy := attendance.Policy{
		Name:               generic.PolicyName(pj.Name),
		WorkStart:          generic.NewTimeOfDay(9, 0),
		WorkEnd:            generic.NewTimeOfDay(18, 0),
		GracePeriodMinutes: pj.GracePeriodMinutes,
		MinHoursPerDay:     decimal.NewFromFloat(pj.MinHoursPerDay),
		MaxHoursPerDay:     decimal.NewFromFloat(pj.MaxHoursPerDay),
		OvertimeMultiplier: decimal.NewFromInt(1),
		Holidays:           generic.NewHolidaySet(),
		RejectLateCheckIn:  pj.RejectLateCheckIn,
		RejectEarlyLeave:   pj.RejectEarlyLeave,
	}

	var err error
	if pj.WorkStart != "" {
		if policy.WorkStart, err = generic.ParseTimeOfDay(pj.WorkStart); err != nil {
			return attendance.Policy{}, err
		}
	}
	if pj.WorkEnd != "" {
		if policy.WorkEnd, err = generic.ParseTimeOfDay(pj.WorkEnd); err != nil {
			return attendance.Policy{}, err
		}
	}
	if pj.OvertimeMultiplier != nil {
		policy.OvertimeMultiplier = decimal.NewFromFloat(*pj.OvertimeMultiplier)
	}
	if pj.BaseHourlyRate != nil {
		policy.BaseHourlyRate = generic.DecimalPtr(decimal.NewFromFloat(*pj.BaseHourlyRate))
	}
	holidays, err := parseDates(pj.Holidays)
	if err != nil {
		return attendance.Policy{}, err
	}
	for _, d := range holidays {
		policy.Holidays.Add(d)
	}

	if err := policy.Validate(); err != nil {
		return attendance.Policy{}, err
	}
	return policy, nil
}

// ToJSON converts a Policy to PolicyJSON. Holidays are sorted.
func (f *PolicyFactory) ToJSON(policy attendance.Policy) PolicyJSON {
	pj := PolicyJSON{
		Name:               string(policy.Name),
		WorkStart:          policy.WorkStart.String(),
		WorkEnd:            policy.WorkEnd.String(),
		GracePeriodMinutes: policy.GracePeriodMinutes,
		MinHoursPerDay:     policy.MinHoursPerDay.InexactFloat64(),
		MaxHoursPerDay:     policy.MaxHoursPerDay.InexactFloat64(),
		RejectLateCheckIn:  policy.RejectLateCheckIn,
		RejectEarlyLeave:   policy.RejectEarlyLeave,
	}
	multiplier := policy.OvertimeMultiplier.InexactFloat64()
	pj.OvertimeMultiplier = &multiplier
	if policy.BaseHourlyRate != nil {
		rate := policy.BaseHourlyRate.InexactFloat64()
		pj.BaseHourlyRate = &rate
	}
	for _, d := range policy.Holidays.Dates() {
		pj.Holidays = append(pj.Holidays, d.String())
	}
	return pj
}

// ParseUpdate converts a partial update. Field-level parse errors are
// ValidationErrors; cross-field checks happen when the update is applied.
func (f *PolicyFactory) ParseUpdate(uj PolicyUpdateJSON) (attendance.PolicyUpdate, error) {
	var u attendance.PolicyUpdate
	if uj.WorkStart != nil {
		t, err := generic.ParseTimeOfDay(*uj.WorkStart)
		if err != nil {
			return u, err
		}
		u.WorkStart = &t
	}
	if uj.WorkEnd != nil {
		t, err := generic.ParseTimeOfDay(*uj.WorkEnd)
		if err != nil {
			return u, err
		}
		u.WorkEnd = &t
	}
	u.GracePeriodMinutes = uj.GracePeriodMinutes
	u.MinHoursPerDay = decimalPtr(uj.MinHoursPerDay)
	u.MaxHoursPerDay = decimalPtr(uj.MaxHoursPerDay)
	u.OvertimeMultiplier = decimalPtr(uj.OvertimeMultiplier)
	u.BaseHourlyRate = decimalPtr(uj.BaseHourlyRate)
	u.RejectLateCheckIn = uj.RejectLateCheckIn
	u.RejectEarlyLeave = uj.RejectEarlyLeave

	var err error
	if u.AddHolidays, err = parseDates(uj.AddHolidays); err != nil {
		return u, err
	}
	if u.RemoveHolidays, err = parseDates(uj.RemoveHolidays); err != nil {
		return u, err
	}
	return u, nil
}

// =============================================================================
// REGISTRY EXPORT / IMPORT
// =============================================================================

type PolicyLister interface {
	List(ctx context.Context) []attendance.Policy
}

// PolicyPutter is the registry surface an import writes through. Get and
// Remove let a failed import restore what it already replaced.
type PolicyPutter interface {
	Get(ctx context.Context, name generic.PolicyName) (attendance.Policy, error)
	Put(ctx context.Context, p attendance.Policy) error
	Remove(ctx context.Context, name generic.PolicyName) error
}

// ExportPolicies serializes every policy in the registry.
func ExportPolicies(ctx context.Context, reg PolicyLister) ([]byte, error) {
	f := NewPolicyFactory()
	doc := Document{Version: documentVersion, Policies: []PolicyJSON{}}
	for _, p := range reg.List(ctx) {
		doc.Policies = append(doc.Policies, f.ToJSON(p))
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ImportPolicies parses and validates every policy in data before writing
// any of them, then inserts or replaces each by name. If a write fails, the
// policies already written are restored to their previous state. Returns
// the count.
func ImportPolicies(ctx context.Context, reg PolicyPutter, data []byte) (int, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, generic.Invalid("document", "malformed JSON: %v", err)
	}
	if doc.Version != documentVersion {
		return 0, generic.Invalid("version", "unsupported document version %d", doc.Version)
	}

	f := NewPolicyFactory()
	policies := make([]attendance.Policy, 0, len(doc.Policies))
	seen := make(map[generic.PolicyName]bool)
	for i, pj := range doc.Policies {
		p, err := f.FromJSON(pj)
		if err != nil {
			return 0, fmt.Errorf("policy %d: %w", i, err)
		}
		if seen[p.Name] {
			return 0, generic.Duplicate("policy", string(p.Name))
		}
		seen[p.Name] = true
		policies = append(policies, p)
	}

	// previous[i] is the policy policies[i] replaced, nil if it was new
	previous := make([]*attendance.Policy, 0, len(policies))
	for _, p := range policies {
		var prev *attendance.Policy
		old, err := reg.Get(ctx, p.Name)
		switch {
		case err == nil:
			prev = &old
		case !errors.Is(err, generic.ErrNotFound):
			return 0, errors.Join(fmt.Errorf("import %s: %w", p.Name, err), rollback(ctx, reg, policies, previous))
		}
		if err := reg.Put(ctx, p); err != nil {
			return 0, errors.Join(fmt.Errorf("import %s: %w", p.Name, err), rollback(ctx, reg, policies, previous))
		}
		previous = append(previous, prev)
	}
	return len(policies), nil
}

// rollback undoes the first len(previous) writes, newest first.
func rollback(ctx context.Context, reg PolicyPutter, written []attendance.Policy, previous []*attendance.Policy) error {
	var errs []error
	for i := len(previous) - 1; i >= 0; i-- {
		var err error
		if previous[i] != nil {
			err = reg.Put(ctx, *previous[i])
		} else {
			err = reg.Remove(ctx, written[i].Name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", written[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDates(values []string) ([]generic.Date, error) {
	out := make([]generic.Date, 0, len(values))
	for _, v := range values {
		d, err := generic.ParseDate(v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func decimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	return generic.DecimalPtr(decimal.NewFromFloat(*v))
}
