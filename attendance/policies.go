/*
policies.go - Pre-built attendance policy configurations

PURPOSE:
  Ready-to-use policies for common working patterns. Callers register them
  in a PolicyRegistry and adjust with PolicyUpdate as needed.

AVAILABLE POLICIES:
  StandardPolicy: 09:00-18:00, no grace, 4-8 hours, overtime at 1.5x
  FlexiblePolicy: 07:00-20:00, 30 min grace, 4-8 hours, overtime at 1.5x
  PartTimePolicy: 09:00-13:00, 15 min grace, 2-4 hours, overtime at 1.25x
  ShiftPolicy:    06:00-22:00, 15 min grace, late arrival rejected, 8-10 hours, 2x

EXAMPLE:
  reg := attendance.NewPolicyRegistry(nil, nil)
  _ = reg.Add(ctx, attendance.StandardPolicy("Standard"))

SEE ALSO:
  - policy.go: Policy definition and validation
  - factory/policy.go: JSON-based policy creation
*/
package attendance

import "github.com/warp/attendance-engine/generic"

// =============================================================================
// COMMON POLICIES
// =============================================================================

// StandardPolicy is an office day with no grace period.
func StandardPolicy(name generic.PolicyName) Policy {
	return Policy{
		Name:               name,
		WorkStart:          generic.NewTimeOfDay(9, 0),
		WorkEnd:            generic.NewTimeOfDay(18, 0),
		MinHoursPerDay:     generic.Hours(4),
		MaxHoursPerDay:     generic.Hours(8),
		OvertimeMultiplier: generic.MustParseDecimal("1.5"),
		Holidays:           generic.NewHolidaySet(),
	}
}

// FlexiblePolicy accepts check-ins across a wide window.
func FlexiblePolicy(name generic.PolicyName) Policy {
	p := StandardPolicy(name)
	p.WorkStart = generic.NewTimeOfDay(7, 0)
	p.WorkEnd = generic.NewTimeOfDay(20, 0)
	p.GracePeriodMinutes = 30
	return p
}

func PartTimePolicy(name generic.PolicyName) Policy {
	return Policy{
		Name:               name,
		WorkStart:          generic.NewTimeOfDay(9, 0),
		WorkEnd:            generic.NewTimeOfDay(13, 0),
		GracePeriodMinutes: 15,
		MinHoursPerDay:     generic.Hours(2),
		MaxHoursPerDay:     generic.Hours(4),
		OvertimeMultiplier: generic.MustParseDecimal("1.25"),
		Holidays:           generic.NewHolidaySet(),
	}
}

// ShiftPolicy treats a late arrival as an invalid check-in.
func ShiftPolicy(name generic.PolicyName) Policy {
	return Policy{
		Name:               name,
		WorkStart:          generic.NewTimeOfDay(6, 0),
		WorkEnd:            generic.NewTimeOfDay(22, 0),
		GracePeriodMinutes: 15,
		MinHoursPerDay:     generic.Hours(8),
		MaxHoursPerDay:     generic.Hours(10),
		OvertimeMultiplier: generic.MustParseDecimal("2"),
		Holidays:           generic.NewHolidaySet(),
		RejectLateCheckIn:  true,
	}
}

// Presets returns one of each common policy under its conventional name.
func Presets() []Policy {
	return []Policy{
		StandardPolicy("Standard"),
		FlexiblePolicy("Flexible"),
		PartTimePolicy("Part Time"),
		ShiftPolicy("Shift"),
	}
}
