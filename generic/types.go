/*
Package generic provides the domain-agnostic primitives of the attendance engine.

PURPOSE:
  Calendar arithmetic, hour quantities, identifiers, the error taxonomy and
  the collaborator/persistence interfaces shared by the attendance, leave and
  report packages. Nothing in here knows what an overtime rule or a leave
  request is.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID / PolicyName / Role: type-safe identifiers
  - Hours: decimal helpers so 9 - 8 is exactly 1, never 0.9999999

DESIGN PRINCIPLES:
  1. Precision: all hour and pay arithmetic uses decimal.Decimal
  2. Type Safety: distinct ID types prevent mixing employees and policies
  3. Collaborators by interface: the engine never owns employee records

SEE ALSO:
  - time.go: Date, TimeOfDay, holiday calendars
  - period.go: inclusive date ranges
  - errors.go: error taxonomy
  - store.go: collaborator and audit interfaces
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PolicyName string

// Role is the tag the employee registry assigns to an employee.
// Policies are resolved per role when a caller does not name one.
type Role string

// =============================================================================
// HOURS - decimal quantities
// =============================================================================

// Hours converts a float literal into a decimal hour quantity.
func Hours(h float64) decimal.Decimal {
	return decimal.NewFromFloat(h)
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalPtr returns a pointer to a copy of d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// SumHours adds up a list of quantities.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
