/*
store.go - Collaborator and audit interfaces

PURPOSE:
  The engine consumes employee identity from an external registry and
  exposes state changes through an append-only audit log. Both are
  interfaces here so that the in-memory implementations (generic/store) and
  the SQLite adapter (store/sqlite) are interchangeable.

KEY INTERFACES:
  EmployeeRegistry: exists / role lookup (employee directory collaborator)
  AuditLog:         append-only record of who did what when

APPEND-ONLY CONTRACT:
  AuditLog has Append and Query. No Update, no Delete.

SEE ALSO:
  - attendance/store.go: attendance outcome persistence
  - leave/store.go: leave request persistence
  - generic/store/memory.go: in-memory implementations
*/
package generic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EMPLOYEE REGISTRY - External collaborator
// =============================================================================

// EmployeeRegistry is the employee directory as seen by the engine.
// The engine never creates or edits employees.
type EmployeeRegistry interface {
	// Exists reports whether the employee is known and active.
	Exists(ctx context.Context, id EmployeeID) (bool, error)

	// RoleOf returns the employee's role tag, or a NotFound error.
	RoleOf(ctx context.Context, id EmployeeID) (Role, error)
}

// =============================================================================
// AUDIT LOG - tracks who did what when
// =============================================================================

type AuditAction string

const (
	AuditLeaveRequested     AuditAction = "leave_requested"
	AuditLeaveApproved      AuditAction = "leave_approved"
	AuditLeaveRejected      AuditAction = "leave_rejected"
	AuditLeaveCancelled     AuditAction = "leave_cancelled"
	AuditPolicyCreated      AuditAction = "policy_created"
	AuditPolicyUpdated      AuditAction = "policy_updated"
	AuditPolicyDeleted      AuditAction = "policy_deleted"
	AuditAttendanceRecorded AuditAction = "attendance_recorded"
)

// AuditEntry records one state change.
type AuditEntry struct {
	ID         string         `json:"id"`
	At         time.Time      `json:"at"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     AuditAction    `json:"action"`
	EmployeeID EmployeeID     `json:"employee_id,omitempty"`
	Subject    string         `json:"subject"` // policy name, leave id, "employee/date"
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewAuditEntry stamps a fresh id and the current time.
func NewAuditEntry(action AuditAction, actorID string, employeeID EmployeeID, subject string) AuditEntry {
	return AuditEntry{
		ID:         uuid.NewString(),
		At:         time.Now().UTC(),
		ActorID:    actorID,
		Action:     action,
		EmployeeID: employeeID,
		Subject:    subject,
	}
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	EmployeeID *EmployeeID
	Subject    *string
	Actions    []AuditAction
	From       *time.Time
	To         *time.Time
}

// Matches applies the filter to a single entry. Empty fields match anything.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.EmployeeID != nil && e.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Subject != nil && e.Subject != *f.Subject {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.At.Before(*f.From) {
		return false
	}
	if f.To != nil && e.At.After(*f.To) {
		return false
	}
	return true
}
