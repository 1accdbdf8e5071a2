/*
request.go - Leave request and its state machine

PURPOSE:
  A leave request covers an inclusive range of calendar days. It is
  created Pending and moves exactly once to a terminal state.

STATE MACHINE:
  ┌─────────┐  approve   ┌──────────┐
  │ Pending │──────────▶ │ Approved │
  └─────────┘            └──────────┘
       │      reject     ┌──────────┐
       ├───────────────▶ │ Rejected │
       │                 └──────────┘
       │      cancel     ┌───────────┐
       └───────────────▶ │ Cancelled │
                         └───────────┘

  Any other move fails with generic.ErrInvalidTransition. Terminal requests
  only change their audit metadata (DecidedBy, DecidedAt, Note), and only as
  part of the transition that made them terminal.

DURATION:
  Days() = (end - start) + 1, so a single-day request lasts 1 day.
  WorkingDays() skips weekends and the given holidays.

SEE ALSO:
  - ledger.go: owns ids and runs transitions
  - store.go: persistence of requests and their events
*/
package leave

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s != StatusPending
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts any casing ("Pending", "APPROVED").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", generic.Invalid("status", "unknown leave status %q", s)
	}
	return st, nil
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal() && to.IsValid()
}

// =============================================================================
// REQUEST
// =============================================================================

type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Request is a leave request. LeaveType is a free-form tag ("Vacation",
// "Sick Leave").
type Request struct {
	ID          ID                 `json:"id"`
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	LeaveType   string             `json:"leave_type"`
	StartDate   generic.Date       `json:"start_date"`
	EndDate     generic.Date       `json:"end_date"`
	Status      Status             `json:"status"`
	RequestedOn generic.Date       `json:"requested_on"`

	DecidedBy string     `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	Note      string     `json:"note,omitempty"`
}

// Validate checks the creation invariants.
func (r Request) Validate() error {
	if strings.TrimSpace(string(r.EmployeeID)) == "" {
		return generic.Invalid("employee_id", "must not be empty")
	}
	if strings.TrimSpace(r.LeaveType) == "" {
		return generic.Invalid("leave_type", "must not be empty")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return generic.Invalid("dates", "start and end dates are required")
	}
	if r.StartDate.After(r.EndDate) {
		return generic.Invalid("dates", "start %s is after end %s", r.StartDate, r.EndDate)
	}
	return nil
}

func (r Request) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// Days is the inclusive calendar duration.
func (r Request) Days() int {
	return r.Period().Len()
}

// WorkingDays counts the days of the request that are workdays under cal.
func (r Request) WorkingDays(cal generic.HolidayCalendar) int {
	return r.Period().WorkingDays(cal)
}

// Covers reports whether d is one of the requested days.
func (r Request) Covers(d generic.Date) bool {
	return r.Period().Contains(d)
}

// transition returns the request moved to status `to`, or an
// InvalidTransitionError. The receiver is not modified.
func (r Request) transition(to Status, actor, note string, at time.Time) (Request, error) {
	if !CanTransition(r.Status, to) {
		return Request{}, &generic.InvalidTransitionError{
			Kind: "leave request",
			Key:  r.ID.String(),
			From: string(r.Status),
			To:   string(to),
		}
	}
	next := r
	next.Status = to
	next.DecidedBy = actor
	next.Note = note
	decided := at.UTC()
	next.DecidedAt = &decided
	return next, nil
}

// =============================================================================
// EVENT - One persisted state change
// =============================================================================

// Event records a creation (From empty) or a transition.
type Event struct {
	ID         string             `json:"id"`
	RequestID  ID                 `json:"request_id"`
	EmployeeID generic.EmployeeID `json:"employee_id"`
	From       Status             `json:"from,omitempty"`
	To         Status             `json:"to"`
	Actor      string             `json:"actor,omitempty"`
	Note       string             `json:"note,omitempty"`
	At         time.Time          `json:"at"`
}

func newEvent(r Request, from Status, actor, note string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		RequestID:  r.ID,
		EmployeeID: r.EmployeeID,
		From:       from,
		To:         r.Status,
		Actor:      actor,
		Note:       note,
		At:         at.UTC(),
	}
}

// AuditAction maps the event to the audit log vocabulary.
func (e Event) AuditAction() generic.AuditAction {
	switch e.To {
	case StatusApproved:
		return generic.AuditLeaveApproved
	case StatusRejected:
		return generic.AuditLeaveRejected
	case StatusCancelled:
		return generic.AuditLeaveCancelled
	default:
		return generic.AuditLeaveRequested
	}
}
