/*
ledger.go - Leave ledger: id assignment and transitions

PURPOSE:
  Creates leave requests, runs their state machine and answers "is this
  employee on approved leave that day?" for attendance evaluation.

IDS:
  Sequential int64, assigned under the ledger lock, never reused. The
  counter is seeded from the store's highest id when the ledger is built,
  so a restart over a persistent store continues the sequence. If another
  writer took the next id first, the counter is reseeded and the insert
  retried.

ATOMICITY:
  Each creation or transition is one store call carrying both the request
  and its Event. The store checks the expected status, so a concurrent
  writer that decided the request first makes this call fail with
  InvalidTransition instead of overwriting the decision.

EXAMPLE:
  ledger, err := leave.NewLedger(ctx, leave.NewMemoryStore(), directory)
  id, err := ledger.RequestLeave(ctx, "001", "Vacation", start, end)
  _, err = ledger.Approve(ctx, id, "manager-7")

SEE ALSO:
  - request.go: Request, Status, Event
  - attendance/service.go: consumes ApprovedOn through LeaveCalendar
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/warp/attendance-engine/generic"
)

const maxInsertAttempts = 3

// Ledger owns leave requests. Safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	nextID ID

	employees generic.EmployeeRegistry
	audit     generic.AuditLog
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Ledger)

// WithAudit mirrors every event into an audit log.
func WithAudit(log generic.AuditLog) Option {
	return func(l *Ledger) { l.audit = log }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger builds a ledger over store, seeding the id counter from it.
func NewLedger(ctx context.Context, store Store, employees generic.EmployeeRegistry, opts ...Option) (*Ledger, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	if employees == nil {
		return nil, errors.New("leave ledger requires an employee registry")
	}
	l := &Ledger{
		store:     store,
		employees: employees,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.seed(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) seed(ctx context.Context) error {
	highest, err := l.store.MaxID(ctx)
	if err != nil {
		return fmt.Errorf("seed leave ids: %w", err)
	}
	if highest+1 > l.nextID {
		l.nextID = highest + 1
	}
	return nil
}

// =============================================================================
// CREATION
// =============================================================================

// RequestLeave creates a Pending request and returns its id.
func (l *Ledger) RequestLeave(ctx context.Context, employee generic.EmployeeID, leaveType string, start, end generic.Date) (ID, error) {
	now := l.now()
	req := Request{
		EmployeeID:  employee,
		LeaveType:   strings.TrimSpace(leaveType),
		StartDate:   start,
		EndDate:     end,
		Status:      StatusPending,
		RequestedOn: generic.DateOf(now),
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	exists, err := l.employees.Exists(ctx, employee)
	if err != nil {
		return 0, fmt.Errorf("check employee: %w", err)
	}
	if !exists {
		return 0, generic.NotFound("employee", string(employee))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 1; ; attempt++ {
		req.ID = l.nextID
		l.nextID++

		ev := newEvent(req, "", string(employee), "", now)
		err = l.store.Insert(ctx, req, ev)
		if err == nil {
			l.recordEvent(ctx, ev, req)
			return req.ID, nil
		}
		if !errors.Is(err, generic.ErrDuplicate) || attempt == maxInsertAttempts {
			return 0, fmt.Errorf("insert leave request: %w", err)
		}
		// Another writer took this id
		if err := l.seed(ctx); err != nil {
			return 0, err
		}
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (l *Ledger) Approve(ctx context.Context, id ID, actor string) (Request, error) {
	return l.transition(ctx, id, StatusApproved, actor, "")
}

func (l *Ledger) Reject(ctx context.Context, id ID, actor, note string) (Request, error) {
	return l.transition(ctx, id, StatusRejected, actor, note)
}

// Cancel withdraws a Pending request. Cancelling anything else is an
// InvalidTransition, never a silent no-op.
func (l *Ledger) Cancel(ctx context.Context, id ID, actor string) (Request, error) {
	return l.transition(ctx, id, StatusCancelled, actor, "")
}

func (l *Ledger) transition(ctx context.Context, id ID, to Status, actor, note string) (Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	now := l.now()
	next, err := current.transition(to, actor, note, now)
	if err != nil {
		return Request{}, err
	}

	ev := newEvent(next, current.Status, actor, note, now)
	if err := l.store.Transition(ctx, next, current.Status, ev); err != nil {
		return Request{}, err
	}
	l.recordEvent(ctx, ev, next)
	return next, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (l *Ledger) Get(ctx context.Context, id ID) (Request, error) {
	return l.store.Get(ctx, id)
}

// List returns requests ordered by id. An empty status lists all of them.
func (l *Ledger) List(ctx context.Context, status Status) ([]Request, error) {
	f := Filter{}
	if status != "" {
		if !status.IsValid() {
			return nil, generic.Invalid("status", "unknown leave status %q", status)
		}
		f.Status = &status
	}
	return l.store.List(ctx, f)
}

func (l *Ledger) ForEmployee(ctx context.Context, employee generic.EmployeeID) ([]Request, error) {
	return l.store.List(ctx, Filter{EmployeeID: &employee})
}

// ApprovedOn reports whether employee has an approved request covering date.
func (l *Ledger) ApprovedOn(ctx context.Context, employee generic.EmployeeID, date generic.Date) (bool, error) {
	approved := StatusApproved
	day := generic.DayPeriod(date)
	reqs, err := l.store.List(ctx, Filter{EmployeeID: &employee, Status: &approved, Overlaps: &day})
	if err != nil {
		return false, err
	}
	return len(reqs) > 0, nil
}

// Events returns the creation and transition history of a request.
func (l *Ledger) Events(ctx context.Context, id ID) ([]Event, error) {
	return l.store.Events(ctx, id)
}

func (l *Ledger) recordEvent(ctx context.Context, ev Event, req Request) {
	l.logger.Info("leave request changed",
		"id", req.ID,
		"employee", req.EmployeeID,
		"from", ev.From,
		"to", ev.To,
		"actor", ev.Actor,
	)
	if l.audit == nil {
		return
	}
	entry := generic.NewAuditEntry(ev.AuditAction(), ev.Actor, req.EmployeeID, req.ID.String())
	entry.Payload = map[string]any{
		"leave_type": req.LeaveType,
		"start_date": req.StartDate.String(),
		"end_date":   req.EndDate.String(),
		"status":     string(req.Status),
	}
	if ev.Note != "" {
		entry.Payload["note"] = ev.Note
	}
	if err := l.audit.Append(ctx, entry); err != nil {
		l.logger.Warn("leave audit append failed", "id", req.ID, "err", err)
	}
}
