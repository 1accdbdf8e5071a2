/*
ledger.go - Append-only attendance ledger with day uniqueness

PURPOSE:
  Holds every evaluated Outcome. Entries are never updated or deleted; a
  correction is out of scope for the engine and is done by the operator
  at the store level.

INVARIANT:
  At most one outcome per (EmployeeID, Date). A second append for the same
  employee-day fails with DuplicateDayError (errors.Is ErrDuplicate).

  The ledger checks before writing and the store enforces it again (unique
  index in SQLite), so two writers racing on the same day still produce
  exactly one row.

QUERYING:
  All, Range, ForEmployee and Query return copies ordered by date, then
  employee.

SEE ALSO:
  - store.go: Store interface and MemoryStore
  - service.go: the record flow that feeds the ledger
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// ATTENDANCE LEDGER
// =============================================================================

// Ledger is the attendance ledger. Safe for concurrent use.
type Ledger struct {
	mu    sync.RWMutex
	store Store
}

// NewLedger wraps store. A nil store means an in-memory one.
func NewLedger(store Store) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Ledger{store: store}
}

// Append records an outcome. Returns DuplicateDayError when the employee-day
// is already in the ledger.
func (l *Ledger) Append(ctx context.Context, o Outcome) error {
	if o.EmployeeID == "" {
		return generic.Invalid("employee_id", "must not be empty")
	}
	if o.Date.IsZero() {
		return generic.Invalid("date", "must be set")
	}
	if !o.Classification.IsValid() {
		return generic.Invalid("classification", "unknown classification %q", o.Classification)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.Get(ctx, o.EmployeeID, o.Date); err == nil {
		return &DuplicateDayError{EmployeeID: o.EmployeeID, Date: o.Date}
	} else if !errors.Is(err, generic.ErrNotFound) {
		return fmt.Errorf("check existing attendance: %w", err)
	}

	err := l.store.Append(ctx, o)
	// Store-level uniqueness surfaces as the same domain error
	if errors.Is(err, generic.ErrDuplicate) {
		return &DuplicateDayError{EmployeeID: o.EmployeeID, Date: o.Date}
	}
	return err
}

func (l *Ledger) Get(ctx context.Context, employee generic.EmployeeID, date generic.Date) (Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Get(ctx, employee, date)
}

// Has reports whether the employee-day is already recorded.
func (l *Ledger) Has(ctx context.Context, employee generic.EmployeeID, date generic.Date) (bool, error) {
	_, err := l.Get(ctx, employee, date)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, generic.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (l *Ledger) All(ctx context.Context) ([]Outcome, error) {
	return l.Query(ctx, Query{})
}

// Range returns outcomes whose date falls in period (inclusive).
func (l *Ledger) Range(ctx context.Context, period generic.Period) ([]Outcome, error) {
	return l.Query(ctx, Query{Period: &period})
}

// ForEmployee returns one employee's outcomes within period.
func (l *Ledger) ForEmployee(ctx context.Context, employee generic.EmployeeID, period generic.Period) ([]Outcome, error) {
	return l.Query(ctx, Query{EmployeeID: &employee, Period: &period})
}

func (l *Ledger) Query(ctx context.Context, q Query) ([]Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	outcomes, err := l.store.Load(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	return outcomes, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// DuplicateDayError reports a second outcome for the same employee-day.
type DuplicateDayError struct {
	EmployeeID generic.EmployeeID
	Date       generic.Date
}

func (e *DuplicateDayError) Error() string {
	return fmt.Sprintf("attendance already recorded: %s on %s", e.EmployeeID, e.Date)
}

func (e *DuplicateDayError) Unwrap() error { return generic.ErrDuplicate }
