package attendance

import (
	"context"
	"errors"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

// Store persists outcomes. Implementations must reject a second outcome for
// the same (employee, date) with generic.ErrDuplicate.
type Store interface {
	Append(ctx context.Context, o Outcome) error
	Get(ctx context.Context, employee generic.EmployeeID, date generic.Date) (Outcome, error)
	Load(ctx context.Context, q Query) ([]Outcome, error)
}

// Query selects outcomes. Zero fields match everything.
type Query struct {
	EmployeeID      *generic.EmployeeID
	Period          *generic.Period
	Classifications []Classification
}

func (q Query) Matches(o Outcome) bool {
	if q.EmployeeID != nil && o.EmployeeID != *q.EmployeeID {
		return false
	}
	if q.Period != nil && !q.Period.Contains(o.Date) {
		return false
	}
	if len(q.Classifications) > 0 {
		for _, c := range q.Classifications {
			if c == o.Classification {
				return true
			}
		}
		return false
	}
	return true
}

// Less orders outcomes by date, then employee.
func Less(a, b Outcome) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.EmployeeID < b.EmployeeID
}

// =============================================================================
// MEMORY STORE
// =============================================================================

type dayKey struct {
	employee generic.EmployeeID
	date     generic.Date
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	table *store.Table[dayKey, Outcome]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: store.NewTable[dayKey](Less)}
}

func (s *MemoryStore) Append(_ context.Context, o Outcome) error {
	if err := s.table.Insert(dayKey{o.EmployeeID, o.Date}, o); err != nil {
		if errors.Is(err, generic.ErrDuplicate) {
			return &DuplicateDayError{EmployeeID: o.EmployeeID, Date: o.Date}
		}
		return err
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, employee generic.EmployeeID, date generic.Date) (Outcome, error) {
	o, ok := s.table.Get(dayKey{employee, date})
	if !ok {
		return Outcome{}, generic.NotFound("attendance", string(employee)+"/"+date.String())
	}
	return o, nil
}

func (s *MemoryStore) Load(_ context.Context, q Query) ([]Outcome, error) {
	return s.table.Select(q.Matches), nil
}

var _ Store = (*MemoryStore)(nil)
