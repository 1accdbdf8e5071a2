package leave

import (
	"context"
	"errors"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

// Store persists requests together with their events. The ledger assumes it
// may not be the only writer, so Transition is a compare-and-set on the
// current status.
type Store interface {
	// Insert writes a new request and its creation event atomically.
	// Fails with generic.ErrDuplicate when the id exists.
	Insert(ctx context.Context, r Request, ev Event) error

	// Transition replaces the request if its stored status still equals
	// expected, and appends ev in the same write. A status mismatch fails
	// with generic.ErrInvalidTransition.
	Transition(ctx context.Context, r Request, expected Status, ev Event) error

	Get(ctx context.Context, id ID) (Request, error)
	List(ctx context.Context, f Filter) ([]Request, error)
	Events(ctx context.Context, id ID) ([]Event, error)

	// MaxID returns the highest id ever stored, 0 when empty.
	MaxID(ctx context.Context) (ID, error)
}

// Filter selects requests. Zero fields match everything.
type Filter struct {
	EmployeeID *generic.EmployeeID
	Status     *Status
	Overlaps   *generic.Period
}

func (f Filter) Matches(r Request) bool {
	if f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Overlaps != nil && !f.Overlaps.Overlaps(r.Period()) {
		return false
	}
	return true
}

// =============================================================================
// MEMORY STORE
// =============================================================================

type record struct {
	req    Request
	events []Event
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	table *store.Table[ID, record]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		table: store.NewTable[ID](func(a, b record) bool { return a.req.ID < b.req.ID }),
	}
}

func (s *MemoryStore) Insert(_ context.Context, r Request, ev Event) error {
	if err := s.table.Insert(r.ID, record{req: r, events: []Event{ev}}); err != nil {
		if errors.Is(err, generic.ErrDuplicate) {
			return generic.Duplicate("leave request", r.ID.String())
		}
		return err
	}
	return nil
}

func (s *MemoryStore) Transition(_ context.Context, r Request, expected Status, ev Event) error {
	err := s.table.Update(r.ID, func(current record) (record, error) {
		if current.req.Status != expected {
			return record{}, &generic.InvalidTransitionError{
				Kind: "leave request",
				Key:  r.ID.String(),
				From: string(current.req.Status),
				To:   string(r.Status),
			}
		}
		events := make([]Event, len(current.events), len(current.events)+1)
		copy(events, current.events)
		return record{req: r, events: append(events, ev)}, nil
	})
	if errors.Is(err, generic.ErrNotFound) {
		return generic.NotFound("leave request", r.ID.String())
	}
	return err
}

func (s *MemoryStore) Get(_ context.Context, id ID) (Request, error) {
	rec, ok := s.table.Get(id)
	if !ok {
		return Request{}, generic.NotFound("leave request", id.String())
	}
	return rec.req, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Request, error) {
	rows := s.table.Select(func(rec record) bool { return f.Matches(rec.req) })
	out := make([]Request, len(rows))
	for i, rec := range rows {
		out[i] = rec.req
	}
	return out, nil
}

func (s *MemoryStore) Events(_ context.Context, id ID) ([]Event, error) {
	rec, ok := s.table.Get(id)
	if !ok {
		return nil, generic.NotFound("leave request", id.String())
	}
	out := make([]Event, len(rec.events))
	copy(out, rec.events)
	return out, nil
}

func (s *MemoryStore) MaxID(_ context.Context) (ID, error) {
	var highest ID
	for _, rec := range s.table.Select(nil) {
		if rec.req.ID > highest {
			highest = rec.req.ID
		}
	}
	return highest, nil
}

var _ Store = (*MemoryStore)(nil)
