// Package store provides in-memory implementations of the engine's
// persistence hooks and collaborators.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// TABLE - Ordered in-memory keyed collection (for testing/dev)
// =============================================================================

// Table keeps rows unique by key and ordered by less. Reads return copies, so
// a caller never observes a row that is half-written.
type Table[K comparable, V any] struct {
	mu    sync.RWMutex
	rows  map[K]V
	order []K
	less  func(a, b V) bool
}

func NewTable[K comparable, V any](less func(a, b V) bool) *Table[K, V] {
	return &Table[K, V]{
		rows: make(map[K]V),
		less: less,
	}
}

// Insert adds a row. Fails with generic.ErrDuplicate if the key exists.
func (t *Table[K, V]) Insert(k K, v V) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.rows[k]; exists {
		return generic.ErrDuplicate
	}
	t.insertLocked(k, v)
	return nil
}

// Update replaces the row for k with fn's result. fn runs under the write
// lock, so read-check-write sequences are atomic. Fails with
// generic.ErrNotFound if k is absent; fn's error aborts without change.
func (t *Table[K, V]) Update(k K, fn func(current V) (V, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.rows[k]
	if !ok {
		return generic.ErrNotFound
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	t.removeLocked(k)
	t.insertLocked(k, next)
	return nil
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[k]
	return v, ok
}

// Select returns the matching rows in order. A nil match selects all rows.
func (t *Table[K, V]) Select(match func(V) bool) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]V, 0, len(t.order))
	for _, k := range t.order {
		v := t.rows[k]
		if match == nil || match(v) {
			result = append(result, v)
		}
	}
	return result
}

func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table[K, V]) insertLocked(k K, v V) {
	// Binary search for insertion point: stable for equal rows
	i := sort.Search(len(t.order), func(i int) bool {
		return t.less(v, t.rows[t.order[i]])
	})
	t.order = append(t.order, k)
	copy(t.order[i+1:], t.order[i:])
	t.order[i] = k
	t.rows[k] = v
}

func (t *Table[K, V]) removeLocked(k K) {
	for i, existing := range t.order {
		if existing == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	delete(t.rows, k)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AuditLog is an append-only in-memory generic.AuditLog.
type AuditLog struct {
	mu      sync.RWMutex
	entries []generic.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(_ context.Context, entry generic.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *AuditLog) Query(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []generic.AuditEntry
	for _, e := range l.entries {
		if filter.Matches(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

var _ generic.AuditLog = (*AuditLog)(nil)
