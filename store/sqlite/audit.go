package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

// AuditLog is the append-only audit view of the database.
type AuditLog struct{ *Store }

func (s *Store) AuditLog() *AuditLog { return &AuditLog{s} }

func (s *AuditLog) Append(ctx context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload sql.NullString
	if len(entry.Payload) > 0 {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, at, actor_id, action, employee_id, subject, payload_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, formatTime(entry.At), nullString(entry.ActorID), entry.Action,
		nullString(string(entry.EmployeeID)), entry.Subject, payload,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Duplicate("audit entry", entry.ID)
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries in the order they were appended.
func (s *AuditLog) Query(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w where
	if f.EmployeeID != nil {
		w.add("employee_id = ?", *f.EmployeeID)
	}
	if f.Subject != nil {
		w.add("subject = ?", *f.Subject)
	}
	actions := make([]string, len(f.Actions))
	for i, a := range f.Actions {
		actions[i] = string(a)
	}
	w.in("action", actions)
	if f.From != nil {
		w.add("at >= ?", formatTime(*f.From))
	}
	if f.To != nil {
		w.add("at <= ?", formatTime(*f.To))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, actor_id, action, employee_id, subject, payload_json
		 FROM audit_log`+w.String()+` ORDER BY rowid ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := []generic.AuditEntry{}
	for rows.Next() {
		var (
			e                        generic.AuditEntry
			at, action               string
			actor, employee, payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &actor, &action, &employee, &e.Subject, &payload); err != nil {
			return nil, err
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		e.ActorID = actor.String
		e.Action = generic.AuditAction(action)
		e.EmployeeID = generic.EmployeeID(employee.String)
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("corrupt audit payload %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ generic.AuditLog = (*AuditLog)(nil)
