package postgres

import (
	"context"
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
	var payload *string
	if len(entry.Payload) > 0 {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = nullString(string(data))
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, at, actor_id, action, employee_id, subject, payload_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.At, nullString(entry.ActorID), string(entry.Action),
		nullString(string(entry.EmployeeID)), entry.Subject, payload,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return generic.Duplicate("audit entry", entry.ID)
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries in the order they were appended.
func (s *AuditLog) Query(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var w where
	if f.EmployeeID != nil {
		w.add("employee_id = ?", string(*f.EmployeeID))
	}
	if f.Subject != nil {
		w.add("subject = ?", *f.Subject)
	}
	actions := make([]string, len(f.Actions))
	for i, a := range f.Actions {
		actions[i] = string(a)
	}
	w.anyOf("action", actions)
	if f.From != nil {
		w.add("at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("at <= ?", *f.To)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, at, actor_id, action, employee_id, subject, payload_json
		 FROM audit_log`+w.String()+` ORDER BY seq ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := []generic.AuditEntry{}
	for rows.Next() {
		var (
			e               generic.AuditEntry
			action          string
			actor, employee *string
			payload         []byte
		)
		if err := rows.Scan(&e.ID, &e.At, &actor, &action, &employee, &e.Subject, &payload); err != nil {
			return nil, err
		}
		e.At = e.At.UTC()
		e.ActorID = deref(actor)
		e.Action = generic.AuditAction(action)
		e.EmployeeID = generic.EmployeeID(deref(employee))
		if payload != nil {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("corrupt audit payload %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ generic.AuditLog = (*AuditLog)(nil)
