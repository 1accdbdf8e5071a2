package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/leave"
)

// =============================================================================
// LEAVE STORE (leave.Store interface)
// =============================================================================

// LeaveRequests is the leave.Store view of the database.
type LeaveRequests struct{ *Store }

func (s *Store) LeaveRequests() *LeaveRequests { return &LeaveRequests{s} }

const requestColumns = `id, employee_id, leave_type, start_date, end_date, status, requested_on, decided_by, decided_at, note`

// Insert writes the request and its creation event in one transaction.
func (s *LeaveRequests) Insert(ctx context.Context, r leave.Request, ev leave.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leave_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(r.ID),
		r.EmployeeID,
		r.LeaveType,
		r.StartDate.String(),
		r.EndDate.String(),
		r.Status,
		r.RequestedOn.String(),
		nullString(r.DecidedBy),
		nullTime(r.DecidedAt),
		nullString(r.Note),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Duplicate("leave request", r.ID.String())
		}
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit()
}

// Transition updates the request only if its stored status is still
// expected, and appends ev in the same transaction.
func (s *LeaveRequests) Transition(ctx context.Context, r leave.Request, expected leave.Status, ev leave.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE leave_requests SET status = ?, decided_by = ?, decided_at = ?, note = ?
		 WHERE id = ? AND status = ?`,
		r.Status, nullString(r.DecidedBy), nullTime(r.DecidedAt), nullString(r.Note),
		int64(r.ID), expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM leave_requests WHERE id = ?", int64(r.ID)).Scan(&current)
		if err == sql.ErrNoRows {
			return generic.NotFound("leave request", r.ID.String())
		}
		if err != nil {
			return err
		}
		return &generic.InvalidTransitionError{
			Kind: "leave request",
			Key:  r.ID.String(),
			From: current,
			To:   string(r.Status),
		}
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *LeaveRequests) Get(ctx context.Context, id leave.ID) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reqs, err := s.queryRequests(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, int64(id))
	if err != nil {
		return leave.Request{}, err
	}
	if len(reqs) == 0 {
		return leave.Request{}, generic.NotFound("leave request", id.String())
	}
	return reqs[0], nil
}

// List returns matching requests ordered by id.
func (s *LeaveRequests) List(ctx context.Context, f leave.Filter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w where
	if f.EmployeeID != nil {
		w.add("employee_id = ?", *f.EmployeeID)
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Overlaps != nil {
		w.add("start_date <= ? AND end_date >= ?", f.Overlaps.End.String(), f.Overlaps.Start.String())
	}
	return s.queryRequests(ctx, `SELECT `+requestColumns+` FROM leave_requests`+w.String()+` ORDER BY id ASC`, w.args...)
}

func (s *LeaveRequests) Events(ctx context.Context, id leave.ID) ([]leave.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leave_requests WHERE id = ?", int64(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, generic.NotFound("leave request", id.String())
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, employee_id, from_status, to_status, actor, note, at
		 FROM leave_events WHERE request_id = ? ORDER BY rowid ASC`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave events: %w", err)
	}
	defer rows.Close()

	var events []leave.Event
	for rows.Next() {
		var (
			ev                leave.Event
			requestID         int64
			employee, to, at  string
			from, actor, note sql.NullString
		)
		if err := rows.Scan(&ev.ID, &requestID, &employee, &from, &to, &actor, &note, &at); err != nil {
			return nil, err
		}
		ev.RequestID = leave.ID(requestID)
		ev.EmployeeID = generic.EmployeeID(employee)
		ev.From = leave.Status(from.String)
		ev.To = leave.Status(to)
		ev.Actor = actor.String
		ev.Note = note.String
		if ev.At, err = parseTime(at); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *LeaveRequests) MaxID(ctx context.Context) (leave.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var highest int64
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM leave_requests").Scan(&highest)
	return leave.ID(highest), err
}

func (s *LeaveRequests) queryRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	requests := []leave.Request{}
	for rows.Next() {
		var (
			r                                   leave.Request
			id                                  int64
			employee, start, end, status, reqOn string
			decidedBy, decidedAt, note          sql.NullString
		)
		if err := rows.Scan(&id, &employee, &r.LeaveType, &start, &end, &status, &reqOn, &decidedBy, &decidedAt, &note); err != nil {
			return nil, err
		}
		r.ID = leave.ID(id)
		r.EmployeeID = generic.EmployeeID(employee)
		if r.StartDate, err = parseDate("start date", start); err != nil {
			return nil, err
		}
		if r.EndDate, err = parseDate("end date", end); err != nil {
			return nil, err
		}
		if r.RequestedOn, err = parseDate("requested-on date", reqOn); err != nil {
			return nil, err
		}
		r.Status = leave.Status(status)
		r.DecidedBy = decidedBy.String
		r.Note = note.String
		if decidedAt.Valid {
			t, err := parseTime(decidedAt.String)
			if err != nil {
				return nil, err
			}
			r.DecidedAt = &t
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func insertEvent(ctx context.Context, db execer, ev leave.Event) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO leave_events (id, request_id, employee_id, from_status, to_status, actor, note, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, int64(ev.RequestID), ev.EmployeeID, nullString(string(ev.From)), ev.To,
		nullString(ev.Actor), nullString(ev.Note), formatTime(ev.At),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave event: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

var _ leave.Store = (*LeaveRequests)(nil)
