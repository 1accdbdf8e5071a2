package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/leave"
)

// =============================================================================
// LEAVE STORE (leave.Store interface)
// =============================================================================

// LeaveRequests is the leave.Store view of the database.
type LeaveRequests struct{ *Store }

func (s *Store) LeaveRequests() *LeaveRequests { return &LeaveRequests{s} }

const selectRequest = `SELECT id, employee_id, leave_type, start_date::text, end_date::text, status,
	requested_on::text, decided_by, decided_at, note FROM leave_requests`

// Insert writes the request and its creation event in one transaction.
func (s *LeaveRequests) Insert(ctx context.Context, r leave.Request, ev leave.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, status,
			requested_on, decided_by, decided_at, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		int64(r.ID),
		string(r.EmployeeID),
		r.LeaveType,
		r.StartDate.String(),
		r.EndDate.String(),
		string(r.Status),
		r.RequestedOn.String(),
		nullString(r.DecidedBy),
		r.DecidedAt,
		nullString(r.Note),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return generic.Duplicate("leave request", r.ID.String())
		}
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Transition updates the request only if its stored status is still
// expected, and appends ev in the same transaction.
func (s *LeaveRequests) Transition(ctx context.Context, r leave.Request, expected leave.Status, ev leave.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE leave_requests SET status = $1, decided_by = $2, decided_at = $3, note = $4
		 WHERE id = $5 AND status = $6`,
		string(r.Status), nullString(r.DecidedBy), r.DecidedAt, nullString(r.Note),
		int64(r.ID), string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, "SELECT status FROM leave_requests WHERE id = $1", int64(r.ID)).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
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
	return tx.Commit(ctx)
}

func (s *LeaveRequests) Get(ctx context.Context, id leave.ID) (leave.Request, error) {
	reqs, err := s.queryRequests(ctx, selectRequest+` WHERE id = $1`, int64(id))
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
	var w where
	if f.EmployeeID != nil {
		w.add("employee_id = ?", string(*f.EmployeeID))
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	if f.Overlaps != nil {
		w.add("start_date <= ? AND end_date >= ?", f.Overlaps.End.String(), f.Overlaps.Start.String())
	}
	return s.queryRequests(ctx, selectRequest+w.String()+` ORDER BY id ASC`, w.args...)
}

func (s *LeaveRequests) Events(ctx context.Context, id leave.ID) ([]leave.Event, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM leave_requests WHERE id = $1)", int64(id)).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, generic.NotFound("leave request", id.String())
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, employee_id, from_status, to_status, actor, note, at
		 FROM leave_events WHERE request_id = $1 ORDER BY seq ASC`,
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
			employee, to      string
			from, actor, note *string
		)
		if err := rows.Scan(&ev.ID, &requestID, &employee, &from, &to, &actor, &note, &ev.At); err != nil {
			return nil, err
		}
		ev.RequestID = leave.ID(requestID)
		ev.EmployeeID = generic.EmployeeID(employee)
		ev.From = leave.Status(deref(from))
		ev.To = leave.Status(to)
		ev.Actor = deref(actor)
		ev.Note = deref(note)
		ev.At = ev.At.UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *LeaveRequests) MaxID(ctx context.Context) (leave.ID, error) {
	var highest int64
	err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(id), 0) FROM leave_requests").Scan(&highest)
	return leave.ID(highest), err
}

func (s *LeaveRequests) queryRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
			decidedBy, note                     *string
			decidedAt                           *time.Time
		)
		if err := rows.Scan(&id, &employee, &r.LeaveType, &start, &end, &status, &reqOn, &decidedBy, &decidedAt, &note); err != nil {
			return nil, err
		}
		r.ID = leave.ID(id)
		r.EmployeeID = generic.EmployeeID(employee)
		var err error
		if r.StartDate, err = generic.ParseDate(start); err != nil {
			return nil, fmt.Errorf("corrupt start date %q: %w", start, err)
		}
		if r.EndDate, err = generic.ParseDate(end); err != nil {
			return nil, fmt.Errorf("corrupt end date %q: %w", end, err)
		}
		if r.RequestedOn, err = generic.ParseDate(reqOn); err != nil {
			return nil, fmt.Errorf("corrupt requested-on date %q: %w", reqOn, err)
		}
		r.Status = leave.Status(status)
		r.DecidedBy = deref(decidedBy)
		r.Note = deref(note)
		if decidedAt != nil {
			t := decidedAt.UTC()
			r.DecidedAt = &t
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func insertEvent(ctx context.Context, tx pgx.Tx, ev leave.Event) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO leave_events (id, request_id, employee_id, from_status, to_status, actor, note, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, int64(ev.RequestID), string(ev.EmployeeID), nullString(string(ev.From)), string(ev.To),
		nullString(ev.Actor), nullString(ev.Note), ev.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave event: %w", err)
	}
	return nil
}

var _ leave.Store = (*LeaveRequests)(nil)
