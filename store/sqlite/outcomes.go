package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// ATTENDANCE STORE (attendance.Store interface)
// =============================================================================

// Outcomes is the attendance.Store view of the database.
type Outcomes struct{ *Store }

func (s *Store) Outcomes() *Outcomes { return &Outcomes{s} }

const outcomeColumns = `employee_id, date, classification, check_in, check_out, worked_hours,
	overtime_hours, overtime_pay, late, late_minutes, early_leave, policy_name, policy_json, recorded_at`

// Append inserts an outcome. The primary key rejects a second row for the
// same employee-day with attendance.DuplicateDayError.
func (s *Outcomes) Append(ctx context.Context, o attendance.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	policyJSON, err := json.Marshal(o.Policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy terms: %w", err)
	}
	var checkOut sql.NullInt64
	if o.CheckOut != nil {
		checkOut = sql.NullInt64{Int64: int64(*o.CheckOut), Valid: true}
	}
	var pay sql.NullString
	if o.OvertimePay != nil {
		pay = sql.NullString{String: o.OvertimePay.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attendance_outcomes (`+outcomeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.EmployeeID,
		o.Date.String(),
		o.Classification,
		int(o.CheckIn),
		checkOut,
		o.WorkedHours.String(),
		o.OvertimeHours.String(),
		pay,
		o.Late,
		o.LateMinutes,
		o.EarlyLeave,
		o.Policy.Name,
		string(policyJSON),
		formatTime(o.RecordedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &attendance.DuplicateDayError{EmployeeID: o.EmployeeID, Date: o.Date}
		}
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	return nil
}

func (s *Outcomes) Get(ctx context.Context, employee generic.EmployeeID, date generic.Date) (attendance.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+outcomeColumns+` FROM attendance_outcomes WHERE employee_id = ? AND date = ?`,
		employee, date.String(),
	)
	if err != nil {
		return attendance.Outcome{}, fmt.Errorf("failed to query outcome: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return attendance.Outcome{}, err
		}
		return attendance.Outcome{}, generic.NotFound("attendance", string(employee)+"/"+date.String())
	}
	return scanOutcome(rows)
}

// Load returns matching outcomes ordered by date, then employee.
func (s *Outcomes) Load(ctx context.Context, q attendance.Query) ([]attendance.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w where
	if q.EmployeeID != nil {
		w.add("employee_id = ?", *q.EmployeeID)
	}
	if q.Period != nil {
		w.add("date >= ? AND date <= ?", q.Period.Start.String(), q.Period.End.String())
	}
	classes := make([]string, len(q.Classifications))
	for i, c := range q.Classifications {
		classes[i] = string(c)
	}
	w.in("classification", classes)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+outcomeColumns+` FROM attendance_outcomes`+w.String()+` ORDER BY date ASC, employee_id ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []attendance.Outcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanOutcome(rows *sql.Rows) (attendance.Outcome, error) {
	var (
		o                              attendance.Outcome
		employee, date, classification string
		checkIn                        int
		checkOut                       sql.NullInt64
		worked, overtime               string
		pay                            sql.NullString
		policyName, policyJSON         string
		recordedAt                     string
	)
	err := rows.Scan(&employee, &date, &classification, &checkIn, &checkOut, &worked,
		&overtime, &pay, &o.Late, &o.LateMinutes, &o.EarlyLeave, &policyName, &policyJSON, &recordedAt)
	if err != nil {
		return attendance.Outcome{}, fmt.Errorf("failed to scan outcome: %w", err)
	}

	o.EmployeeID = generic.EmployeeID(employee)
	if o.Date, err = generic.ParseDate(date); err != nil {
		return attendance.Outcome{}, err
	}
	o.Classification = attendance.Classification(classification)
	o.CheckIn = generic.TimeOfDay(checkIn)
	if checkOut.Valid {
		co := generic.TimeOfDay(checkOut.Int64)
		o.CheckOut = &co
	}
	if o.WorkedHours, err = decimal.NewFromString(worked); err != nil {
		return attendance.Outcome{}, fmt.Errorf("corrupt worked hours %q: %w", worked, err)
	}
	if o.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
		return attendance.Outcome{}, fmt.Errorf("corrupt overtime hours %q: %w", overtime, err)
	}
	if pay.Valid {
		p, err := decimal.NewFromString(pay.String)
		if err != nil {
			return attendance.Outcome{}, fmt.Errorf("corrupt overtime pay %q: %w", pay.String, err)
		}
		o.OvertimePay = &p
	}
	if err := json.Unmarshal([]byte(policyJSON), &o.Policy); err != nil {
		return attendance.Outcome{}, fmt.Errorf("failed to decode policy terms: %w", err)
	}
	o.Policy.Name = generic.PolicyName(policyName)
	if o.RecordedAt, err = parseTime(recordedAt); err != nil {
		return attendance.Outcome{}, err
	}
	return o, nil
}

var _ attendance.Store = (*Outcomes)(nil)
