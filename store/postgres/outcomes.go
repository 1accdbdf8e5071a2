package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
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

const selectOutcome = `SELECT employee_id, date::text, classification, check_in, check_out,
	worked_hours::text, overtime_hours::text, overtime_pay::text, late, late_minutes, early_leave,
	policy_name, policy_json, recorded_at FROM attendance_outcomes`

// Append inserts an outcome. The primary key rejects a second row for the
// same employee-day with attendance.DuplicateDayError.
func (s *Outcomes) Append(ctx context.Context, o attendance.Outcome) error {
	policyJSON, err := json.Marshal(o.Policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy terms: %w", err)
	}
	var checkOut *int64
	if o.CheckOut != nil {
		v := int64(*o.CheckOut)
		checkOut = &v
	}
	var pay *string
	if o.OvertimePay != nil {
		pay = nullString(o.OvertimePay.String())
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO attendance_outcomes (`+outcomeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(o.EmployeeID),
		o.Date.String(),
		string(o.Classification),
		int64(o.CheckIn),
		checkOut,
		o.WorkedHours.String(),
		o.OvertimeHours.String(),
		pay,
		o.Late,
		o.LateMinutes,
		o.EarlyLeave,
		string(o.Policy.Name),
		string(policyJSON),
		o.RecordedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &attendance.DuplicateDayError{EmployeeID: o.EmployeeID, Date: o.Date}
		}
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	return nil
}

func (s *Outcomes) Get(ctx context.Context, employee generic.EmployeeID, date generic.Date) (attendance.Outcome, error) {
	row := s.pool.QueryRow(ctx, selectOutcome+` WHERE employee_id = $1 AND date = $2`,
		string(employee), date.String())
	o, err := scanOutcome(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return attendance.Outcome{}, generic.NotFound("attendance", string(employee)+"/"+date.String())
	}
	return o, err
}

// Load returns matching outcomes ordered by date, then employee.
func (s *Outcomes) Load(ctx context.Context, q attendance.Query) ([]attendance.Outcome, error) {
	var w where
	if q.EmployeeID != nil {
		w.add("employee_id = ?", string(*q.EmployeeID))
	}
	if q.Period != nil {
		w.add("date >= ? AND date <= ?", q.Period.Start.String(), q.Period.End.String())
	}
	classes := make([]string, len(q.Classifications))
	for i, c := range q.Classifications {
		classes[i] = string(c)
	}
	w.anyOf("classification", classes)

	rows, err := s.pool.Query(ctx, selectOutcome+w.String()+` ORDER BY date ASC, employee_id ASC`, w.args...)
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

func scanOutcome(row pgx.Row) (attendance.Outcome, error) {
	var (
		o                              attendance.Outcome
		employee, date, classification string
		checkIn                        int64
		checkOut                       *int64
		worked, overtime               string
		pay                            *string
		policyName                     string
		policyJSON                     []byte
	)
	err := row.Scan(&employee, &date, &classification, &checkIn, &checkOut, &worked,
		&overtime, &pay, &o.Late, &o.LateMinutes, &o.EarlyLeave, &policyName, &policyJSON, &o.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Outcome{}, err
		}
		return attendance.Outcome{}, fmt.Errorf("failed to scan outcome: %w", err)
	}

	o.EmployeeID = generic.EmployeeID(employee)
	if o.Date, err = generic.ParseDate(date); err != nil {
		return attendance.Outcome{}, err
	}
	o.Classification = attendance.Classification(classification)
	o.CheckIn = generic.TimeOfDay(checkIn)
	if checkOut != nil {
		co := generic.TimeOfDay(*checkOut)
		o.CheckOut = &co
	}
	if o.WorkedHours, err = decimal.NewFromString(worked); err != nil {
		return attendance.Outcome{}, fmt.Errorf("corrupt worked hours %q: %w", worked, err)
	}
	if o.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
		return attendance.Outcome{}, fmt.Errorf("corrupt overtime hours %q: %w", overtime, err)
	}
	if pay != nil {
		p, err := decimal.NewFromString(*pay)
		if err != nil {
			return attendance.Outcome{}, fmt.Errorf("corrupt overtime pay %q: %w", *pay, err)
		}
		o.OvertimePay = &p
	}
	if err := json.Unmarshal(policyJSON, &o.Policy); err != nil {
		return attendance.Outcome{}, fmt.Errorf("failed to decode policy terms: %w", err)
	}
	o.Policy.Name = generic.PolicyName(policyName)
	o.RecordedAt = o.RecordedAt.UTC()
	return o, nil
}

var _ attendance.Store = (*Outcomes)(nil)
