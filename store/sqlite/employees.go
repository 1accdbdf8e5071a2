package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

// =============================================================================
// EMPLOYEE DIRECTORY (generic.EmployeeRegistry interface)
// =============================================================================

// Employees is the directory view of the database.
type Employees struct{ *Store }

func (s *Store) Employees() *Employees { return &Employees{s} }

// SaveEmployee inserts or updates an employee record.
func (s *Employees) SaveEmployee(ctx context.Context, emp store.Employee) error {
	if strings.TrimSpace(string(emp.ID)) == "" {
		return generic.Invalid("employee_id", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, department, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			role = excluded.role,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.Department), emp.Role, emp.Active, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID, active or not.
func (s *Employees) GetEmployee(ctx context.Context, id generic.EmployeeID) (store.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e          store.Employee
		empID      string
		role       string
		department sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, department, role, active FROM employees WHERE id = ?",
		id,
	).Scan(&empID, &e.Name, &department, &role, &e.Active)
	if err == sql.ErrNoRows {
		return store.Employee{}, generic.NotFound("employee", string(id))
	}
	if err != nil {
		return store.Employee{}, err
	}

	e.ID = generic.EmployeeID(empID)
	e.Role = generic.Role(role)
	e.Department = department.String
	return e, nil
}

// ListEmployees returns all employees ordered by ID.
func (s *Employees) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, department, role, active FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []store.Employee{}
	for rows.Next() {
		var (
			e           store.Employee
			empID, role string
			department  sql.NullString
		)
		if err := rows.Scan(&empID, &e.Name, &department, &role, &e.Active); err != nil {
			return nil, err
		}
		e.ID = generic.EmployeeID(empID)
		e.Role = generic.Role(role)
		e.Department = department.String
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// Deactivate keeps the record but hides it from Exists and RoleOf.
func (s *Employees) Deactivate(ctx context.Context, id generic.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE employees SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.NotFound("employee", string(id))
	}
	return nil
}

func (s *Employees) Exists(ctx context.Context, id generic.EmployeeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM employees WHERE id = ? AND active = TRUE", id,
	).Scan(&n)
	return n > 0, err
}

func (s *Employees) RoleOf(ctx context.Context, id generic.EmployeeID) (generic.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM employees WHERE id = ? AND active = TRUE", id,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", generic.NotFound("employee", string(id))
	}
	if err != nil {
		return "", err
	}
	return generic.Role(role), nil
}

var _ generic.EmployeeRegistry = (*Employees)(nil)
