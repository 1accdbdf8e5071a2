package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (id, name, department, role, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			department = EXCLUDED.department,
			role = EXCLUDED.role,
			active = EXCLUDED.active`,
		string(emp.ID), emp.Name, nullString(emp.Department), string(emp.Role), emp.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID, active or not.
func (s *Employees) GetEmployee(ctx context.Context, id generic.EmployeeID) (store.Employee, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, name, department, role, active FROM employees WHERE id = $1", string(id))
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Employee{}, generic.NotFound("employee", string(id))
	}
	return e, err
}

// ListEmployees returns all employees ordered by ID.
func (s *Employees) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, department, role, active FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []store.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// Deactivate keeps the record but hides it from Exists and RoleOf.
func (s *Employees) Deactivate(ctx context.Context, id generic.EmployeeID) error {
	tag, err := s.pool.Exec(ctx, "UPDATE employees SET active = FALSE WHERE id = $1", string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return generic.NotFound("employee", string(id))
	}
	return nil
}

func (s *Employees) Exists(ctx context.Context, id generic.EmployeeID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND active)", string(id),
	).Scan(&exists)
	return exists, err
}

func (s *Employees) RoleOf(ctx context.Context, id generic.EmployeeID) (generic.Role, error) {
	var role string
	err := s.pool.QueryRow(ctx,
		"SELECT role FROM employees WHERE id = $1 AND active", string(id),
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", generic.NotFound("employee", string(id))
	}
	if err != nil {
		return "", err
	}
	return generic.Role(role), nil
}

func scanEmployee(row pgx.Row) (store.Employee, error) {
	var (
		e           store.Employee
		empID, role string
		department  *string
	)
	if err := row.Scan(&empID, &e.Name, &department, &role, &e.Active); err != nil {
		return store.Employee{}, err
	}
	e.ID = generic.EmployeeID(empID)
	e.Role = generic.Role(role)
	e.Department = deref(department)
	return e, nil
}

var _ generic.EmployeeRegistry = (*Employees)(nil)
