package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/attendance-engine/generic"
)

// Employee is the directory's view of a person. The engine only ever sees the
// ID and the role through generic.EmployeeRegistry.
type Employee struct {
	ID         generic.EmployeeID `json:"id"`
	Name       string             `json:"name"`
	Department string             `json:"department,omitempty"`
	Role       generic.Role       `json:"role"`
	Active     bool               `json:"active"`
}

// Directory is an in-memory employee registry.
type Directory struct {
	mu        sync.RWMutex
	employees map[generic.EmployeeID]Employee
}

func NewDirectory(employees ...Employee) *Directory {
	d := &Directory{employees: make(map[generic.EmployeeID]Employee)}
	for _, e := range employees {
		e.Active = true
		d.employees[e.ID] = e
	}
	return d
}

// Add registers a new active employee.
func (d *Directory) Add(e Employee) error {
	if strings.TrimSpace(string(e.ID)) == "" {
		return generic.Invalid("employee_id", "must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.employees[e.ID]; exists {
		return generic.Duplicate("employee", string(e.ID))
	}
	e.Active = true
	d.employees[e.ID] = e
	return nil
}

// Deactivate keeps the record but hides it from Exists and RoleOf.
func (d *Directory) Deactivate(id generic.EmployeeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.employees[id]
	if !ok {
		return generic.NotFound("employee", string(id))
	}
	e.Active = false
	d.employees[id] = e
	return nil
}

func (d *Directory) Get(id generic.EmployeeID) (Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	return e, ok
}

// List returns all employees ordered by ID.
func (d *Directory) List() []Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Directory) Exists(_ context.Context, id generic.EmployeeID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	return ok && e.Active, nil
}

func (d *Directory) RoleOf(_ context.Context, id generic.EmployeeID) (generic.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok || !e.Active {
		return "", generic.NotFound("employee", string(id))
	}
	return e.Role, nil
}

var _ generic.EmployeeRegistry = (*Directory)(nil)
