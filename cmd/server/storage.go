package main

import (
	"context"
	"fmt"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/store/postgres"
	"github.com/warp/attendance-engine/store/sqlite"
)

type employeeStore interface {
	api.EmployeeDirectory
	generic.EmployeeRegistry
}

type policyStore interface {
	attendance.PolicyPersister
	LoadAll(ctx context.Context) ([]attendance.Policy, error)
}

// backend is the set of views every storage driver provides.
type backend struct {
	outcomes  attendance.Store
	leaves    leave.Store
	audit     generic.AuditLog
	employees employeeStore
	policies  policyStore
	health    api.Pinger
	close     func() error
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &backend{
			outcomes:  s.Outcomes(),
			leaves:    s.LeaveRequests(),
			audit:     s.AuditLog(),
			employees: s.Employees(),
			policies:  s.Policies(),
			health:    s,
			close:     s.Close,
		}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return &backend{
			outcomes:  s.Outcomes(),
			leaves:    s.LeaveRequests(),
			audit:     s.AuditLog(),
			employees: s.Employees(),
			policies:  s.Policies(),
			health:    s,
			close:     s.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}
