package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/attendance-engine/generic"
)

// LeaveCalendar answers whether an employee has approved leave on a date.
// leave.Ledger implements it.
type LeaveCalendar interface {
	ApprovedOn(ctx context.Context, employee generic.EmployeeID, date generic.Date) (bool, error)
}

// Service runs the record flow: resolve the policy, apply approved leave,
// evaluate, append.
type Service struct {
	Policies  PolicySource
	Ledger    *Ledger
	Employees generic.EmployeeRegistry // optional: skip existence and role checks when nil
	Leave     LeaveCalendar            // optional: leave and attendance stay independent when nil
	Audit     generic.AuditLog         // optional

	// RolePolicies maps a role to its policy when the observation names none.
	RolePolicies  map[generic.Role]generic.PolicyName
	DefaultPolicy generic.PolicyName

	Logger *slog.Logger
	Now    func() time.Time
}

// Record evaluates obs and appends the outcome to the ledger.
func (s *Service) Record(ctx context.Context, obs Observation) (Outcome, error) {
	out, err := s.Preview(ctx, obs)
	if err != nil {
		return Outcome{}, err
	}
	out.RecordedAt = s.now()

	if err := s.Ledger.Append(ctx, out); err != nil {
		return Outcome{}, err
	}

	s.logger().Info("attendance recorded",
		"employee", out.EmployeeID,
		"date", out.Date.String(),
		"classification", out.Classification,
		"policy", out.Policy.Name,
	)
	if s.Audit != nil {
		entry := generic.NewAuditEntry(generic.AuditAttendanceRecorded, "", out.EmployeeID, out.Key())
		entry.Payload = map[string]any{
			"classification": string(out.Classification),
			"worked_hours":   out.WorkedHours.String(),
			"overtime_hours": out.OvertimeHours.String(),
		}
		if err := s.Audit.Append(ctx, entry); err != nil {
			s.logger().Warn("attendance audit append failed", "key", out.Key(), "err", err)
		}
	}
	return out, nil
}

// Preview evaluates obs exactly as Record would, without recording it.
func (s *Service) Preview(ctx context.Context, obs Observation) (Outcome, error) {
	if err := obs.Validate(); err != nil {
		return Outcome{}, err
	}
	policy, err := s.resolvePolicy(ctx, obs)
	if err != nil {
		return Outcome{}, err
	}

	onLeave := false
	if s.Leave != nil && policy.IsWorkday(obs.Date) {
		onLeave, err = s.Leave.ApprovedOn(ctx, obs.EmployeeID, obs.Date)
		if err != nil {
			return Outcome{}, fmt.Errorf("check approved leave: %w", err)
		}
	}
	return evaluate(policy, obs, onLeave)
}

// PolicyFor returns the policy that applies to employee when no explicit
// policy is named: the role mapping first, then the default.
func (s *Service) PolicyFor(ctx context.Context, employee generic.EmployeeID) (Policy, error) {
	return s.resolvePolicy(ctx, Observation{EmployeeID: employee})
}

func (s *Service) resolvePolicy(ctx context.Context, obs Observation) (Policy, error) {
	var role generic.Role
	if s.Employees != nil {
		exists, err := s.Employees.Exists(ctx, obs.EmployeeID)
		if err != nil {
			return Policy{}, fmt.Errorf("check employee: %w", err)
		}
		if !exists {
			return Policy{}, generic.NotFound("employee", string(obs.EmployeeID))
		}
		if obs.PolicyName == "" {
			if role, err = s.Employees.RoleOf(ctx, obs.EmployeeID); err != nil {
				return Policy{}, err
			}
		}
	}

	name := obs.PolicyName
	if name == "" {
		name = s.RolePolicies[role]
	}
	if name == "" {
		name = s.DefaultPolicy
	}
	if name == "" {
		return Policy{}, generic.Invalid("policy_name", "no policy given and none mapped for role %q", role)
	}
	return s.Policies.Get(ctx, name)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
