package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// POLICY STORAGE
// =============================================================================

// PolicyRecord represents a stored policy definition.
type PolicyRecord struct {
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SavePolicy inserts a policy or replaces its config, bumping the version.
func (s *Store) SavePolicy(ctx context.Context, policy PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO policies (name, config_json, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			config_json = excluded.config_json,
			version = policies.version + 1,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, query, policy.Name, policy.ConfigJSON, now, now)
	return err
}

// GetPolicy retrieves a policy by name. Returns nil when absent.
func (s *Store) GetPolicy(ctx context.Context, name string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p PolicyRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT name, config_json, version, created_at, updated_at FROM policies WHERE name = ?",
		name,
	).Scan(&p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPolicies returns all policies ordered by name.
func (s *Store) ListPolicies(ctx context.Context) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, config_json, version, created_at, updated_at FROM policies ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []PolicyRecord
	for rows.Next() {
		var p PolicyRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// DeletePolicy removes a policy. Deleting an absent policy is a no-op.
func (s *Store) DeletePolicy(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM policies WHERE name = ?", name)
	return err
}

// =============================================================================
// POLICIES VIEW (attendance.PolicyPersister interface)
// =============================================================================

// Policies stores attendance.Policy values in the factory JSON format.
type Policies struct{ *Store }

func (s *Store) Policies() *Policies { return &Policies{s} }

func (s *Policies) Save(ctx context.Context, p attendance.Policy) error {
	data, err := json.Marshal(factory.NewPolicyFactory().ToJSON(p))
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	return s.SavePolicy(ctx, PolicyRecord{Name: string(p.Name), ConfigJSON: string(data)})
}

func (s *Policies) Delete(ctx context.Context, name generic.PolicyName) error {
	return s.DeletePolicy(ctx, string(name))
}

// LoadAll decodes and validates every stored policy.
func (s *Policies) LoadAll(ctx context.Context) ([]attendance.Policy, error) {
	records, err := s.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}

	f := factory.NewPolicyFactory()
	policies := make([]attendance.Policy, 0, len(records))
	for _, rec := range records {
		var pj factory.PolicyJSON
		if err := json.Unmarshal([]byte(rec.ConfigJSON), &pj); err != nil {
			return nil, fmt.Errorf("policy %s: corrupt config: %w", rec.Name, err)
		}
		p, err := f.FromJSON(pj)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", rec.Name, err)
		}
		policies = append(policies, p)
	}
	return policies, nil
}

var _ attendance.PolicyPersister = (*Policies)(nil)
