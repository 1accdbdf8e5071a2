package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// POLICIES VIEW (attendance.PolicyPersister interface)
// =============================================================================

// Policies stores attendance.Policy values in the factory JSON format.
// Every save bumps the row version.
type Policies struct{ *Store }

func (s *Store) Policies() *Policies { return &Policies{s} }

func (s *Policies) Save(ctx context.Context, p attendance.Policy) error {
	data, err := json.Marshal(factory.NewPolicyFactory().ToJSON(p))
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO policies (name, config_json)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			config_json = EXCLUDED.config_json,
			version = policies.version + 1,
			updated_at = now()`,
		string(p.Name), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// Delete removes a policy. Deleting an absent policy is a no-op.
func (s *Policies) Delete(ctx context.Context, name generic.PolicyName) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM policies WHERE name = $1", string(name))
	return err
}

// Version returns how many times the policy was saved, 0 when absent.
func (s *Policies) Version(ctx context.Context, name generic.PolicyName) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx,
		"SELECT COALESCE((SELECT version FROM policies WHERE name = $1), 0)", string(name),
	).Scan(&version)
	return version, err
}

// LoadAll decodes and validates every stored policy, ordered by name.
func (s *Policies) LoadAll(ctx context.Context) ([]attendance.Policy, error) {
	rows, err := s.pool.Query(ctx, "SELECT name, config_json FROM policies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	f := factory.NewPolicyFactory()
	var policies []attendance.Policy
	for rows.Next() {
		var (
			name string
			data []byte
		)
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		var pj factory.PolicyJSON
		if err := json.Unmarshal(data, &pj); err != nil {
			return nil, fmt.Errorf("policy %s: corrupt config: %w", name, err)
		}
		p, err := f.FromJSON(pj)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", name, err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

var _ attendance.PolicyPersister = (*Policies)(nil)
