package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/generic"
)

// PolicySource is the policy store as seen by the evaluator.
type PolicySource interface {
	Get(ctx context.Context, name generic.PolicyName) (Policy, error)
}

// PolicyPersister durably stores policy definitions. The registry writes
// through it before changing its in-memory copy.
type PolicyPersister interface {
	Save(ctx context.Context, p Policy) error
	Delete(ctx context.Context, name generic.PolicyName) error
}

// =============================================================================
// POLICY REGISTRY - Owned collection of policies keyed by name
// =============================================================================

// PolicyRegistry holds policies by name. Get hands out clones, so an
// evaluation never sees a policy change halfway through.
type PolicyRegistry struct {
	mu       sync.RWMutex
	policies map[generic.PolicyName]Policy

	persist PolicyPersister  // optional
	audit   generic.AuditLog // optional
	logger  *slog.Logger
}

// NewPolicyRegistry creates an empty registry. audit may be nil.
func NewPolicyRegistry(audit generic.AuditLog, logger *slog.Logger) *PolicyRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyRegistry{
		policies: make(map[generic.PolicyName]Policy),
		audit:    audit,
		logger:   logger,
	}
}

// SetPersister attaches durable storage. Call before serving requests.
func (r *PolicyRegistry) SetPersister(p PolicyPersister) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist = p
}

// Load fills the registry without writing through or auditing. Used to
// hydrate from durable storage at startup.
func (r *PolicyRegistry) Load(policies ...Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return err
		}
		r.policies[p.Name] = p.Clone()
	}
	return nil
}

// Add registers a new policy. Fails if the name is taken.
func (r *PolicyRegistry) Add(ctx context.Context, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	if _, exists := r.policies[p.Name]; exists {
		r.mu.Unlock()
		return generic.Duplicate("policy", string(p.Name))
	}
	if err := r.save(ctx, p); err != nil {
		r.mu.Unlock()
		return err
	}
	r.policies[p.Name] = p.Clone()
	r.mu.Unlock()

	r.record(ctx, generic.AuditPolicyCreated, p)
	return nil
}

// Put inserts or replaces a policy. Used by imports.
func (r *PolicyRegistry) Put(ctx context.Context, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	_, existed := r.policies[p.Name]
	if err := r.save(ctx, p); err != nil {
		r.mu.Unlock()
		return err
	}
	r.policies[p.Name] = p.Clone()
	r.mu.Unlock()

	action := generic.AuditPolicyCreated
	if existed {
		action = generic.AuditPolicyUpdated
	}
	r.record(ctx, action, p)
	return nil
}

func (r *PolicyRegistry) Get(_ context.Context, name generic.PolicyName) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return Policy{}, generic.NotFound("policy", string(name))
	}
	return p.Clone(), nil
}

// Update applies a partial update. The merged policy is validated before it
// replaces the stored one; on error nothing changes.
func (r *PolicyRegistry) Update(ctx context.Context, name generic.PolicyName, u PolicyUpdate) (Policy, error) {
	r.mu.Lock()
	current, ok := r.policies[name]
	if !ok {
		r.mu.Unlock()
		return Policy{}, generic.NotFound("policy", string(name))
	}
	next := current.Apply(u)
	if err := next.Validate(); err != nil {
		r.mu.Unlock()
		return Policy{}, err
	}
	if err := r.save(ctx, next); err != nil {
		r.mu.Unlock()
		return Policy{}, err
	}
	r.policies[name] = next
	r.mu.Unlock()

	r.record(ctx, generic.AuditPolicyUpdated, next)
	return next.Clone(), nil
}

// Remove deletes a policy. Recorded outcomes keep their own copy of the
// terms, so history is unaffected.
func (r *PolicyRegistry) Remove(ctx context.Context, name generic.PolicyName) error {
	r.mu.Lock()
	p, ok := r.policies[name]
	if !ok {
		r.mu.Unlock()
		return generic.NotFound("policy", string(name))
	}
	if r.persist != nil {
		if err := r.persist.Delete(ctx, name); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("failed to delete policy %s: %w", name, err)
		}
	}
	delete(r.policies, name)
	r.mu.Unlock()

	r.record(ctx, generic.AuditPolicyDeleted, p)
	return nil
}

// List returns clones of all policies ordered by name.
func (r *PolicyRegistry) List(_ context.Context) []Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// save must be called with r.mu held.
func (r *PolicyRegistry) save(ctx context.Context, p Policy) error {
	if r.persist == nil {
		return nil
	}
	if err := r.persist.Save(ctx, p); err != nil {
		return fmt.Errorf("failed to persist policy %s: %w", p.Name, err)
	}
	return nil
}

func (r *PolicyRegistry) record(ctx context.Context, action generic.AuditAction, p Policy) {
	if r.audit == nil {
		return
	}
	entry := generic.NewAuditEntry(action, "", "", string(p.Name))
	entry.Payload = map[string]any{
		"min_hours_per_day":   p.MinHoursPerDay.String(),
		"max_hours_per_day":   p.MaxHoursPerDay.String(),
		"overtime_multiplier": p.OvertimeMultiplier.String(),
	}
	if err := r.audit.Append(ctx, entry); err != nil {
		r.logger.Warn("policy audit append failed", "policy", p.Name, "action", action, "err", err)
	}
}

var _ PolicySource = (*PolicyRegistry)(nil)
