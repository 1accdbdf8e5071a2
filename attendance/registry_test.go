package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

func newRegistry(t *testing.T, policies ...attendance.Policy) (*attendance.PolicyRegistry, *store.AuditLog) {
	t.Helper()
	audit := store.NewAuditLog()
	reg := attendance.NewPolicyRegistry(audit, nil)
	for _, p := range policies {
		require.NoError(t, reg.Add(context.Background(), p))
	}
	return reg, audit
}

func TestPolicyRegistry_AddAndGet(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, standard())

	got, err := reg.Get(ctx, "Standard")
	require.NoError(t, err)
	assert.Equal(t, generic.NewTimeOfDay(9, 0), got.WorkStart)

	_, err = reg.Get(ctx, "Missing")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestPolicyRegistry_DuplicateName(t *testing.T) {
	reg, _ := newRegistry(t, standard())
	err := reg.Add(context.Background(), standard())
	assert.ErrorIs(t, err, generic.ErrDuplicate)
}

func TestPolicyRegistry_AddRejectsMinAboveMax(t *testing.T) {
	// GIVEN: A policy with min 9 > max 8
	// WHEN: Adding it
	// THEN: ValidationError, registry unchanged

	reg, _ := newRegistry(t)
	p := standard()
	p.MinHoursPerDay = generic.Hours(9)

	err := reg.Add(context.Background(), p)
	assert.ErrorIs(t, err, generic.ErrValidation)
	assert.Empty(t, reg.List(context.Background()))
}

func TestPolicyRegistry_PartialUpdate(t *testing.T) {
	// GIVEN: Standard policy
	// WHEN: Only max hours is updated to 9
	// THEN: Max changes; min, multiplier and window stay

	ctx := context.Background()
	reg, audit := newRegistry(t, standard())

	maxHours := generic.Hours(9)
	updated, err := reg.Update(ctx, "Standard", attendance.PolicyUpdate{MaxHoursPerDay: &maxHours})
	require.NoError(t, err)

	assertDecimal(t, "9", updated.MaxHoursPerDay)
	assertDecimal(t, "4", updated.MinHoursPerDay)
	assertDecimal(t, "1.5", updated.OvertimeMultiplier)
	assert.Equal(t, generic.NewTimeOfDay(18, 0), updated.WorkEnd)

	entries, err := audit.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditPolicyUpdated}})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPolicyRegistry_UpdateRejectedLeavesPolicyUnchanged(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, standard())

	minHours := generic.Hours(12)
	_, err := reg.Update(ctx, "Standard", attendance.PolicyUpdate{MinHoursPerDay: &minHours})
	assert.ErrorIs(t, err, generic.ErrValidation)

	got, err := reg.Get(ctx, "Standard")
	require.NoError(t, err)
	assertDecimal(t, "4", got.MinHoursPerDay)
}

func TestPolicyRegistry_UpdateUnknown(t *testing.T) {
	reg, _ := newRegistry(t)
	_, err := reg.Update(context.Background(), "Nope", attendance.PolicyUpdate{})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestPolicyRegistry_UpdateHolidays(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, standard())
	mayDay := generic.MustParseDate("2025-05-01")

	got, err := reg.Update(ctx, "Standard", attendance.PolicyUpdate{AddHolidays: []generic.Date{mayDay}})
	require.NoError(t, err)
	assert.True(t, got.Holidays.IsHoliday(mayDay))

	got, err = reg.Update(ctx, "Standard", attendance.PolicyUpdate{RemoveHolidays: []generic.Date{mayDay}})
	require.NoError(t, err)
	assert.False(t, got.Holidays.IsHoliday(mayDay))
}

func TestPolicyRegistry_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, standard())

	p, err := reg.Get(ctx, "Standard")
	require.NoError(t, err)
	p.Holidays.Add(generic.MustParseDate("2025-12-25"))

	again, err := reg.Get(ctx, "Standard")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Holidays.Len())
}

func TestPolicyRegistry_ListAndRemove(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, attendance.ShiftPolicy("Shift"), standard(), attendance.PartTimePolicy("Part Time"))

	names := []generic.PolicyName{}
	for _, p := range reg.List(ctx) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []generic.PolicyName{"Part Time", "Shift", "Standard"}, names)

	require.NoError(t, reg.Remove(ctx, "Shift"))
	assert.Len(t, reg.List(ctx), 2)
	assert.ErrorIs(t, reg.Remove(ctx, "Shift"), generic.ErrNotFound)
}

func TestPolicyRegistry_RemoveIsAudited(t *testing.T) {
	// GIVEN: A registry with an audit log
	// WHEN: A policy is removed, then removal of a missing one fails
	// THEN: Exactly one policy_deleted entry names the removed policy

	ctx := context.Background()
	reg, audit := newRegistry(t, attendance.ShiftPolicy("Shift"))

	require.NoError(t, reg.Remove(ctx, "Shift"))
	assert.ErrorIs(t, reg.Remove(ctx, "Shift"), generic.ErrNotFound)

	deleted, err := audit.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditPolicyDeleted}})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Shift", deleted[0].Subject)
}

func TestPolicy_ValidateWindow(t *testing.T) {
	p := standard()
	p.WorkStart = generic.NewTimeOfDay(18, 0)
	p.WorkEnd = generic.NewTimeOfDay(9, 0)

	var ve *generic.ValidationError
	require.ErrorAs(t, p.Validate(), &ve)
	assert.Equal(t, "work_window", ve.Field)
}

func TestPresets_AreValid(t *testing.T) {
	for _, p := range []attendance.Policy{
		attendance.StandardPolicy("a"),
		attendance.FlexiblePolicy("b"),
		attendance.PartTimePolicy("c"),
		attendance.ShiftPolicy("d"),
	} {
		assert.NoError(t, p.Validate(), p.Name)
	}
}

type flakyPersister struct {
	saved map[generic.PolicyName]attendance.Policy
	fail  bool
}

func (f *flakyPersister) Save(_ context.Context, p attendance.Policy) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.saved[p.Name] = p
	return nil
}

func (f *flakyPersister) Delete(_ context.Context, name generic.PolicyName) error {
	if f.fail {
		return errors.New("disk full")
	}
	delete(f.saved, name)
	return nil
}

func TestPolicyRegistry_WriteThrough(t *testing.T) {
	// GIVEN: A registry backed by a persister
	// WHEN: The persister starts failing
	// THEN: The in-memory registry keeps its previous state

	ctx := context.Background()
	reg, _ := newRegistry(t)
	persist := &flakyPersister{saved: make(map[generic.PolicyName]attendance.Policy)}
	reg.SetPersister(persist)

	require.NoError(t, reg.Add(ctx, standard()))
	assert.Contains(t, persist.saved, generic.PolicyName("Standard"))

	persist.fail = true
	grace := 10
	_, err := reg.Update(ctx, "Standard", attendance.PolicyUpdate{GracePeriodMinutes: &grace})
	require.Error(t, err)
	assert.Error(t, reg.Remove(ctx, "Standard"))
	assert.Error(t, reg.Add(ctx, attendance.FlexiblePolicy("Flexible")))

	got, err := reg.Get(ctx, "Standard")
	require.NoError(t, err)
	assert.Equal(t, 0, got.GracePeriodMinutes)
	assert.Len(t, reg.List(ctx), 1)
}

func TestPolicyRegistry_LoadSkipsAudit(t *testing.T) {
	ctx := context.Background()
	reg, audit := newRegistry(t)
	require.NoError(t, reg.Load(standard(), attendance.PartTimePolicy("Part Time")))

	entries, err := audit.Query(ctx, generic.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Len(t, reg.List(ctx), 2)

	bad := standard()
	bad.Name = ""
	assert.ErrorIs(t, reg.Load(bad), generic.ErrValidation)
}
