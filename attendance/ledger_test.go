package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

func evaluated(t *testing.T, emp, date string, worked float64) attendance.Outcome {
	t.Helper()
	out, err := attendance.Evaluate(standard(), observe(emp, date, "09:00", worked))
	require.NoError(t, err)
	return out
}

// =============================================================================
// UNIQUENESS INVARIANT
// =============================================================================

func TestLedger_DuplicateDay_Rejected(t *testing.T) {
	// GIVEN: Employee 001 already has an outcome for 2025-05-02
	// WHEN: A second outcome for the same day is appended
	// THEN: DuplicateDayError, first record kept

	ledger := attendance.NewLedger(nil)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, evaluated(t, "001", "2025-05-02", 8)))

	err := ledger.Append(ctx, evaluated(t, "001", "2025-05-02", 10))
	var dupErr *attendance.DuplicateDayError
	require.ErrorAs(t, err, &dupErr)
	assert.ErrorIs(t, err, generic.ErrDuplicate)
	assert.Equal(t, generic.EmployeeID("001"), dupErr.EmployeeID)

	got, err := ledger.Get(ctx, "001", generic.MustParseDate("2025-05-02"))
	require.NoError(t, err)
	assert.Equal(t, attendance.Normal, got.Classification)
}

func TestLedger_SameDayDifferentEmployees(t *testing.T) {
	ledger := attendance.NewLedger(nil)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, evaluated(t, "001", "2025-05-02", 8)))
	require.NoError(t, ledger.Append(ctx, evaluated(t, "002", "2025-05-02", 8)))

	all, err := ledger.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestLedger_RangeOrderedByDateThenEmployee(t *testing.T) {
	ledger := attendance.NewLedger(attendance.NewMemoryStore())
	ctx := context.Background()

	for _, o := range []attendance.Outcome{
		evaluated(t, "002", "2025-05-06", 8),
		evaluated(t, "001", "2025-05-06", 8),
		evaluated(t, "003", "2025-05-05", 8),
		evaluated(t, "001", "2025-06-02", 8),
	} {
		require.NoError(t, ledger.Append(ctx, o))
	}

	got, err := ledger.Range(ctx, generic.MonthPeriod(2025, 5))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"003/2025-05-05", "001/2025-05-06", "002/2025-05-06"},
		[]string{got[0].Key(), got[1].Key(), got[2].Key()})

	mine, err := ledger.ForEmployee(ctx, "001", generic.YearPeriod(2025))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestLedger_Has(t *testing.T) {
	ledger := attendance.NewLedger(nil)
	ctx := context.Background()
	require.NoError(t, ledger.Append(ctx, evaluated(t, "001", "2025-05-02", 8)))

	has, err := ledger.Has(ctx, "001", generic.MustParseDate("2025-05-02"))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = ledger.Has(ctx, "001", generic.MustParseDate("2025-05-05"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedger_AppendValidates(t *testing.T) {
	ledger := attendance.NewLedger(nil)
	err := ledger.Append(context.Background(), attendance.Outcome{Date: generic.MustParseDate("2025-05-02")})
	assert.ErrorIs(t, err, generic.ErrValidation)
}
