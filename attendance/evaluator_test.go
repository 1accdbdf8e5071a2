package attendance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func standard() attendance.Policy {
	return attendance.StandardPolicy("Standard")
}

func observe(emp, date, checkIn string, worked float64) attendance.Observation {
	return attendance.Observation{
		EmployeeID:  generic.EmployeeID(emp),
		Date:        generic.MustParseDate(date),
		CheckIn:     generic.MustParseTimeOfDay(checkIn),
		WorkedHours: generic.Hours(worked),
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, generic.MustParseDecimal(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestEvaluate_OvertimeOnFriday(t *testing.T) {
	// GIVEN: Standard policy 09:00-18:00, grace 0, min 4, max 8, x1.5
	// WHEN: Friday 2025-05-02, check-in 09:15, 9 hours worked, rate 20
	// THEN: Overtime of 1 hour paid at 1.5 x 20

	obs := observe("001", "2025-05-02", "09:15", 9)
	obs.BaseHourlyRate = generic.DecimalPtr(generic.Hours(20))

	out, err := attendance.Evaluate(standard(), obs)
	require.NoError(t, err)

	assert.Equal(t, attendance.Overtime, out.Classification)
	assertDecimal(t, "1", out.OvertimeHours)
	require.NotNil(t, out.OvertimePay)
	assertDecimal(t, "30", *out.OvertimePay)
	assert.True(t, out.Late, "09:15 is past a zero grace period")
	assert.Equal(t, 15, out.LateMinutes)
	assert.True(t, out.HasOvertime())
}

func TestEvaluate_HolidayIsNonWorkday(t *testing.T) {
	// GIVEN: 2025-05-01 declared a holiday
	// WHEN: Check-in 10:00 with 6 hours worked
	// THEN: NonWorkday regardless of hours

	policy := standard()
	policy.Holidays.Add(generic.MustParseDate("2025-05-01"))

	out, err := attendance.Evaluate(policy, observe("001", "2025-05-01", "10:00", 6))
	require.NoError(t, err)
	assert.Equal(t, attendance.NonWorkday, out.Classification)
	assert.True(t, out.OvertimeHours.IsZero())
	assert.Nil(t, out.OvertimePay)
	assert.True(t, out.Policy.OnHoliday)
}

func TestEvaluate_HolidayKeptOnOutcome(t *testing.T) {
	// GIVEN: An outcome evaluated on a declared holiday
	// WHEN: The holiday is later removed from the policy
	// THEN: The outcome still shows why it was a non-workday

	policy := standard()
	policy.Holidays.Add(generic.MustParseDate("2025-05-01"))
	out, err := attendance.Evaluate(policy, observe("001", "2025-05-01", "09:00", 8))
	require.NoError(t, err)

	policy.Holidays.Remove(generic.MustParseDate("2025-05-01"))
	assert.True(t, out.Policy.OnHoliday)
	assert.Equal(t, attendance.NonWorkday, out.Classification)

	weekday, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:00", 8))
	require.NoError(t, err)
	assert.False(t, weekday.Policy.OnHoliday)
}

func TestEvaluate_WeekendIsNonWorkday(t *testing.T) {
	// 2025-05-03 is a Saturday; even 12 hours is not overtime
	out, err := attendance.Evaluate(standard(), observe("001", "2025-05-03", "09:00", 12))
	require.NoError(t, err)
	assert.Equal(t, attendance.NonWorkday, out.Classification)
}

func TestEvaluate_Classifications(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		worked   float64
		expected attendance.Classification
	}{
		{"normal at min", "09:00", 4, attendance.Normal},
		{"normal at max", "09:00", 8, attendance.Normal},
		{"insufficient", "09:00", 3.5, attendance.InsufficientHours},
		{"overtime", "09:00", 8.5, attendance.Overtime},
		{"check-in before window", "08:59", 8, attendance.InvalidCheckIn},
		{"check-in after window", "18:01", 8, attendance.InvalidCheckIn},
		{"check-in at window end", "18:00", 8, attendance.Normal},
		{"late but tolerated", "11:00", 6, attendance.Normal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := attendance.Evaluate(standard(), observe("001", "2025-05-02", tt.checkIn, tt.worked))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Classification)
		})
	}
}

func TestEvaluate_InvalidCheckInOutranksHours(t *testing.T) {
	// Outside the window with 10 hours: InvalidCheckIn, no overtime figures
	out, err := attendance.Evaluate(standard(), observe("001", "2025-05-02", "07:00", 10))
	require.NoError(t, err)
	assert.Equal(t, attendance.InvalidCheckIn, out.Classification)
	assert.True(t, out.OvertimeHours.IsZero())
	assert.Nil(t, out.OvertimePay)
}

// =============================================================================
// LATE / EARLY LEAVE
// =============================================================================

func TestEvaluate_GracePeriod(t *testing.T) {
	policy := standard()
	policy.GracePeriodMinutes = 10

	onTime, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:10", 8))
	require.NoError(t, err)
	assert.False(t, onTime.Late)

	late, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:25", 8))
	require.NoError(t, err)
	assert.True(t, late.Late)
	assert.Equal(t, 15, late.LateMinutes)
	assert.Equal(t, attendance.Normal, late.Classification)
}

func TestEvaluate_RejectLateCheckIn(t *testing.T) {
	policy := standard()
	policy.GracePeriodMinutes = 10
	policy.RejectLateCheckIn = true

	out, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:11", 8))
	require.NoError(t, err)
	assert.Equal(t, attendance.InvalidCheckIn, out.Classification)
	assert.True(t, out.Late)
}

func TestEvaluate_EarlyLeave(t *testing.T) {
	// GIVEN: Check-out at 16:30, before the 18:00 end
	// WHEN: The policy tolerates early leave / then rejects it
	// THEN: Flag only / InvalidCheckIn

	obs := observe("001", "2025-05-02", "09:00", 7.5)
	checkOut := generic.MustParseTimeOfDay("16:30")
	obs.CheckOut = &checkOut

	out, err := attendance.Evaluate(standard(), obs)
	require.NoError(t, err)
	assert.True(t, out.EarlyLeave)
	assert.Equal(t, attendance.Normal, out.Classification)

	strict := standard()
	strict.RejectEarlyLeave = true
	out, err = attendance.Evaluate(strict, obs)
	require.NoError(t, err)
	assert.Equal(t, attendance.InvalidCheckIn, out.Classification)
}

// =============================================================================
// OVERTIME PAY
// =============================================================================

func TestEvaluate_OvertimePayRate(t *testing.T) {
	policy := standard()
	policy.BaseHourlyRate = generic.DecimalPtr(generic.Hours(10))

	t.Run("policy rate", func(t *testing.T) {
		out, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:00", 10))
		require.NoError(t, err)
		require.NotNil(t, out.OvertimePay)
		assertDecimal(t, "30", *out.OvertimePay) // 2h * 1.5 * 10
	})

	t.Run("observation rate overrides", func(t *testing.T) {
		obs := observe("001", "2025-05-02", "09:00", 10)
		obs.BaseHourlyRate = generic.DecimalPtr(generic.Hours(40))
		out, err := attendance.Evaluate(policy, obs)
		require.NoError(t, err)
		require.NotNil(t, out.OvertimePay)
		assertDecimal(t, "120", *out.OvertimePay)
	})

	t.Run("no rate", func(t *testing.T) {
		out, err := attendance.Evaluate(standard(), observe("001", "2025-05-02", "09:00", 10))
		require.NoError(t, err)
		assertDecimal(t, "2", out.OvertimeHours)
		assert.Nil(t, out.OvertimePay)
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestEvaluate_NegativeWorkedHours(t *testing.T) {
	_, err := attendance.Evaluate(standard(), observe("001", "2025-05-02", "09:00", -1))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestEvaluate_CheckOutBeforeCheckIn(t *testing.T) {
	obs := observe("001", "2025-05-02", "10:00", 1)
	checkOut := generic.MustParseTimeOfDay("09:00")
	obs.CheckOut = &checkOut

	_, err := attendance.Evaluate(standard(), obs)
	var ve *generic.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_out", ve.Field)
}

func TestEvaluate_InvalidPolicy(t *testing.T) {
	policy := standard()
	policy.MinHoursPerDay = generic.Hours(9)

	_, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:00", 8))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestEvaluate_SnapshotsPolicyTerms(t *testing.T) {
	policy := standard()
	out, err := attendance.Evaluate(policy, observe("001", "2025-05-02", "09:00", 8))
	require.NoError(t, err)

	policy.MaxHoursPerDay = generic.Hours(6)
	assert.Equal(t, generic.PolicyName("Standard"), out.Policy.Name)
	assertDecimal(t, "8", out.Policy.MaxHoursPerDay)
}
