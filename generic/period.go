package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range used by leave requests and reports
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - A leave request from Apr 10 to Apr 12 (3 days)
//   - The month of May 2025 for a monthly report
//   - An overtime window chosen by the caller
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewPeriod validates that start is not after end.
func NewPeriod(start, end Date) (Period, error) {
	if start.After(end) {
		return Period{}, &ValidationError{
			Field:  "period",
			Reason: "start " + start.String() + " is after end " + end.String(),
		}
	}
	return Period{Start: start, End: end}, nil
}

func DayPeriod(d Date) Period { return Period{Start: d, End: d} }

func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Intersect returns the shared days of both ranges. ok is false when they
// do not overlap.
func (p Period) Intersect(other Period) (Period, bool) {
	if !p.Overlaps(other) {
		return Period{}, false
	}
	out := p
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out, true
}

// Len is the number of calendar days in the period; 1 when Start == End.
func (p Period) Len() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// WorkingDays counts the days that are workdays under calendar.
func (p Period) WorkingDays(calendar HolidayCalendar) int {
	n := 0
	for _, d := range p.Days() {
		if d.IsWorkdayWithHolidays(calendar) {
			n++
		}
	}
	return n
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
