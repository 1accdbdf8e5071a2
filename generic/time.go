package generic

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day (attendance and leave are day-granular)
// =============================================================================

// Date is a calendar day, normalized to midnight UTC so that two Dates for the
// same day compare equal with == and can be used as map keys.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid("date", "%q is not a YYYY-MM-DD date", s)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and presets.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsWorkday() bool       { return !d.IsWeekend() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// IsWorkdayWithHolidays reports whether d is a working day under calendar.
// A nil calendar means weekends are the only non-working days.
func (d Date) IsWorkdayWithHolidays(calendar HolidayCalendar) bool {
	if d.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(d) {
		return false
	}
	return true
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the whole number of days from `from` to `to`.
// Negative when to is before from.
// Counted from Unix seconds, so spans beyond time.Duration's range stay exact.
func DaysBetween(from, to Date) int { return int((to.t.Unix() - from.t.Unix()) / 86400) }

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

// =============================================================================
// TIME OF DAY - Wall-clock minute within a day (work window, check-in)
// =============================================================================

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, Invalid("time", "%q is not an HH:MM time", s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int                        { return int(t) / 60 }
func (t TimeOfDay) Minute() int                      { return int(t) % 60 }
func (t TimeOfDay) AddMinutes(n int) TimeOfDay       { return t + TimeOfDay(n) }
func (t TimeOfDay) Before(other TimeOfDay) bool      { return t < other }
func (t TimeOfDay) After(other TimeOfDay) bool       { return t > other }
func (t TimeOfDay) MinutesAfter(other TimeOfDay) int { return int(t - other) }
func (t TimeOfDay) Valid() bool                      { return t >= 0 && t < minutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayCalendar answers whether a day is a declared holiday.
type HolidayCalendar interface {
	IsHoliday(date Date) bool
}

// HolidaySet is a set of declared holidays. The zero value is an empty set
// that must be initialized with NewHolidaySet before Add.
type HolidaySet map[Date]struct{}

func NewHolidaySet(dates ...Date) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s HolidaySet) Add(d Date)            { s[d] = struct{}{} }
func (s HolidaySet) Remove(d Date)         { delete(s, d) }
func (s HolidaySet) IsHoliday(d Date) bool { _, ok := s[d]; return ok }
func (s HolidaySet) Len() int              { return len(s) }

// Dates returns the holidays in ascending order.
func (s HolidaySet) Dates() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s HolidaySet) Clone() HolidaySet {
	return NewHolidaySet(s.Dates()...)
}

var _ HolidayCalendar = HolidaySet(nil)
