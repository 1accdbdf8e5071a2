/*
report.go - Attendance reports and summaries

PURPOSE:
  Read-only views over the attendance ledger. A Report is a transient
  selection of outcomes; Summarize derives totals from it. Nothing here
  writes to the ledger.

SELECTIONS:
  ByDate          one calendar day
  ByMonth         one calendar month
  ByYear          one calendar year
  OvertimeInRange inclusive [from, to], only outcomes with overtime > 0

  Records are ordered by date, then employee.

SUMMARY:
  AverageHoursPerEmployee = TotalHours / distinct employees in the report.
  An employee with two records counts once in the denominator. An empty
  report averages to 0.

SEE ALSO:
  - attendance/ledger.go: the data source
  - report/export: XLSX and PDF renderings
*/
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

type Kind string

const (
	KindDaily    Kind = "daily"
	KindMonthly  Kind = "monthly"
	KindYearly   Kind = "yearly"
	KindOvertime Kind = "overtime"
)

// Report is an ordered selection of outcomes.
type Report struct {
	Kind    Kind                 `json:"kind"`
	From    generic.Date         `json:"from"`
	To      generic.Date         `json:"to"`
	Records []attendance.Outcome `json:"records"`
}

// Title is a human-readable heading for renderers.
func (r Report) Title() string {
	switch r.Kind {
	case KindDaily:
		return "Daily attendance " + r.From.String()
	case KindMonthly:
		return fmt.Sprintf("Monthly attendance %s %d", r.From.Month(), r.From.Year())
	case KindYearly:
		return fmt.Sprintf("Yearly attendance %d", r.From.Year())
	default:
		return fmt.Sprintf("Overtime %s to %s", r.From, r.To)
	}
}

type Summary struct {
	TotalHours              decimal.Decimal `json:"total_hours"`
	TotalOvertime           decimal.Decimal `json:"total_overtime"`
	TotalOvertimePay        decimal.Decimal `json:"total_overtime_pay"`
	RecordCount             int             `json:"record_count"`
	EmployeeCount           int             `json:"employee_count"`
	AverageHoursPerEmployee decimal.Decimal `json:"average_hours_per_employee"`
}

// EmployeeTotal is one employee's share of a report.
type EmployeeTotal struct {
	EmployeeID    generic.EmployeeID `json:"employee_id"`
	Days          int                `json:"days"`
	Hours         decimal.Decimal    `json:"hours"`
	OvertimeHours decimal.Decimal    `json:"overtime_hours"`
	OvertimePay   decimal.Decimal    `json:"overtime_pay"`
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Source is the slice of the attendance ledger reports need.
type Source interface {
	Range(ctx context.Context, period generic.Period) ([]attendance.Outcome, error)
}

type Aggregator struct {
	source Source
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

func (a *Aggregator) ByDate(ctx context.Context, d generic.Date) (Report, error) {
	if d.IsZero() {
		return Report{}, generic.Invalid("date", "must be set")
	}
	return a.selection(ctx, KindDaily, generic.DayPeriod(d), nil)
}

func (a *Aggregator) ByMonth(ctx context.Context, year int, month time.Month) (Report, error) {
	if month < time.January || month > time.December {
		return Report{}, generic.Invalid("month", "must be 1-12, got %d", int(month))
	}
	return a.selection(ctx, KindMonthly, generic.MonthPeriod(year, month), nil)
}

func (a *Aggregator) ByYear(ctx context.Context, year int) (Report, error) {
	return a.selection(ctx, KindYearly, generic.YearPeriod(year), nil)
}

// OvertimeInRange selects outcomes in [from, to] that carry overtime.
func (a *Aggregator) OvertimeInRange(ctx context.Context, from, to generic.Date) (Report, error) {
	period, err := generic.NewPeriod(from, to)
	if err != nil {
		return Report{}, err
	}
	return a.selection(ctx, KindOvertime, period, func(o attendance.Outcome) bool {
		return o.OvertimeHours.IsPositive()
	})
}

func (a *Aggregator) selection(ctx context.Context, kind Kind, period generic.Period, keep func(attendance.Outcome) bool) (Report, error) {
	outcomes, err := a.source.Range(ctx, period)
	if err != nil {
		return Report{}, fmt.Errorf("load %s report: %w", kind, err)
	}

	records := make([]attendance.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if keep == nil || keep(o) {
			records = append(records, o)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return attendance.Less(records[i], records[j]) })

	return Report{Kind: kind, From: period.Start, To: period.End, Records: records}, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

func Summarize(r Report) Summary {
	s := Summary{
		TotalHours:              decimal.Zero,
		TotalOvertime:           decimal.Zero,
		TotalOvertimePay:        decimal.Zero,
		AverageHoursPerEmployee: decimal.Zero,
		RecordCount:             len(r.Records),
	}
	employees := make(map[generic.EmployeeID]struct{})
	for _, o := range r.Records {
		s.TotalHours = s.TotalHours.Add(o.WorkedHours)
		s.TotalOvertime = s.TotalOvertime.Add(o.OvertimeHours)
		if o.OvertimePay != nil {
			s.TotalOvertimePay = s.TotalOvertimePay.Add(*o.OvertimePay)
		}
		employees[o.EmployeeID] = struct{}{}
	}
	s.EmployeeCount = len(employees)
	if s.EmployeeCount > 0 {
		s.AverageHoursPerEmployee = s.TotalHours.Div(decimal.NewFromInt(int64(s.EmployeeCount)))
	}
	return s
}

// ByEmployee breaks a report down per employee, ordered by employee id.
func ByEmployee(r Report) []EmployeeTotal {
	totals := make(map[generic.EmployeeID]*EmployeeTotal)
	for _, o := range r.Records {
		t, ok := totals[o.EmployeeID]
		if !ok {
			t = &EmployeeTotal{
				EmployeeID:    o.EmployeeID,
				Hours:         decimal.Zero,
				OvertimeHours: decimal.Zero,
				OvertimePay:   decimal.Zero,
			}
			totals[o.EmployeeID] = t
		}
		t.Days++
		t.Hours = t.Hours.Add(o.WorkedHours)
		t.OvertimeHours = t.OvertimeHours.Add(o.OvertimeHours)
		if o.OvertimePay != nil {
			t.OvertimePay = t.OvertimePay.Add(*o.OvertimePay)
		}
	}

	out := make([]EmployeeTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

// CountByClassification tallies records per classification.
func CountByClassification(r Report) map[attendance.Classification]int {
	counts := make(map[attendance.Classification]int)
	for _, o := range r.Records {
		counts[o.Classification]++
	}
	return counts
}
