/*
usage.go - Leave usage per leave type

PURPOSE:
  Summarizes how many working days an employee has taken, or asked for,
  within a period. Payroll and managers use it to see leave consumption
  next to the attendance reports.

COUNTING:
  Consumed: working days of approved requests
  Pending:  working days of requests still awaiting a decision
  Rejected and cancelled requests are not counted.

  Only the part of a request inside the period counts, so a request that
  spans new year is split between the two years. Weekends and the
  calendar's holidays are never counted.

EXAMPLE:
  usage, err := ledger.Usage(ctx, "001", generic.YearPeriod(2025), policy.Holidays)
  // usage.ByType["Vacation"].Consumed == 3

SEE ALSO:
  - ledger.go: where requests are created and decided
*/
package leave

import (
	"context"
	"sort"

	"github.com/warp/attendance-engine/generic"
)

// TypeUsage is the day count for a single leave type.
type TypeUsage struct {
	LeaveType string `json:"leave_type"`
	Consumed  int    `json:"consumed"`
	Pending   int    `json:"pending"`
	Requests  int    `json:"requests"`
}

// Usage is the leave taken by one employee within a period.
type Usage struct {
	EmployeeID generic.EmployeeID    `json:"employee_id"`
	Period     generic.Period        `json:"period"`
	ByType     map[string]*TypeUsage `json:"by_type"`
	Consumed   int                   `json:"consumed"`
	Pending    int                   `json:"pending"`
}

// Types returns the per-type lines sorted by leave type.
func (u Usage) Types() []TypeUsage {
	out := make([]TypeUsage, 0, len(u.ByType))
	for _, t := range u.ByType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out
}

// Usage counts the working days of employee's requests that fall in period.
func (l *Ledger) Usage(ctx context.Context, employee generic.EmployeeID, period generic.Period, cal generic.HolidayCalendar) (Usage, error) {
	if period.Start.After(period.End) {
		return Usage{}, generic.Invalid("period", "start %s is after end %s", period.Start, period.End)
	}
	reqs, err := l.store.List(ctx, Filter{EmployeeID: &employee, Overlaps: &period})
	if err != nil {
		return Usage{}, err
	}

	usage := Usage{
		EmployeeID: employee,
		Period:     period,
		ByType:     make(map[string]*TypeUsage),
	}
	for _, r := range reqs {
		if r.Status != StatusApproved && r.Status != StatusPending {
			continue
		}
		inside, ok := r.Period().Intersect(period)
		if !ok {
			continue
		}
		days := inside.WorkingDays(cal)

		line, ok := usage.ByType[r.LeaveType]
		if !ok {
			line = &TypeUsage{LeaveType: r.LeaveType}
			usage.ByType[r.LeaveType] = line
		}
		line.Requests++
		if r.Status == StatusApproved {
			line.Consumed += days
			usage.Consumed += days
		} else {
			line.Pending += days
			usage.Pending += days
		}
	}
	return usage, nil
}
