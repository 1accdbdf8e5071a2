// Package export renders reports as spreadsheets and PDFs, and reads
// attendance observations back from spreadsheets. The engine packages never
// import it.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

var recordHeader = []any{
	"Employee", "Date", "Classification", "Check-in", "Check-out",
	"Worked hours", "Overtime hours", "Overtime pay", "Late (min)", "Early leave", "Policy",
}

// XLSX renders a report as a workbook with a Records and a Summary sheet.
func XLSX(r report.Report, s report.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(recordsSheet, "A1", &recordHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(recordsSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, o := range r.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := recordRow(o)
		if err := f.SetSheetRow(recordsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(recordsSheet, "A", "K", 15); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summaryRows := [][]any{
		{"Report", r.Title()},
		{"From", r.From.String()},
		{"To", r.To.String()},
		{"Records", s.RecordCount},
		{"Employees", s.EmployeeCount},
		{"Total hours", number(s.TotalHours)},
		{"Total overtime", number(s.TotalOvertime)},
		{"Total overtime pay", number(s.TotalOvertimePay)},
		{"Average hours per employee", number(s.AverageHoursPerEmployee.Round(2))},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func recordRow(o attendance.Outcome) []any {
	checkOut := ""
	if o.CheckOut != nil {
		checkOut = o.CheckOut.String()
	}
	var pay any = ""
	if o.OvertimePay != nil {
		pay = number(*o.OvertimePay)
	}
	return []any{
		string(o.EmployeeID),
		o.Date.String(),
		string(o.Classification),
		o.CheckIn.String(),
		checkOut,
		number(o.WorkedHours),
		number(o.OvertimeHours),
		pay,
		o.LateMinutes,
		o.EarlyLeave,
		string(o.Policy.Name),
	}
}

func number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// =============================================================================
// IMPORT
// =============================================================================

// ReadObservations reads the first sheet of a workbook laid out as
//
//	employee_id | date | check_in | check_out | worked_hours | policy
//
// The first row is a header. check_out and policy may be blank. Dates are
// accepted as 2006-01-02 text or as spreadsheet date serials.
func ReadObservations(r io.Reader) ([]attendance.Observation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, generic.Invalid("file", "not a readable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, generic.Invalid("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var out []attendance.Observation
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		obs, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func parseRow(row []string) (attendance.Observation, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	date, err := parseDateCell(col(1))
	if err != nil {
		return attendance.Observation{}, err
	}
	checkIn, err := generic.ParseTimeOfDay(col(2))
	if err != nil {
		return attendance.Observation{}, err
	}
	worked, err := decimal.NewFromString(col(4))
	if err != nil {
		return attendance.Observation{}, generic.Invalid("worked_hours", "%q is not a number", col(4))
	}

	obs := attendance.Observation{
		EmployeeID:  generic.EmployeeID(col(0)),
		Date:        date,
		CheckIn:     checkIn,
		WorkedHours: worked,
		PolicyName:  generic.PolicyName(col(5)),
	}
	if v := col(3); v != "" {
		checkOut, err := generic.ParseTimeOfDay(v)
		if err != nil {
			return attendance.Observation{}, err
		}
		obs.CheckOut = &checkOut
	}
	return obs, obs.Validate()
}

func parseDateCell(v string) (generic.Date, error) {
	if d, err := generic.ParseDate(v); err == nil {
		return d, nil
	}
	if serial, err := decimal.NewFromString(v); err == nil {
		f, _ := serial.Float64()
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return generic.DateOf(t), nil
		}
	}
	return generic.Date{}, generic.Invalid("date", "%q is not a date", v)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
