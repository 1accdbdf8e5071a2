package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/attendance-engine/report"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Employee", 28},
	{"Date", 24},
	{"Classification", 34},
	{"In", 14},
	{"Out", 14},
	{"Worked", 18},
	{"Overtime", 18},
	{"OT pay", 20},
	{"Late", 12},
}

// PDF renders a report as a single A4 table followed by the summary.
func PDF(r report.Report, s report.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title(), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, r.Title())
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, o := range r.Records {
		checkOut, pay := "", ""
		if o.CheckOut != nil {
			checkOut = o.CheckOut.String()
		}
		if o.OvertimePay != nil {
			pay = o.OvertimePay.StringFixed(2)
		}
		cells := []string{
			string(o.EmployeeID),
			o.Date.String(),
			string(o.Classification),
			o.CheckIn.String(),
			checkOut,
			o.WorkedHours.StringFixed(2),
			o.OvertimeHours.StringFixed(2),
			pay,
			fmt.Sprintf("%d", o.LateMinutes),
		}
		for i, c := range pdfColumns {
			align := "L"
			if i >= 5 {
				align = "R"
			}
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Period: %s to %s", r.From, r.To),
		fmt.Sprintf("Records: %d", s.RecordCount),
		fmt.Sprintf("Employees: %d", s.EmployeeCount),
		fmt.Sprintf("Total hours: %s", s.TotalHours.StringFixed(2)),
		fmt.Sprintf("Total overtime: %s", s.TotalOvertime.StringFixed(2)),
		fmt.Sprintf("Total overtime pay: %s", s.TotalOvertimePay.StringFixed(2)),
		fmt.Sprintf("Average hours per employee: %s", s.AverageHoursPerEmployee.StringFixed(2)),
	} {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
