package mailer

import (
	"fmt"
	"strings"

	"github.com/evacdesk/rollcall/internal/domain"
)

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	// SendDailyReport mails the day's attendance export. Called before a
	// reset wipes the day, so the records survive somewhere.
	SendDailyReport(toEmail, day string, records []domain.ExportRecord) error
}

// reportBody renders the export as CSV text and a small HTML table.
func reportBody(day string, records []domain.ExportRecord) (subject, text, html string) {
	subject = "Attendance report " + day

	var csv strings.Builder
	csv.WriteString("date,time_in,time_out,staff_code,first_name,last_name,work_area,type\n")
	var table strings.Builder
	table.WriteString("<table><tr><th>Date</th><th>In</th><th>Out</th><th>Code</th><th>Name</th><th>Area</th><th>Type</th></tr>")
	for _, r := range records {
		fmt.Fprintf(&csv, "%s,%s,%s,%s,%s,%s,%s,%s\n",
			r.Date, r.TimeIn, r.TimeOut, r.StaffCode, r.FirstName, r.LastName, r.WorkArea, r.Kind)
		fmt.Fprintf(&table, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s %s</td><td>%s</td><td>%s</td></tr>",
			r.Date, r.TimeIn, r.TimeOut, r.StaffCode, r.FirstName, r.LastName, r.WorkArea, r.Kind)
	}
	table.WriteString("</table>")

	text = fmt.Sprintf("Attendance records for %s (%d rows):\n\n%s", day, len(records), csv.String())
	html = fmt.Sprintf("<p>Attendance records for <b>%s</b> (%d rows):</p>%s", day, len(records), table.String())
	return subject, text, html
}
