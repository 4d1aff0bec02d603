package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

func printEntries(out io.Writer, entries []timesheet.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No entries.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tHOURS\tSTATUS\tPROJECT\tDESCRIPTION")
	for _, e := range entries {
		project := e.ProjectName
		if project == "" {
			project = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.WorkDate.Format("Mon 2006-01-02"), e.Hours.StringFixed(2), e.Status, project, truncate(e.Description, 48))
	}
	_ = w.Flush()
}

func printWeek(out io.Writer, v workflow.WeekView) {
	s := v.Summary
	_, _ = fmt.Fprintf(out, "Week %s  [%s]\n\n", v.Week.Label(), s.Status)
	printEntries(out, v.Entries)
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range s.Days {
		_, _ = fmt.Fprintf(w, "%s\t%s h\t%d entries\n", d.Date.Format("Mon 01/02"), d.Hours.StringFixed(2), d.Entries)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintf(out, "Total: %s h  Billable: %s h (%s%%)  Utilization: %s%%  Amount: %s\n",
		s.TotalHours.StringFixed(2), s.BillableHours.StringFixed(2), s.BillablePercent, s.Utilization, s.TotalAmount.StringFixed(2))
	for _, b := range s.ProjectBreakdown {
		_, _ = fmt.Fprintf(out, "  %-20s %6s h  %s%%\n", b.Label, b.Hours.StringFixed(2), b.Percent)
	}

	printCheck(out, v.Check)
	if v.Locked() {
		_, _ = fmt.Fprintln(out, "Week is locked: no new entries until an entry is rejected.")
	}
}

func printCheck(out io.Writer, c timesheet.WeekCheck) {
	for _, msg := range c.Errors {
		_, _ = fmt.Fprintf(out, "  ✗ %s\n", msg)
	}
	if c.Overtime {
		_, _ = fmt.Fprintf(out, "  ! overtime: %s h over the threshold\n", c.OvertimeHours.StringFixed(2))
	}
	for _, d := range c.HighHoursDays {
		_, _ = fmt.Fprintf(out, "  ! high hours on %s\n", d)
	}
	if len(c.MissingDays) > 0 {
		days := make([]string, len(c.MissingDays))
		for i, d := range c.MissingDays {
			days[i] = d.Format("Mon")
		}
		_, _ = fmt.Fprintf(out, "  ! no entries on %s\n", strings.Join(days, ", "))
	}
}

func printPlan(out io.Writer, p workflow.SubmitPlan) {
	_, _ = fmt.Fprintf(out, "Submitting %d entries (%s h) for %s\n", p.EntryCount, p.Hours.StringFixed(2), p.Week.Label())
	printCheck(out, p.Check)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printPending(out io.Writer, entries []timesheet.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No entries awaiting review.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSER\tDATE\tHOURS\tDESCRIPTION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.UserID, e.WorkDate, e.Hours.StringFixed(2), truncate(e.Description, 48))
	}
	_ = w.Flush()
}
