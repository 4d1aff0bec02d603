package export

import (
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/sadopc/sheetr/internal/timesheet"
)

var stripe = &color.Color{Red: 240, Green: 240, Blue: 240}

func tableProps(grid []uint) props.TableList {
	return props.TableList{
		HeaderProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		ContentProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		Align:                consts.Left,
		AlternatedBackground: stripe,
		HeaderContentSpace:   1,
		Line:                 false,
	}
}

// ToPDF renders a printable timesheet: header, entry table, per-day totals
// and the summary figures.
func ToPDF(r Report, path string) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Weekly Timesheet", props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("%s  |  %s  |  %s", r.User, r.Week.Label(), r.Summary.Status), props.Text{
					Top:   2,
					Align: consts.Center,
					Size:  11,
				})
			})
		})
	})

	section(m, "Entries")
	if len(r.Entries) == 0 {
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text("No entries for this week.", props.Text{Size: 10, Style: consts.Italic})
			})
		})
	} else {
		rows := make([][]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			rows = append(rows, []string{
				e.WorkDate.Format("Mon 01/02"),
				project(e),
				e.Description,
				e.Hours.StringFixed(2),
				e.Status.String(),
			})
		}
		m.TableList([]string{"Date", "Project", "Description", "Hours", "Status"}, rows, tableProps([]uint{2, 2, 5, 1, 2}))
	}

	section(m, "Daily totals")
	days := make([][]string, 0, len(r.Summary.Days))
	for _, d := range r.Summary.Days {
		days = append(days, []string{d.Date.Format("Monday 01/02"), fmt.Sprint(d.Entries), d.Hours.StringFixed(2)})
	}
	m.TableList([]string{"Day", "Entries", "Hours"}, days, tableProps([]uint{6, 3, 3}))

	section(m, "Summary")
	s := r.Summary
	lines := [][]string{
		{"Total hours", s.TotalHours.StringFixed(2)},
		{"Billable hours", fmt.Sprintf("%s (%s%%)", s.BillableHours.StringFixed(2), s.BillablePercent.String())},
		{"Non-billable hours", s.NonBillableHours.StringFixed(2)},
		{"Billable amount", s.TotalAmount.StringFixed(2)},
		{"Utilization", s.Utilization.String() + "%"},
	}
	for _, item := range s.ProjectBreakdown {
		lines = append(lines, []string{"Project: " + item.Label, breakdownCell(item)})
	}
	for _, item := range s.ActivityBreakdown {
		lines = append(lines, []string{"Activity: " + item.Label, breakdownCell(item)})
	}
	m.TableList([]string{"", ""}, lines, tableProps([]uint{6, 6}))

	m.Row(12, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Generated %s", r.GeneratedAt.Format("2006-01-02 15:04 MST")), props.Text{
				Top:   6,
				Align: consts.Right,
				Size:  8,
			})
		})
	})

	if err := m.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf file: %w", err)
	}
	return nil
}

func section(m pdf.Maroto, title string) {
	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(title, props.Text{
				Top:   5,
				Style: consts.Bold,
				Size:  12,
			})
		})
	})
}

func breakdownCell(item timesheet.BreakdownItem) string {
	return fmt.Sprintf("%s h (%s%%)", item.Hours.StringFixed(2), item.Percent.String())
}
