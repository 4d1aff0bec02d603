package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

type reportMode int

const (
	reportWeek reportMode = iota
	reportTrend
)

// trendWeeks is how many weeks the trend chart covers, ending at the
// selected week.
const trendWeeks = 8

type reportsModel struct {
	ctx    context.Context
	svc    *workflow.Service
	store  *store.Store
	width  int
	height int

	mode   reportMode
	week   timesheet.Week
	view   workflow.WeekView
	totals []store.WeekTotal
	colors map[string]string

	chart barchart.Model
}

func newReportsModel(ctx context.Context, d Deps) reportsModel {
	return reportsModel{
		ctx:   ctx,
		svc:   d.Service,
		store: d.Store,
		week:  d.Service.CurrentWeek(),
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	view   workflow.WeekView
	totals []store.WeekTotal
	colors map[string]string
}

func (r reportsModel) trendRange() (timesheet.Date, timesheet.Date) {
	return r.week.Start.AddDays(-7 * (trendWeeks - 1)), r.week.End()
}

func (r reportsModel) refresh() tea.Cmd {
	week := r.week
	from, to := r.trendRange()
	return func() tea.Msg {
		view, err := r.svc.LoadWeek(r.ctx, week)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		totals, err := r.store.WeeklyTotals(r.ctx, r.svc.User(), from, to)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		projects, err := r.store.ListProjects(r.ctx, true)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		colors := make(map[string]string, len(projects))
		for _, p := range projects {
			colors[p.Name] = p.Color
		}
		return reportsDataMsg{view: view, totals: totals, colors: colors}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.view.Week != r.week {
			return r, nil
		}
		r.view = msg.view
		r.totals = msg.totals
		r.colors = msg.colors
		r.buildChart()
		return r, nil

	case weekChangedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.week = r.week.Prev()
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			r.week = r.week.Next()
			return r, r.refresh()
		case key.Matches(msg, keys.Today):
			r.week = r.svc.CurrentWeek()
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportWeek {
				r.mode = reportTrend
			} else {
				r.mode = reportWeek
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r reportsModel) projectStyle(name string) lipgloss.Style {
	if c, ok := r.colors[name]; ok && c != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return lipgloss.NewStyle().Foreground(colorSubtle)
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	if r.mode == reportTrend {
		r.chart.PushAll(r.trendBars())
	} else {
		r.chart.PushAll(r.dayBars())
	}
	r.chart.Draw()
}

// dayBars stacks each day's hours by project.
func (r reportsModel) dayBars() []barchart.BarData {
	var bars []barchart.BarData
	for _, day := range r.week.Days() {
		byProject := map[string]decimal.Decimal{}
		var order []string
		for _, e := range r.view.Entries {
			if e.WorkDate != day {
				continue
			}
			name := e.ProjectName
			if name == "" {
				name = timesheet.NoProject
			}
			if _, seen := byProject[name]; !seen {
				order = append(order, name)
			}
			byProject[name] = byProject[name].Add(e.Hours)
		}

		var values []barchart.BarValue
		for _, name := range order {
			values = append(values, barchart.BarValue{
				Name:  name,
				Value: byProject[name].InexactFloat64(),
				Style: r.projectStyle(name),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: day.Format("Mon 02"), Values: values})
	}
	return bars
}

// trendBars has one bar per week, including weeks with nothing logged.
func (r reportsModel) trendBars() []barchart.BarData {
	byWeek := make(map[string]decimal.Decimal, len(r.totals))
	for _, t := range r.totals {
		byWeek[t.WeekStart] = t.Hours
	}

	from, _ := r.trendRange()
	style := lipgloss.NewStyle().Foreground(colorPrimary)
	var bars []barchart.BarData
	for i := 0; i < trendWeeks; i++ {
		start := from.AddDays(7 * i)
		bars = append(bars, barchart.BarData{
			Label:  start.Format("Jan 02"),
			Values: []barchart.BarValue{{Name: "hours", Value: byWeek[start.String()].InexactFloat64(), Style: style}},
		})
	}
	return bars
}

func (r reportsModel) render() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("Week")
	trendTab := inactiveTabStyle.Render("Trend")
	if r.mode == reportWeek {
		weekTab = activeTabStyle.Render("Week")
	} else {
		trendTab = activeTabStyle.Render("Trend")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, trendTab)

	label := r.week.Label()
	if r.mode == reportTrend {
		from, to := r.trendRange()
		label = fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.Format("Jan 02, 2006"))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", mutedStyle.Render(label),
	)

	var body string
	if r.mode == reportTrend {
		body = r.renderTrendTable()
	} else {
		body = r.renderBreakdowns(w)
	}

	nav := mutedStyle.Render("  ←/→: week  t: this week  m: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", body, "", nav,
		),
	)
}

func (r reportsModel) renderBreakdowns(w int) string {
	s := r.view.Summary
	if s.EntryCount == 0 {
		return mutedStyle.Render("  No entries this week")
	}

	rows := []string{
		fmt.Sprintf("  Total %s  Billable %s (%s%%)  Non-billable %s  Utilization %s%%  Amount %s",
			highlightStyle.Render(formatHours(s.TotalHours)), formatHours(s.BillableHours), s.BillablePercent,
			formatHours(s.NonBillableHours), s.Utilization, s.TotalAmount.StringFixed(2)),
		"",
	}
	rows = append(rows, r.renderBreakdown("Project", s.ProjectBreakdown, w, true)...)
	rows = append(rows, "")
	rows = append(rows, r.renderBreakdown("Activity", s.ActivityBreakdown, w, false)...)
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderBreakdown(title string, items []timesheet.BreakdownItem, w int, colored bool) []string {
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-22s %10s %8s", title, "Hours", "Share"))}
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 42)))))
	for _, b := range items {
		dot := "●"
		if colored {
			dot = r.projectStyle(b.Label).Render(dot)
		}
		rows = append(rows, fmt.Sprintf("  %s %-20s %10s %7s%%", dot, truncate(b.Label, 20), formatHours(b.Hours), b.Percent))
	}
	return rows
}

func (r reportsModel) renderTrendTable() string {
	if len(r.totals) == 0 {
		return mutedStyle.Render("  No data for this period")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-12s %10s %8s", "Week of", "Hours", "Entries"))}
	for _, t := range r.totals {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %8d", t.WeekStart, formatHours(t.Hours), t.Entries))
	}
	return strings.Join(rows, "\n")
}
