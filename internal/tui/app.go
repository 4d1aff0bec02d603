// Package tui is the interactive timesheet: a week grid with a running
// timer, reports, the approval queue, projects and policy settings.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sheetr/internal/export"
	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timer"
	"github.com/sadopc/sheetr/internal/workflow"
)

// Deps are the services the TUI drives.
type Deps struct {
	Service   *workflow.Service
	Store     *store.Store
	Timer     *timer.Controller
	ExportDir string
	Now       func() time.Time
}

var exportFormats = []export.Format{export.CSV, export.JSON, export.PDF}

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	week      weekModel
	reports   reportsModel
	approvals approvalsModel
	projects  projectsModel
	settings  settingsModel

	help    help.Model
	status  string
	isError bool
}

func NewApp(ctx context.Context, d Deps) App {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := help.New()
	h.ShowAll = false

	return App{
		ctx:        ctx,
		deps:       d,
		activeView: viewWeek,
		week:       newWeekModel(ctx, d),
		reports:    newReportsModel(ctx, d),
		approvals:  newApprovalsModel(ctx, d.Service),
		projects:   newProjectsModel(ctx, d.Store),
		settings:   newSettingsModel(ctx, d),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.week.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.week.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.approvals.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewWeek)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewApprovals)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewProjects)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// The timer lives in the week view but ticks on every tab.
		a.week, _ = a.week.update(msg)
		return a, tickCmd()

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		var cmd tea.Cmd
		a.week, cmd = a.week.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported " + plural(msg.count, "entry", "entries") + " to " + msg.path
		a.isError = false
		return a, nil

	case weekLoadedMsg, entrySavedMsg, entryFailedMsg, entryDeletedMsg,
		submitPlanMsg, submittedMsg, timerLoadedMsg, timerStartedMsg, timerStoppedMsg:
		// Week data belongs to the week view whichever tab is showing.
		var cmd tea.Cmd
		a.week, cmd = a.week.update(msg)
		return a, cmd

	case autoApprovedMsg:
		var c1, c2 tea.Cmd
		a.week, c1 = a.week.update(msg)
		a.approvals, c2 = a.approvals.update(msg)
		return a, tea.Batch(c1, c2)

	case weekChangedMsg:
		var c1, c2 tea.Cmd
		a.week, c1 = a.week.update(msg)
		if a.activeView == viewReports {
			a.reports, c2 = a.reports.update(msg)
		}
		return a, tea.Batch(c1, c2)
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewReports {
		// Reports follow the week on screen.
		a.reports.week = a.week.week
	}
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewWeek:
		a.week, cmd = a.week.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewApprovals:
		a.approvals, cmd = a.approvals.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWeek:
		return a.week.formActive || a.week.confirm != confirmNone
	case viewApprovals:
		return a.approvals.formActive
	case viewProjects:
		return a.projects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewWeek:
		return a.week.load()
	case viewReports:
		return a.reports.refresh()
	case viewApprovals:
		return a.approvals.refresh()
	case viewProjects:
		return a.projects.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewWeek:
		content = a.week.render()
	case viewReports:
		content = a.reports.render()
	case viewApprovals:
		content = a.approvals.view()
	case viewProjects:
		content = a.projects.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("sheetr")
	user := mutedStyle.Render(" " + a.deps.Service.User())
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(user) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, user, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.isError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.week.timer.running() {
		timerInfo = successStyle.Render(" ● " + timer.Format(a.week.timer.elapsed))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export " + a.week.week.Label())
	rows := []string{title, ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the week on screen into the export directory.
func (a App) doExport(f export.Format) tea.Cmd {
	week := a.week.week
	svc := a.deps.Service
	return func() tea.Msg {
		view, err := svc.LoadWeek(a.ctx, week)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		r := export.NewReport(svc.User(), week, view.Entries, svc.Rules(), a.deps.Now())
		path, err := export.Write(r, f, a.deps.ExportDir, "")
		if err != nil {
			return statusMsg{text: "Export failed: " + err.Error(), isError: true}
		}
		return exportDoneMsg{path: path, count: len(view.Entries)}
	}
}
