package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timer"
	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmSubmit
	confirmDelete
)

type (
	weekLoadedMsg struct {
		view     workflow.WeekView
		projects []store.Project
	}

	entrySavedMsg struct {
		entry *timesheet.Entry
		kind  formKind
	}

	entryFailedMsg struct {
		err error
	}

	entryDeletedMsg struct {
		entry timesheet.Entry
	}

	submitPlanMsg struct {
		plan workflow.SubmitPlan
	}

	submittedMsg struct {
		result workflow.SubmitResult
	}

	autoApprovedMsg struct {
		count int
	}
)

type weekModel struct {
	ctx    context.Context
	svc    *workflow.Service
	store  *store.Store
	timer  timerModel
	width  int
	height int

	week     timesheet.Week
	view     workflow.WeekView
	loaded   bool
	projects []store.Project
	cursor   int

	formActive bool
	form       *huh.Form
	entry      *entryForm

	confirm    confirmKind
	plan       workflow.SubmitPlan
	target     timesheet.Entry
	submitting bool
}

func newWeekModel(ctx context.Context, d Deps) weekModel {
	return weekModel{
		ctx:   ctx,
		svc:   d.Service,
		store: d.Store,
		timer: newTimerModel(ctx, d.Timer),
		week:  d.Service.CurrentWeek(),
	}
}

func (w weekModel) Init() tea.Cmd {
	return tea.Batch(w.load(), w.timer.load())
}

func (w *weekModel) setSize(width, height int) {
	w.width = width
	w.height = height
}

func (w weekModel) load() tea.Cmd {
	week := w.week
	return func() tea.Msg {
		view, err := w.svc.LoadWeek(w.ctx, week)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		projects, err := w.store.ListProjects(w.ctx, false)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return weekLoadedMsg{view: view, projects: projects}
	}
}

// locked is the client-side week gate. An unloaded week is not locked; the
// service checks again on create.
func (w weekModel) locked() bool { return w.loaded && w.view.Locked() }

func (w weekModel) selected() (timesheet.Entry, bool) {
	if w.cursor < 0 || w.cursor >= len(w.view.Entries) {
		return timesheet.Entry{}, false
	}
	return w.view.Entries[w.cursor], true
}

// defaultDate is where a new entry lands: today inside the current week,
// otherwise the Monday of the week on screen.
func (w weekModel) defaultDate() timesheet.Date {
	today := w.svc.Today()
	if w.week.Contains(today) {
		return today
	}
	return w.week.Start
}

func (w weekModel) update(msg tea.Msg) (weekModel, tea.Cmd) {
	if _, ok := msg.(tickMsg); ok {
		w.timer = w.timer.update(msg)
		return w, nil
	}
	if w.formActive && w.form != nil {
		return w.updateForm(msg)
	}

	switch msg := msg.(type) {
	case weekLoadedMsg:
		// A late reply for a week we already navigated away from.
		if msg.view.Week != w.week {
			return w, nil
		}
		w.view = msg.view
		w.projects = msg.projects
		w.loaded = true
		if w.cursor >= len(w.view.Entries) {
			w.cursor = max(0, len(w.view.Entries)-1)
		}
		return w, nil

	case weekChangedMsg:
		return w, w.load()

	case timerLoadedMsg, timerStartedMsg:
		w.timer = w.timer.update(msg)
		return w, nil

	case timerStoppedMsg:
		w.timer = w.timer.update(msg)
		status := "Timer stopped after " + timer.Format(msg.result.Elapsed)
		if msg.result.Hours.IsZero() {
			return w, statusCmd(status + ", nothing to log")
		}
		return w.logTimer(msg.result.Hours.String(), status)

	case entrySavedMsg:
		w.entry = nil
		w.form = nil
		return w, tea.Batch(w.load(), statusCmd(savedText(msg)))

	case entryFailedMsg:
		// Reopen the form with what the user typed.
		if w.entry != nil {
			w.form = w.entry.build(w.projects)
			w.formActive = true
			return w, tea.Batch(errorCmd(msg.err), w.form.Init())
		}
		return w, errorCmd(msg.err)

	case entryDeletedMsg:
		return w, tea.Batch(w.load(), statusCmd("Deleted entry on "+msg.entry.WorkDate.Format("Mon Jan 02")))

	case submitPlanMsg:
		w.plan = msg.plan
		w.confirm = confirmSubmit
		return w, nil

	case submittedMsg:
		w.submitting = false
		if msg.result.View.Week == w.week {
			w.view = msg.result.View
		}
		text := fmt.Sprintf("Submitted %d entries. Week status: %s", msg.result.Submitted, w.view.Summary.Status)
		return w, tea.Batch(statusCmd(text), func() tea.Msg { return weekChangedMsg{} })

	case autoApprovedMsg:
		text := "Nothing to approve."
		if msg.count > 0 {
			text = fmt.Sprintf("Auto-approved %d entries.", msg.count)
		}
		return w, tea.Batch(statusCmd(text), func() tea.Msg { return weekChangedMsg{} })

	case statusMsg:
		if msg.isError {
			w.submitting = false
		}
		return w, nil

	case tea.KeyMsg:
		if w.confirm != confirmNone {
			return w.updateConfirm(msg)
		}
		return w.updateKeys(msg)
	}
	return w, nil
}

func (w weekModel) updateKeys(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if w.cursor > 0 {
			w.cursor--
		}
	case key.Matches(msg, keys.Down):
		if w.cursor < len(w.view.Entries)-1 {
			w.cursor++
		}
	case key.Matches(msg, keys.Left):
		return w.goTo(w.week.Prev())
	case key.Matches(msg, keys.Right):
		return w.goTo(w.week.Next())
	case key.Matches(msg, keys.Today):
		return w.goTo(w.svc.CurrentWeek())

	case key.Matches(msg, keys.New):
		if w.locked() {
			return w, errorCmd(&timesheet.WeekLockedError{Week: w.week})
		}
		return w.openForm(newEntryForm(w.defaultDate()))

	case key.Matches(msg, keys.Edit):
		e, ok := w.selected()
		if !ok {
			return w, nil
		}
		if !timesheet.CanEdit(e) {
			return w, errorCmd(fmt.Errorf("%s entries cannot be edited", e.Status))
		}
		return w.openForm(editEntryForm(e))

	case key.Matches(msg, keys.Copy):
		e, ok := w.selected()
		if !ok {
			return w, nil
		}
		return w.openForm(copyEntryForm(e, w.defaultDate()))

	case key.Matches(msg, keys.Delete):
		e, ok := w.selected()
		if !ok {
			return w, nil
		}
		if !timesheet.CanDelete(e) {
			return w, errorCmd(fmt.Errorf("%s entries cannot be deleted", e.Status))
		}
		w.target = e
		w.confirm = confirmDelete
		return w, nil

	case key.Matches(msg, keys.Submit):
		if w.submitting || w.svc.Busy(workflow.OpSubmitWeek) {
			return w, statusCmd("Submission already in progress")
		}
		return w, w.prepareSubmit()

	case key.Matches(msg, keys.AutoApprove):
		return w, autoApprove(w.ctx, w.svc)

	case key.Matches(msg, keys.Start):
		if w.timer.running() {
			return w, statusCmd("Timer already running")
		}
		return w, w.timer.start()

	case key.Matches(msg, keys.Stop):
		if !w.timer.running() {
			return w, errorCmd(timer.ErrNotRunning)
		}
		return w, w.timer.stop()
	}
	return w, nil
}

func (w weekModel) updateConfirm(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	kind := w.confirm
	switch {
	case key.Matches(msg, keys.Yes):
		w.confirm = confirmNone
		if kind == confirmSubmit {
			w.submitting = true
			return w, w.executeSubmit(w.plan)
		}
		return w, w.deleteEntry(w.target)
	case key.Matches(msg, keys.No):
		w.confirm = confirmNone
		if kind == confirmSubmit {
			return w, statusCmd("Submission cancelled")
		}
		return w, nil
	}
	return w, nil
}

func (w weekModel) goTo(week timesheet.Week) (weekModel, tea.Cmd) {
	w.week = week
	w.cursor = 0
	w.loaded = false
	return w, w.load()
}

func (w weekModel) openForm(f *entryForm) (weekModel, tea.Cmd) {
	w.entry = f
	w.form = f.build(w.projects)
	w.formActive = true
	return w, w.form.Init()
}

// logTimer opens a new entry for today prefilled with the stopped timer's
// hours. Nothing is logged until the form is completed.
func (w weekModel) logTimer(hours, status string) (weekModel, tea.Cmd) {
	if w.locked() && w.week.Contains(w.svc.Today()) {
		return w, statusCmd(status + ". Week is locked, hours not logged.")
	}
	f := newEntryForm(w.svc.Today())
	f.hours = hours
	var cmd tea.Cmd
	w, cmd = w.openForm(f)
	return w, tea.Batch(cmd, statusCmd(status))
}

func (w weekModel) updateForm(msg tea.Msg) (weekModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		w.formActive = false
		w.form = nil
		w.entry = nil
		return w, nil
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	switch w.form.State {
	case huh.StateCompleted:
		w.formActive = false
		return w, w.saveEntry(w.entry)
	case huh.StateAborted:
		w.formActive = false
		w.form = nil
		return w, nil
	}
	return w, cmd
}

func (w weekModel) saveEntry(f *entryForm) tea.Cmd {
	return func() tea.Msg {
		var (
			e   *timesheet.Entry
			err error
		)
		switch f.kind {
		case formCopy:
			var date timesheet.Date
			if date, err = f.workDate(); err == nil {
				e, err = w.svc.CopyEntry(w.ctx, f.base.ID, date)
			}
		case formEdit:
			var d timesheet.Draft
			if d, err = f.draft(); err == nil {
				e, err = w.svc.UpdateEntry(w.ctx, *f.base, d)
			}
		default:
			var d timesheet.Draft
			if d, err = f.draft(); err == nil {
				e, err = w.svc.CreateEntry(w.ctx, d)
			}
		}
		if err != nil {
			return entryFailedMsg{err: err}
		}
		return entrySavedMsg{entry: e, kind: f.kind}
	}
}

func savedText(msg entrySavedMsg) string {
	verb := "Added"
	switch msg.kind {
	case formEdit:
		verb = "Updated"
	case formCopy:
		verb = "Copied"
	}
	return fmt.Sprintf("%s %s on %s", verb, formatHours(msg.entry.Hours), msg.entry.WorkDate.Format("Mon Jan 02"))
}

func (w weekModel) deleteEntry(e timesheet.Entry) tea.Cmd {
	return func() tea.Msg {
		if err := w.svc.DeleteEntry(w.ctx, e); err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return entryDeletedMsg{entry: e}
	}
}

func (w weekModel) prepareSubmit() tea.Cmd {
	week := w.week
	return func() tea.Msg {
		plan, err := w.svc.PrepareSubmit(w.ctx, week)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return submitPlanMsg{plan: plan}
	}
}

func (w weekModel) executeSubmit(plan workflow.SubmitPlan) tea.Cmd {
	return func() tea.Msg {
		res, err := w.svc.ExecuteSubmit(w.ctx, plan)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return submittedMsg{result: res}
	}
}

func autoApprove(ctx context.Context, svc *workflow.Service) tea.Cmd {
	return func() tea.Msg {
		n, err := svc.AutoApprove(ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return autoApprovedMsg{count: n}
	}
}

func (w weekModel) render() string {
	if w.width < 20 {
		return "Terminal too small"
	}
	width := w.width - 4

	if w.formActive && w.form != nil {
		title := titleStyle.Render(w.entry.kind.title())
		return activePanelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", w.form.View()))
	}

	timerPanel := panelStyle.Width(width).Padding(0, 2).Render(w.timer.view())

	var bottom string
	switch w.confirm {
	case confirmSubmit:
		bottom = w.renderSubmitConfirm(width)
	case confirmDelete:
		bottom = w.renderDeleteConfirm(width)
	default:
		bottom = w.renderSummary(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, w.renderEntries(width), bottom)
}

func (w weekModel) renderEntries(width int) string {
	s := w.view.Summary
	header := titleStyle.Render("Week "+w.week.Label()) + "  " +
		weekStatusStyle(s.Status).Render(string(s.Status))
	if w.locked() {
		header += "  " + warningStyle.Render("LOCKED")
	}
	if w.submitting {
		header += "  " + mutedStyle.Render("submitting…")
	}

	style := panelStyle
	if w.locked() {
		style = lockedPanelStyle
	}

	if !w.loaded {
		return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading…")))
	}
	if len(w.view.Entries) == 0 {
		return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("No entries this week. Press n to add one.")))
	}

	descWidth := max(10, width-56)
	rows := []string{header, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %6s  %-10s %-16s %s", "Day", "Hours", "Status", "Project", "Description")))
	for i, e := range w.view.Entries {
		cursor := "  "
		lineStyle := normalItemStyle
		if i == w.cursor {
			cursor = "> "
			lineStyle = selectedItemStyle
		}
		project := e.ProjectName
		if project == "" {
			project = "-"
		}
		line := lineStyle.Render(fmt.Sprintf("%s%-10s %6s  ", cursor, e.WorkDate.Format("Mon 01/02"), e.Hours.StringFixed(2))) +
			statusStyle(e.Status).Render(fmt.Sprintf("%-10s", e.Status)) + " " +
			lineStyle.Render(fmt.Sprintf("%-16s %s", truncate(project, 16), truncate(e.Description, descWidth)))
		if e.Status == timesheet.StatusRejected && e.RejectionReason != "" {
			line += "\n" + errorStyle.Render("      ↳ "+truncate(e.RejectionReason, width-10))
		}
		rows = append(rows, line)
	}
	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (w weekModel) renderSummary(width int) string {
	s := w.view.Summary
	var days []string
	for _, d := range s.Days {
		label := d.Date.Format("Mon")
		value := d.Hours.StringFixed(1)
		switch {
		case d.Entries == 0:
			days = append(days, mutedStyle.Render(label+" "+value))
		case d.Hours.GreaterThan(w.svc.Rules().HighHoursPerDay):
			days = append(days, warningStyle.Render(label+" "+value))
		default:
			days = append(days, highlightStyle.Render(label+" "+value))
		}
	}

	totals := fmt.Sprintf("Total %s  Billable %s (%s%%)  Amount %s",
		highlightStyle.Render(formatHours(s.TotalHours)),
		formatHours(s.BillableHours), s.BillablePercent, s.TotalAmount.StringFixed(2))

	rows := []string{strings.Join(days, "  "), "", totals}
	rows = append(rows, renderCheck(w.view.Check)...)
	if p := w.svc.Policy(); p.RootLevel.CanAutoApprove() {
		rows = append(rows, successStyle.Render(fmt.Sprintf("%d entries can be auto-approved. Press A.", p.RootLevel.PendingCount)))
	}
	if w.locked() {
		rows = append(rows, warningStyle.Render("Week is locked: no new entries until an entry is rejected."))
	}
	return panelStyle.Width(width).Render(strings.Join(rows, "\n"))
}

func renderCheck(c timesheet.WeekCheck) []string {
	var rows []string
	for _, msg := range c.Errors {
		rows = append(rows, errorStyle.Render("✗ "+msg))
	}
	if c.Overtime {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("! overtime: %s over the threshold", formatHours(c.OvertimeHours))))
	}
	for _, d := range c.HighHoursDays {
		rows = append(rows, warningStyle.Render("! high hours on "+d.Format("Mon Jan 02")))
	}
	if len(c.MissingDays) > 0 {
		names := make([]string, len(c.MissingDays))
		for i, d := range c.MissingDays {
			names[i] = d.Format("Mon")
		}
		rows = append(rows, mutedStyle.Render("! no entries on "+strings.Join(names, ", ")))
	}
	return rows
}

func (w weekModel) renderSubmitConfirm(width int) string {
	p := w.plan
	rows := []string{
		titleStyle.Render("Submit week " + p.Week.Label() + "?"),
		"",
		fmt.Sprintf("%d draft entries, %s of %s this week", p.EntryCount, formatHours(p.Hours), formatHours(p.WeekHours)),
	}
	rows = append(rows, renderCheck(p.Check)...)
	rows = append(rows, "", mutedStyle.Render("Submitted entries are locked until reviewed."),
		mutedStyle.Render("  y: submit  n: cancel"))
	return activePanelStyle.Width(width).Render(strings.Join(rows, "\n"))
}

func (w weekModel) renderDeleteConfirm(width int) string {
	e := w.target
	rows := []string{
		titleStyle.Render("Delete entry?"),
		"",
		fmt.Sprintf("%s  %s  %s", e.WorkDate.Format("Mon Jan 02"), formatHours(e.Hours), truncate(e.Description, width-30)),
		"",
		mutedStyle.Render("  y: delete  n: cancel"),
	}
	return activePanelStyle.Width(width).Render(strings.Join(rows, "\n"))
}
