package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timer"
	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

// fixture wires the real store, service and timer against an in-memory
// database and a clock the test can move.
type fixture struct {
	ctx   context.Context
	now   time.Time
	store *store.Store
	svc   *workflow.Service
	timer *timer.Controller
	deps  Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx: context.Background(),
		now: time.Date(2025, 3, 7, 15, 0, 0, 0, time.Local),
	}

	st, err := store.NewMemory(store.WithClock(f.clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	f.store = st
	f.svc = f.serviceFor(t, "alice")
	f.timer = timer.New(st, "alice", timer.WithClock(f.clock))
	f.deps = Deps{
		Service:   f.svc,
		Store:     st,
		Timer:     f.timer,
		ExportDir: t.TempDir(),
		Now:       f.clock,
	}
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) serviceFor(t *testing.T, user string) *workflow.Service {
	t.Helper()
	svc := workflow.New(f.store, f.store, user, workflow.WithClock(f.clock))
	_, err := svc.RefreshPolicy(f.ctx)
	require.NoError(t, err)
	return svc
}

func (f *fixture) add(t *testing.T, svc *workflow.Service, date, hours, desc string) *timesheet.Entry {
	t.Helper()
	e, err := svc.CreateEntry(f.ctx, timesheet.Draft{
		WorkDate:    timesheet.MustParseDate(date),
		Hours:       decimal.RequireFromString(hours),
		Description: desc,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) fullWeek(t *testing.T) {
	t.Helper()
	for _, d := range []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07"} {
		f.add(t, f.svc, d, "8", "Platform migration work")
	}
}

func (f *fixture) week(t *testing.T) weekModel {
	t.Helper()
	w := newWeekModel(f.ctx, f.deps)
	w.setSize(120, 36)
	w, _ = w.update(single(t, w.load()))
	require.True(t, w.loaded)
	return w
}

func press(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// run executes cmd and flattens batches. Only use it on commands that do no
// blocking I/O beyond the store: never on form Init or tick commands.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func single(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func findStatus(msgs []tea.Msg) (statusMsg, bool) {
	for _, m := range msgs {
		if s, ok := m.(statusMsg); ok {
			return s, true
		}
	}
	return statusMsg{}, false
}

func hasMsg[T any](msgs []tea.Msg) bool {
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			return true
		}
	}
	return false
}

// ============================================================
// App
// ============================================================

func TestNewApp(t *testing.T) {
	f := newFixture(t)
	app := NewApp(f.ctx, f.deps)

	assert.Equal(t, viewWeek, app.activeView)
	assert.False(t, app.showHelp)
	assert.False(t, app.exportPicking)
	assert.NotNil(t, app.deps.Now)
	assert.Equal(t, "2025-03-03", app.week.week.Start.String())
}

func TestAppLoadingState(t *testing.T) {
	f := newFixture(t)
	app := NewApp(f.ctx, f.deps)
	assert.Equal(t, "Loading...", app.View())
}

func sized(t *testing.T, f *fixture) App {
	t.Helper()
	m, _ := NewApp(f.ctx, f.deps).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func TestAppRendersEveryView(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)

	for i, name := range viewNames {
		app.activeView = viewState(i)
		v := app.View()
		assert.NotEmpty(t, v, name)
		assert.Contains(t, v, "sheetr", name)
	}
}

func TestAppHeaderTabs(t *testing.T) {
	f := newFixture(t)
	header := sized(t, f).renderHeader()
	for _, name := range viewNames {
		assert.Contains(t, header, name)
	}
	assert.Contains(t, header, "alice")
}

func TestAppFooterStatus(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)

	m, _ := app.Update(statusMsg{text: "Something broke", isError: true})
	app = m.(App)
	assert.True(t, app.isError)
	assert.Contains(t, app.renderFooter(), "Something broke")

	m, _ = app.Update(statusMsg{text: "All good"})
	app = m.(App)
	assert.False(t, app.isError)
	assert.Contains(t, app.renderFooter(), "All good")
}

func TestAppTabSwitching(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)

	m, _ := app.Update(press("left"))
	app = m.(App)
	prev := app.week.week
	assert.Equal(t, "2025-02-24", prev.Start.String())

	m, cmd := app.Update(press("2"))
	app = m.(App)
	assert.Equal(t, viewReports, app.activeView)
	assert.Equal(t, prev, app.reports.week, "reports follow the week on screen")
	assert.True(t, hasMsg[reportsDataMsg](run(cmd)))

	m, _ = app.Update(press("tab"))
	app = m.(App)
	assert.Equal(t, viewApprovals, app.activeView)

	m, _ = app.Update(press("5"))
	app = m.(App)
	assert.Equal(t, viewSettings, app.activeView)

	m, _ = app.Update(press("tab"))
	assert.Equal(t, viewWeek, m.(App).activeView, "tab wraps around")
}

func TestAppHelpToggle(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)

	m, _ := app.Update(press("?"))
	app = m.(App)
	assert.True(t, app.showHelp)
	assert.True(t, app.help.ShowAll)
}

func TestAppConfirmBlocksGlobalKeys(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)
	app.week.confirm = confirmSubmit

	m, _ := app.Update(press("2"))
	assert.Equal(t, viewWeek, m.(App).activeView)
}

func TestAppWeekMessagesRouteFromAnyTab(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-05", "3", "Sprint planning session")
	app := sized(t, f)
	app.activeView = viewProjects

	msg := single(t, app.week.load())
	m, _ := app.Update(msg)
	app = m.(App)
	assert.True(t, app.week.loaded)
	assert.Len(t, app.week.view.Entries, 1)
}

func TestAppExportPicker(t *testing.T) {
	f := newFixture(t)
	app := sized(t, f)

	m, _ := app.Update(press("E"))
	app = m.(App)
	require.True(t, app.exportPicking)
	assert.Contains(t, app.View(), "Export")

	m, _ = app.Update(press("j"))
	app = m.(App)
	assert.Equal(t, 1, app.exportCursor)

	m, _ = app.Update(press("esc"))
	app = m.(App)
	assert.False(t, app.exportPicking)
}

func TestAppExport(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-04", "6.5", "Wrote export tests")
	app := sized(t, f)

	for _, format := range exportFormats {
		msg := single(t, app.doExport(format))
		done, ok := msg.(exportDoneMsg)
		require.True(t, ok, "%s: %#v", format, msg)
		assert.Equal(t, 1, done.count)
		assert.FileExists(t, done.path)
		assert.True(t, strings.HasPrefix(done.path, f.deps.ExportDir))
	}

	m, _ := app.Update(exportDoneMsg{path: "/tmp/x.csv", count: 1})
	assert.Equal(t, "Exported 1 entry to /tmp/x.csv", m.(App).status)
}

// ============================================================
// Helpers
// ============================================================

func TestErrorText(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateEntry(f.ctx, timesheet.Draft{
		WorkDate: timesheet.MustParseDate("2025-03-04"),
		Hours:    decimal.Zero,
	})
	require.Error(t, err)
	text := errorText(err)
	assert.True(t, strings.HasPrefix(text, "Error: "))
	assert.Contains(t, text, "(+1 more)")

	assert.Equal(t, "Error: boom", errorText(errors.New("boom")))
}

func TestPluralAndTruncate(t *testing.T) {
	assert.Equal(t, "1 entry", plural(1, "entry", "entries"))
	assert.Equal(t, "3 entries", plural(3, "entry", "entries"))
	assert.Equal(t, "0 entries", plural(0, "entry", "entries"))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long …", truncate("long text", 6))
	assert.Equal(t, "anything", truncate("anything", 0))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "7.50h", formatHours(decimal.RequireFromString("7.5")))
	assert.Equal(t, "0.00h", formatHours(decimal.Zero))
}

// ============================================================
// Timer
// ============================================================

func TestTimerStartTickStop(t *testing.T) {
	f := newFixture(t)
	tm := newTimerModel(f.ctx, f.timer)
	assert.False(t, tm.running())
	assert.Contains(t, tm.view(), "00:00:00")

	tm = tm.update(single(t, tm.start()))
	require.True(t, tm.running())

	f.now = f.now.Add(90 * time.Minute)
	tm = tm.update(tickMsg(f.now))
	assert.Equal(t, 90*time.Minute, tm.elapsed)
	assert.Contains(t, tm.view(), "01:30:00")

	msg := single(t, tm.stop())
	stopped, ok := msg.(timerStoppedMsg)
	require.True(t, ok)
	assert.Equal(t, "1.5", stopped.result.Hours.String())

	tm = tm.update(stopped)
	assert.False(t, tm.running())
	assert.Zero(t, tm.elapsed)
}

func TestTimerPicksUpRunningSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.timer.Start(f.ctx)
	require.NoError(t, err)
	f.now = f.now.Add(10 * time.Minute)

	tm := newTimerModel(f.ctx, f.timer)
	tm = tm.update(single(t, tm.load()))
	assert.True(t, tm.running())
	assert.Equal(t, 10*time.Minute, tm.elapsed)

	// Starting again adopts the persisted session instead of failing.
	msg := single(t, tm.start())
	loaded, ok := msg.(timerLoadedMsg)
	require.True(t, ok)
	require.NotNil(t, loaded.session)
}

// ============================================================
// Entry form
// ============================================================

func TestEntryFormDraft(t *testing.T) {
	f := newEntryForm(timesheet.MustParseDate("2025-03-04"))
	f.hours = " 2.25 "
	f.description = "  Pairing on the parser  "
	f.projectID = 3
	f.billable = true

	d, err := f.draft()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", d.WorkDate.String())
	assert.Equal(t, "2.25", d.Hours.String())
	assert.Equal(t, "Pairing on the parser", d.Description)
	require.NotNil(t, d.ProjectID)
	assert.Equal(t, int64(3), *d.ProjectID)
	assert.True(t, d.Billable)
	assert.Nil(t, d.TaskID)
}

func TestEntryFormDraftErrors(t *testing.T) {
	f := newEntryForm(timesheet.MustParseDate("2025-03-04"))
	f.hours = "lots"
	_, err := f.draft()
	assert.True(t, timesheet.IsValidation(err))

	f.hours = "1"
	f.date = "04/03/2025"
	_, err = f.draft()
	assert.True(t, timesheet.IsValidation(err))

	assert.Error(t, validateDate("tomorrow"))
	assert.NoError(t, validateDate("2025-03-04"))
	assert.Error(t, validateHours("x"))
	assert.NoError(t, validateHours("0.5"))
}

func TestEditFormKeepsTaskOnlyForSameProject(t *testing.T) {
	pid, tid := int64(2), int64(9)
	e := timesheet.Entry{
		WorkDate:    timesheet.MustParseDate("2025-03-04"),
		Hours:       decimal.NewFromInt(3),
		Description: "Incident review",
		ProjectID:   &pid,
		TaskID:      &tid,
	}

	f := editEntryForm(e)
	assert.Equal(t, formEdit, f.kind)
	assert.Equal(t, int64(2), f.projectID)
	d, err := f.draft()
	require.NoError(t, err)
	require.NotNil(t, d.TaskID)
	assert.Equal(t, tid, *d.TaskID)

	f.projectID = 4
	d, err = f.draft()
	require.NoError(t, err)
	assert.Nil(t, d.TaskID)
}

// ============================================================
// Week
// ============================================================

func TestWeekLoad(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-03", "4", "Backlog grooming")
	f.add(t, f.svc, "2025-03-04", "5", "Release preparation")

	w := f.week(t)
	assert.Len(t, w.view.Entries, 2)
	assert.False(t, w.locked())

	v := w.render()
	assert.Contains(t, v, "Mar 03 - Mar 09, 2025")
	assert.Contains(t, v, "Backlog grooming")
	assert.Contains(t, v, "9.00h")
}

func TestWeekIgnoresStaleLoad(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-03", "4", "Backlog grooming")
	w := f.week(t)

	stale := single(t, w.load())
	w, cmd := w.update(press("left"))
	assert.False(t, w.loaded)
	require.NotNil(t, cmd)

	w, _ = w.update(stale)
	assert.False(t, w.loaded, "reply for the old week is dropped")

	w, _ = w.update(single(t, cmd))
	assert.True(t, w.loaded)
	assert.Empty(t, w.view.Entries)
	assert.Equal(t, "2025-02-24", w.week.Start.String())
}

func TestWeekCreateEntry(t *testing.T) {
	f := newFixture(t)
	w := f.week(t)

	w, _ = w.update(press("n"))
	require.True(t, w.formActive)
	require.NotNil(t, w.entry)
	assert.Equal(t, formCreate, w.entry.kind)
	assert.Equal(t, "2025-03-07", w.entry.date, "defaults to today in the current week")

	w.entry.hours = "7.5"
	w.entry.description = "Quarterly planning"
	msg := single(t, w.saveEntry(w.entry))
	saved, ok := msg.(entrySavedMsg)
	require.True(t, ok, "%#v", msg)
	assert.Equal(t, "Added 7.50h on Fri Mar 07", savedText(saved))

	w.formActive = false
	w, cmd := w.update(saved)
	assert.Nil(t, w.entry)
	msgs := run(cmd)
	assert.True(t, hasMsg[weekLoadedMsg](msgs))

	view, err := f.svc.LoadWeek(f.ctx, w.week)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, timesheet.StatusDraft, view.Entries[0].Status)
}

func TestWeekSaveFailureKeepsInput(t *testing.T) {
	f := newFixture(t)
	w := f.week(t)

	w, _ = w.update(press("n"))
	w.entry.hours = "30"
	w.entry.description = "Too long a day"
	msg := single(t, w.saveEntry(w.entry))
	failed, ok := msg.(entryFailedMsg)
	require.True(t, ok)
	assert.True(t, timesheet.IsValidation(failed.err))

	w.formActive = false
	w, _ = w.update(failed)
	assert.True(t, w.formActive, "form reopens")
	assert.Equal(t, "30", w.entry.hours)
	assert.Equal(t, "Too long a day", w.entry.description)
}

func TestWeekEditAndCopy(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-04", "3", "Code review backlog")
	w := f.week(t)

	w, _ = w.update(press("e"))
	require.True(t, w.formActive)
	assert.Equal(t, formEdit, w.entry.kind)
	w.entry.hours = "4"
	saved, ok := single(t, w.saveEntry(w.entry)).(entrySavedMsg)
	require.True(t, ok)
	assert.Equal(t, "4", saved.entry.Hours.String())
	w, _ = w.update(press("esc"))
	assert.False(t, w.formActive)

	w, _ = w.update(press("c"))
	require.True(t, w.formActive)
	assert.Equal(t, formCopy, w.entry.kind)
	w.entry.date = "2025-03-05"
	copied, ok := single(t, w.saveEntry(w.entry)).(entrySavedMsg)
	require.True(t, ok)
	assert.Equal(t, "2025-03-05", copied.entry.WorkDate.String())
	assert.Equal(t, "Code review backlog", copied.entry.Description)
	assert.Equal(t, timesheet.StatusDraft, copied.entry.Status)
}

func TestWeekDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-04", "3", "Code review backlog")
	w := f.week(t)

	w, _ = w.update(press("d"))
	require.Equal(t, confirmDelete, w.confirm)
	assert.Contains(t, w.render(), "Delete entry?")

	w, cmd := w.update(press("n"))
	assert.Equal(t, confirmNone, w.confirm)
	assert.Nil(t, cmd)

	w, _ = w.update(press("d"))
	w, cmd = w.update(press("y"))
	msg := single(t, cmd)
	_, ok := msg.(entryDeletedMsg)
	require.True(t, ok, "%#v", msg)

	view, err := f.svc.LoadWeek(f.ctx, w.week)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
}

func TestWeekSubmitFlow(t *testing.T) {
	f := newFixture(t)
	f.fullWeek(t)
	w := f.week(t)

	w, cmd := w.update(press("u"))
	plan, ok := single(t, cmd).(submitPlanMsg)
	require.True(t, ok)
	assert.Equal(t, 5, plan.plan.EntryCount)

	w, _ = w.update(plan)
	require.Equal(t, confirmSubmit, w.confirm)
	v := w.render()
	assert.Contains(t, v, "Submit week Mar 03 - Mar 09, 2025?")
	assert.Contains(t, v, "40.00h")

	w, cmd = w.update(press("y"))
	assert.True(t, w.submitting)
	submitted, ok := single(t, cmd).(submittedMsg)
	require.True(t, ok)

	w, cmd = w.update(submitted)
	assert.False(t, w.submitting)
	assert.True(t, w.locked())
	msgs := run(cmd)
	status, ok := findStatus(msgs)
	require.True(t, ok)
	assert.Equal(t, "Submitted 5 entries. Week status: SUBMITTED", status.text)
	assert.True(t, hasMsg[weekChangedMsg](msgs))
	assert.Contains(t, w.render(), "LOCKED")

	// Locked: no new entries, no edits.
	w, cmd = w.update(press("n"))
	assert.False(t, w.formActive)
	status, ok = findStatus(run(cmd))
	require.True(t, ok)
	assert.True(t, status.isError)
	assert.Contains(t, status.text, "under review")

	w, cmd = w.update(press("e"))
	assert.False(t, w.formActive)
	status, _ = findStatus(run(cmd))
	assert.True(t, status.isError)
}

func TestWeekSubmitCancelled(t *testing.T) {
	f := newFixture(t)
	f.fullWeek(t)
	w := f.week(t)

	w, cmd := w.update(press("u"))
	w, _ = w.update(single(t, cmd))
	w, cmd = w.update(press("n"))
	assert.Equal(t, confirmNone, w.confirm)
	status, ok := findStatus(run(cmd))
	require.True(t, ok)
	assert.Equal(t, "Submission cancelled", status.text)

	view, err := f.svc.LoadWeek(f.ctx, w.week)
	require.NoError(t, err)
	assert.Equal(t, timesheet.WeekDraft, view.Summary.Status)
}

func TestWeekSubmitBlockedByRules(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.svc, "2025-03-04", "3", "Fixes")
	w := f.week(t)

	w, cmd := w.update(press("u"))
	status, ok := single(t, cmd).(statusMsg)
	require.True(t, ok)
	assert.True(t, status.isError)
	assert.Contains(t, status.text, "description")
	assert.Equal(t, confirmNone, w.confirm)
}

func TestWeekTimerLogsEntry(t *testing.T) {
	f := newFixture(t)
	w := f.week(t)

	w, cmd := w.update(press("s"))
	w, _ = w.update(single(t, cmd))
	require.True(t, w.timer.running())

	f.now = f.now.Add(45 * time.Minute)
	w, _ = w.update(tickMsg(f.now))
	assert.Equal(t, 45*time.Minute, w.timer.elapsed)

	w, cmd = w.update(press("x"))
	stopped, ok := single(t, cmd).(timerStoppedMsg)
	require.True(t, ok)

	w, _ = w.update(stopped)
	assert.False(t, w.timer.running())
	require.True(t, w.formActive)
	assert.Equal(t, "0.75", w.entry.hours)
	assert.Equal(t, "2025-03-07", w.entry.date)
}

func TestWeekStopWithoutTimer(t *testing.T) {
	f := newFixture(t)
	w := f.week(t)

	_, cmd := w.update(press("x"))
	status, ok := single(t, cmd).(statusMsg)
	require.True(t, ok)
	assert.True(t, status.isError)
}

func TestWeekAutoApprove(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SetRootLevel(f.ctx, "alice", true))
	f.fullWeek(t)
	_, err := f.svc.SubmitWeek(f.ctx, f.svc.CurrentWeek(), workflow.ConfirmFunc(func(context.Context, workflow.SubmitPlan) (bool, error) {
		return true, nil
	}))
	require.NoError(t, err)

	w := f.week(t)
	assert.Contains(t, w.render(), "5 entries can be auto-approved")

	w, cmd := w.update(press("A"))
	done, ok := single(t, cmd).(autoApprovedMsg)
	require.True(t, ok)
	assert.Equal(t, 5, done.count)

	_, cmd = w.update(done)
	status, _ := findStatus(run(cmd))
	assert.Equal(t, "Auto-approved 5 entries.", status.text)

	view, err := f.svc.LoadWeek(f.ctx, w.week)
	require.NoError(t, err)
	assert.Equal(t, timesheet.WeekApproved, view.Summary.Status)
}

// ============================================================
// Approvals
// ============================================================

func submittedByBob(t *testing.T, f *fixture) *timesheet.Entry {
	t.Helper()
	bob := f.serviceFor(t, "bob")
	e := f.add(t, bob, "2025-03-03", "6", "Customer escalation")
	_, err := bob.SubmitWeek(f.ctx, bob.CurrentWeek(), workflow.ConfirmFunc(func(context.Context, workflow.SubmitPlan) (bool, error) {
		return true, nil
	}))
	require.NoError(t, err)
	return e
}

func TestApprovalsApprove(t *testing.T) {
	f := newFixture(t)
	e := submittedByBob(t, f)

	a := newApprovalsModel(f.ctx, f.svc)
	a.setSize(120, 36)
	a, _ = a.update(single(t, a.refresh()))
	require.Len(t, a.entries, 1)
	assert.Contains(t, a.view(), "bob")

	a, cmd := a.update(press("a"))
	reviewed, ok := single(t, cmd).(reviewedMsg)
	require.True(t, ok)
	assert.True(t, reviewed.approved)

	_, cmd = a.update(reviewed)
	msgs := run(cmd)
	status, _ := findStatus(msgs)
	assert.Equal(t, "Approved bob's entry on Mon Mar 03", status.text)

	got, err := f.svc.GetEntry(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, got.Status)
	assert.Equal(t, "alice", got.ApprovedBy)
}

func TestApprovalsReject(t *testing.T) {
	f := newFixture(t)
	e := submittedByBob(t, f)

	a := newApprovalsModel(f.ctx, f.svc)
	a, _ = a.update(single(t, a.refresh()))

	a, _ = a.update(press("r"))
	require.True(t, a.formActive)
	assert.Equal(t, e.ID, a.rejecting.ID)

	reviewed, ok := single(t, a.reject(e.ID, "Split this across two days")).(reviewedMsg)
	require.True(t, ok)
	assert.False(t, reviewed.approved)

	got, err := f.svc.GetEntry(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, got.Status)
	assert.Equal(t, "Split this across two days", got.RejectionReason)

	a, _ = a.update(press("esc"))
	assert.False(t, a.formActive)
}

func TestApprovalsHideOwnEntries(t *testing.T) {
	f := newFixture(t)
	f.fullWeek(t)
	_, err := f.svc.SubmitWeek(f.ctx, f.svc.CurrentWeek(), workflow.ConfirmFunc(func(context.Context, workflow.SubmitPlan) (bool, error) {
		return true, nil
	}))
	require.NoError(t, err)

	a := newApprovalsModel(f.ctx, f.svc)
	a.setSize(120, 36)
	a, _ = a.update(single(t, a.refresh()))
	assert.Empty(t, a.entries)
	assert.Contains(t, a.view(), "No entries awaiting review.")
}

// ============================================================
// Reports
// ============================================================

func TestReportsRefresh(t *testing.T) {
	f := newFixture(t)
	p, err := f.store.CreateProject(f.ctx, store.ProjectInput{Name: "Acme", Color: "#2EC4B6", Billable: true})
	require.NoError(t, err)
	_, err = f.svc.CreateEntry(f.ctx, timesheet.Draft{
		WorkDate:    timesheet.MustParseDate("2025-03-04"),
		Hours:       decimal.NewFromInt(5),
		Description: "Acme integration",
		ProjectID:   &p.ID,
		Billable:    true,
	})
	require.NoError(t, err)
	f.add(t, f.svc, "2025-03-05", "2", "Internal sync")

	r := newReportsModel(f.ctx, f.deps)
	r.setSize(120, 36)
	r, _ = r.update(single(t, r.refresh()))
	assert.Equal(t, "#2EC4B6", r.colors["Acme"])

	bars := r.dayBars()
	require.Len(t, bars, 7)
	require.Len(t, bars[1].Values, 1)
	assert.Equal(t, "Acme", bars[1].Values[0].Name)
	assert.Equal(t, 5.0, bars[1].Values[0].Value)
	assert.Equal(t, timesheet.NoProject, bars[2].Values[0].Name)

	v := r.render()
	assert.Contains(t, v, "Acme")
	assert.Contains(t, v, "7.00h")

	r, _ = r.update(press("m"))
	assert.Equal(t, reportTrend, r.mode)
	assert.Contains(t, r.render(), "Week of")
}

func TestReportsTrendBars(t *testing.T) {
	f := newFixture(t)
	r := newReportsModel(f.ctx, f.deps)
	r.totals = []store.WeekTotal{
		{WeekStart: "2025-03-03", Hours: decimal.NewFromInt(16), Entries: 2},
		{WeekStart: "2025-02-17", Hours: decimal.NewFromInt(8), Entries: 1},
	}

	bars := r.trendBars()
	require.Len(t, bars, trendWeeks)
	assert.Equal(t, "Jan 13", bars[0].Label)
	assert.Equal(t, 16.0, bars[7].Values[0].Value)
	assert.Equal(t, 8.0, bars[5].Values[0].Value)
	assert.Zero(t, bars[6].Values[0].Value)
}

func TestReportsIgnoreOtherWeek(t *testing.T) {
	f := newFixture(t)
	r := newReportsModel(f.ctx, f.deps)
	msg := single(t, r.refresh())

	r, _ = r.update(press("left"))
	r, _ = r.update(msg)
	assert.True(t, r.view.Week.Start.IsZero(), "reply for the old week is dropped")
	assert.Equal(t, "2025-02-24", r.week.Start.String())
}

// ============================================================
// Projects
// ============================================================

func TestProjectFieldsInput(t *testing.T) {
	f := &projectFields{}
	f.reset()
	assert.Equal(t, projectColors[0], f.color)
	assert.Equal(t, projectCategories[0], f.category)

	f.name = "  Acme  "
	f.rate = "120.50"
	in, err := f.input()
	require.NoError(t, err)
	assert.Equal(t, "Acme", in.Name)
	require.NotNil(t, in.BillingRate)
	assert.Equal(t, "120.5", in.BillingRate.String())

	f.rate = "lots"
	_, err = f.input()
	assert.Error(t, err)

	assert.NoError(t, validateRate(""))
	assert.NoError(t, validateRate("95"))
	assert.Error(t, validateRate("-1"))
	assert.Error(t, validateRate("abc"))
}

func TestProjectsCreateAndTasks(t *testing.T) {
	f := newFixture(t)
	p := newProjectsModel(f.ctx, f.store)
	p.setSize(120, 36)

	p.fields.name = "Acme"
	p.fields.client = "Acme Corp"
	p.fields.rate = "100"
	p.formType = formNewProject
	saved, ok := single(t, p.saveForm()).(projectSavedMsg)
	require.True(t, ok)
	assert.Equal(t, "Created project Acme", saved.text)

	p, cmd := p.update(saved)
	msgs := run(cmd)
	assert.True(t, hasMsg[weekChangedMsg](msgs))
	for _, m := range msgs {
		if data, ok := m.(projectsDataMsg); ok {
			p, _ = p.update(data)
		}
	}
	require.Len(t, p.projects, 1)
	assert.Contains(t, p.view(), "Acme Corp")
	assert.Contains(t, p.view(), "100.00")

	p, cmd = p.update(press("enter"))
	require.True(t, p.viewingTasks)
	p, _ = p.update(single(t, cmd))

	p.fields.name = "Discovery"
	p.fields.tags = "research"
	p.formType = formNewTask
	_, ok = single(t, p.saveForm()).(projectSavedMsg)
	require.True(t, ok)

	tasks, ok := single(t, p.refreshTasks()).(tasksDataMsg)
	require.True(t, ok)
	p, _ = p.update(tasks)
	require.Len(t, p.tasks, 1)
	assert.Contains(t, p.view(), "Discovery")

	// A reply for a project no longer under the cursor is dropped.
	p, _ = p.update(tasksDataMsg{projectID: 999})
	assert.Len(t, p.tasks, 1)
}

func TestProjectsArchive(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CreateProject(f.ctx, store.ProjectInput{Name: "Legacy"})
	require.NoError(t, err)

	p := newProjectsModel(f.ctx, f.store)
	p, _ = p.update(single(t, p.refresh()))
	require.Len(t, p.projects, 1)

	_, cmd := p.update(press("d"))
	saved, ok := single(t, cmd).(projectSavedMsg)
	require.True(t, ok)
	assert.Equal(t, "Archived project Legacy", saved.text)

	active, err := f.store.ListProjects(f.ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
}

// ============================================================
// Settings
// ============================================================

func TestParseUsers(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, parseUsers(" alice, bob ,alice,, "))
	assert.Nil(t, parseUsers(""))
}

func TestFormatSettingValue(t *testing.T) {
	assert.Equal(t, "yes", formatSettingValue("allow_future_timesheets", "true"))
	assert.Equal(t, "no", formatSettingValue("allow_future_timesheets", "false"))
	assert.Equal(t, "(none)", formatSettingValue("root_level_users", ""))
	assert.Equal(t, "alice, bob", formatSettingValue("root_level_users", "alice,bob"))
	assert.Equal(t, "x", formatSettingValue("other", "x"))
}

func TestSettingsSave(t *testing.T) {
	f := newFixture(t)
	s := newSettingsModel(f.ctx, f.deps)
	s.setSize(120, 36)
	s, _ = s.update(single(t, s.refresh()))
	assert.Contains(t, s.view(), "allow_future_timesheets")
	assert.Contains(t, s.view(), "regular user")

	_, ok := single(t, s.save(true, []string{"alice"})).(settingsSavedMsg)
	require.True(t, ok)

	allow, err := f.store.FutureDatePolicy(f.ctx)
	require.NoError(t, err)
	assert.True(t, allow)
	users, err := f.store.RootLevelUsers(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)

	s, cmd := s.update(settingsSavedMsg{})
	msgs := run(cmd)
	assert.True(t, hasMsg[weekChangedMsg](msgs))
	for _, m := range msgs {
		if data, ok := m.(settingsDataMsg); ok {
			s, _ = s.update(data)
		}
	}
	assert.True(t, s.policy.RootLevel.Eligible)
	assert.Contains(t, s.view(), "root-level")

	_, ok = single(t, s.save(false, []string{"bob"})).(settingsSavedMsg)
	require.True(t, ok)
	users, err = f.store.RootLevelUsers(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, users)
}

// ============================================================
// Keys and styles
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	short := keys.ShortHelp()
	assert.NotEmpty(t, short)
	for _, b := range short {
		assert.NotEmpty(t, b.Help().Key)
		assert.NotEmpty(t, b.Help().Desc)
	}

	full := keys.FullHelp()
	assert.NotEmpty(t, full)
	for _, group := range full {
		assert.NotEmpty(t, group)
	}
}

func TestStatusStyles(t *testing.T) {
	for _, s := range []timesheet.Status{
		timesheet.StatusDraft, timesheet.StatusSubmitted, timesheet.StatusApproved, timesheet.StatusRejected,
	} {
		assert.NotEmpty(t, statusStyle(s).Render(string(s)))
	}
	assert.NotEmpty(t, weekStatusStyle(timesheet.WeekPartiallyRejected).Render("x"))
}
