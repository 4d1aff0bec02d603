package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

type (
	pendingDataMsg struct {
		entries []timesheet.Entry
		policy  timesheet.Policy
	}

	reviewedMsg struct {
		entry    *timesheet.Entry
		approved bool
	}
)

// approvalsModel is the reviewer's queue: other users' SUBMITTED entries.
type approvalsModel struct {
	ctx    context.Context
	svc    *workflow.Service
	width  int
	height int

	entries []timesheet.Entry
	policy  timesheet.Policy
	cursor  int

	formActive bool
	form       *huh.Form
	reason     *string
	rejecting  timesheet.Entry
}

func newApprovalsModel(ctx context.Context, svc *workflow.Service) approvalsModel {
	reason := ""
	return approvalsModel{ctx: ctx, svc: svc, reason: &reason}
}

func (a *approvalsModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a approvalsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.svc.Pending(a.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		p, err := a.svc.RefreshPolicy(a.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return pendingDataMsg{entries: entries, policy: p}
	}
}

func (a approvalsModel) selected() (timesheet.Entry, bool) {
	if a.cursor < 0 || a.cursor >= len(a.entries) {
		return timesheet.Entry{}, false
	}
	return a.entries[a.cursor], true
}

func (a approvalsModel) update(msg tea.Msg) (approvalsModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case pendingDataMsg:
		a.entries = msg.entries
		a.policy = msg.policy
		if a.cursor >= len(a.entries) {
			a.cursor = max(0, len(a.entries)-1)
		}
		return a, nil

	case reviewedMsg:
		verb := "Rejected"
		if msg.approved {
			verb = "Approved"
		}
		text := fmt.Sprintf("%s %s's entry on %s", verb, msg.entry.UserID, msg.entry.WorkDate.Format("Mon Jan 02"))
		return a, tea.Batch(a.refresh(), statusCmd(text))

	case autoApprovedMsg:
		return a, a.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, keys.Down):
			if a.cursor < len(a.entries)-1 {
				a.cursor++
			}
		case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Enter):
			if e, ok := a.selected(); ok {
				return a, a.approve(e.ID)
			}
		case key.Matches(msg, keys.AutoApprove):
			return a, autoApprove(a.ctx, a.svc)
		case key.Matches(msg, keys.Reject):
			if e, ok := a.selected(); ok {
				return a.showRejectForm(e)
			}
		}
	}
	return a, nil
}

func (a approvalsModel) approve(id string) tea.Cmd {
	return func() tea.Msg {
		e, err := a.svc.Approve(a.ctx, id)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return reviewedMsg{entry: e, approved: true}
	}
}

func (a approvalsModel) reject(id, reason string) tea.Cmd {
	return func() tea.Msg {
		e, err := a.svc.Reject(a.ctx, id, reason)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return reviewedMsg{entry: e}
	}
}

func (a approvalsModel) showRejectForm(e timesheet.Entry) (approvalsModel, tea.Cmd) {
	*a.reason = ""
	a.rejecting = e
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Reason").
				Description("The owner sees this next to the returned entry.").
				Value(a.reason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a reason is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	a.formActive = true
	return a, a.form.Init()
}

func (a approvalsModel) updateForm(msg tea.Msg) (approvalsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		a.formActive = false
		a.form = nil
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.formActive = false
		return a, a.reject(a.rejecting.ID, *a.reason)
	}
	return a, cmd
}

func (a approvalsModel) view() string {
	w := a.width - 4

	if a.formActive && a.form != nil {
		e := a.rejecting
		title := titleStyle.Render(fmt.Sprintf("Reject %s's entry on %s", e.UserID, e.WorkDate.Format("Mon Jan 02")))
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", a.form.View()))
	}

	title := titleStyle.Render("Awaiting Review")
	var own string
	switch {
	case a.policy.RootLevel.CanAutoApprove():
		own = successStyle.Render(fmt.Sprintf("You have %d submitted entries. Press A to auto-approve.", a.policy.RootLevel.PendingCount))
	case a.policy.RootLevel.Eligible:
		own = mutedStyle.Render("Root-level: your own entries are approved with A.")
	}

	if len(a.entries) == 0 {
		rows := []string{title, "", mutedStyle.Render("No entries awaiting review.")}
		if own != "" {
			rows = append(rows, "", own)
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	descWidth := max(10, w-50)
	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-10s %6s  %s", "User", "Day", "Hours", "Description")))
	for i, e := range a.entries {
		cursor := "  "
		style := normalItemStyle
		if i == a.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %-10s %6s  %s",
			cursor, truncate(e.UserID, 12), e.WorkDate.Format("Mon 01/02"), e.Hours.StringFixed(2), truncate(e.Description, descWidth))))
	}
	if own != "" {
		rows = append(rows, "", own)
	}
	rows = append(rows, "", mutedStyle.Render("  a/enter: approve  r: reject"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
