package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

// settingsModel edits the tenant policy: the future-date switch and the
// root-level user list.
type settingsModel struct {
	ctx    context.Context
	svc    *workflow.Service
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	rootUsers  []string
	policy     timesheet.Policy
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	allowFuture *bool
	rootLevel   *string
}

func newSettingsModel(ctx context.Context, d Deps) settingsModel {
	allow, users := false, ""
	return settingsModel{
		ctx:         ctx,
		svc:         d.Service,
		store:       d.Store,
		allowFuture: &allow,
		rootLevel:   &users,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings  []store.Setting
	rootUsers []string
	policy    timesheet.Policy
}

type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings(s.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		users, err := s.store.RootLevelUsers(s.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		p, err := s.svc.RefreshPolicy(s.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return settingsDataMsg{settings: settings, rootUsers: users, policy: p}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.rootUsers = msg.rootUsers
		s.policy = msg.policy
		return s, nil

	case settingsSavedMsg:
		return s, tea.Batch(s.refresh(), statusCmd("Policy saved"), func() tea.Msg { return weekChangedMsg{} })

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.allowFuture = s.policy.AllowFutureTimesheets
	*s.rootLevel = strings.Join(s.rootUsers, ", ")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow future-dated entries").
				Value(s.allowFuture),
			huh.NewInput().
				Title("Root-level users (comma-separated)").
				Description("These users approve their own submitted entries.").
				Value(s.rootLevel),
		).Title("Policy"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save(*s.allowFuture, parseUsers(*s.rootLevel))
	}

	return s, cmd
}

// save writes the policy. Root-level changes are applied per user so the
// store keeps the list normalized.
func (s settingsModel) save(allowFuture bool, users []string) tea.Cmd {
	current := slices.Clone(s.rootUsers)
	return func() tea.Msg {
		if err := s.store.SetFutureDatePolicy(s.ctx, allowFuture); err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		for _, u := range current {
			if !slices.Contains(users, u) {
				if err := s.store.SetRootLevel(s.ctx, u, false); err != nil {
					return statusMsg{text: errorText(err), isError: true}
				}
			}
		}
		for _, u := range users {
			if !slices.Contains(current, u) {
				if err := s.store.SetRootLevel(s.ctx, u, true); err != nil {
					return statusMsg{text: errorText(err), isError: true}
				}
			}
		}
		return settingsSavedMsg{}
	}
}

func parseUsers(s string) []string {
	var users []string
	for _, u := range strings.Split(s, ",") {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(users, u) {
			users = append(users, u)
		}
	}
	return users
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	label := lipgloss.NewStyle().Width(26)
	rows := []string{titleStyle.Render("Settings"), ""}
	for _, setting := range s.settings {
		rows = append(rows, fmt.Sprintf("  %s %s", label.Render(setting.Key), highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))))
	}

	me := s.svc.User()
	status := mutedStyle.Render("regular user")
	if s.policy.RootLevel.Eligible {
		status = successStyle.Render(fmt.Sprintf("root-level, %d submitted", s.policy.RootLevel.PendingCount))
	}
	rows = append(rows, "", fmt.Sprintf("  %s %s", label.Render("you ("+me+")"), status))

	rules := s.svc.Rules()
	rows = append(rows, "",
		mutedStyle.Render(fmt.Sprintf("  Rules: description ≥ %d chars, entry ≤ %sh, overtime over %sh, high day over %sh",
			rules.MinDescriptionLength, rules.MaxEntryHours, rules.OvertimeThreshold, rules.HighHoursPerDay)),
		"",
		mutedStyle.Render("Press enter to edit the policy"),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "allow_future_timesheets":
		if allow, err := strconv.ParseBool(v); err == nil {
			if allow {
				return "yes"
			}
			return "no"
		}
	case "root_level_users":
		if v == "" {
			return "(none)"
		}
		return strings.ReplaceAll(v, ",", ", ")
	}
	return v
}
