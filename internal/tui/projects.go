package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/store"
)

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}
var projectCategories = []string{"work", "client", "internal", "learning", "other"}

type projectFormType int

const (
	formNewProject projectFormType = iota
	formEditProject
	formNewTask
)

// projectFields are the form values. Pointers survive value copies of the
// model.
type projectFields struct {
	name     string
	client   string
	color    string
	category string
	billable bool
	rate     string
	tags     string
}

func (f *projectFields) reset() {
	*f = projectFields{color: projectColors[0], category: projectCategories[0]}
}

func (f *projectFields) input() (store.ProjectInput, error) {
	in := store.ProjectInput{
		Name:     strings.TrimSpace(f.name),
		Client:   strings.TrimSpace(f.client),
		Color:    f.color,
		Category: f.category,
		Billable: f.billable,
	}
	if r := strings.TrimSpace(f.rate); r != "" {
		rate, err := decimal.NewFromString(r)
		if err != nil {
			return in, fmt.Errorf("invalid rate %q", r)
		}
		in.BillingRate = &rate
	}
	return in, nil
}

func validateRate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	r, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("rate must be a number")
	}
	if r.IsNegative() {
		return fmt.Errorf("rate must not be negative")
	}
	return nil
}

type projectsModel struct {
	ctx    context.Context
	store  *store.Store
	width  int
	height int

	projects     []store.Project
	tasks        []store.Task
	cursor       int
	taskCursor   int
	showArchived bool
	viewingTasks bool

	formActive bool
	form       *huh.Form
	formType   projectFormType
	fields     *projectFields
	editingID  int64
}

func newProjectsModel(ctx context.Context, s *store.Store) projectsModel {
	f := &projectFields{}
	f.reset()
	return projectsModel{ctx: ctx, store: s, fields: f}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []store.Project
}

type tasksDataMsg struct {
	projectID int64
	tasks     []store.Task
}

func (p projectsModel) refresh() tea.Cmd {
	archived := p.showArchived
	return func() tea.Msg {
		projects, err := p.store.ListProjects(p.ctx, archived)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return projectsDataMsg{projects: projects}
	}
}

func (p projectsModel) refreshTasks() tea.Cmd {
	if p.cursor >= len(p.projects) {
		return nil
	}
	pid := p.projects[p.cursor].ID
	return func() tea.Msg {
		tasks, err := p.store.ListTasks(p.ctx, pid, false)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return tasksDataMsg{projectID: pid, tasks: tasks}
	}
}

type projectSavedMsg struct {
	text  string
	tasks bool
}

// mutate runs a store write; the reload happens when projectSavedMsg
// arrives.
func (p projectsModel) mutate(fn func() error, tasks bool, done string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return projectSavedMsg{text: done, tasks: tasks}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil

	case tasksDataMsg:
		if p.cursor >= len(p.projects) || p.projects[p.cursor].ID != msg.projectID {
			return p, nil
		}
		p.tasks = msg.tasks
		if p.taskCursor >= len(p.tasks) {
			p.taskCursor = max(0, len(p.tasks)-1)
		}
		return p, nil

	case projectSavedMsg:
		reload := p.refresh()
		if msg.tasks {
			reload = p.refreshTasks()
		}
		return p, tea.Batch(reload, statusCmd(msg.text), func() tea.Msg { return weekChangedMsg{} })

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingTasks = true
			p.taskCursor = 0
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.Mode):
		p.showArchived = !p.showArchived
		return p, p.refresh()
	case key.Matches(msg, keys.New):
		return p.showProjectForm(formNewProject)
	case key.Matches(msg, keys.Edit):
		if len(p.projects) > 0 {
			return p.showProjectForm(formEditProject)
		}
	case key.Matches(msg, keys.Delete):
		if len(p.projects) > 0 {
			proj := p.projects[p.cursor]
			return p, p.mutate(func() error { return p.store.ArchiveProject(p.ctx, proj.ID) },
				false, "Archived project "+proj.Name)
		}
	}
	return p, nil
}

func (p projectsModel) updateTaskView(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showTaskForm()
	case key.Matches(msg, keys.Delete):
		if len(p.tasks) > 0 {
			task := p.tasks[p.taskCursor]
			return p, p.mutate(func() error { return p.store.ArchiveTask(p.ctx, task.ID) },
				true, "Archived task "+task.Name)
		}
	}
	return p, nil
}

func (p projectsModel) showProjectForm(t projectFormType) (projectsModel, tea.Cmd) {
	p.fields.reset()
	p.formType = t
	if t == formEditProject {
		proj := p.projects[p.cursor]
		p.editingID = proj.ID
		p.fields.name = proj.Name
		p.fields.client = proj.Client
		p.fields.color = proj.Color
		p.fields.category = proj.Category
		p.fields.billable = proj.Billable
		if proj.BillingRate != nil {
			p.fields.rate = proj.BillingRate.String()
		}
	}

	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		colorOptions[i] = huh.NewOption(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("● ")+c, c)
	}
	catOptions := make([]huh.Option[string], len(projectCategories))
	for i, c := range projectCategories {
		catOptions[i] = huh.NewOption(c, c)
	}

	f := p.fields
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(&f.name),
			huh.NewInput().Title("Client").Value(&f.client),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(&f.color),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(&f.category),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Billable by default").Value(&f.billable),
			huh.NewInput().Title("Hourly rate (blank for none)").Value(&f.rate).Validate(validateRate),
		).Title("Billing"),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showTaskForm() (projectsModel, tea.Cmd) {
	p.fields.reset()
	p.formType = formNewTask

	f := p.fields
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(&f.name),
			huh.NewInput().Title("Tags (comma-separated)").Value(&f.tags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		return p, p.saveForm()
	}
	return p, cmd
}

func (p projectsModel) saveForm() tea.Cmd {
	f := *p.fields
	switch p.formType {
	case formNewTask:
		if p.cursor >= len(p.projects) {
			return nil
		}
		pid := p.projects[p.cursor].ID
		return p.mutate(func() error {
			_, err := p.store.CreateTask(p.ctx, pid, strings.TrimSpace(f.name), strings.TrimSpace(f.tags))
			return err
		}, true, "Added task "+f.name)

	case formEditProject:
		id := p.editingID
		return p.mutate(func() error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return p.store.UpdateProject(p.ctx, id, in)
		}, false, "Updated project "+f.name)
	}

	return p.mutate(func() error {
		in, err := f.input()
		if err != nil {
			return err
		}
		_, err = p.store.CreateProject(p.ctx, in)
		return err
	}, false, "Created project "+f.name)
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := "New Project"
		switch p.formType {
		case formEditProject:
			title = "Edit Project"
		case formNewTask:
			title = "New Task"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks && p.cursor < len(p.projects) {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")
	if p.showArchived {
		title += mutedStyle.Render("  (including archived)")
	}

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-22s %-18s %-10s %10s", "", "Name", "Client", "Category", "Rate")))

	for i, proj := range p.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rate := "-"
		if proj.BillingRate != nil {
			rate = proj.BillingRate.StringFixed(2)
		}
		name := proj.Name
		if proj.Archived {
			name += " (archived)"
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-22s %-18s %-10s %10s",
			cursor, colorDot, truncate(name, 22), truncate(proj.Client, 18), proj.Category, rate)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: archive  m: show archived  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderTaskView() string {
	w := p.width - 4
	proj := p.projects[p.cursor]
	colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s: Tasks", colorDot, proj.Name))

	if len(p.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	for i, task := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tags := ""
		if task.Tags != "" {
			tags = mutedStyle.Render(" [" + task.Tags + "]")
		}
		rows = append(rows, style.Render(cursor+task.Name)+tags)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new task  d: archive  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
