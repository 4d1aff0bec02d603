package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timesheet"
)

type formKind int

const (
	formCreate formKind = iota
	formEdit
	formCopy
)

func (k formKind) title() string {
	switch k {
	case formEdit:
		return "Edit Entry"
	case formCopy:
		return "Copy Entry"
	}
	return "New Entry"
}

var activityTypes = []string{"Development", "Meetings", "Review", "Support", "Planning", timesheet.OtherActivity}

// entryForm holds the raw field values of the entry form. The model keeps
// a pointer so huh can write through value copies of the model.
type entryForm struct {
	kind formKind

	date        string
	hours       string
	description string
	projectID   int64
	billable    bool
	activity    string

	// base is the entry being edited or copied.
	base *timesheet.Entry
}

func newEntryForm(date timesheet.Date) *entryForm {
	return &entryForm{kind: formCreate, date: date.String()}
}

func editEntryForm(e timesheet.Entry) *entryForm {
	f := &entryForm{
		kind:        formEdit,
		date:        e.WorkDate.String(),
		hours:       e.Hours.String(),
		description: e.Description,
		billable:    e.Billable,
		activity:    e.ActivityType,
		base:        &e,
	}
	if e.ProjectID != nil {
		f.projectID = *e.ProjectID
	}
	return f
}

func copyEntryForm(e timesheet.Entry, date timesheet.Date) *entryForm {
	return &entryForm{kind: formCopy, date: date.String(), base: &e}
}

func validateDate(s string) error {
	_, err := timesheet.ParseDate(strings.TrimSpace(s))
	return err
}

func validateHours(s string) error {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return errors.New("hours must be a number")
	}
	return nil
}

func (f *entryForm) build(projects []store.Project) *huh.Form {
	dateField := huh.NewInput().Title("Date (YYYY-MM-DD)").Value(&f.date).Validate(validateDate)
	if f.kind == formCopy {
		return huh.NewForm(huh.NewGroup(dateField)).WithShowHelp(true).WithShowErrors(true)
	}

	projectOptions := []huh.Option[int64]{huh.NewOption(timesheet.NoProject, int64(0))}
	for _, p := range projects {
		label := p.Name
		if p.Client != "" {
			label = fmt.Sprintf("%s (%s)", p.Name, p.Client)
		}
		projectOptions = append(projectOptions, huh.NewOption(label, p.ID))
	}
	activityOptions := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, a := range activityTypes {
		activityOptions = append(activityOptions, huh.NewOption(a, a))
	}

	return huh.NewForm(
		huh.NewGroup(
			dateField,
			huh.NewInput().Title("Hours").Value(&f.hours).Validate(validateHours),
			huh.NewInput().Title("Description").Value(&f.description),
			huh.NewSelect[int64]().Title("Project").Options(projectOptions...).Value(&f.projectID),
			huh.NewSelect[string]().Title("Activity").Options(activityOptions...).Value(&f.activity),
			huh.NewConfirm().Title("Billable").Value(&f.billable),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (f *entryForm) workDate() (timesheet.Date, error) {
	return timesheet.ParseDate(strings.TrimSpace(f.date))
}

// draft converts the form values. On edit, a task survives only while the
// project is unchanged.
func (f *entryForm) draft() (timesheet.Draft, error) {
	date, err := f.workDate()
	if err != nil {
		return timesheet.Draft{}, timesheet.NewValidationError(criterio.NewFieldErrors("work_date", err))
	}
	hours, err := decimal.NewFromString(strings.TrimSpace(f.hours))
	if err != nil {
		return timesheet.Draft{}, timesheet.NewValidationError(criterio.NewFieldErrors("hours_worked", errors.New("must be a number")))
	}

	d := timesheet.Draft{
		WorkDate:     date,
		Hours:        hours,
		Description:  strings.TrimSpace(f.description),
		Billable:     f.billable,
		ActivityType: f.activity,
	}
	if f.projectID != 0 {
		id := f.projectID
		d.ProjectID = &id
	}
	if f.base != nil && f.base.TaskID != nil && f.base.ProjectID != nil && d.ProjectID != nil && *f.base.ProjectID == *d.ProjectID {
		d.TaskID = f.base.TaskID
	}
	return d, nil
}
