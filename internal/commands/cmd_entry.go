package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/timesheet"
)

type EntryCmd struct {
	app *App

	// add/edit flags
	date        string
	hours       string
	description string
	project     string
	task        int64
	billable    bool
	activity    string
}

// NewEntryCmd creates a new entry command
func NewEntryCmd(app *App) *EntryCmd {
	return &EntryCmd{app: app}
}

// Register adds the entry command to the application
func (cmd *EntryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "entry",
		Usage: "Create, list, copy, edit and delete timesheet entries",
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.listCmd(),
			cmd.copyCmd(),
			cmd.editCmd(),
			cmd.deleteCmd(),
		},
	})
	return app
}

func (cmd *EntryCmd) draftFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "date",
			Aliases:     []string{"d"},
			Usage:       "work date (YYYY-MM-DD, default today)",
			Destination: &cmd.date,
		},
		&cli.StringFlag{
			Name:        "hours",
			Aliases:     []string{"H"},
			Usage:       "hours worked, e.g. 7.5",
			Required:    required,
			Destination: &cmd.hours,
		},
		&cli.StringFlag{
			Name:        "description",
			Aliases:     []string{"m"},
			Usage:       "what was done",
			Required:    required,
			Destination: &cmd.description,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "project name",
			Destination: &cmd.project,
		},
		&cli.Int64Flag{
			Name:        "task",
			Usage:       "task id",
			Destination: &cmd.task,
		},
		&cli.BoolFlag{
			Name:        "billable",
			Aliases:     []string{"b"},
			Usage:       "mark the entry billable",
			Destination: &cmd.billable,
		},
		&cli.StringFlag{
			Name:        "activity",
			Aliases:     []string{"a"},
			Usage:       "activity type, e.g. Development",
			Destination: &cmd.activity,
		},
	}
}

func (cmd *EntryCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Log a new DRAFT entry",
		UsageText: `sheetr entry add --hours 7.5 --description "Sprint planning" [--date 2025-03-04]`,
		Flags:     cmd.draftFlags(true),
		Action:    cmd.runAdd,
	}
}

func (cmd *EntryCmd) runAdd(ctx context.Context, c *cli.Command) error {
	d := timesheet.Draft{
		Description:  cmd.description,
		Billable:     cmd.billable,
		ActivityType: cmd.activity,
	}
	if err := cmd.fill(ctx, &d, c); err != nil {
		return err
	}

	e, err := cmd.app.Service.CreateEntry(ctx, d)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created %s: %s h on %s\n", e.ID, e.Hours, e.WorkDate)
	return nil
}

// fill applies the date, hours, project and task flags to d. Flags that were
// not set leave d unchanged, except the date which defaults to today for a
// new entry.
func (cmd *EntryCmd) fill(ctx context.Context, d *timesheet.Draft, c *cli.Command) error {
	if cmd.date != "" || d.WorkDate.IsZero() {
		date, err := cmd.app.dateOrToday(cmd.date)
		if err != nil {
			return err
		}
		d.WorkDate = date
	}
	if c.IsSet("hours") {
		h, err := decimal.NewFromString(cmd.hours)
		if err != nil {
			return fmt.Errorf("invalid hours %q", cmd.hours)
		}
		d.Hours = h
	}
	if c.IsSet("project") {
		id, err := cmd.app.projectID(ctx, cmd.project)
		if err != nil {
			return err
		}
		d.ProjectID = id
	}
	if c.IsSet("task") {
		id := cmd.task
		d.TaskID = &id
	}
	return nil
}

func (cmd *EntryCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the entries of a week",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "any date in the week (default today)",
				Destination: &cmd.date,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w, err := cmd.app.weekFor(cmd.date)
			if err != nil {
				return err
			}
			view, err := cmd.app.Service.LoadWeek(ctx, w)
			if err != nil {
				return err
			}
			printEntries(c.Root().Writer, view.Entries)
			return nil
		},
	}
}

func (cmd *EntryCmd) copyCmd() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy an entry to another date as a new DRAFT",
		ArgsUsage: "<entry-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "target date (default today)",
				Destination: &cmd.date,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := entryArg(c)
			if err != nil {
				return err
			}
			date, err := cmd.app.dateOrToday(cmd.date)
			if err != nil {
				return err
			}
			e, err := cmd.app.Service.CopyEntry(ctx, id, date)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.Root().Writer, "Copied %s to %s as %s\n", id, e.WorkDate, e.ID)
			return nil
		},
	}
}

func (cmd *EntryCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a DRAFT or REJECTED entry (a rejected entry returns to DRAFT)",
		ArgsUsage: "<entry-id>",
		Flags:     cmd.draftFlags(false),
		Action:    cmd.runEdit,
	}
}

func (cmd *EntryCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := entryArg(c)
	if err != nil {
		return err
	}
	e, err := cmd.app.Service.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	d := timesheet.DraftOf(*e)
	if err := cmd.fill(ctx, &d, c); err != nil {
		return err
	}
	if c.IsSet("description") {
		d.Description = cmd.description
	}
	if c.IsSet("billable") {
		d.Billable = cmd.billable
	}
	if c.IsSet("activity") {
		d.ActivityType = cmd.activity
	}

	updated, err := cmd.app.Service.UpdateEntry(ctx, *e, d)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Updated %s (%s)\n", updated.ID, updated.Status)
	return nil
}

func (cmd *EntryCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a DRAFT or REJECTED entry",
		ArgsUsage: "<entry-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := entryArg(c)
			if err != nil {
				return err
			}
			e, err := cmd.app.Service.GetEntry(ctx, id)
			if err != nil {
				return err
			}
			if err := cmd.app.Service.DeleteEntry(ctx, *e); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}

func entryArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one entry id, got %d arguments", c.Args().Len())
	}
	return c.Args().First(), nil
}

func int64Arg(c *cli.Command, i int, what string) (int64, error) {
	v, err := strconv.ParseInt(c.Args().Get(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, c.Args().Get(i))
	}
	return v, nil
}
