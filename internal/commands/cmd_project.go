package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/store"
)

type ProjectCmd struct {
	app *App

	client   string
	rate     string
	billable bool
	color    string
	category string
	tags     string
	all      bool
}

// NewProjectCmd creates a new project command
func NewProjectCmd(app *App) *ProjectCmd {
	return &ProjectCmd{app: app}
}

// Register adds the project command to the application
func (cmd *ProjectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "project",
		Usage: "Manage projects, billing rates and tasks",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a project",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client", Usage: "client name", Destination: &cmd.client},
					&cli.StringFlag{Name: "rate", Usage: "hourly billing rate", Destination: &cmd.rate},
					&cli.BoolFlag{Name: "billable", Usage: "entries are billable by default", Destination: &cmd.billable},
					&cli.StringFlag{Name: "color", Usage: "hex color, e.g. #7C3AED", Destination: &cmd.color},
					&cli.StringFlag{Name: "category", Usage: "grouping category", Destination: &cmd.category},
				},
				Action: cmd.runAdd,
			},
			{
				Name:  "list",
				Usage: "List projects",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "include archived projects", Destination: &cmd.all},
				},
				Action: cmd.runList,
			},
			{
				Name:      "archive",
				Usage:     "Archive a project",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, c *cli.Command) error {
					p, err := cmd.byName(ctx, c)
					if err != nil {
						return err
					}
					if err := cmd.app.Store.ArchiveProject(ctx, p.ID); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.Root().Writer, "Archived %s\n", p.Name)
					return nil
				},
			},
			{
				Name:      "rate",
				Usage:     "Set a project's billing rate (empty clears it)",
				ArgsUsage: "<name> [rate]",
				Action:    cmd.runRate,
			},
			{
				Name:      "task-add",
				Usage:     "Add a task to a project",
				ArgsUsage: "<project> <task>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tags", Usage: "comma separated tags", Destination: &cmd.tags},
				},
				Action: cmd.runTaskAdd,
			},
			{
				Name:      "tasks",
				Usage:     "List a project's tasks",
				ArgsUsage: "<project>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "include archived tasks", Destination: &cmd.all},
				},
				Action: cmd.runTasks,
			},
			{
				Name:      "task-archive",
				Usage:     "Archive a task",
				ArgsUsage: "<task-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := int64Arg(c, 0, "task id")
					if err != nil {
						return err
					}
					if err := cmd.app.Store.ArchiveTask(ctx, id); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.Root().Writer, "Archived task %d\n", id)
					return nil
				},
			},
		},
	})
	return app
}

func (cmd *ProjectCmd) byName(ctx context.Context, c *cli.Command) (*store.Project, error) {
	if c.Args().Len() < 1 {
		return nil, fmt.Errorf("project name is required")
	}
	name := c.Args().First()
	p, err := cmd.app.Store.GetProjectByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", name, err)
	}
	return p, nil
}

func parseRate(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	r, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q", s)
	}
	return &r, nil
}

func (cmd *ProjectCmd) runAdd(ctx context.Context, c *cli.Command) error {
	rate, err := parseRate(cmd.rate)
	if err != nil {
		return err
	}
	p, err := cmd.app.Store.CreateProject(ctx, store.ProjectInput{
		Name:        c.Args().First(),
		Client:      cmd.client,
		Color:       cmd.color,
		Category:    cmd.category,
		Billable:    cmd.billable,
		BillingRate: rate,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created project %s (#%d)\n", p.Name, p.ID)
	return nil
}

func (cmd *ProjectCmd) runList(ctx context.Context, c *cli.Command) error {
	projects, err := cmd.app.Store.ListProjects(ctx, cmd.all)
	if err != nil {
		return err
	}
	out := c.Root().Writer
	if len(projects) == 0 {
		_, _ = fmt.Fprintln(out, "No projects.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCLIENT\tBILLABLE\tRATE\tCATEGORY")
	for _, p := range projects {
		rate := "-"
		if p.BillingRate != nil {
			rate = p.BillingRate.StringFixed(2)
		}
		name := p.Name
		if p.Archived {
			name += " (archived)"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\t%s\n", p.ID, name, p.Client, p.Billable, rate, p.Category)
	}
	return w.Flush()
}

func (cmd *ProjectCmd) runRate(ctx context.Context, c *cli.Command) error {
	p, err := cmd.byName(ctx, c)
	if err != nil {
		return err
	}
	rate, err := parseRate(c.Args().Get(1))
	if err != nil {
		return err
	}
	in := store.ProjectInput{
		Name:        p.Name,
		Client:      p.Client,
		Color:       p.Color,
		Category:    p.Category,
		Billable:    p.Billable,
		BillingRate: rate,
	}
	if err := cmd.app.Store.UpdateProject(ctx, p.ID, in); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Updated %s\n", p.Name)
	return nil
}

func (cmd *ProjectCmd) runTaskAdd(ctx context.Context, c *cli.Command) error {
	p, err := cmd.byName(ctx, c)
	if err != nil {
		return err
	}
	t, err := cmd.app.Store.CreateTask(ctx, p.ID, c.Args().Get(1), cmd.tags)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created task %s (#%d) in %s\n", t.Name, t.ID, p.Name)
	return nil
}

func (cmd *ProjectCmd) runTasks(ctx context.Context, c *cli.Command) error {
	p, err := cmd.byName(ctx, c)
	if err != nil {
		return err
	}
	tasks, err := cmd.app.Store.ListTasks(ctx, p.ID, cmd.all)
	if err != nil {
		return err
	}
	out := c.Root().Writer
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(out, "No tasks.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTAGS")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Name, t.Tags)
	}
	return w.Flush()
}
