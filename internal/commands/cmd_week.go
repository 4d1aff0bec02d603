package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/sadopc/sheetr/internal/export"
	"github.com/sadopc/sheetr/internal/workflow"
)

var errNotInteractive = errors.New("stdin is not a terminal: pass --yes to submit without confirmation")

type WeekCmd struct {
	app *App

	date       string
	jsonOutput bool
	yes        bool
	weeks      int

	// interactive reports whether a confirmation prompt can be shown.
	interactive func() bool
}

// NewWeekCmd creates a new week command
func NewWeekCmd(app *App) *WeekCmd {
	return &WeekCmd{
		app: app,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Register adds the week command to the application
func (cmd *WeekCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "week",
		Usage: "Show, submit and review weeks",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a week's entries, totals and validation",
				Flags: []cli.Flag{
					weekDateFlag(&cmd.date),
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print the week summary as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runShow,
			},
			{
				Name:  "submit",
				Usage: "Submit every DRAFT entry of a week for approval",
				Description: `Runs the week-level checks, shows what will be submitted and asks for
confirmation. Nothing is sent when a check fails or the prompt is declined.

When stdin is not a terminal --yes is required.`,
				Flags: []cli.Flag{
					weekDateFlag(&cmd.date),
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runSubmit,
			},
			{
				Name:  "history",
				Usage: "Show weekly totals",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "weeks",
						Aliases:     []string{"n"},
						Usage:       "number of weeks to show",
						Value:       8,
						Destination: &cmd.weeks,
					},
				},
				Action: cmd.runHistory,
			},
		},
	})
	return app
}

func weekDateFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "date",
		Aliases:     []string{"d"},
		Usage:       "any date in the week (default today)",
		Destination: dest,
	}
}

func (cmd *WeekCmd) runShow(ctx context.Context, c *cli.Command) error {
	w, err := cmd.app.weekFor(cmd.date)
	if err != nil {
		return err
	}
	view, err := cmd.app.Service.LoadWeek(ctx, w)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		r := export.NewReport(cmd.app.Service.User(), w, view.Entries, cmd.app.Service.Rules(), cmd.app.Now())
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Summary)
	}
	printWeek(out, view)
	return nil
}

func (cmd *WeekCmd) runSubmit(ctx context.Context, c *cli.Command) error {
	w, err := cmd.app.weekFor(cmd.date)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	res, err := cmd.app.Service.SubmitWeek(ctx, w, cmd.confirmer(out))
	if err != nil {
		return err
	}
	if res.Cancelled {
		_, _ = fmt.Fprintln(out, "Submission cancelled.")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Submitted %d entries. Week status: %s\n", res.Submitted, res.View.Summary.Status)
	if p := cmd.app.Service.Policy(); p.RootLevel.CanAutoApprove() {
		_, _ = fmt.Fprintf(out, "%d entries can be auto-approved: run 'sheetr approve auto'.\n", p.RootLevel.PendingCount)
	}
	return nil
}

func (cmd *WeekCmd) confirmer(out io.Writer) workflow.Confirmer {
	return workflow.ConfirmFunc(func(_ context.Context, plan workflow.SubmitPlan) (bool, error) {
		printPlan(out, plan)
		if cmd.yes {
			return true, nil
		}
		if !cmd.interactive() {
			return false, errNotInteractive
		}

		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Submit %d entries for approval?", plan.EntryCount)).
					Description("Submitted entries can no longer be edited or deleted.").
					Affirmative("Submit").
					Negative("Cancel").
					Value(&ok),
			),
		).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	})
}

func (cmd *WeekCmd) runHistory(ctx context.Context, c *cli.Command) error {
	n := cmd.weeks
	if n < 1 {
		n = 1
	}
	current := cmd.app.Service.CurrentWeek()
	from := current.Start.AddDays(-7 * (n - 1))

	totals, err := cmd.app.Store.WeeklyTotals(ctx, cmd.app.Service.User(), from, current.End())
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if len(totals) == 0 {
		_, _ = fmt.Fprintln(out, "No entries.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WEEK\tHOURS\tENTRIES")
	for _, t := range totals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", t.WeekStart, t.Hours.StringFixed(2), t.Entries)
	}
	return w.Flush()
}
