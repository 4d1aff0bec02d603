package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/timer"
	"github.com/sadopc/sheetr/internal/timesheet"
)

type TimerCmd struct {
	app *App

	// stop flags
	description string
	project     string
	billable    bool
	activity    string
}

// NewTimerCmd creates a new timer command
func NewTimerCmd(app *App) *TimerCmd {
	return &TimerCmd{app: app}
}

// Register adds the timer command to the application
func (cmd *TimerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "timer",
		Usage: "Track elapsed time across restarts",
		Description: `The timer persists only its start time, so it keeps running while sheetr
is closed. Stopping it reports the elapsed hours and, with --description,
logs them as a DRAFT entry for today.`,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the timer",
				Action: cmd.runStart,
			},
			{
				Name:   "status",
				Usage:  "Show the elapsed time",
				Action: cmd.runStatus,
			},
			{
				Name:  "stop",
				Usage: "Stop the timer and optionally log the hours",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "description",
						Aliases:     []string{"m"},
						Usage:       "log the elapsed hours as an entry with this description",
						Destination: &cmd.description,
					},
					&cli.StringFlag{
						Name:        "project",
						Aliases:     []string{"p"},
						Usage:       "project name for the logged entry",
						Destination: &cmd.project,
					},
					&cli.BoolFlag{
						Name:        "billable",
						Aliases:     []string{"b"},
						Usage:       "mark the logged entry billable",
						Destination: &cmd.billable,
					},
					&cli.StringFlag{
						Name:        "activity",
						Aliases:     []string{"a"},
						Usage:       "activity type for the logged entry",
						Destination: &cmd.activity,
					},
				},
				Action: cmd.runStop,
			},
			{
				Name:  "clear",
				Usage: "Discard the running timer",
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := cmd.app.Timer.Clear(ctx); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(c.Root().Writer, "Timer cleared.")
					return nil
				},
			},
		},
	})
	return app
}

func (cmd *TimerCmd) runStart(ctx context.Context, c *cli.Command) error {
	s, err := cmd.app.Timer.Start(ctx)
	if errors.Is(err, timer.ErrAlreadyRunning) {
		_, _ = fmt.Fprintf(c.Root().Writer, "Timer already running since %s (%s)\n",
			s.StartedAt.Local().Format("15:04:05"), timer.Format(cmd.app.Timer.Since(s)))
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Timer started at %s\n", s.StartedAt.Local().Format("15:04:05"))
	return nil
}

func (cmd *TimerCmd) runStatus(ctx context.Context, c *cli.Command) error {
	s, err := cmd.app.Timer.Current(ctx)
	if err != nil {
		return err
	}
	out := c.Root().Writer
	if s == nil {
		_, _ = fmt.Fprintln(out, "Timer is not running.")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Running %s (since %s)\n",
		timer.Format(cmd.app.Timer.Since(*s)), s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (cmd *TimerCmd) runStop(ctx context.Context, c *cli.Command) error {
	// Resolve the project before stopping so a typo does not lose the session.
	var projectID *int64
	if cmd.description != "" {
		id, err := cmd.app.projectID(ctx, cmd.project)
		if err != nil {
			return err
		}
		projectID = id
	}

	res, err := cmd.app.Timer.Stop(ctx)
	if err != nil {
		return err
	}
	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "Stopped after %s (%s h)\n", timer.Format(res.Elapsed), res.Hours)

	if cmd.description == "" {
		return nil
	}
	e, err := cmd.app.Service.CreateEntry(ctx, timesheet.Draft{
		WorkDate:     timesheet.Today(res.StoppedAt),
		ProjectID:    projectID,
		Hours:        res.Hours,
		Description:  cmd.description,
		Billable:     cmd.billable,
		ActivityType: cmd.activity,
	})
	if err != nil {
		return fmt.Errorf("log timer hours: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Logged %s as %s\n", e.Hours, e.ID)
	return nil
}
