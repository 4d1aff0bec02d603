package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/export"
)

type ExportCmd struct {
	app *App

	format string
	date   string
	output string
}

// NewExportCmd creates a new export command
func NewExportCmd(app *App) *ExportCmd {
	return &ExportCmd{app: app}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Export a week to CSV, JSON or PDF",
		UsageText: "sheetr export [--format csv|json|pdf] [--date 2025-03-04] [--output file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "csv, json or pdf",
				Value:       string(export.CSV),
				Destination: &cmd.format,
			},
			weekDateFlag(&cmd.date),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default: <export.dir>/timesheet-<user>-<week>.<format>)",
				Destination: &cmd.output,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	format, err := export.ParseFormat(cmd.format)
	if err != nil {
		return err
	}
	w, err := cmd.app.weekFor(cmd.date)
	if err != nil {
		return err
	}
	view, err := cmd.app.Service.LoadWeek(ctx, w)
	if err != nil {
		return err
	}

	r := export.NewReport(cmd.app.Service.User(), w, view.Entries, cmd.app.Service.Rules(), cmd.app.Now())
	path, err := export.Write(r, format, cmd.app.Config.ExportDir(), cmd.output)
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Exported %d entries to %s\n", len(r.Entries), path)
	return nil
}
