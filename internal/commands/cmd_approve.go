package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ApproveCmd struct {
	app *App

	reason string
}

// NewApproveCmd creates a new approve command
func NewApproveCmd(app *App) *ApproveCmd {
	return &ApproveCmd{app: app}
}

// Register adds the approve command to the application
func (cmd *ApproveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "approve",
		Usage: "Auto-approve your own entries or review other users' entries",
		Commands: []*cli.Command{
			{
				Name:  "auto",
				Usage: "Approve all of your SUBMITTED entries (root-level users only)",
				Action: func(ctx context.Context, c *cli.Command) error {
					n, err := cmd.app.Service.AutoApprove(ctx)
					if err != nil {
						return err
					}
					if n == 0 {
						_, _ = fmt.Fprintln(c.Root().Writer, "Nothing to approve.")
						return nil
					}
					_, _ = fmt.Fprintf(c.Root().Writer, "Auto-approved %d entries.\n", n)
					return nil
				},
			},
			{
				Name:  "pending",
				Usage: "List other users' entries awaiting review",
				Action: func(ctx context.Context, c *cli.Command) error {
					pending, err := cmd.app.Service.Pending(ctx)
					if err != nil {
						return err
					}
					printPending(c.Root().Writer, pending)
					return nil
				},
			},
			{
				Name:      "accept",
				Usage:     "Approve a SUBMITTED entry",
				ArgsUsage: "<entry-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := entryArg(c)
					if err != nil {
						return err
					}
					e, err := cmd.app.Service.Approve(ctx, id)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.Root().Writer, "Approved %s (%s, %s h)\n", e.ID, e.UserID, e.Hours)
					return nil
				},
			},
			{
				Name:      "reject",
				Usage:     "Reject a SUBMITTED entry with a reason",
				ArgsUsage: "<entry-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "reason",
						Aliases:     []string{"r"},
						Usage:       "why the entry is rejected",
						Required:    true,
						Destination: &cmd.reason,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := entryArg(c)
					if err != nil {
						return err
					}
					e, err := cmd.app.Service.Reject(ctx, id, cmd.reason)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.Root().Writer, "Rejected %s (%s)\n", e.ID, e.UserID)
					return nil
				},
			},
		},
	})
	return app
}
