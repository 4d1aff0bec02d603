package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// RegisterAll adds every subcommand to root and makes the TUI the default
// action.
func RegisterAll(root *cli.Command, app *App) *cli.Command {
	tuiCmd := NewTuiCmd(app)

	root = NewEntryCmd(app).Register(root)
	root = NewWeekCmd(app).Register(root)
	root = NewApproveCmd(app).Register(root)
	root = NewTimerCmd(app).Register(root)
	root = NewExportCmd(app).Register(root)
	root = NewProjectCmd(app).Register(root)
	root = NewPolicyCmd(app).Register(root)
	root = tuiCmd.Register(root)

	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'sheetr --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}
	return root
}
