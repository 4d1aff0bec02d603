package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

type PolicyCmd struct {
	app *App

	allowFuture bool
	rootLevel   []string
	revoke      []string
}

// NewPolicyCmd creates a new policy command
func NewPolicyCmd(app *App) *PolicyCmd {
	return &PolicyCmd{app: app}
}

// Register adds the policy command to the application
func (cmd *PolicyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "policy",
		Usage: "Show or change the tenant policy",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the future-date policy and root-level users",
				Action: cmd.runShow,
			},
			{
				Name:  "set",
				Usage: "Change the tenant policy",
				UsageText: `sheetr policy set --allow-future=true
sheetr policy set --root-level alice --revoke bob`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "allow-future",
						Usage:       "allow entries dated after today",
						Destination: &cmd.allowFuture,
					},
					&cli.StringSliceFlag{
						Name:        "root-level",
						Usage:       "grant root-level auto-approval to a user (repeatable)",
						Destination: &cmd.rootLevel,
					},
					&cli.StringSliceFlag{
						Name:        "revoke",
						Usage:       "revoke root-level auto-approval from a user (repeatable)",
						Destination: &cmd.revoke,
					},
				},
				Action: cmd.runSet,
			},
		},
	})
	return app
}

func (cmd *PolicyCmd) runShow(ctx context.Context, c *cli.Command) error {
	allow, err := cmd.app.Store.FutureDatePolicy(ctx)
	if err != nil {
		return err
	}
	users, err := cmd.app.Store.RootLevelUsers(ctx)
	if err != nil {
		return err
	}
	p, err := cmd.app.Service.RefreshPolicy(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "allow_future_timesheets: %t\n", allow)
	if len(users) == 0 {
		_, _ = fmt.Fprintln(out, "root_level_users: (none)")
	} else {
		_, _ = fmt.Fprintf(out, "root_level_users: %s\n", strings.Join(users, ", "))
	}
	_, _ = fmt.Fprintf(out, "you (%s): root-level=%t pending=%d\n",
		cmd.app.Service.User(), p.RootLevel.Eligible, p.RootLevel.PendingCount)
	return nil
}

func (cmd *PolicyCmd) runSet(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	changed := false

	if c.IsSet("allow-future") {
		if err := cmd.app.Store.SetFutureDatePolicy(ctx, cmd.allowFuture); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "allow_future_timesheets = %t\n", cmd.allowFuture)
		changed = true
	}
	for _, u := range cmd.rootLevel {
		if err := cmd.app.Store.SetRootLevel(ctx, u, true); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "granted root-level to %s\n", u)
		changed = true
	}
	for _, u := range cmd.revoke {
		if err := cmd.app.Store.SetRootLevel(ctx, u, false); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "revoked root-level from %s\n", u)
		changed = true
	}

	if !changed {
		return fmt.Errorf("nothing to change: pass --allow-future, --root-level or --revoke")
	}
	_, err := cmd.app.Service.RefreshPolicy(ctx)
	return err
}
