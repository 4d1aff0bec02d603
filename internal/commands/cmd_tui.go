package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/tui"
)

type TuiCmd struct {
	app *App
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(app *App) *TuiCmd {
	return &TuiCmd{app: app}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "tui",
		Usage:  "Open the interactive timesheet (default)",
		Action: cmd.Run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	m := tui.NewApp(ctx, tui.Deps{
		Service:   cmd.app.Service,
		Store:     cmd.app.Store,
		Timer:     cmd.app.Timer,
		ExportDir: cmd.app.Config.ExportDir(),
		Now:       cmd.app.Now,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
