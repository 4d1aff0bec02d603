package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/sheetr/internal/commands"
	"github.com/sadopc/sheetr/internal/config"
	"github.com/sadopc/sheetr/internal/logging"
	"github.com/sadopc/sheetr/internal/timesheet"
)

// Populated at build-time via -ldflags.
var version = "dev"

func build() string {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				return mv
			}
		}
	}
	return version
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &commands.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "sheetr",
		Usage:     "Weekly timesheets from the terminal",
		UsageText: "sheetr [global options] command [command options]",
		Description: `sheetr records hours per day, checks a week against the timesheet rules and
submits it for approval. Root-level users can auto-approve their own weeks.

Run 'sheetr' with no arguments to open the interactive timesheet.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SHEETR_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/sheetr.log)",
				Sources:     cli.EnvVars("SHEETR_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SHEETR_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("SHEETR_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the TUI owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "sheetr.log")
			}

			logger, closer, err := logging.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			opened, err := commands.Open(ctx, cfg)
			if err != nil {
				return ctx, err
			}
			// Commands already hold a pointer to app.
			*app = *opened

			log.Debug().Str("user", cfg.User.ID).Str("db", cfg.Database.Path).Msg("sheetr started")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := app.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	root = commands.RegisterAll(root, app)

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr)
		for _, msg := range timesheet.ValidationMessages(err) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
