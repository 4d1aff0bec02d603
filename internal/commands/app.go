package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sadopc/sheetr/internal/config"
	"github.com/sadopc/sheetr/internal/logging"
	"github.com/sadopc/sheetr/internal/store"
	"github.com/sadopc/sheetr/internal/timer"
	"github.com/sadopc/sheetr/internal/timesheet"
	"github.com/sadopc/sheetr/internal/workflow"
)

// App holds the services shared by every command. main allocates it before
// registering commands and the root Before hook fills it in.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Service *workflow.Service
	Timer   *timer.Controller
	Now     func() time.Time
}

// Open opens the database named by cfg and wires the services for its user.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.New(cfg.Database.Path,
		store.WithRules(cfg.TimesheetRules()),
		store.WithBusyTimeout(cfg.Database.BusyTimeoutMS),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := NewApp(cfg, st, time.Now)
	if _, err := app.Service.RefreshPolicy(ctx); err != nil {
		log.Warn().Err(err).Msg("initial policy load failed")
	}
	return app, nil
}

// NewApp wires the services over an open store.
func NewApp(cfg *config.Config, st *store.Store, now func() time.Time) *App {
	return &App{
		Config: cfg,
		Store:  st,
		Service: workflow.New(st, st, cfg.User.ID,
			workflow.WithRules(cfg.TimesheetRules()),
			workflow.WithClock(now),
			workflow.WithLogger(logging.Component("workflow")),
		),
		Timer: timer.New(st, cfg.User.ID,
			timer.WithClock(now),
			timer.WithLogger(logging.Component("timer")),
		),
		Now: now,
	}
}

func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// weekFor returns the week containing date, or the current week when date
// is empty.
func (a *App) weekFor(date string) (timesheet.Week, error) {
	if date == "" {
		return a.Service.CurrentWeek(), nil
	}
	d, err := timesheet.ParseDate(date)
	if err != nil {
		return timesheet.Week{}, err
	}
	return timesheet.WeekOf(d), nil
}

// dateOrToday parses date, defaulting to today.
func (a *App) dateOrToday(date string) (timesheet.Date, error) {
	if date == "" {
		return a.Service.Today(), nil
	}
	return timesheet.ParseDate(date)
}

// projectID resolves a project by name.
func (a *App) projectID(ctx context.Context, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	p, err := a.Store.GetProjectByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", name, err)
	}
	return &p.ID, nil
}
