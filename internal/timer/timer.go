// Package timer implements a stopwatch whose only state is a persisted start
// timestamp. Elapsed time is always recomputed from that timestamp, so a
// restarted process picks up a running session without drift.
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyRunning = errors.New("timer is already running")
	ErrNotRunning     = errors.New("timer is not running")
)

var secondsPerHour = decimal.NewFromInt(3600)

// Session is the durable record of a running timer.
type Session struct {
	UserID    string
	StartedAt time.Time
}

// SessionStore persists at most one session per user. LoadTimer returns
// (nil, nil) when no session exists.
type SessionStore interface {
	LoadTimer(ctx context.Context, userID string) (*Session, error)
	SaveTimer(ctx context.Context, s Session) error
	ClearTimer(ctx context.Context, userID string) error
}

// Result is what a stopped timer hands to the entry form.
type Result struct {
	StartedAt time.Time
	StoppedAt time.Time
	Elapsed   time.Duration
	Hours     decimal.Decimal
}

type Controller struct {
	store  SessionStore
	userID string
	now    func() time.Time
	log    zerolog.Logger
}

type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func New(store SessionStore, userID string, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		userID: userID,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start persists a new session. It fails if one is already running.
func (c *Controller) Start(ctx context.Context) (Session, error) {
	cur, err := c.store.LoadTimer(ctx, c.userID)
	if err != nil {
		return Session{}, fmt.Errorf("load timer: %w", err)
	}
	if cur != nil {
		return *cur, ErrAlreadyRunning
	}

	s := Session{UserID: c.userID, StartedAt: c.now().UTC().Truncate(time.Second)}
	if err := c.store.SaveTimer(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save timer: %w", err)
	}
	c.log.Info().Time("started_at", s.StartedAt).Msg("timer started")
	return s, nil
}

// Current returns the running session, or nil.
func (c *Controller) Current(ctx context.Context) (*Session, error) {
	s, err := c.store.LoadTimer(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("load timer: %w", err)
	}
	return s, nil
}

// Running reports whether a session is persisted.
func (c *Controller) Running(ctx context.Context) (bool, error) {
	s, err := c.Current(ctx)
	return s != nil, err
}

// Elapsed reloads the session and returns now - startedAt, or zero when no
// timer is running.
func (c *Controller) Elapsed(ctx context.Context) (time.Duration, error) {
	s, err := c.Current(ctx)
	if err != nil || s == nil {
		return 0, err
	}
	return c.Since(*s), nil
}

// Since returns the elapsed time of s at the controller's now. It never goes
// negative, even if the clock moved backwards.
func (c *Controller) Since(s Session) time.Duration {
	d := c.now().Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Stop clears the session and returns the elapsed time as hours rounded to
// two places. Stopping does not create an entry.
func (c *Controller) Stop(ctx context.Context) (Result, error) {
	s, err := c.Current(ctx)
	if err != nil {
		return Result{}, err
	}
	if s == nil {
		return Result{}, ErrNotRunning
	}

	stopped := c.now()
	elapsed := c.Since(*s)
	if err := c.store.ClearTimer(ctx, c.userID); err != nil {
		return Result{}, fmt.Errorf("clear timer: %w", err)
	}

	r := Result{
		StartedAt: s.StartedAt,
		StoppedAt: stopped,
		Elapsed:   elapsed,
		Hours:     HoursFromElapsed(elapsed),
	}
	c.log.Info().Dur("elapsed", elapsed).Str("hours", r.Hours.String()).Msg("timer stopped")
	return r, nil
}

// Clear discards a running session without producing hours.
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.store.ClearTimer(ctx, c.userID); err != nil {
		return fmt.Errorf("clear timer: %w", err)
	}
	c.log.Info().Msg("timer cleared")
	return nil
}

// HoursFromElapsed converts d to hours rounded to two decimal places.
func HoursFromElapsed(d time.Duration) decimal.Decimal {
	secs := decimal.NewFromInt(int64(d / time.Second))
	return secs.Div(secondsPerHour).Round(2)
}

// Format renders d as HH:MM:SS.
func Format(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
