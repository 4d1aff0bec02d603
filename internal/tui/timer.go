package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/sheetr/internal/timer"
)

type (
	timerLoadedMsg struct {
		session *timer.Session
	}

	timerStartedMsg struct {
		session timer.Session
	}

	timerStoppedMsg struct {
		result timer.Result
	}
)

// timerModel mirrors the persisted session. The start timestamp is the only
// state; elapsed is recomputed on every tick, so a session started from the
// CLI or a previous run is picked up as-is.
type timerModel struct {
	ctx  context.Context
	ctrl *timer.Controller

	session *timer.Session
	elapsed time.Duration
}

func newTimerModel(ctx context.Context, c *timer.Controller) timerModel {
	return timerModel{ctx: ctx, ctrl: c}
}

func (t timerModel) load() tea.Cmd {
	return func() tea.Msg {
		s, err := t.ctrl.Current(t.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return timerLoadedMsg{session: s}
	}
}

func (t timerModel) start() tea.Cmd {
	return func() tea.Msg {
		s, err := t.ctrl.Start(t.ctx)
		if errors.Is(err, timer.ErrAlreadyRunning) {
			return timerLoadedMsg{session: &s}
		}
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return timerStartedMsg{session: s}
	}
}

func (t timerModel) stop() tea.Cmd {
	return func() tea.Msg {
		r, err := t.ctrl.Stop(t.ctx)
		if err != nil {
			return statusMsg{text: errorText(err), isError: true}
		}
		return timerStoppedMsg{result: r}
	}
}

func (t timerModel) update(msg tea.Msg) timerModel {
	switch msg := msg.(type) {
	case timerLoadedMsg:
		t.session = msg.session
	case timerStartedMsg:
		s := msg.session
		t.session = &s
	case timerStoppedMsg:
		t.session = nil
		t.elapsed = 0
		return t
	case tickMsg:
	default:
		return t
	}
	t.tick()
	return t
}

func (t *timerModel) tick() {
	if t.session == nil {
		t.elapsed = 0
		return
	}
	t.elapsed = t.ctrl.Since(*t.session)
}

func (t timerModel) running() bool { return t.session != nil }

func (t timerModel) view() string {
	if !t.running() {
		return timerStyle.Render("■ 00:00:00") + mutedStyle.Render("  s: start timer")
	}
	started := t.session.StartedAt.Local().Format("15:04")
	return timerRunningStyle.Render("● "+timer.Format(t.elapsed)) +
		mutedStyle.Render("  since "+started+"  x: stop and log")
}
