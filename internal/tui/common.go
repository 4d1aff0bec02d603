package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/timesheet"
)

type viewState int

const (
	viewWeek viewState = iota
	viewReports
	viewApprovals
	viewProjects
	viewSettings
)

var viewNames = []string{"Week", "Reports", "Approvals", "Projects", "Settings"}

// Messages shared across views.
type (
	tickMsg time.Time

	statusMsg struct {
		text    string
		isError bool
	}

	exportDoneMsg struct {
		path  string
		count int
	}

	// weekChangedMsg asks every view that shows week data to reload.
	weekChangedMsg struct{}
)

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: errorText(err), isError: true} }
}

// errorText flattens validation errors onto one line for the status bar.
func errorText(err error) string {
	msgs := timesheet.ValidationMessages(err)
	switch len(msgs) {
	case 0:
		return "Error"
	case 1:
		return "Error: " + msgs[0]
	}
	return fmt.Sprintf("Error: %s (+%d more)", msgs[0], len(msgs)-1)
}

func formatHours(d decimal.Decimal) string {
	return d.StringFixed(2) + "h"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
