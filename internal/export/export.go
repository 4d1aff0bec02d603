// Package export writes a user's week to CSV, JSON or PDF.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// Report is one user's week together with its rollups.
type Report struct {
	User        string
	Week        timesheet.Week
	Entries     []timesheet.Entry
	Summary     timesheet.Summary
	GeneratedAt time.Time
}

// NewReport summarizes entries for w.
func NewReport(user string, w timesheet.Week, entries []timesheet.Entry, rules timesheet.Rules, now time.Time) Report {
	return Report{
		User:        user,
		Week:        w,
		Entries:     entries,
		Summary:     timesheet.Summarize(w, entries, rules),
		GeneratedAt: now.UTC(),
	}
}

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	PDF  Format = "pdf"
)

// ParseFormat accepts csv, json or pdf in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, PDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or pdf)", s)
}

// FileName is the default file name for r in format f.
func FileName(r Report, f Format) string {
	return fmt.Sprintf("timesheet-%s-%s.%s", r.User, r.Week.Start, f)
}

// Write renders r to path in format f. An empty path writes FileName(r, f)
// under dir.
func Write(r Report, f Format, dir, path string) (string, error) {
	if path == "" {
		path = filepath.Join(dir, FileName(r, f))
	}
	var err error
	switch f {
	case CSV:
		err = ToCSV(r, path)
	case JSON:
		err = ToJSON(r, path)
	case PDF:
		err = ToPDF(r, path)
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	return path, err
}

func project(e timesheet.Entry) string {
	if e.ProjectName == "" {
		return timesheet.NoProject
	}
	return e.ProjectName
}

func money(e *timesheet.Entry) string {
	if e.BillingAmount == nil {
		return ""
	}
	return e.BillingAmount.StringFixed(2)
}
