package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/sheetr/internal/timesheet"
)

type jsonExport struct {
	ExportedAt string            `json:"exported_at"`
	User       string            `json:"user"`
	WeekStart  timesheet.Date    `json:"week_start"`
	WeekEnd    timesheet.Date    `json:"week_end"`
	Count      int               `json:"count"`
	Summary    timesheet.Summary `json:"summary"`
	Entries    []timesheet.Entry `json:"entries"`
}

// ToJSON writes the entries and the summary as one indented document.
func ToJSON(r Report, path string) error {
	doc := jsonExport{
		ExportedAt: r.GeneratedAt.Format(time.RFC3339),
		User:       r.User,
		WeekStart:  r.Week.Start,
		WeekEnd:    r.Week.End(),
		Count:      len(r.Entries),
		Summary:    r.Summary,
		Entries:    r.Entries,
	}
	if doc.Entries == nil {
		doc.Entries = []timesheet.Entry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
