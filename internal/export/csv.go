package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var csvHeader = []string{
	"ID", "Date", "Project", "Task", "Activity", "Hours", "Billable", "Amount", "Status", "Description",
}

// ToCSV writes one row per entry followed by a TOTAL row.
func ToCSV(r Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i := range r.Entries {
		e := &r.Entries[i]
		row := []string{
			e.ID,
			e.WorkDate.String(),
			project(*e),
			e.TaskName,
			e.ActivityType,
			e.Hours.String(),
			strconv.FormatBool(e.Billable),
			money(e),
			e.Status.String(),
			e.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	total := []string{
		"TOTAL", "", "", "", "",
		r.Summary.TotalHours.String(),
		r.Summary.BillableHours.String(),
		r.Summary.TotalAmount.StringFixed(2),
		string(r.Summary.Status),
		"",
	}
	if err := w.Write(total); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
