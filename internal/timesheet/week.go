package timesheet

import "time"

// Week is the Monday to Sunday window containing a date.
type Week struct {
	Start Date
}

// WeekOf returns the week containing d.
func WeekOf(d Date) Week {
	// Monday = 0 ... Sunday = 6
	offset := (int(d.Weekday()) + 6) % 7
	return Week{Start: d.AddDays(-offset)}
}

// End returns the Sunday of the week.
func (w Week) End() Date { return w.Start.AddDays(6) }

// Days returns the seven dates of the week, Monday first.
func (w Week) Days() [7]Date {
	var days [7]Date
	for i := range days {
		days[i] = w.Start.AddDays(i)
	}
	return days
}

// Contains reports whether d falls inside the week.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End())
}

// Index returns d's position in the week (0 = Monday), or -1.
func (w Week) Index(d Date) int {
	if !w.Contains(d) {
		return -1
	}
	return int(d.Time().Sub(w.Start.Time()) / (24 * time.Hour))
}

func (w Week) Next() Week { return Week{Start: w.Start.AddDays(7)} }
func (w Week) Prev() Week { return Week{Start: w.Start.AddDays(-7)} }

func (w Week) String() string {
	return w.Start.String() + " .. " + w.End().String()
}

// Label is a short heading such as "Mar 03 - Mar 09, 2025".
func (w Week) Label() string {
	return w.Start.Format("Jan 02") + " - " + w.End().Format("Jan 02, 2006")
}
