package timesheet

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// WeekStatus is the informational status of a week, derived from its entries.
type WeekStatus string

const (
	WeekDraft             WeekStatus = "DRAFT"
	WeekSubmitted         WeekStatus = "SUBMITTED"
	WeekApproved          WeekStatus = "APPROVED"
	WeekPartiallyRejected WeekStatus = "PARTIALLY_REJECTED"
)

const (
	OtherActivity = "Other"
	NoProject     = "No Project"
)

var hundred = decimal.NewFromInt(100)

// BreakdownItem is one category's share of the week.
type BreakdownItem struct {
	Label   string          `json:"label"`
	Hours   decimal.Decimal `json:"hours"`
	Percent decimal.Decimal `json:"percent"`
}

// DayTotal is the hours logged on one day.
type DayTotal struct {
	Date    Date            `json:"date"`
	Hours   decimal.Decimal `json:"hours"`
	Entries int             `json:"entries"`
}

// Summary is every rollup of a week's entry set.
type Summary struct {
	Week              Week            `json:"-"`
	EntryCount        int             `json:"entry_count"`
	TotalHours        decimal.Decimal `json:"total_hours"`
	BillableHours     decimal.Decimal `json:"billable_hours"`
	NonBillableHours  decimal.Decimal `json:"non_billable_hours"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	BillablePercent   decimal.Decimal `json:"billable_percent"`
	Utilization       decimal.Decimal `json:"utilization"`
	ActivityBreakdown []BreakdownItem `json:"activity_breakdown"`
	ProjectBreakdown  []BreakdownItem `json:"project_breakdown"`
	Days              [7]DayTotal     `json:"days"`
	Status            WeekStatus      `json:"status"`

	Draft     []Entry `json:"-"`
	Submitted []Entry `json:"-"`
	Approved  []Entry `json:"-"`
	Rejected  []Entry `json:"-"`
}

// Summarize reduces entries into a Summary. The result does not depend on the
// order of entries, and entries outside week are ignored. Utilization is
// total hours relative to the overtime threshold of rules.
func Summarize(week Week, entries []Entry, rules Rules) Summary {
	s := Summary{
		Week:             week,
		TotalHours:       decimal.Zero,
		BillableHours:    decimal.Zero,
		NonBillableHours: decimal.Zero,
		TotalAmount:      decimal.Zero,
	}
	for i, d := range week.Days() {
		s.Days[i] = DayTotal{Date: d, Hours: decimal.Zero}
	}

	activity := map[string]decimal.Decimal{}
	project := map[string]decimal.Decimal{}

	var inWeek []Entry
	for _, e := range entries {
		idx := week.Index(e.WorkDate)
		if idx < 0 {
			continue
		}
		inWeek = append(inWeek, e)

		s.EntryCount++
		s.TotalHours = s.TotalHours.Add(e.Hours)
		if e.Billable {
			s.BillableHours = s.BillableHours.Add(e.Hours)
		} else {
			s.NonBillableHours = s.NonBillableHours.Add(e.Hours)
		}
		s.TotalAmount = s.TotalAmount.Add(e.Amount())
		s.Days[idx].Hours = s.Days[idx].Hours.Add(e.Hours)
		s.Days[idx].Entries++

		activity[activityLabel(e)] = activity[activityLabel(e)].Add(e.Hours)
		project[projectLabel(e)] = project[projectLabel(e)].Add(e.Hours)

		switch e.Status {
		case StatusDraft:
			s.Draft = append(s.Draft, e)
		case StatusSubmitted:
			s.Submitted = append(s.Submitted, e)
		case StatusApproved:
			s.Approved = append(s.Approved, e)
		case StatusRejected:
			s.Rejected = append(s.Rejected, e)
		}
	}

	s.ActivityBreakdown = breakdown(activity, s.TotalHours)
	s.ProjectBreakdown = breakdown(project, s.TotalHours)
	s.BillablePercent = percentOf(s.BillableHours, s.TotalHours)
	s.Utilization = percentOf(s.TotalHours, rules.OvertimeThreshold)
	s.Status = DeriveWeekStatus(inWeek)
	return s
}

// PerDayTotal sums the hours of entries whose work date is d.
func PerDayTotal(entries []Entry, d Date) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.WorkDate == d {
			total = total.Add(e.Hours)
		}
	}
	return total
}

// DeriveWeekStatus applies the fixed precedence: all approved, then any
// rejected, then any submitted, otherwise draft.
func DeriveWeekStatus(entries []Entry) WeekStatus {
	if len(entries) == 0 {
		return WeekDraft
	}

	allApproved := true
	var anyRejected, anySubmitted bool
	for _, e := range entries {
		if e.Status != StatusApproved {
			allApproved = false
		}
		switch e.Status {
		case StatusRejected:
			anyRejected = true
		case StatusSubmitted:
			anySubmitted = true
		}
	}

	switch {
	case allApproved:
		return WeekApproved
	case anyRejected:
		return WeekPartiallyRejected
	case anySubmitted:
		return WeekSubmitted
	default:
		return WeekDraft
	}
}

func activityLabel(e Entry) string {
	if e.ActivityType == "" {
		return OtherActivity
	}
	return e.ActivityType
}

func projectLabel(e Entry) string {
	if e.ProjectName != "" {
		return e.ProjectName
	}
	return NoProject
}

// percentOf returns part/whole*100 rounded to 2 places, or 0 for a zero whole.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

func breakdown(m map[string]decimal.Decimal, total decimal.Decimal) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(m))
	for label, hours := range m {
		items = append(items, BreakdownItem{
			Label:   label,
			Hours:   hours,
			Percent: percentOf(hours, total),
		})
	}
	slices.SortFunc(items, func(a, b BreakdownItem) int {
		if c := b.Hours.Cmp(a.Hours); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return items
}
