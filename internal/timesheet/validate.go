package timesheet

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"
)

// ValidateDraft checks a single create or edit payload. Descriptions shorter
// than the submission minimum are accepted here; CheckWeek refuses them.
// Work dates are compared as calendar days, so today is always allowed.
func ValidateDraft(d Draft, today Date, allowFuture bool, rules Rules) error {
	err := criterio.ValidateStruct(
		criterio.Run("work_date", d.WorkDate, workDate(today, allowFuture)),
		criterio.Run("hours_worked", d.Hours, hoursInRange(rules.MaxEntryHours)),
		criterio.Run("description", d.Description, required),
	)
	return NewValidationError(err)
}

// ValidateHours checks 0 < h <= max.
func ValidateHours(h, max decimal.Decimal) error {
	return hoursInRange(max)(h)
}

func hoursInRange(max decimal.Decimal) func(decimal.Decimal) error {
	return func(h decimal.Decimal) error {
		if !h.IsPositive() {
			return errors.New("hours must be greater than 0")
		}
		if h.GreaterThan(max) {
			return fmt.Errorf("hours must be at most %s", max)
		}
		return nil
	}
}

func workDate(today Date, allowFuture bool) func(Date) error {
	return func(d Date) error {
		if d.IsZero() {
			return errors.New("work date is required")
		}
		if !allowFuture && d.After(today) {
			return fmt.Errorf("work date %s is in the future", d)
		}
		return nil
	}
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("is required")
	}
	return nil
}

// DescriptionLength counts characters, not bytes, after trimming leading and
// trailing whitespace. Padding never makes a description long enough.
func DescriptionLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Submittable reports whether e alone passes the per-entry submission rules.
func Submittable(e Entry, rules Rules) bool {
	return DescriptionLength(e.Description) >= rules.MinDescriptionLength &&
		ValidateHours(e.Hours, rules.MaxEntryHours) == nil
}

// WeekCheck is the outcome of the week-level rules. Errors block submission;
// the remaining fields are advisory.
type WeekCheck struct {
	Errors        []string        `json:"errors,omitempty"`
	Overtime      bool            `json:"overtime"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	HighHoursDays []Date          `json:"high_hours_days,omitempty"`
	MissingDays   []Date          `json:"missing_days,omitempty"`

	err error
}

// CanSubmit reports whether no blocking rule failed.
func (c WeekCheck) CanSubmit() bool { return c.err == nil }

// Err returns a *ValidationError with every blocking message, or nil.
func (c WeekCheck) Err() error { return c.err }

// CheckWeek runs every week-level rule over entries and collects all
// failures; it never stops at the first one. Entries outside week are
// ignored.
func CheckWeek(week Week, entries []Entry, rules Rules) WeekCheck {
	var (
		check   WeekCheck
		errs    criterio.FieldErrorsBuilder
		total   = decimal.Zero
		perDay  [7]decimal.Decimal
		counts  [7]int
		inWeek  int
		minDesc = rules.MinDescriptionLength
	)

	for i, e := range entries {
		idx := week.Index(e.WorkDate)
		if idx < 0 {
			continue
		}
		inWeek++
		counts[idx]++
		perDay[idx] = perDay[idx].Add(e.Hours)
		total = total.Add(e.Hours)

		field := fmt.Sprintf("entries[%d]", i)
		if n := DescriptionLength(e.Description); n < minDesc {
			errs = errs.Append(field+".description",
				fmt.Errorf("invalid description on %s (%d characters, minimum %d)", e.WorkDate, n, minDesc))
		}
		if err := ValidateHours(e.Hours, rules.MaxEntryHours); err != nil {
			errs = errs.Append(field+".hours_worked", fmt.Errorf("invalid hours on %s: %w", e.WorkDate, err))
		}
	}

	if inWeek == 0 {
		errs = errs.Append("", errors.New("no entries for this week"))
	}
	if total.IsZero() {
		errs = errs.Append("", errors.New("total hours for the week is zero"))
	}

	var missing []Date
	days := week.Days()
	for i, n := range counts {
		if n == 0 {
			missing = append(missing, days[i])
		}
		if perDay[i].GreaterThan(rules.HighHoursPerDay) {
			check.HighHoursDays = append(check.HighHoursDays, days[i])
		}
	}
	switch {
	case len(missing) == len(days):
		errs = errs.Append("", errors.New("every day of the week has no entries"))
	case len(missing) > 0:
		check.MissingDays = missing
	}

	check.OvertimeHours = decimal.Zero
	if total.GreaterThan(rules.OvertimeThreshold) {
		check.Overtime = true
		check.OvertimeHours = total.Sub(rules.OvertimeThreshold)
	}

	if err := NewValidationError(errs.ToError()); err != nil {
		check.err = err
		check.Errors = ValidationMessages(err)
	}
	return check
}
