package timesheet

import "fmt"

// CanAddEntries reports whether new entries may be created in a week holding
// entries. A week is locked once any entry is under review, unless the user
// is fixing a rejection.
func CanAddEntries(entries []Entry) bool {
	if len(entries) == 0 {
		return true
	}

	allDraft := true
	for _, e := range entries {
		if e.Status == StatusRejected {
			return true
		}
		if e.Status != StatusDraft {
			allDraft = false
		}
	}
	return allDraft
}

// WeekLockedError is returned when an entry is added to a locked week.
type WeekLockedError struct {
	Week Week
}

func (e *WeekLockedError) Error() string {
	return fmt.Sprintf("%s: week %s is under review, new entries are not allowed", ErrStateViolation, e.Week)
}

func (e *WeekLockedError) Is(target error) bool { return target == ErrStateViolation }
