package timesheet

import "github.com/shopspring/decimal"

// Rules holds the thresholds used by validation and aggregation.
type Rules struct {
	MinDescriptionLength int
	MaxEntryHours        decimal.Decimal
	OvertimeThreshold    decimal.Decimal
	HighHoursPerDay      decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		MinDescriptionLength: 10,
		MaxEntryHours:        decimal.NewFromInt(24),
		OvertimeThreshold:    decimal.NewFromInt(40),
		HighHoursPerDay:      decimal.NewFromInt(12),
	}
}

// Policy is the tenant and identity state read from the policy provider.
// The engine treats it as external truth and never derives it.
type Policy struct {
	AllowFutureTimesheets bool
	RootLevel             RootLevelStatus
}

// RootLevelStatus says whether the user may auto-approve their own
// submitted entries, and how many are waiting.
type RootLevelStatus struct {
	Eligible     bool `json:"eligible"`
	PendingCount int  `json:"pending_count"`
}

// CanAutoApprove reports whether the fast path is worth offering.
func (r RootLevelStatus) CanAutoApprove() bool {
	return r.Eligible && r.PendingCount > 0
}
