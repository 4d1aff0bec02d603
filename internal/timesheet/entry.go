package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one logged block of work.
type Entry struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	WorkDate        Date             `json:"work_date"`
	ProjectID       *int64           `json:"project_id,omitempty"`
	ProjectName     string           `json:"project_name,omitempty"`
	TaskID          *int64           `json:"task_id,omitempty"`
	TaskName        string           `json:"task_name,omitempty"`
	Hours           decimal.Decimal  `json:"hours_worked"`
	Description     string           `json:"description"`
	Billable        bool             `json:"is_billable"`
	BillingRate     *decimal.Decimal `json:"billing_rate,omitempty"`
	BillingAmount   *decimal.Decimal `json:"billing_amount,omitempty"`
	ActivityType    string           `json:"activity_type,omitempty"`
	Status          Status           `json:"status"`
	SubmittedAt     *time.Time       `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy      string           `json:"approved_by,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	AutoApproved    bool             `json:"is_auto_approved"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Draft is the payload for creating or editing an entry.
type Draft struct {
	WorkDate     Date            `json:"work_date"`
	ProjectID    *int64          `json:"project_id,omitempty"`
	TaskID       *int64          `json:"task_id,omitempty"`
	Hours        decimal.Decimal `json:"hours_worked"`
	Description  string          `json:"description"`
	Billable     bool            `json:"is_billable"`
	ActivityType string          `json:"activity_type,omitempty"`
}

// DraftOf returns the editable fields of e.
func DraftOf(e Entry) Draft {
	return Draft{
		WorkDate:     e.WorkDate,
		ProjectID:    e.ProjectID,
		TaskID:       e.TaskID,
		Hours:        e.Hours,
		Description:  e.Description,
		Billable:     e.Billable,
		ActivityType: e.ActivityType,
	}
}

// CopyEntry clones src onto date. Description, project, task, activity,
// billability and hours carry over; approval state does not.
func CopyEntry(src Entry, date Date) Draft {
	d := DraftOf(src)
	d.WorkDate = date
	return d
}

// HasProject reports whether the entry references a project.
func (e Entry) HasProject() bool { return e.ProjectID != nil }

// Amount returns the billing amount, or zero when none was computed.
func (e Entry) Amount() decimal.Decimal {
	if e.BillingAmount == nil {
		return decimal.Zero
	}
	return *e.BillingAmount
}
