package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// Status is the approval state of an entry.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus accepts the canonical upper-case names.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) String() string { return string(s) }

// Event is something that happens to an entry.
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventEdit    Event = "edit"
	EventDelete  Event = "delete"
)

// removed is the pseudo-state of a deleted entry.
const removed Status = ""

// transitions is the single source of truth for what an entry may do in
// each state. Creation always yields DRAFT and is not listed.
var transitions = map[Status]map[Event]Status{
	StatusDraft: {
		EventSubmit: StatusSubmitted,
		EventEdit:   StatusDraft,
		EventDelete: removed,
	},
	StatusSubmitted: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
	StatusRejected: {
		EventEdit:   StatusDraft,
		EventDelete: removed,
	},
	StatusApproved: {},
}

// Next returns the state reached from `from` on ev. ok is false when the
// transition is not allowed.
func Next(from Status, ev Event) (to Status, ok bool) {
	to, ok = transitions[from][ev]
	return to, ok
}

// Allowed reports whether ev is legal in state s.
func Allowed(s Status, ev Event) bool {
	_, ok := Next(s, ev)
	return ok
}

// CanDelete reports whether e may be deleted by its owner.
func CanDelete(e Entry) bool { return Allowed(e.Status, EventDelete) }

// CanEdit reports whether e's fields may be changed by its owner.
func CanEdit(e Entry) bool { return Allowed(e.Status, EventEdit) }

// CanSubmit reports whether e is eligible for the batch submission.
func CanSubmit(e Entry) bool { return Allowed(e.Status, EventSubmit) }

// CanReview reports whether an approver may approve or reject e.
func CanReview(e Entry) bool { return Allowed(e.Status, EventApprove) }

func violation(e *Entry, ev Event) error {
	return &StateViolationError{EntryID: e.ID, From: e.Status, Event: ev}
}

// Submit moves a DRAFT entry to SUBMITTED.
func Submit(e *Entry, at time.Time) error {
	to, ok := Next(e.Status, EventSubmit)
	if !ok {
		return violation(e, EventSubmit)
	}
	e.Status = to
	e.SubmittedAt = &at
	e.UpdatedAt = at
	return nil
}

// Approve moves a SUBMITTED entry to APPROVED, recording the approver. A
// completed approval ends the rejection cycle, so the rejection reason is
// cleared.
func Approve(e *Entry, by string, at time.Time, auto bool) error {
	if by == "" {
		return NewValidationError(fmt.Errorf("approver is required"))
	}
	to, ok := Next(e.Status, EventApprove)
	if !ok {
		return violation(e, EventApprove)
	}
	e.Status = to
	e.ApprovedBy = by
	e.ApprovedAt = &at
	e.AutoApproved = auto
	e.RejectionReason = ""
	e.UpdatedAt = at
	return nil
}

// Reject moves a SUBMITTED entry to REJECTED. reason must be non-blank.
func Reject(e *Entry, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError(fmt.Errorf("rejection reason is required"))
	}
	to, ok := Next(e.Status, EventReject)
	if !ok {
		return violation(e, EventReject)
	}
	e.Status = to
	e.RejectionReason = reason
	e.UpdatedAt = at
	return nil
}

// ApplyEdit replaces the editable fields of e with d. Editing a REJECTED
// entry returns it to DRAFT; its rejection reason stays visible until the
// next approval.
func ApplyEdit(e *Entry, d Draft, at time.Time) error {
	to, ok := Next(e.Status, EventEdit)
	if !ok {
		return violation(e, EventEdit)
	}
	e.WorkDate = d.WorkDate
	e.ProjectID = d.ProjectID
	e.TaskID = d.TaskID
	e.Hours = d.Hours
	e.Description = d.Description
	e.Billable = d.Billable
	e.ActivityType = d.ActivityType
	e.Status = to
	e.SubmittedAt = nil
	e.UpdatedAt = at
	return nil
}

// CheckDelete returns a *StateViolationError when e may not be deleted.
func CheckDelete(e Entry) error {
	if !CanDelete(e) {
		return violation(&e, EventDelete)
	}
	return nil
}
