package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestCapabilities(t *testing.T) {
	tests := []struct {
		status                    Status
		del, edit, submit, review bool
	}{
		{StatusDraft, true, true, true, false},
		{StatusSubmitted, false, false, false, true},
		{StatusApproved, false, false, false, false},
		{StatusRejected, true, true, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			e := Entry{Status: tt.status}
			assert.Equal(t, tt.del, CanDelete(e))
			assert.Equal(t, tt.edit, CanEdit(e))
			assert.Equal(t, tt.submit, CanSubmit(e))
			assert.Equal(t, tt.review, CanReview(e))
		})
	}
}

func TestCheckDelete(t *testing.T) {
	require.NoError(t, CheckDelete(Entry{Status: StatusDraft}))
	require.NoError(t, CheckDelete(Entry{Status: StatusRejected}))

	err := CheckDelete(Entry{ID: "e1", Status: StatusSubmitted})
	require.Error(t, err)
	assert.True(t, IsStateViolation(err))

	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "e1", sv.EntryID)
	assert.Equal(t, EventDelete, sv.Event)

	assert.True(t, IsStateViolation(CheckDelete(Entry{Status: StatusApproved})))
}

func TestSubmit(t *testing.T) {
	e := entry("2025-03-03", "8", StatusDraft)
	require.NoError(t, Submit(&e, at))
	assert.Equal(t, StatusSubmitted, e.Status)
	require.NotNil(t, e.SubmittedAt)

	before := e
	err := Submit(&e, at.Add(time.Hour))
	assert.True(t, IsStateViolation(err))
	assert.Equal(t, before, e)
}

func TestApprove(t *testing.T) {
	e := entry("2025-03-03", "8", StatusSubmitted)
	e.RejectionReason = "missing ticket number"

	require.NoError(t, Approve(&e, "manager", at, false))
	assert.Equal(t, StatusApproved, e.Status)
	assert.Equal(t, "manager", e.ApprovedBy)
	assert.Equal(t, at, *e.ApprovedAt)
	assert.Empty(t, e.RejectionReason)
	assert.False(t, e.AutoApproved)

	// approved is terminal
	for _, ev := range []Event{EventSubmit, EventApprove, EventReject, EventEdit, EventDelete} {
		assert.False(t, Allowed(StatusApproved, ev), ev)
	}
}

func TestApproveRequiresSubmitted(t *testing.T) {
	e := entry("2025-03-03", "8", StatusDraft)
	before := e

	err := Approve(&e, "manager", at, false)
	assert.True(t, IsStateViolation(err))
	assert.Equal(t, before, e)

	err = Approve(&e, "", at, false)
	assert.True(t, IsValidation(err))
}

func TestRejectRequiresReason(t *testing.T) {
	e := entry("2025-03-03", "8", StatusSubmitted)
	before := e

	err := Reject(&e, "   ", at)
	assert.True(t, IsValidation(err))
	assert.Equal(t, before, e)

	require.NoError(t, Reject(&e, "wrong project", at))
	assert.Equal(t, StatusRejected, e.Status)
	assert.Equal(t, "wrong project", e.RejectionReason)
}

func TestEditRejectedReturnsToDraft(t *testing.T) {
	e := entry("2025-03-03", "8", StatusSubmitted)
	require.NoError(t, Reject(&e, "split the meeting time", at))

	d := DraftOf(e)
	d.Hours = hours("6.5")
	require.NoError(t, ApplyEdit(&e, d, at))

	assert.Equal(t, StatusDraft, e.Status)
	assert.Equal(t, "6.5", e.Hours.String())
	assert.Equal(t, "split the meeting time", e.RejectionReason)
	assert.Nil(t, e.SubmittedAt)
}

func TestEditSubmittedRefused(t *testing.T) {
	e := entry("2025-03-03", "8", StatusSubmitted)
	before := e

	err := ApplyEdit(&e, Draft{Hours: hours("1")}, at)
	assert.True(t, IsStateViolation(err))
	assert.Equal(t, before, e)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("REJECTED")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, st)

	_, err = ParseStatus("rejected")
	assert.Error(t, err)
}
