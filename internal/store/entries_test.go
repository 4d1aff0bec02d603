package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/sheetr/internal/timesheet"
)

var (
	monday = timesheet.MustParseDate("2025-03-03")
	sunday = timesheet.MustParseDate("2025-03-09")
)

func draft(date, hours string) timesheet.Draft {
	return timesheet.Draft{
		WorkDate:     timesheet.MustParseDate(date),
		Hours:        decimal.RequireFromString(hours),
		Description:  "Implemented invoice export",
		ActivityType: "Development",
	}
}

func mustCreate(t *testing.T, s *Store, user string, d timesheet.Draft) *timesheet.Entry {
	t.Helper()
	e, err := s.CreateEntry(context.Background(), user, d)
	require.NoError(t, err)
	return e
}

// ============================================================
// Create / get / list
// ============================================================

func TestCreateEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := mustCreate(t, s, "alice", draft("2025-03-03", "7.5"))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "alice", e.UserID)
	assert.Equal(t, monday, e.WorkDate)
	assert.Equal(t, "7.5", e.Hours.String())
	assert.Equal(t, timesheet.StatusDraft, e.Status)
	assert.Nil(t, e.BillingAmount)
	assert.True(t, testNow.Equal(e.CreatedAt))

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Description, got.Description)
}

func TestCreateEntryComputesBilling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, ProjectInput{Name: "Acme", Billable: true, BillingRate: rate("80")})
	require.NoError(t, err)

	d := draft("2025-03-04", "2.25")
	d.ProjectID = &p.ID
	d.Billable = true
	e := mustCreate(t, s, "alice", d)

	require.NotNil(t, e.BillingAmount)
	assert.Equal(t, "180", e.BillingAmount.String())
	assert.Equal(t, "80", e.BillingRate.String())
	assert.Equal(t, "Acme", e.ProjectName)

	d.Billable = false
	e = mustCreate(t, s, "alice", d)
	assert.Nil(t, e.BillingAmount)
}

func TestCreateEntryRejectsInvalidFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"0", "-2", "24.5"} {
		_, err := s.CreateEntry(ctx, "alice", draft("2025-03-03", h))
		assert.True(t, timesheet.IsValidation(err), h)
	}

	d := draft("2025-03-03", "1")
	d.Description = " "
	_, err := s.CreateEntry(ctx, "alice", d)
	assert.True(t, timesheet.IsValidation(err))

	missing := int64(42)
	d = draft("2025-03-03", "1")
	d.ProjectID = &missing
	_, err = s.CreateEntry(ctx, "alice", d)
	assert.True(t, timesheet.IsValidation(err))
}

func TestCreateEntryTaskMustMatchProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateProject(ctx, ProjectInput{Name: "A"})
	b, _ := s.CreateProject(ctx, ProjectInput{Name: "B"})
	task, err := s.CreateTask(ctx, b.ID, "Deploy", "")
	require.NoError(t, err)

	d := draft("2025-03-03", "1")
	d.ProjectID = &a.ID
	d.TaskID = &task.ID
	_, err = s.CreateEntry(ctx, "alice", d)
	assert.True(t, timesheet.IsValidation(err))

	d.ProjectID = &b.ID
	e := mustCreate(t, s, "alice", d)
	assert.Equal(t, "Deploy", e.TaskName)
}

func TestCreateEntryFutureDatePolicy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEntry(ctx, "alice", draft("2025-03-06", "1"))
	require.Error(t, err)
	assert.True(t, timesheet.IsPolicyViolation(err))

	// today is always allowed
	mustCreate(t, s, "alice", draft("2025-03-05", "1"))

	require.NoError(t, s.SetFutureDatePolicy(ctx, true))
	mustCreate(t, s, "alice", draft("2025-03-06", "1"))
}

func TestListEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "alice", draft("2025-03-04", "1"))
	mustCreate(t, s, "alice", draft("2025-03-03", "2"))
	mustCreate(t, s, "alice", draft("2025-02-28", "3"))
	mustCreate(t, s, "bob", draft("2025-03-03", "4"))

	entries, err := s.ListEntries(ctx, "alice", monday, sunday)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-03", entries[0].WorkDate.String())
	assert.Equal(t, "2025-03-04", entries[1].WorkDate.String())

	entries, err = s.ListEntries(ctx, "carol", monday, sunday)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetEntry(context.Background(), "nope")
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

// ============================================================
// Edit / delete
// ============================================================

func TestUpdateEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := mustCreate(t, s, "alice", draft("2025-03-03", "1"))
	d := timesheet.DraftOf(*e)
	d.Hours = decimal.RequireFromString("3")
	d.Description = "Pairing on the billing module"

	got, err := s.UpdateEntry(ctx, e.ID, d)
	require.NoError(t, err)
	assert.Equal(t, "3", got.Hours.String())
	assert.Equal(t, "Pairing on the billing module", got.Description)
}

func TestUpdateRejectedEntryReturnsToDraft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := mustCreate(t, s, "alice", draft("2025-03-03", "1"))
	_, err := s.BulkSubmit(ctx, "alice", []string{e.ID}, monday, sunday)
	require.NoError(t, err)

	_, err = s.UpdateEntry(ctx, e.ID, timesheet.DraftOf(*e))
	assert.True(t, timesheet.IsStateViolation(err), "submitted entries are not editable")

	_, err = s.Reject(ctx, e.ID, "use the client project")
	require.NoError(t, err)

	got, err := s.UpdateEntry(ctx, e.ID, timesheet.DraftOf(*e))
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusDraft, got.Status)
	assert.Equal(t, "use the client project", got.RejectionReason)
	assert.Nil(t, got.SubmittedAt)
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draftEntry := mustCreate(t, s, "alice", draft("2025-03-03", "1"))
	submitted := mustCreate(t, s, "alice", draft("2025-03-04", "1"))
	_, err := s.BulkSubmit(ctx, "alice", []string{submitted.ID}, monday, sunday)
	require.NoError(t, err)

	err = s.DeleteEntry(ctx, submitted.ID)
	require.Error(t, err)
	assert.True(t, timesheet.IsStateViolation(err))

	require.NoError(t, s.DeleteEntry(ctx, draftEntry.ID))
	entries, err := s.ListEntries(ctx, "alice", monday, sunday)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, submitted.ID, entries[0].ID)

	assert.ErrorIs(t, s.DeleteEntry(ctx, draftEntry.ID), timesheet.ErrNotFound)
}

// ============================================================
// Submission and approval
// ============================================================

func TestBulkSubmit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "alice", draft("2025-03-03", "8"))
	b := mustCreate(t, s, "alice", draft("2025-03-04", "8"))

	n, err := s.BulkSubmit(ctx, "alice", []string{a.ID, b.ID}, monday, sunday)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, _ := s.GetEntry(ctx, a.ID)
	assert.Equal(t, timesheet.StatusSubmitted, got.Status)
	require.NotNil(t, got.SubmittedAt)

	// resubmitting is a state violation, not a silent double submit
	_, err = s.BulkSubmit(ctx, "alice", []string{a.ID}, monday, sunday)
	assert.True(t, timesheet.IsStateViolation(err))
}

func TestBulkSubmitIsAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := mustCreate(t, s, "alice", draft("2025-03-03", "8"))
	d := draft("2025-03-04", "8")
	d.Description = "Too shrt"
	short := mustCreate(t, s, "alice", d)

	_, err := s.BulkSubmit(ctx, "alice", []string{good.ID, short.ID}, monday, sunday)
	require.Error(t, err)
	assert.True(t, timesheet.IsValidation(err))
	assert.Contains(t, err.Error(), "invalid description")

	got, _ := s.GetEntry(ctx, good.ID)
	assert.Equal(t, timesheet.StatusDraft, got.Status)
}

func TestBulkSubmitRefusesOtherUsersAndWeeks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bobs := mustCreate(t, s, "bob", draft("2025-03-03", "8"))
	_, err := s.BulkSubmit(ctx, "alice", []string{bobs.ID}, monday, sunday)
	assert.ErrorIs(t, err, timesheet.ErrNotFound)

	early := mustCreate(t, s, "alice", draft("2025-02-28", "8"))
	_, err = s.BulkSubmit(ctx, "alice", []string{early.ID}, monday, sunday)
	assert.True(t, timesheet.IsValidation(err))

	_, err = s.BulkSubmit(ctx, "alice", nil, monday, sunday)
	assert.True(t, timesheet.IsValidation(err))
}

func TestAutoApprove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := mustCreate(t, s, "alice", draft("2025-03-03", "8"))
	_, err := s.BulkSubmit(ctx, "alice", []string{e.ID}, monday, sunday)
	require.NoError(t, err)

	_, err = s.AutoApprove(ctx, "alice")
	assert.True(t, timesheet.IsPolicyViolation(err), "not root-level yet")

	require.NoError(t, s.SetRootLevel(ctx, "alice", true))
	st, err := s.RootLevelStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, st.PendingCount)

	n, err := s.AutoApprove(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := s.GetEntry(ctx, e.ID)
	assert.Equal(t, timesheet.StatusApproved, got.Status)
	assert.True(t, got.AutoApproved)
	assert.Equal(t, "alice", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	n, err = s.AutoApprove(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n, "second call is a no-op")

	st, _ = s.RootLevelStatus(ctx, "alice")
	assert.Zero(t, st.PendingCount)
}

func TestApproveAndReject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "alice", draft("2025-03-03", "8"))
	b := mustCreate(t, s, "alice", draft("2025-03-04", "8"))
	mustCreate(t, s, "alice", draft("2025-03-05", "8"))
	_, err := s.BulkSubmit(ctx, "alice", []string{a.ID, b.ID}, monday, sunday)
	require.NoError(t, err)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = s.Reject(ctx, b.ID, "")
	assert.True(t, timesheet.IsValidation(err))

	rejected, err := s.Reject(ctx, b.ID, "wrong activity type")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, rejected.Status)

	approved, err := s.Approve(ctx, a.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, approved.Status)
	assert.Equal(t, "manager", approved.ApprovedBy)
	assert.False(t, approved.AutoApproved)

	_, err = s.Approve(ctx, a.ID, "manager")
	assert.True(t, timesheet.IsStateViolation(err))

	pending, _ = s.ListPending(ctx)
	assert.Empty(t, pending)
}

func TestWeeklyTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "alice", draft("2025-02-24", "4"))
	mustCreate(t, s, "alice", draft("2025-03-02", "1.5"))
	mustCreate(t, s, "alice", draft("2025-03-03", "8"))
	mustCreate(t, s, "alice", draft("2025-03-05", "2.25"))

	totals, err := s.WeeklyTotals(ctx, "alice", timesheet.MustParseDate("2025-02-24"), sunday)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "2025-02-24", totals[0].WeekStart)
	assert.Equal(t, "5.5", totals[0].Hours.String())
	assert.Equal(t, 2, totals[0].Entries)
	assert.Equal(t, "2025-03-03", totals[1].WeekStart)
	assert.Equal(t, "10.25", totals[1].Hours.String())
}
