package workflow

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// fakeStore is an in-memory EntryStore and PolicyProvider. It applies the
// same state machine as the real store and counts calls.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]timesheet.Entry
	seq     int

	allowFuture bool
	rootLevel   map[string]bool

	calls map[string]int
	fail  map[string]error

	// bulkGate, when set, blocks BulkSubmit until it is closed.
	bulkGate chan struct{}
	bulkIDs  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:   map[string]timesheet.Entry{},
		rootLevel: map[string]bool{},
		calls:     map[string]int{},
		fail:      map[string]error{},
	}
}

var fakeNow = time.Date(2025, 3, 7, 15, 0, 0, 0, time.Local)

func (f *fakeStore) hit(op string) error {
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// seed inserts an entry directly in the given state.
func (f *fakeStore) seed(user, date, hours string, st timesheet.Status) timesheet.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e := timesheet.Entry{
		ID:          fmt.Sprintf("e%d", f.seq),
		UserID:      user,
		WorkDate:    timesheet.MustParseDate(date),
		Hours:       dec(hours),
		Description: "Worked on the payroll integration",
		Status:      st,
	}
	f.entries[e.ID] = e
	return e
}

func (f *fakeStore) get(id string) timesheet.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[id]
}

func (f *fakeStore) ListEntries(_ context.Context, userID string, from, to timesheet.Date) ([]timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	var out []timesheet.Entry
	for _, e := range f.entries {
		if e.UserID == userID && !e.WorkDate.Before(from) && !e.WorkDate.After(to) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b timesheet.Entry) int { return a.WorkDate.Compare(b.WorkDate) })
	return out, nil
}

func (f *fakeStore) GetEntry(_ context.Context, id string) (*timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("get"); err != nil {
		return nil, err
	}
	e, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("get entry %s: %w", id, timesheet.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeStore) CreateEntry(_ context.Context, userID string, d timesheet.Draft) (*timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("create"); err != nil {
		return nil, err
	}
	if !f.allowFuture && d.WorkDate.After(timesheet.Today(fakeNow)) {
		return nil, &timesheet.PolicyViolationError{Reason: "future dates are not allowed"}
	}
	f.seq++
	e := timesheet.Entry{
		ID:           fmt.Sprintf("e%d", f.seq),
		UserID:       userID,
		WorkDate:     d.WorkDate,
		Hours:        d.Hours,
		Description:  d.Description,
		Billable:     d.Billable,
		ActivityType: d.ActivityType,
		Status:       timesheet.StatusDraft,
	}
	f.entries[e.ID] = e
	return &e, nil
}

func (f *fakeStore) UpdateEntry(_ context.Context, id string, d timesheet.Draft) (*timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("update"); err != nil {
		return nil, err
	}
	e := f.entries[id]
	if err := timesheet.ApplyEdit(&e, d, fakeNow); err != nil {
		return nil, err
	}
	f.entries[id] = e
	return &e, nil
}

func (f *fakeStore) DeleteEntry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("delete"); err != nil {
		return err
	}
	if err := timesheet.CheckDelete(f.entries[id]); err != nil {
		return err
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) BulkSubmit(_ context.Context, _ string, ids []string, _, _ timesheet.Date) (int, error) {
	f.mu.Lock()
	gate := f.bulkGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("bulk"); err != nil {
		return 0, err
	}
	f.bulkIDs = append([]string(nil), ids...)
	for _, id := range ids {
		e := f.entries[id]
		if err := timesheet.Submit(&e, fakeNow); err != nil {
			return 0, err
		}
		f.entries[id] = e
	}
	return len(ids), nil
}

func (f *fakeStore) AutoApprove(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("auto"); err != nil {
		return 0, err
	}
	n := 0
	for id, e := range f.entries {
		if e.UserID == userID && e.Status == timesheet.StatusSubmitted {
			_ = timesheet.Approve(&e, userID, fakeNow, true)
			f.entries[id] = e
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListPending(_ context.Context) ([]timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []timesheet.Entry
	for _, e := range f.entries {
		if e.Status == timesheet.StatusSubmitted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Approve(_ context.Context, id, approver string) (*timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[id]
	if err := timesheet.Approve(&e, approver, fakeNow, false); err != nil {
		return nil, err
	}
	f.entries[id] = e
	return &e, nil
}

func (f *fakeStore) Reject(_ context.Context, id, reason string) (*timesheet.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[id]
	if err := timesheet.Reject(&e, reason, fakeNow); err != nil {
		return nil, err
	}
	f.entries[id] = e
	return &e, nil
}

func (f *fakeStore) FutureDatePolicy(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("policy"); err != nil {
		return false, err
	}
	return f.allowFuture, nil
}

func (f *fakeStore) RootLevelStatus(_ context.Context, userID string) (timesheet.RootLevelStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("root"); err != nil {
		return timesheet.RootLevelStatus{}, err
	}
	st := timesheet.RootLevelStatus{Eligible: f.rootLevel[userID]}
	for _, e := range f.entries {
		if e.UserID == userID && e.Status == timesheet.StatusSubmitted {
			st.PendingCount++
		}
	}
	return st, nil
}
