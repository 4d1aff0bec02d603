package workflow

import (
	"context"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// WeekView is a week's entries with every rollup recomputed from them.
type WeekView struct {
	Week          timesheet.Week
	Entries       []timesheet.Entry
	Summary       timesheet.Summary
	Check         timesheet.WeekCheck
	CanAddEntries bool
}

// Locked reports whether new entries are refused for the week.
func (v WeekView) Locked() bool { return !v.CanAddEntries }

func (s *Service) newView(w timesheet.Week, entries []timesheet.Entry) WeekView {
	return WeekView{
		Week:          w,
		Entries:       entries,
		Summary:       timesheet.Summarize(w, entries, s.rules),
		Check:         timesheet.CheckWeek(w, entries, s.rules),
		CanAddEntries: timesheet.CanAddEntries(entries),
	}
}

func (s *Service) listWeek(ctx context.Context, w timesheet.Week) ([]timesheet.Entry, error) {
	entries, err := s.entries.ListEntries(ctx, s.user, w.Start, w.End())
	if err != nil {
		return nil, classify("list entries", err)
	}
	return entries, nil
}

// LoadWeek fetches the user's entries for w and derives the view.
func (s *Service) LoadWeek(ctx context.Context, w timesheet.Week) (WeekView, error) {
	entries, err := s.listWeek(ctx, w)
	if err != nil {
		return WeekView{Week: w}, err
	}
	return s.newView(w, entries), nil
}

// checkWeekOpen refuses new entries in a locked week.
func (s *Service) checkWeekOpen(ctx context.Context, w timesheet.Week) error {
	entries, err := s.listWeek(ctx, w)
	if err != nil {
		return err
	}
	if !timesheet.CanAddEntries(entries) {
		return &timesheet.WeekLockedError{Week: w}
	}
	return nil
}

// storeFailed classifies err and, for a policy violation, refreshes the
// policy snapshot so that the next client-side check uses the new truth.
func (s *Service) storeFailed(ctx context.Context, op string, err error) error {
	err = classify(op, err)
	if timesheet.IsPolicyViolation(err) {
		s.refreshAfter(ctx, op)
	}
	s.log.Error().Err(err).Str("op", op).Msg("store refused request")
	return err
}

// CreateEntry validates d locally, enforces the locked-week rule and
// persists a DRAFT entry.
func (s *Service) CreateEntry(ctx context.Context, d timesheet.Draft) (*timesheet.Entry, error) {
	done, err := s.begin(OpCreate)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := timesheet.ValidateDraft(d, s.Today(), s.Policy().AllowFutureTimesheets, s.rules); err != nil {
		s.log.Debug().Err(err).Msg("entry rejected by validation")
		return nil, err
	}
	if err := s.checkWeekOpen(ctx, timesheet.WeekOf(d.WorkDate)); err != nil {
		return nil, err
	}

	e, err := s.entries.CreateEntry(ctx, s.user, d)
	if err != nil {
		return nil, s.storeFailed(ctx, "create entry", err)
	}
	s.log.Info().Str("entry", e.ID).Stringer("date", e.WorkDate).Str("hours", e.Hours.String()).Msg("entry created")
	return e, nil
}

// CopyEntry creates a DRAFT on date from the fields of entry id.
func (s *Service) CopyEntry(ctx context.Context, id string, date timesheet.Date) (*timesheet.Entry, error) {
	src, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return nil, classify("get entry", err)
	}
	return s.CreateEntry(ctx, timesheet.CopyEntry(*src, date))
}

// UpdateEntry edits a DRAFT or REJECTED entry. Moving an entry into another
// week is subject to that week's lock.
func (s *Service) UpdateEntry(ctx context.Context, e timesheet.Entry, d timesheet.Draft) (*timesheet.Entry, error) {
	done, err := s.begin(opEdit(e.ID))
	if err != nil {
		return nil, err
	}
	defer done()

	if !timesheet.CanEdit(e) {
		return nil, &timesheet.StateViolationError{EntryID: e.ID, From: e.Status, Event: timesheet.EventEdit}
	}
	if err := timesheet.ValidateDraft(d, s.Today(), s.Policy().AllowFutureTimesheets, s.rules); err != nil {
		return nil, err
	}
	if target := timesheet.WeekOf(d.WorkDate); target != timesheet.WeekOf(e.WorkDate) {
		if err := s.checkWeekOpen(ctx, target); err != nil {
			return nil, err
		}
	}

	updated, err := s.entries.UpdateEntry(ctx, e.ID, d)
	if err != nil {
		return nil, s.storeFailed(ctx, "update entry", err)
	}
	s.log.Info().Str("entry", e.ID).Stringer("status", updated.Status).Msg("entry updated")
	return updated, nil
}

// DeleteEntry removes e. The state is checked against the caller's copy
// before any store call is made.
func (s *Service) DeleteEntry(ctx context.Context, e timesheet.Entry) error {
	if err := timesheet.CheckDelete(e); err != nil {
		return err
	}

	done, err := s.begin(OpDelete(e.ID))
	if err != nil {
		return err
	}
	defer done()

	if err := s.entries.DeleteEntry(ctx, e.ID); err != nil {
		return s.storeFailed(ctx, "delete entry", err)
	}
	s.log.Info().Str("entry", e.ID).Msg("entry deleted")
	return nil
}

// GetEntry fetches one entry.
func (s *Service) GetEntry(ctx context.Context, id string) (*timesheet.Entry, error) {
	e, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return nil, classify("get entry", err)
	}
	return e, nil
}
