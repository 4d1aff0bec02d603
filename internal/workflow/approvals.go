package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// Pending returns the SUBMITTED entries of other users awaiting review.
// The user's own entries go through AutoApprove instead.
func (s *Service) Pending(ctx context.Context) ([]timesheet.Entry, error) {
	all, err := s.entries.ListPending(ctx)
	if err != nil {
		return nil, classify("list pending", err)
	}
	pending := all[:0]
	for _, e := range all {
		if e.UserID != s.user {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (s *Service) reviewable(ctx context.Context, id string) (*timesheet.Entry, error) {
	e, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID == s.user {
		return nil, &timesheet.PolicyViolationError{Reason: "entries cannot be reviewed by their owner"}
	}
	if !timesheet.CanReview(*e) {
		return nil, &timesheet.StateViolationError{EntryID: id, From: e.Status, Event: timesheet.EventApprove}
	}
	return e, nil
}

// Approve records the user's approval of another user's entry.
func (s *Service) Approve(ctx context.Context, id string) (*timesheet.Entry, error) {
	done, err := s.begin(opReview(id))
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.reviewable(ctx, id); err != nil {
		return nil, err
	}
	e, err := s.entries.Approve(ctx, id, s.user)
	if err != nil {
		return nil, s.storeFailed(ctx, "approve entry", err)
	}
	s.log.Info().Str("entry", id).Str("owner", e.UserID).Msg("entry approved")
	return e, nil
}

// Reject returns another user's entry with a reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*timesheet.Entry, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, timesheet.NewValidationError(fmt.Errorf("rejection reason: %w", errors.New("is required")))
	}

	done, err := s.begin(opReview(id))
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.reviewable(ctx, id); err != nil {
		return nil, err
	}
	e, err := s.entries.Reject(ctx, id, reason)
	if err != nil {
		return nil, s.storeFailed(ctx, "reject entry", err)
	}
	s.log.Info().Str("entry", id).Str("owner", e.UserID).Msg("entry rejected")
	return e, nil
}
