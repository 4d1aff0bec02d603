package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// SubmitPlan is what the user confirms before a week is submitted.
type SubmitPlan struct {
	Week       timesheet.Week
	EntryIDs   []string
	EntryCount int
	Hours      decimal.Decimal
	WeekHours  decimal.Decimal
	Check      timesheet.WeekCheck
}

// SubmitResult is the outcome of a submission. View is the week as re-read
// from the store after the bulk call.
type SubmitResult struct {
	Cancelled bool
	Submitted int
	View      WeekView
}

// Confirmer is the human confirmation gate. Returning false cancels the
// submission with no side effects.
type Confirmer interface {
	Confirm(ctx context.Context, plan SubmitPlan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan SubmitPlan) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, plan SubmitPlan) (bool, error) {
	return f(ctx, plan)
}

// PrepareSubmit loads w, runs the week-level rules and selects the DRAFT
// entries. It has no side effects. When a blocking rule fails the returned
// plan still carries the check so callers can show the advisories.
func (s *Service) PrepareSubmit(ctx context.Context, w timesheet.Week) (SubmitPlan, error) {
	view, err := s.LoadWeek(ctx, w)
	if err != nil {
		return SubmitPlan{Week: w}, err
	}
	return s.planFor(view)
}

func (s *Service) planFor(view WeekView) (SubmitPlan, error) {
	plan := SubmitPlan{
		Week:      view.Week,
		Hours:     decimal.Zero,
		WeekHours: view.Summary.TotalHours,
		Check:     view.Check,
	}
	if err := view.Check.Err(); err != nil {
		s.log.Debug().Strs("errors", view.Check.Errors).Msg("week failed validation")
		return plan, err
	}

	for _, e := range view.Summary.Draft {
		plan.EntryIDs = append(plan.EntryIDs, e.ID)
		plan.Hours = plan.Hours.Add(e.Hours)
	}
	plan.EntryCount = len(plan.EntryIDs)
	if plan.EntryCount == 0 {
		return plan, timesheet.NewValidationError(
			criterio.NewFieldErrors("entries", errors.New("no draft entries to submit")))
	}
	return plan, nil
}

// ExecuteSubmit sends the plan's entries to the store in one bulk call and
// re-reads the week. The store may already have advanced entries further
// than SUBMITTED, so the local view is never patched by hand.
func (s *Service) ExecuteSubmit(ctx context.Context, plan SubmitPlan) (SubmitResult, error) {
	done, err := s.begin(OpSubmitWeek)
	if err != nil {
		return SubmitResult{}, err
	}
	defer done()

	n, err := s.entries.BulkSubmit(ctx, s.user, plan.EntryIDs, plan.Week.Start, plan.Week.End())
	if err != nil {
		return SubmitResult{}, s.storeFailed(ctx, "bulk submit", err)
	}
	s.log.Info().Stringer("week", plan.Week.Start).Int("count", n).Msg("week submitted")

	res := SubmitResult{Submitted: n}
	s.refreshAfter(ctx, "submit")

	res.View, err = s.LoadWeek(ctx, plan.Week)
	if err != nil {
		return res, fmt.Errorf("submitted %d entries but reloading the week failed: %w", n, err)
	}
	return res, nil
}

// SubmitWeek validates w, asks confirm, and submits its DRAFT entries.
func (s *Service) SubmitWeek(ctx context.Context, w timesheet.Week, confirm Confirmer) (SubmitResult, error) {
	plan, err := s.PrepareSubmit(ctx, w)
	if err != nil {
		return SubmitResult{}, err
	}

	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("confirm submission: %w", err)
	}
	if !ok {
		s.log.Info().Stringer("week", w.Start).Msg("submission cancelled")
		return SubmitResult{Cancelled: true}, nil
	}
	return s.ExecuteSubmit(ctx, plan)
}

// AutoApprove approves the user's own SUBMITTED entries through the
// root-level fast path. Eligibility is re-read from the policy provider
// first. It is idempotent: with nothing pending it returns 0.
func (s *Service) AutoApprove(ctx context.Context) (int, error) {
	done, err := s.begin(OpAutoApprove)
	if err != nil {
		return 0, err
	}
	defer done()

	p, err := s.RefreshPolicy(ctx)
	if err != nil {
		return 0, err
	}
	if !p.RootLevel.Eligible {
		return 0, &timesheet.PolicyViolationError{Reason: "auto-approval requires root-level privilege"}
	}

	n, err := s.entries.AutoApprove(ctx, s.user)
	if err != nil {
		return 0, s.storeFailed(ctx, "auto approve", err)
	}
	s.log.Info().Int("count", n).Msg("auto-approved")
	s.refreshAfter(ctx, "auto-approve")
	return n, nil
}
