package workflow

import (
	"context"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// RefreshPolicy re-reads the tenant policy and the user's root-level status.
// On failure the previous snapshot is kept.
func (s *Service) RefreshPolicy(ctx context.Context) (timesheet.Policy, error) {
	allow, err := s.policy.FutureDatePolicy(ctx)
	if err != nil {
		return s.Policy(), classify("get future date policy", err)
	}
	root, err := s.policy.RootLevelStatus(ctx, s.user)
	if err != nil {
		return s.Policy(), classify("get root level status", err)
	}

	p := timesheet.Policy{AllowFutureTimesheets: allow, RootLevel: root}
	s.mu.Lock()
	s.snapshot = p
	s.mu.Unlock()

	s.log.Debug().
		Bool("allow_future", allow).
		Bool("root_level", root.Eligible).
		Int("pending", root.PendingCount).
		Msg("policy refreshed")
	return p, nil
}

// Policy returns the last fetched policy.
func (s *Service) Policy() timesheet.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// refreshAfter re-reads the policy after an operation that may have changed
// it. A failure is logged; it never fails the operation that triggered it.
func (s *Service) refreshAfter(ctx context.Context, op string) {
	if _, err := s.RefreshPolicy(ctx); err != nil {
		s.log.Warn().Err(err).Str("after", op).Msg("policy refresh failed")
	}
}
