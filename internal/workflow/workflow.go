// Package workflow coordinates the timesheet use cases on top of the entry
// store and policy lookups: loading a week, creating and editing entries,
// submitting a week behind a confirmation gate, the root-level auto-approval
// fast path and the approver queue.
//
// No operation here is retried. A failed store call is returned to the caller
// as a *timesheet.CollaboratorError and the local view is left untouched.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// ErrInFlight is returned when the same mutating operation is already
// running.
var ErrInFlight = errors.New("operation already in progress")

// EntryStore is the persistence collaborator. It is authoritative: it may
// refuse a request the service validated successfully.
type EntryStore interface {
	ListEntries(ctx context.Context, userID string, from, to timesheet.Date) ([]timesheet.Entry, error)
	GetEntry(ctx context.Context, id string) (*timesheet.Entry, error)
	CreateEntry(ctx context.Context, userID string, d timesheet.Draft) (*timesheet.Entry, error)
	UpdateEntry(ctx context.Context, id string, d timesheet.Draft) (*timesheet.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	BulkSubmit(ctx context.Context, userID string, ids []string, start, end timesheet.Date) (int, error)
	AutoApprove(ctx context.Context, userID string) (int, error)
	ListPending(ctx context.Context) ([]timesheet.Entry, error)
	Approve(ctx context.Context, id, approver string) (*timesheet.Entry, error)
	Reject(ctx context.Context, id, reason string) (*timesheet.Entry, error)
}

// PolicyProvider answers tenant and identity questions. Who counts as
// root-level is decided entirely behind this interface.
type PolicyProvider interface {
	FutureDatePolicy(ctx context.Context) (bool, error)
	RootLevelStatus(ctx context.Context, userID string) (timesheet.RootLevelStatus, error)
}

type Service struct {
	entries EntryStore
	policy  PolicyProvider
	user    string
	rules   timesheet.Rules
	now     func() time.Time
	log     zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	snapshot timesheet.Policy
}

type Option func(*Service)

func WithRules(r timesheet.Rules) Option {
	return func(s *Service) { s.rules = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New returns a Service acting for userID. Call RefreshPolicy before the
// first CreateEntry so that client-side validation sees the tenant policy.
func New(entries EntryStore, policy PolicyProvider, userID string, opts ...Option) *Service {
	s := &Service{
		entries:  entries,
		policy:   policy,
		user:     userID,
		rules:    timesheet.DefaultRules(),
		now:      time.Now,
		log:      zerolog.Nop(),
		inflight: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) User() string           { return s.user }
func (s *Service) Rules() timesheet.Rules { return s.rules }

// Today is the user's local calendar day.
func (s *Service) Today() timesheet.Date { return timesheet.Today(s.now()) }

// CurrentWeek is the week containing Today.
func (s *Service) CurrentWeek() timesheet.Week { return timesheet.WeekOf(s.Today()) }

// begin marks key as running. The returned func must be called when the
// operation finishes.
func (s *Service) begin(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, ErrInFlight
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

// Busy reports whether the operation identified by key is running.
func (s *Service) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[key]
	return busy
}

// Operation keys for Busy.
const (
	OpSubmitWeek  = "submit-week"
	OpAutoApprove = "auto-approve"
	OpCreate      = "create"
)

// OpDelete returns the in-flight key of deleting entry id.
func OpDelete(id string) string { return "delete:" + id }

func opEdit(id string) string   { return "edit:" + id }
func opReview(id string) string { return "review:" + id }

// classify passes domain errors through and wraps everything else as a
// collaborator failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range []error{
		timesheet.ErrValidation,
		timesheet.ErrStateViolation,
		timesheet.ErrPolicyViolation,
		timesheet.ErrNotFound,
		timesheet.ErrCollaborator,
	} {
		if errors.Is(err, target) {
			return err
		}
	}
	return &timesheet.CollaboratorError{Op: op, Err: err}
}
