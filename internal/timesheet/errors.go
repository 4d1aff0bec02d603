package timesheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// Error categories. Every typed error below matches exactly one of these via
// errors.Is, so callers can branch on the category without type switches.
var (
	ErrValidation      = errors.New("validation failed")
	ErrStateViolation  = errors.New("state violation")
	ErrPolicyViolation = errors.New("policy violation")
	ErrCollaborator    = errors.New("collaborator failure")
	ErrNotFound        = errors.New("entry not found")
)

// ValidationError carries every failing rule of a single validation pass.
type ValidationError struct {
	Fields criterio.FieldErrors
}

// NewValidationError converts the result of a criterio builder into a
// *ValidationError. It returns nil when err is nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields criterio.FieldErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}

	var b criterio.FieldErrorsBuilder
	b = b.Append("", err)
	_ = errors.As(b.ToError(), &fields)
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Messages(), "; "))
}

// Messages returns one human-readable message per failing rule.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		if fe.Field == "" {
			msgs = append(msgs, fe.Err.Error())
			continue
		}
		msgs = append(msgs, fe.Field+": "+fe.Err.Error())
	}
	return msgs
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields
}

// StateViolationError reports a transition the state machine does not allow.
type StateViolationError struct {
	EntryID string
	From    Status
	Event   Event
}

func (e *StateViolationError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("%s: cannot %s an entry in %s", ErrStateViolation, e.Event, e.From)
	}
	return fmt.Sprintf("%s: cannot %s entry %s in %s", ErrStateViolation, e.Event, e.EntryID, e.From)
}

func (e *StateViolationError) Is(target error) bool { return target == ErrStateViolation }

// PolicyViolationError is returned when the store refuses an action the
// caller believed was legal, for example a future work date after the tenant
// turned the future-dates policy off.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPolicyViolation, e.Reason)
}

func (e *PolicyViolationError) Is(target error) bool { return target == ErrPolicyViolation }

// CollaboratorError wraps a failure of the entry store or policy lookup.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

func (e *CollaboratorError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsStateViolation reports whether err is, or wraps, a state violation.
func IsStateViolation(err error) bool { return errors.Is(err, ErrStateViolation) }

// IsPolicyViolation reports whether err is, or wraps, a policy violation.
func IsPolicyViolation(err error) bool { return errors.Is(err, ErrPolicyViolation) }

// ValidationMessages extracts the per-rule messages from err, or returns
// err.Error() as the only message when err carries no field breakdown.
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{err.Error()}
}
