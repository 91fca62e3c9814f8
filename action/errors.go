package action

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned by the factory when a record's type tag has no
// registered constructor.
var ErrUnknownType = errors.New("unknown action type")

// ValidationError reports a misconfigured action. It is caught at
// construction or validation time and surfaces as a failure result, never as
// a crashed run.
type ValidationError struct {
	Action string // action name
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("action %q: invalid %s: %s", e.Action, e.Field, e.Reason)
}

func newValidationError(actionName, field, reason string) *ValidationError {
	return &ValidationError{Action: actionName, Field: field, Reason: reason}
}

// ActionError reports that an action could not produce a meaningful result.
// It carries the action name and type for run-level error messages.
type ActionError struct {
	Action string
	Type   string
	Msg    string
	Cause  error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("action %q (%s): %s: %v", e.Action, e.Type, e.Msg, e.Cause)
	}
	return fmt.Sprintf("action %q (%s): %s", e.Action, e.Type, e.Msg)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// NewActionError creates an ActionError for the given action.
func NewActionError(a Action, msg string, cause error) *ActionError {
	return &ActionError{Action: a.Name(), Type: a.Type(), Msg: msg, Cause: cause}
}

// SerializationError reports a malformed record encountered while rebuilding
// an action tree.
type SerializationError struct {
	Detail string
	Cause  error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serialization: %s: %v", e.Detail, e.Cause)
	}
	return "serialization: " + e.Detail
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// CredentialError reports a missing credential or credential field during
// typed-input resolution. It becomes a failure result, not a crash.
type CredentialError struct {
	Name  string
	Field string
	Cause error
}

func (e *CredentialError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("credential %q field %q unavailable: %v", e.Name, e.Field, e.Cause)
	}
	return fmt.Sprintf("credential %q unavailable: %v", e.Name, e.Cause)
}

func (e *CredentialError) Unwrap() error { return e.Cause }
