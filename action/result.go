package action

import "fmt"

// Status is the outcome of one action execution.
type Status string

const (
	// StatusSuccess indicates the action completed normally.
	StatusSuccess Status = "success"
	// StatusFailure indicates the action could not complete.
	StatusFailure Status = "failure"
)

// Result is the immutable outcome of a single action execution. Data carries
// an optional typed payload, e.g. the boolean outcome of a condition action.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success builds a success result.
func Success(message string) *Result {
	return &Result{Status: StatusSuccess, Message: message}
}

// Successf builds a success result with a formatted message.
func Successf(format string, args ...any) *Result {
	return &Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Failure builds a failure result.
func Failure(message string) *Result {
	return &Result{Status: StatusFailure, Message: message}
}

// Failuref builds a failure result with a formatted message.
func Failuref(format string, args ...any) *Result {
	return &Result{Status: StatusFailure, Message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of the result carrying data as payload.
func (r *Result) WithData(data any) *Result {
	out := *r
	out.Data = data
	return &out
}

// IsSuccess reports whether the action succeeded.
func (r *Result) IsSuccess() bool { return r.Status == StatusSuccess }

// IsFailure reports whether the action failed.
func (r *Result) IsFailure() bool { return r.Status == StatusFailure }
