package engine

import (
	"fmt"
	"time"
)

// Strategy decides whether execution continues after a failed action.
type Strategy string

const (
	// StopOnError aborts the current block on the first failure and
	// propagates it to the nearest enclosing handler. This is the default.
	StopOnError Strategy = "stop_on_error"
	// ContinueOnError records failures and keeps executing the block.
	ContinueOnError Strategy = "continue_on_error"
	// RetryOnError retries a failed leaf action a bounded number of times
	// before treating the failure like StopOnError would.
	RetryOnError Strategy = "retry_on_error"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StopOnError, ContinueOnError, RetryOnError:
		return Strategy(s), nil
	case "":
		return StopOnError, nil
	default:
		return "", fmt.Errorf("unknown error strategy %q", s)
	}
}

// RetryPolicy bounds RetryOnError. Retries apply to leaf actions at the
// dispatch boundary; composite results are never retried.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `yaml:"delay" json:"delay"`
}

// DefaultRetryPolicy returns the default bounds: three attempts, one second
// apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}
