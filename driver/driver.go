// Package driver defines the browser-automation capability consumed by the
// workflow engine, together with a chromedp-backed implementation.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver is the browser capability surface the engine executes actions
// against. Implementations are expected to be used by a single run at a time;
// the owning service creates one driver per run and disposes of it afterwards.
type Driver interface {
	// Get navigates the browser to the given URL.
	Get(ctx context.Context, url string) error
	// Click clicks the first element matching the CSS selector.
	Click(ctx context.Context, selector string) error
	// TypeText types text into the first element matching the CSS selector.
	TypeText(ctx context.Context, selector, text string) error
	// TakeScreenshot captures the current page and writes it to path.
	TakeScreenshot(ctx context.Context, path string) error
	// IsElementPresent reports whether an element matching the selector exists.
	IsElementPresent(ctx context.Context, selector string) (bool, error)
	// ExecuteScript evaluates a JavaScript expression in the page and returns
	// its value.
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	// Quit shuts the browser down. Safe to call more than once.
	Quit() error
}

// Error marks a failure raised by the browser layer. The engine converts these
// into action failure results at the executor boundary and never lets them
// escape a run.
type Error struct {
	Op  string // driver operation, e.g. "click"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("driver %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a driver error for operation op.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// IsDriverError reports whether err originated in the browser layer.
func IsDriverError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// Config configures a browser driver instance.
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ProxyURL       string        `yaml:"proxy_url,omitempty" json:"proxy_url,omitempty"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		Timeout:        30 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}
