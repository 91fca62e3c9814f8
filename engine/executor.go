package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
	"github.com/BaSui01/browserflow/internal/metrics"
)

// ActionExecutor resolves and runs a single leaf action against the driver
// and credential source. It is the boundary that converts validation errors,
// driver errors, and panics into failure results; the runner's dispatch loop
// never sees a raw driver error from a leaf action.
type ActionExecutor struct {
	driver  driver.Driver
	creds   credential.Source
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewActionExecutor creates an executor bound to one driver and credential
// source.
func NewActionExecutor(drv driver.Driver, creds credential.Source, logger *zap.Logger, collector *metrics.Collector) *ActionExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionExecutor{
		driver:  drv,
		creds:   creds,
		logger:  logger.With(zap.String("component", "action_executor")),
		metrics: collector,
	}
}

// Execute validates and runs one action. The returned result is never nil.
func (e *ActionExecutor) Execute(ctx context.Context, a action.Action) (result *action.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked",
				zap.String("action", a.Name()),
				zap.String("type", a.Type()),
				zap.Any("panic", r))
			result = action.Failuref("action %q panicked: %v", a.Name(), r)
		}
		if e.metrics != nil {
			e.metrics.ObserveAction(a.Type(), string(result.Status), time.Since(start))
		}
	}()

	if err := a.Validate(); err != nil {
		return action.Failuref("validation failed: %v", err)
	}

	leaf, ok := a.(action.Leaf)
	if !ok {
		// Composite kinds are the runner's job; reaching here is a dispatch
		// bug surfaced as a failure rather than a crash.
		return action.Failuref("action %q (%s) is not directly executable", a.Name(), a.Type())
	}

	e.logger.Debug("executing action",
		zap.String("action", a.Name()),
		zap.String("type", a.Type()))

	result = leaf.Execute(ctx, e.driver, e.creds)
	if result == nil {
		result = action.Failuref("action %q returned no result", a.Name())
	}

	e.logger.Debug("action finished",
		zap.String("action", a.Name()),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", time.Since(start)))

	return result
}

// Driver exposes the bound driver for condition evaluation.
func (e *ActionExecutor) Driver() driver.Driver { return e.driver }
