// Package engine implements the workflow runner: sequential, recursive
// dispatch over an action tree with control-flow semantics for conditionals,
// three loop kinds, try/catch recovery, run-time template expansion,
// cooperative cancellation, and pluggable error-handling strategies. Every
// run yields exactly one ExecutionLog.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/internal/metrics"
)

// State is the runner's lifecycle state. Terminal states are final; a runner
// instance executes exactly one action list per Run call.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateStopped   State = "stopped"
)

// TemplateStore is the external collaborator the template handler expands
// against.
type TemplateStore interface {
	// GetTemplate returns the ordered serialized actions stored under name.
	GetTemplate(ctx context.Context, name string) ([]action.Record, error)
}

// Config tunes a runner.
type Config struct {
	// Strategy is the active error-handling strategy.
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	// Retry bounds RetryOnError.
	Retry RetryPolicy `yaml:"retry" json:"retry"`
	// WhileIterationLimit is the safety ceiling of condition-driven simple
	// loops.
	WhileIterationLimit int `yaml:"while_iteration_limit" json:"while_iteration_limit"`
	// TemplateDepthLimit bounds consecutive template expansions at one list
	// position, so a template expanding into itself cannot spin forever.
	TemplateDepthLimit int `yaml:"template_depth_limit" json:"template_depth_limit"`
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:            StopOnError,
		Retry:               DefaultRetryPolicy(),
		WhileIterationLimit: 1000,
		TemplateDepthLimit:  25,
	}
}

// errStopped propagates cooperative cancellation up through nested blocks.
var errStopped = errors.New("stopped by request")

// failureError unwinds a stop-triggering action failure to the nearest
// enclosing try/catch or to the runner.
type failureError struct {
	actionName string
	actionType string
	message    string
}

func (e *failureError) Error() string {
	return fmt.Sprintf("action %q (%s) failed: %s", e.actionName, e.actionType, e.message)
}

// Runner walks an action list, dispatching leaves to the executor and
// composites to the matching control-flow handler, and assembles the
// execution log. A runner borrows the actions for the duration of the run
// and never owns them.
type Runner struct {
	executor  *ActionExecutor
	factory   *action.Factory
	templates TemplateStore
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Collector

	mu         sync.Mutex
	state      State
	results    []ActionRecord
	sawFailure bool
}

// NewRunner creates an idle runner.
func NewRunner(executor *ActionExecutor, factory *action.Factory, templates TemplateStore, config Config, logger *zap.Logger, collector *metrics.Collector) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.WhileIterationLimit <= 0 {
		config.WhileIterationLimit = DefaultConfig().WhileIterationLimit
	}
	if config.TemplateDepthLimit <= 0 {
		config.TemplateDepthLimit = DefaultConfig().TemplateDepthLimit
	}
	if config.Strategy == "" {
		config.Strategy = StopOnError
	}
	return &Runner{
		executor:  executor,
		factory:   factory,
		templates: templates,
		config:    config,
		logger:    logger.With(zap.String("component", "runner")),
		metrics:   collector,
		state:     StateIdle,
	}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run executes the action list and always returns a complete ExecutionLog;
// it never panics out and never returns an error. Cancellation of ctx stops
// the run at the next suspension point with final status STOPPED.
func (r *Runner) Run(ctx context.Context, workflowName string, actions []action.Action) (log *ExecutionLog) {
	start := time.Now()

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return &ExecutionLog{
			ID:            uuid.NewString(),
			WorkflowName:  workflowName,
			StartTime:     start,
			EndTime:       start,
			FinalStatus:   StatusFailed,
			ErrorMessage:  fmt.Sprintf("runner already used (state %s)", r.state),
			ActionResults: nil,
			Summary:       "runner not idle",
			ErrorStrategy: string(r.config.Strategy),
		}
	}
	r.state = StateRunning
	r.mu.Unlock()

	r.logger.Info("run started",
		zap.String("workflow", workflowName),
		zap.Int("actions", len(actions)),
		zap.String("strategy", string(r.config.Strategy)))

	defer func() {
		if rec := recover(); rec != nil {
			// Truly unexpected internal failure: still materialize a log.
			r.logger.Error("run panicked", zap.String("workflow", workflowName), zap.Any("panic", rec))
			log = r.buildLog(workflowName, start, StatusFailed, fmt.Sprintf("internal error: %v", rec))
			r.setState(StateFailed)
		}
	}()

	ec := NewExecutionContext()
	err := r.executeBlock(ctx, actions, ec, r.config.Strategy)

	var status FinalStatus
	var errMsg string
	switch {
	case err == nil:
		if r.sawFailure {
			status = StatusCompletedWithErrors
			errMsg = "one or more actions failed"
		} else {
			status = StatusSuccess
		}
	case errors.Is(err, errStopped):
		status = StatusStopped
		errMsg = "stopped by request"
	default:
		status = StatusFailed
		errMsg = err.Error()
	}

	log = r.buildLog(workflowName, start, status, errMsg)

	switch status {
	case StatusSuccess, StatusCompletedWithErrors:
		r.setState(StateCompleted)
	case StatusStopped:
		r.setState(StateStopped)
	default:
		r.setState(StateFailed)
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(string(status), time.Since(start))
	}

	r.logger.Info("run finished",
		zap.String("workflow", workflowName),
		zap.String("status", string(status)),
		zap.Int("results", len(log.ActionResults)),
		zap.Duration("duration", time.Since(start)))

	return log
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) buildLog(workflowName string, start time.Time, status FinalStatus, errMsg string) *ExecutionLog {
	end := time.Now()
	results := make([]ActionRecord, len(r.results))
	copy(results, r.results)
	return &ExecutionLog{
		ID:              uuid.NewString(),
		WorkflowName:    workflowName,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end.Sub(start).Seconds(),
		FinalStatus:     status,
		ErrorMessage:    errMsg,
		ActionResults:   results,
		Summary:         buildSummary(status, results),
		ErrorStrategy:   string(r.config.Strategy),
	}
}

// record appends one result to the run's audit trail. Results are recorded
// regardless of outcome.
func (r *Runner) record(a action.Action, res *action.Result) {
	r.results = append(r.results, ActionRecord{
		ActionName: a.Name(),
		ActionType: a.Type(),
		Result:     res,
		Timestamp:  time.Now(),
	})
}

// executeBlock is the single re-entrant execution primitive shared by the
// runner and every control-flow handler. It walks a private copy of the
// action list so template expansion can splice without disturbing the
// caller's slice.
func (r *Runner) executeBlock(ctx context.Context, actions []action.Action, ec *ExecutionContext, strat Strategy) error {
	queue := make([]action.Action, len(actions))
	copy(queue, actions)

	expansionDepth := 0
	for i := 0; i < len(queue); {
		if ctx.Err() != nil {
			return errStopped
		}

		current := queue[i]

		if tmpl, ok := current.(*action.Template); ok {
			if expansionDepth >= r.config.TemplateDepthLimit {
				res := action.Failuref("template %q: expansion depth limit %d exceeded", tmpl.TemplateName, r.config.TemplateDepthLimit)
				r.record(tmpl, res)
				if err := r.afterFailure(tmpl, res, strat); err != nil {
					return err
				}
				i++
				expansionDepth = 0
				continue
			}

			expanded, failed := r.expandTemplate(ctx, tmpl, ec)
			if failed != nil {
				r.record(tmpl, failed)
				if err := r.afterFailure(tmpl, failed, strat); err != nil {
					return err
				}
				i++
				expansionDepth = 0
				continue
			}

			// Splice the expansion in at the current position and re-evaluate
			// without advancing, so a template may expand into another
			// template.
			rest := make([]action.Action, 0, len(expanded)+len(queue)-i-1)
			rest = append(rest, expanded...)
			rest = append(rest, queue[i+1:]...)
			queue = append(queue[:i:i], rest...)
			expansionDepth++
			continue
		}
		expansionDepth = 0

		res, err := r.dispatch(ctx, current, ec, strat)
		if err != nil {
			return err
		}

		r.record(current, res)
		if res.IsFailure() {
			// A failure induced by cancellation is a stop, not a verdict on
			// the action.
			if ctx.Err() != nil {
				return errStopped
			}
			if err := r.afterFailure(current, res, strat); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}

// dispatch classifies one action by kind. Composite handlers may return
// errStopped to propagate cancellation; all other outcomes are results.
func (r *Runner) dispatch(ctx context.Context, a action.Action, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	switch t := a.(type) {
	case *action.Conditional:
		return r.runConditional(ctx, t, ec, strat)
	case *action.Loop:
		return r.runLoop(ctx, t, ec, strat)
	case *action.ErrorHandling:
		return r.runErrorHandling(ctx, t, ec, strat)
	case *action.WhileLoop:
		return r.runWhileLoop(ctx, t, ec, strat)
	default:
		return r.executeLeaf(ctx, a, strat), nil
	}
}

// executeLeaf runs one leaf action through the executor, retrying under
// RetryOnError. Retries apply to leaves only; composite results are never
// retried.
func (r *Runner) executeLeaf(ctx context.Context, a action.Action, strat Strategy) *action.Result {
	attempts := 1
	if strat == RetryOnError && r.config.Retry.MaxAttempts > 1 {
		attempts = r.config.Retry.MaxAttempts
	}

	var res *action.Result
	for attempt := 1; attempt <= attempts; attempt++ {
		res = r.executor.Execute(ctx, a)
		if res.IsSuccess() {
			return res
		}
		if attempt == attempts {
			break
		}
		r.logger.Warn("action failed, retrying",
			zap.String("action", a.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.String("message", res.Message))
		if r.config.Retry.Delay > 0 {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(r.config.Retry.Delay):
			}
		}
	}
	return res
}

// afterFailure applies the active strategy to a recorded failure: nil means
// keep going, a *failureError aborts the current block.
func (r *Runner) afterFailure(a action.Action, res *action.Result, strat Strategy) error {
	if strat == ContinueOnError {
		r.sawFailure = true
		r.logger.Warn("continuing after failure",
			zap.String("action", a.Name()),
			zap.String("message", res.Message))
		return nil
	}
	// StopOnError, and RetryOnError once retries are exhausted.
	return &failureError{actionName: a.Name(), actionType: a.Type(), message: res.Message}
}
