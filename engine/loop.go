package engine

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/BaSui01/browserflow/action"
)

// runLoop dispatches on the loop kind: fixed count, for-each over a context
// list, or condition-driven while with a safety ceiling.
func (r *Runner) runLoop(ctx context.Context, a *action.Loop, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	switch a.LoopKind {
	case action.LoopCount:
		return r.runCountLoop(ctx, a, ec, strat)
	case action.LoopForEach:
		return r.runForEachLoop(ctx, a, ec, strat)
	case action.LoopWhile:
		return r.runWhileConditionLoop(ctx, a, ec, strat)
	default:
		return action.Failuref("unknown loop type %q", a.LoopKind), nil
	}
}

// runIteration runs the loop body on a clone of the evolving parent context
// with the given loop variables merged in, then merges non-reserved mutations
// back so they are visible to the next iteration.
func (r *Runner) runIteration(ctx context.Context, body []action.Action, ec *ExecutionContext, loopVars map[string]any, strat Strategy) error {
	iterEC := ec.Clone()
	iterEC.Merge(loopVars)
	if err := r.executeBlock(ctx, body, iterEC, strat); err != nil {
		return err
	}
	ec.mergeBack(iterEC)
	return nil
}

func (r *Runner) runCountLoop(ctx context.Context, a *action.Loop, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	total := a.Count
	if total <= 0 {
		return action.Successf("loop ran 0 of %d iterations", total), nil
	}

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			return nil, errStopped
		}
		loopVars := map[string]any{
			KeyLoopIndex:     i,
			KeyLoopIteration: i + 1,
			KeyLoopTotal:     total,
		}
		switch err := r.runIteration(ctx, a.LoopActions, ec, loopVars, strat); {
		case err == nil:
		case isStopped(err):
			return nil, errStopped
		default:
			return action.Failuref("iteration %d failed: %v", i+1, err), nil
		}
	}
	return action.Successf("loop completed %d iterations", total), nil
}

func (r *Runner) runForEachLoop(ctx context.Context, a *action.Loop, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	raw, ok := ec.Get(a.ListVariableName)
	if !ok {
		return action.Failuref("for_each loop: variable %q is not set", a.ListVariableName), nil
	}
	items, ok := toList(raw)
	if !ok {
		return action.Failuref("for_each loop: variable %q is %T, not a list", a.ListVariableName, raw), nil
	}

	total := len(items)
	for i, item := range items {
		if ctx.Err() != nil {
			return nil, errStopped
		}
		loopVars := map[string]any{
			KeyLoopIndex:     i,
			KeyLoopIteration: i + 1,
			KeyLoopTotal:     total,
			KeyLoopItem:      item,
		}
		switch err := r.runIteration(ctx, a.LoopActions, ec, loopVars, strat); {
		case err == nil:
		case isStopped(err):
			return nil, errStopped
		default:
			return action.Failuref("iteration %d failed: %v", i+1, err), nil
		}
	}
	return action.Successf("loop completed %d iterations", total), nil
}

// runWhileConditionLoop is the simple while loop: it re-evaluates the shared
// condition kinds before every iteration and stops softly at the configured
// iteration ceiling.
func (r *Runner) runWhileConditionLoop(ctx context.Context, a *action.Loop, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	limit := r.config.WhileIterationLimit

	iterations := 0
	for {
		if ctx.Err() != nil {
			return nil, errStopped
		}
		if iterations >= limit {
			// Soft success with a warning, not a hard failure: the ceiling
			// exists to stop runaway automations.
			r.logger.Warn("while loop reached iteration limit",
				zap.String("action", a.Name()),
				zap.Int("limit", limit))
			return action.Successf("while loop stopped at iteration limit %d with condition still true", limit), nil
		}

		outcome, err := r.evalCondition(ctx, a.Condition, ec)
		if err != nil {
			return action.Failuref("while condition evaluation failed: %v", err), nil
		}
		if !outcome {
			break
		}

		loopVars := map[string]any{
			KeyLoopIndex:     iterations,
			KeyLoopIteration: iterations + 1,
		}
		switch err := r.runIteration(ctx, a.LoopActions, ec, loopVars, strat); {
		case err == nil:
		case isStopped(err):
			return nil, errStopped
		default:
			return action.Failuref("iteration %d failed: %v", iterations+1, err), nil
		}
		iterations++
	}
	return action.Successf("while loop completed %d iterations", iterations), nil
}

// runWhileLoop handles the generalized while variant: any action whose result
// payload coerces to a boolean drives the iteration. Reaching the configured
// maximum is a soft success reporting iterations_executed == max.
func (r *Runner) runWhileLoop(ctx context.Context, a *action.WhileLoop, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	max := a.MaxIterations

	iterations := 0
	for {
		if ctx.Err() != nil {
			return nil, errStopped
		}
		if iterations >= max {
			return action.Successf("while loop stopped at max_iterations %d with condition still true", max).
				WithData(map[string]any{"iterations_executed": iterations}), nil
		}

		condRes := r.executor.Execute(ctx, a.ConditionAction)
		if condRes.IsFailure() {
			return action.Failuref("condition action failed: %s", condRes.Message), nil
		}
		if !action.CoerceBool(condRes.Data) {
			break
		}

		loopVars := map[string]any{
			KeyLoopIndex:     iterations,
			KeyLoopIteration: iterations + 1,
		}
		switch err := r.runIteration(ctx, a.LoopActions, ec, loopVars, strat); {
		case err == nil:
		case isStopped(err):
			return nil, errStopped
		default:
			return action.Failuref("iteration %d failed: %v", iterations+1, err), nil
		}
		iterations++
	}
	return action.Successf("while loop completed %d iterations", iterations).
		WithData(map[string]any{"iterations_executed": iterations}), nil
}

// toList normalizes context values to a []any. Typed slices count as lists;
// strings and maps do not.
func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}
