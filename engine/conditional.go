package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/browserflow/action"
)

// evalCondition evaluates one of the four condition kinds. Driver failures
// come back as errors; the caller converts them into a failure result.
func (r *Runner) evalCondition(ctx context.Context, c action.Condition, ec *ExecutionContext) (bool, error) {
	drv := r.executor.Driver()

	switch c.Type {
	case action.ConditionElementPresent:
		present, err := drv.IsElementPresent(ctx, c.Selector)
		if err != nil {
			return false, fmt.Errorf("element check %q: %w", c.Selector, err)
		}
		return present, nil

	case action.ConditionElementNotPresent:
		present, err := drv.IsElementPresent(ctx, c.Selector)
		if err != nil {
			return false, fmt.Errorf("element check %q: %w", c.Selector, err)
		}
		return !present, nil

	case action.ConditionVariableEquals:
		v, ok := ec.Get(c.VariableName)
		if !ok {
			return false, nil
		}
		return fmt.Sprint(v) == c.ExpectedValue, nil

	case action.ConditionJavaScript:
		value, err := drv.ExecuteScript(ctx, c.Script)
		if err != nil {
			return false, fmt.Errorf("script evaluation: %w", err)
		}
		return action.CoerceBool(value), nil

	default:
		return false, fmt.Errorf("unknown condition type %q", c.Type)
	}
}

// runConditional evaluates the condition and runs exactly one branch through
// the shared block primitive. Branches share the current context; an empty
// chosen branch is a success.
func (r *Runner) runConditional(ctx context.Context, a *action.Conditional, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	outcome, err := r.evalCondition(ctx, a.Condition, ec)
	if err != nil {
		return action.Failuref("condition evaluation failed: %v", err), nil
	}

	branch := a.FalseBranch
	branchName := "false"
	if outcome {
		branch = a.TrueBranch
		branchName = "true"
	}

	if len(branch) == 0 {
		return action.Successf("condition was %t, %s branch empty", outcome, branchName).WithData(outcome), nil
	}

	switch err := r.executeBlock(ctx, branch, ec, strat); {
	case err == nil:
		return action.Successf("condition was %t, executed %s branch (%d actions)", outcome, branchName, len(branch)).WithData(outcome), nil
	case isStopped(err):
		return nil, errStopped
	default:
		return action.Failuref("%s branch failed: %v", branchName, err).WithData(outcome), nil
	}
}

func isStopped(err error) bool {
	return errors.Is(err, errStopped)
}
