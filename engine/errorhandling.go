package engine

import (
	"context"

	"github.com/BaSui01/browserflow/action"
)

// runErrorHandling runs the try block with forced stop-on-error semantics so
// the first failure short-circuits regardless of the run strategy. On
// failure, a non-empty catch block runs with the failure's message and type
// merged into a child scope; the composite succeeds when the catch block
// completes cleanly. With an empty catch block the original failure stands.
func (r *Runner) runErrorHandling(ctx context.Context, a *action.ErrorHandling, ec *ExecutionContext, strat Strategy) (*action.Result, error) {
	tryErr := r.executeBlock(ctx, a.TryActions, ec, StopOnError)
	if tryErr == nil {
		return action.Successf("try block completed (%d actions)", len(a.TryActions)), nil
	}
	if isStopped(tryErr) {
		return nil, errStopped
	}

	fe, ok := tryErr.(*failureError)
	if !ok {
		// Not reachable with the current block primitive, but fail safe.
		return action.Failuref("try block failed: %v", tryErr), nil
	}

	if len(a.CatchActions) == 0 {
		return action.Failuref("try block failed with no catch actions: %s", fe.message), nil
	}

	catchEC := ec.Clone()
	catchEC.Merge(map[string]any{
		KeyTryErrorMessage: fe.message,
		KeyTryErrorType:    fe.actionType,
	})

	switch catchErr := r.executeBlock(ctx, a.CatchActions, catchEC, StopOnError); {
	case catchErr == nil:
		ec.mergeBack(catchEC, KeyTryErrorMessage, KeyTryErrorType)
		return action.Successf("try block failed (%s); catch block recovered", fe.message), nil
	case isStopped(catchErr):
		return nil, errStopped
	default:
		return action.Failuref("catch block failed: %v", catchErr), nil
	}
}
