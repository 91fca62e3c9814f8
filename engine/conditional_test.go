package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/testutil/mocks"
)

func TestConditionalElementPresentTakesTrueBranch(t *testing.T) {
	drv := mocks.NewDriver()
	drv.SetElementPresent("#banner", true)

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#banner"},
		[]action.Action{action.NewClick("dismiss", "#dismiss")},
		[]action.Action{action.NewClick("other", "#other")},
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Equal(t, 1, drv.CallsTo("click"))
	calls := drv.Calls()
	assert.Equal(t, "#dismiss", calls[len(calls)-1].Args[0])

	// Composite result recorded last, with the branch actions before it.
	require.Len(t, log.ActionResults, 2)
	assert.Equal(t, "dismiss", log.ActionResults[0].ActionName)
	assert.Equal(t, "gate", log.ActionResults[1].ActionName)
	assert.Equal(t, true, log.ActionResults[1].Result.Data)
}

func TestConditionalElementAbsentTakesFalseBranch(t *testing.T) {
	drv := mocks.NewDriver()

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#banner"},
		[]action.Action{action.NewClick("dismiss", "#dismiss")},
		[]action.Action{action.NewClick("other", "#other")},
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	calls := drv.Calls()
	assert.Equal(t, "#other", calls[len(calls)-1].Args[0])
}

func TestConditionalElementNotPresent(t *testing.T) {
	drv := mocks.NewDriver()

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementNotPresent, Selector: "#spinner"},
		[]action.Action{action.NewClick("go", "#go")},
		nil,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Equal(t, 1, drv.CallsTo("click"))
}

func TestConditionalVariableEquals(t *testing.T) {
	drv := mocks.NewDriver()
	r := newTestRunner(drv, nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	ec.Set("state", "ready")

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: "state", ExpectedValue: "ready"},
		[]action.Action{action.NewClick("go", "#go")},
		[]action.Action{action.NewClick("wait", "#wait")},
	)

	res, err := r.runConditional(context.Background(), cond, ec, StopOnError)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess(), res.Message)
	assert.Equal(t, true, res.Data)

	calls := drv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "#go", calls[0].Args[0])
}

func TestConditionalMissingVariableIsFalse(t *testing.T) {
	drv := mocks.NewDriver()
	r := newTestRunner(drv, nil, nil, DefaultConfig())

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: "never_set", ExpectedValue: "x"},
		[]action.Action{action.NewClick("t", "#true")},
		[]action.Action{action.NewClick("f", "#false")},
	)

	res, err := r.runConditional(context.Background(), cond, NewExecutionContext(), StopOnError)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())
	assert.Equal(t, false, res.Data)

	calls := drv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "#false", calls[0].Args[0])
}

func TestConditionalJavaScriptCondition(t *testing.T) {
	drv := mocks.NewDriver()
	drv.SetScriptResult("hasMore()", "true")

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionJavaScript, Script: "hasMore()"},
		[]action.Action{action.NewClick("next", "#next")},
		nil,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Equal(t, 1, drv.CallsTo("click"))
}

func TestConditionalEmptyChosenBranchSucceeds(t *testing.T) {
	drv := mocks.NewDriver()

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#banner"},
		[]action.Action{action.NewClick("t", "#t")},
		nil, // false branch empty; element is absent
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Zero(t, drv.CallsTo("click"))
	require.Len(t, log.ActionResults, 1)
	assert.Contains(t, log.ActionResults[0].Result.Message, "branch empty")
}

func TestConditionalDriverErrorIsFailure(t *testing.T) {
	drv := mocks.NewDriver()
	drv.FailOn("present", "#flaky", errors.New("connection lost"))

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#flaky"},
		[]action.Action{action.NewClick("t", "#t")},
		nil,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusFailed, log.FinalStatus)
	require.Len(t, log.ActionResults, 1)
	assert.Contains(t, log.ActionResults[0].Result.Message, "condition evaluation failed")
}

func TestConditionalBranchFailurePropagates(t *testing.T) {
	drv := mocks.NewDriver()
	drv.SetElementPresent("#x", true)
	drv.FailOn("click", "#broken", errors.New("no such element"))

	cond := action.NewConditional("gate",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#x"},
		[]action.Action{action.NewClick("bad", "#broken")},
		nil,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{cond})

	assert.Equal(t, StatusFailed, log.FinalStatus)
	// Both the failing branch action and the conditional itself are recorded.
	require.Len(t, log.ActionResults, 2)
	assert.True(t, log.ActionResults[0].Result.IsFailure())
	assert.True(t, log.ActionResults[1].Result.IsFailure())
}

func TestConditionalBranchesShareContext(t *testing.T) {
	drv := mocks.NewDriver()
	r := newTestRunner(drv, nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	ec.Set("state", "ready")

	// The inner conditional reads the same variable the outer one did; a
	// branch runs on the surrounding context, not a copy.
	inner := action.NewConditional("inner",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: "state", ExpectedValue: "ready"},
		[]action.Action{action.NewClick("deep", "#deep")},
		nil,
	)
	outer := action.NewConditional("outer",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: "state", ExpectedValue: "ready"},
		[]action.Action{inner},
		nil,
	)

	res, err := r.runConditional(context.Background(), outer, ec, StopOnError)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess(), res.Message)
	assert.Equal(t, 1, drv.CallsTo("click"))
}
