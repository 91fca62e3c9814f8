package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/driver"
	"github.com/BaSui01/browserflow/testutil/mocks"
)

// countingDriver wraps the mock driver and reports an element present (or a
// script truthy) only for the first N probes.
type countingDriver struct {
	*mocks.Driver
	truthyProbes int
	probes       int
}

func (d *countingDriver) IsElementPresent(ctx context.Context, selector string) (bool, error) {
	d.probes++
	return d.probes <= d.truthyProbes, nil
}

func (d *countingDriver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	d.probes++
	return d.probes <= d.truthyProbes, nil
}

var _ driver.Driver = (*countingDriver)(nil)

func TestCountLoopRunsBodyNTimes(t *testing.T) {
	drv := mocks.NewDriver()
	loop := action.NewCountLoop("loop", 4, []action.Action{action.NewClick("c", "#item")})

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{loop})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Equal(t, 4, drv.CallsTo("click"))

	// 4 body results plus the loop's own summary result.
	require.Len(t, log.ActionResults, 5)
	assert.Contains(t, log.ActionResults[4].Result.Message, "4 iterations")
}

func TestCountLoopZeroIterations(t *testing.T) {
	drv := mocks.NewDriver()
	loop := action.NewCountLoop("loop", 0, []action.Action{action.NewClick("c", "#item")})

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{loop})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	assert.Zero(t, drv.CallsTo("click"))
	require.Len(t, log.ActionResults, 1)
	assert.Contains(t, log.ActionResults[0].Result.Message, "0 of 0")
}

func TestCountLoopExposesIterationVariables(t *testing.T) {
	drv := mocks.NewDriver()
	r := newTestRunner(drv, nil, nil, DefaultConfig())

	// The body clicks #special only on the second iteration, proving
	// loop_iteration is visible inside the body.
	body := action.NewConditional("pick",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: KeyLoopIteration, ExpectedValue: "2"},
		[]action.Action{action.NewClick("special", "#special")},
		nil,
	)
	loop := action.NewCountLoop("loop", 3, []action.Action{body})

	res, err := r.runLoop(context.Background(), loop, NewExecutionContext(), StopOnError)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess(), res.Message)
	assert.Equal(t, 1, drv.CallsTo("click"))
}

func TestLoopVariablesDoNotLeak(t *testing.T) {
	r := newTestRunner(mocks.NewDriver(), nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	loop := action.NewCountLoop("loop", 2, []action.Action{succeedingStub("s")})

	_, err := r.runLoop(context.Background(), loop, ec, StopOnError)
	require.NoError(t, err)

	for _, key := range []string{KeyLoopIndex, KeyLoopIteration, KeyLoopTotal, KeyLoopItem} {
		_, ok := ec.Get(key)
		assert.False(t, ok, "reserved key %s must not leak into the parent scope", key)
	}
}

func TestForEachLoopIteratesList(t *testing.T) {
	drv := mocks.NewDriver()
	r := newTestRunner(drv, nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	ec.Set("items", []string{"a", "target", "b"})

	// Click #pick only for the matching item, proving loop_item carries each
	// element in order.
	body := action.NewConditional("match",
		action.Condition{Type: action.ConditionVariableEquals, VariableName: KeyLoopItem, ExpectedValue: "target"},
		[]action.Action{action.NewClick("pick", "#pick")},
		nil,
	)
	loop := action.NewForEachLoop("loop", "items", []action.Action{body})

	res, err := r.runLoop(context.Background(), loop, ec, StopOnError)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess(), res.Message)
	assert.Contains(t, res.Message, "3 iterations")
	assert.Equal(t, 1, drv.CallsTo("click"))
}

func TestForEachLoopUnsetVariableFails(t *testing.T) {
	r := newTestRunner(mocks.NewDriver(), nil, nil, DefaultConfig())

	loop := action.NewForEachLoop("loop", "missing", []action.Action{succeedingStub("s")})
	res, err := r.runLoop(context.Background(), loop, NewExecutionContext(), StopOnError)

	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.Contains(t, res.Message, `"missing" is not set`)
}

func TestForEachLoopNonListVariableFails(t *testing.T) {
	r := newTestRunner(mocks.NewDriver(), nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	ec.Set("items", "just a string")

	loop := action.NewForEachLoop("loop", "items", []action.Action{succeedingStub("s")})
	res, err := r.runLoop(context.Background(), loop, ec, StopOnError)

	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.Contains(t, res.Message, "not a list")
}

func TestForEachLoopEmptyListSucceeds(t *testing.T) {
	r := newTestRunner(mocks.NewDriver(), nil, nil, DefaultConfig())

	ec := NewExecutionContext()
	ec.Set("items", []any{})

	loop := action.NewForEachLoop("loop", "items", []action.Action{succeedingStub("s")})
	res, err := r.runLoop(context.Background(), loop, ec, StopOnError)

	require.NoError(t, err)
	assert.True(t, res.IsSuccess())
	assert.Contains(t, res.Message, "0 iterations")
}

func TestWhileConditionLoopStopsWhenConditionTurnsFalse(t *testing.T) {
	drv := &countingDriver{Driver: mocks.NewDriver(), truthyProbes: 3}

	loop := action.NewWhileLoopAction("loop",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#more"},
		[]action.Action{succeedingStub("body")},
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{loop})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	// 3 body results plus the loop summary.
	require.Len(t, log.ActionResults, 4)
	assert.Contains(t, log.ActionResults[3].Result.Message, "3 iterations")
}

func TestWhileConditionLoopHitsIterationLimit(t *testing.T) {
	drv := &countingDriver{Driver: mocks.NewDriver(), truthyProbes: 1 << 30}

	loop := action.NewWhileLoopAction("loop",
		action.Condition{Type: action.ConditionElementPresent, Selector: "#forever"},
		[]action.Action{succeedingStub("body")},
	)

	cfg := DefaultConfig()
	cfg.WhileIterationLimit = 5
	r := newTestRunner(drv, nil, nil, cfg)
	log := r.Run(context.Background(), "wf", []action.Action{loop})

	// The ceiling is a soft stop, not a failure.
	assert.Equal(t, StatusSuccess, log.FinalStatus)
	require.Len(t, log.ActionResults, 6)
	last := log.ActionResults[5].Result
	assert.True(t, last.IsSuccess())
	assert.Contains(t, last.Message, "iteration limit 5")
}

func TestWhileLoopConditionActionDriven(t *testing.T) {
	drv := &countingDriver{Driver: mocks.NewDriver(), truthyProbes: 2}

	wl := action.NewWhileLoop("wl",
		action.NewJavaScriptCondition("check", "hasMore()"),
		[]action.Action{succeedingStub("body")},
		100,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{wl})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	last := log.ActionResults[len(log.ActionResults)-1].Result
	data, ok := last.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, data["iterations_executed"])
}

func TestWhileLoopReachesMaxIterations(t *testing.T) {
	drv := &countingDriver{Driver: mocks.NewDriver(), truthyProbes: 1 << 30}

	wl := action.NewWhileLoop("wl",
		action.NewJavaScriptCondition("check", "hasMore()"),
		[]action.Action{succeedingStub("body")},
		4,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{wl})

	assert.Equal(t, StatusSuccess, log.FinalStatus)
	last := log.ActionResults[len(log.ActionResults)-1].Result
	assert.True(t, last.IsSuccess())
	assert.Contains(t, last.Message, "max_iterations 4")

	data, ok := last.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, data["iterations_executed"])
}

func TestWhileLoopConditionFailureFailsLoop(t *testing.T) {
	drv := mocks.NewDriver()
	drv.FailOn("script", "boom()", errTest)

	wl := action.NewWhileLoop("wl",
		action.NewJavaScriptCondition("check", "boom()"),
		[]action.Action{succeedingStub("body")},
		10,
	)

	r := newTestRunner(drv, nil, nil, DefaultConfig())
	log := r.Run(context.Background(), "wf", []action.Action{wl})

	assert.Equal(t, StatusFailed, log.FinalStatus)
	require.NotEmpty(t, log.ActionResults)
	assert.Contains(t, log.ActionResults[len(log.ActionResults)-1].Result.Message, "condition action failed")
}

func TestLoopFailingIterationFailsLoop(t *testing.T) {
	r := newTestRunner(mocks.NewDriver(), nil, nil, DefaultConfig())

	hits := 0
	body := &stubAction{name: "body", fn: func(context.Context) *action.Result {
		hits++
		if hits == 2 {
			return action.Failure("second iteration broke")
		}
		return action.Success("ok")
	}}

	loop := action.NewCountLoop("loop", 5, []action.Action{body})
	log := r.Run(context.Background(), "wf", []action.Action{loop})

	assert.Equal(t, StatusFailed, log.FinalStatus)
	assert.Equal(t, 2, hits, "failure stops further iterations")
	last := log.ActionResults[len(log.ActionResults)-1].Result
	assert.Contains(t, last.Message, "iteration 2 failed")
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "script exploded" }
