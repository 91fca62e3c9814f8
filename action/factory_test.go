package action_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserflow/action"
)

func TestFactoryBuildsEveryBuiltinType(t *testing.T) {
	factory := action.NewFactory(nil)

	records := []action.Record{
		{"type": "navigate", "name": "go", "url": "https://example.com"},
		{"type": "click", "name": "c", "selector": "#btn"},
		{"type": "type", "name": "t", "selector": "#user", "value_type": "text", "value_key": "alice"},
		{"type": "wait", "name": "w", "duration_seconds": 1.5},
		{"type": "screenshot", "name": "s", "file_path": "out.png"},
		{"type": "javascript_condition", "name": "j", "script": "return true"},
		{"type": "conditional", "name": "cond", "condition_type": "element_present", "selector": "#x",
			"true_actions": []any{map[string]any{"type": "click", "selector": "#y"}}},
		{"type": "loop", "name": "l", "loop_type": "count", "count": 3,
			"loop_actions": []any{map[string]any{"type": "wait", "duration_seconds": 0.1}}},
		{"type": "error_handling", "name": "eh",
			"try_actions": []any{map[string]any{"type": "click", "selector": "#z"}}},
		{"type": "template", "name": "tp", "template_name": "login-flow"},
		{"type": "while_loop", "name": "wl", "max_iterations": 5,
			"condition_action": map[string]any{"type": "javascript_condition", "script": "return more()"},
			"loop_actions":     []any{map[string]any{"type": "click", "selector": "#next"}}},
	}

	actions, err := factory.FromRecordList(records)
	require.NoError(t, err)
	require.Len(t, actions, len(records))
	for i, a := range actions {
		assert.Equal(t, records[i].String("type"), a.Type())
		assert.NoError(t, a.Validate())
	}
}

func TestFactoryUnknownType(t *testing.T) {
	factory := action.NewFactory(nil)

	_, err := factory.FromRecord(action.Record{"type": "teleport", "name": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, action.ErrUnknownType)

	var aerr *action.ActionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "teleport", aerr.Type)
}

func TestFactoryMissingTypeTag(t *testing.T) {
	factory := action.NewFactory(nil)

	_, err := factory.FromRecord(action.Record{"name": "anonymous"})
	var serr *action.SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestFactoryMalformedNestedList(t *testing.T) {
	factory := action.NewFactory(nil)

	_, err := factory.FromRecord(action.Record{
		"type":         "loop",
		"loop_type":    "count",
		"count":        2,
		"loop_actions": "not a list",
	})
	var serr *action.SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestFactoryNestedErrorNamesPosition(t *testing.T) {
	factory := action.NewFactory(nil)

	_, err := factory.FromRecordList([]action.Record{
		{"type": "click", "selector": "#ok"},
		{"type": "conditional", "condition_type": "element_present", "selector": "#x",
			"true_actions": []any{map[string]any{"type": "bogus"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	assert.ErrorIs(t, err, action.ErrUnknownType)
}

func TestFactoryWhileLoopRequiresCondition(t *testing.T) {
	factory := action.NewFactory(nil)

	_, err := factory.FromRecord(action.Record{
		"type":         "while_loop",
		"name":         "wl",
		"loop_actions": []any{},
	})
	var serr *action.SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestFactoryBlankNameCoercion(t *testing.T) {
	factory := action.NewFactory(nil)

	a, err := factory.FromRecord(action.Record{"type": "click", "name": "   ", "selector": "#b"})
	require.NoError(t, err)
	assert.Equal(t, "click", a.Name())
}

func TestFactoryRegisterReplacesConstructor(t *testing.T) {
	factory := action.NewFactory(nil)

	sentinel := errors.New("custom constructor")
	factory.Register("click", func(rec action.Record) (action.Action, error) {
		return nil, sentinel
	})

	_, err := factory.FromRecord(action.Record{"type": "click", "selector": "#b"})
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, factory.Registered(), "click")
}

func TestFactoryDeeplyNestedTree(t *testing.T) {
	factory := action.NewFactory(nil)

	rec := action.Record{
		"type": "error_handling",
		"name": "outer",
		"try_actions": []any{
			map[string]any{
				"type":               "loop",
				"loop_type":          "for_each",
				"list_variable_name": "items",
				"loop_actions": []any{
					map[string]any{
						"type":           "conditional",
						"condition_type": "variable_equals",
						"variable_name":  "loop_item",
						"expected_value": "target",
						"true_actions": []any{
							map[string]any{"type": "click", "selector": "#pick"},
						},
					},
				},
			},
		},
		"catch_actions": []any{
			map[string]any{"type": "screenshot", "file_path": "fail.png"},
		},
	}

	a, err := factory.FromRecord(rec)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	// outer -> loop -> conditional -> click, plus the catch screenshot
	assert.Len(t, a.NestedActions(), 4)
}
