package action

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// JavaScriptCondition evaluates a script in the browser and reports the
// boolean coercion of its value in the result payload. It is the usual
// condition action for generalized while loops.
type JavaScriptCondition struct {
	ActionName string
	Script     string
}

var _ Leaf = (*JavaScriptCondition)(nil)

// NewJavaScriptCondition creates a javascript condition action.
func NewJavaScriptCondition(name, script string) *JavaScriptCondition {
	return &JavaScriptCondition{ActionName: coerceName(name, TypeJavaScriptCondition), Script: script}
}

func (a *JavaScriptCondition) Type() string { return TypeJavaScriptCondition }
func (a *JavaScriptCondition) Name() string {
	return coerceName(a.ActionName, TypeJavaScriptCondition)
}

func (a *JavaScriptCondition) Validate() error {
	if strings.TrimSpace(a.Script) == "" {
		return newValidationError(a.Name(), "script", "must not be empty")
	}
	return nil
}

func (a *JavaScriptCondition) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	value, err := drv.ExecuteScript(ctx, a.Script)
	if err != nil {
		return Failuref("script evaluation failed: %v", err)
	}
	outcome := CoerceBool(value)
	return Successf("condition evaluated to %t", outcome).WithData(outcome)
}

// CoerceBool applies JavaScript-style truthiness to a script result: false,
// nil, 0, "", and "false" are false; everything else is true.
func CoerceBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "false" && s != "0"
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		// Other concrete types: fall back to the printed form.
		s := fmt.Sprint(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != "" && s != "0"
	}
}

func (a *JavaScriptCondition) ToRecord() Record {
	return Record{"type": TypeJavaScriptCondition, "name": a.Name(), "script": a.Script}
}

func (a *JavaScriptCondition) NestedActions() []Action { return nil }

func javaScriptConditionFromRecord(rec Record) (Action, error) {
	return NewJavaScriptCondition(rec.String("name"), rec.String("script")), nil
}
