package action

// ConditionType selects how a conditional (or while loop) decides.
type ConditionType string

const (
	// ConditionElementPresent is true when the selector matches an element.
	ConditionElementPresent ConditionType = "element_present"
	// ConditionElementNotPresent is true when the selector matches nothing.
	ConditionElementNotPresent ConditionType = "element_not_present"
	// ConditionVariableEquals compares a context variable's string form
	// against an expected value.
	ConditionVariableEquals ConditionType = "variable_equals"
	// ConditionJavaScript coerces a script evaluation to a boolean.
	ConditionJavaScript ConditionType = "javascript_eval"
)

// Condition is the shared condition configuration of Conditional actions and
// while-type loops. Exactly one parameter group is meaningful per type.
type Condition struct {
	Type          ConditionType
	Selector      string // element_present / element_not_present
	VariableName  string // variable_equals
	ExpectedValue string // variable_equals
	Script        string // javascript_eval
}

func (c Condition) validate(actionName string) error {
	switch c.Type {
	case ConditionElementPresent, ConditionElementNotPresent:
		if c.Selector == "" {
			return newValidationError(actionName, "selector", "required for element conditions")
		}
	case ConditionVariableEquals:
		if c.VariableName == "" {
			return newValidationError(actionName, "variable_name", "required for variable_equals conditions")
		}
	case ConditionJavaScript:
		if c.Script == "" {
			return newValidationError(actionName, "script", "required for javascript_eval conditions")
		}
	default:
		return newValidationError(actionName, "condition_type", "unknown condition type "+string(c.Type))
	}
	return nil
}

func (c Condition) fillRecord(rec Record) {
	rec["condition_type"] = string(c.Type)
	if c.Selector != "" {
		rec["selector"] = c.Selector
	}
	if c.VariableName != "" {
		rec["variable_name"] = c.VariableName
	}
	if c.ExpectedValue != "" {
		rec["expected_value"] = c.ExpectedValue
	}
	if c.Script != "" {
		rec["script"] = c.Script
	}
}

func conditionFromRecord(rec Record) Condition {
	return Condition{
		Type:          ConditionType(rec.String("condition_type")),
		Selector:      rec.String("selector"),
		VariableName:  rec.String("variable_name"),
		ExpectedValue: rec.String("expected_value"),
		Script:        rec.String("script"),
	}
}
