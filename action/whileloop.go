package action

// DefaultMaxIterations is the safety ceiling of a WhileLoop when none is
// configured. It exists to stop runaway automations, not to bound wall-clock
// time.
const DefaultMaxIterations = 1000

// WhileLoop is the generalized while construct: any action whose result
// payload coerces to a boolean drives the iteration. Reaching MaxIterations
// with the condition still true is a documented soft success, not a failure.
type WhileLoop struct {
	ActionName      string
	ConditionAction Action
	LoopActions     []Action
	MaxIterations   int
}

var _ Composite = (*WhileLoop)(nil)

// NewWhileLoop creates a generalized while loop. maxIterations <= 0 selects
// DefaultMaxIterations.
func NewWhileLoop(name string, condition Action, body []Action, maxIterations int) *WhileLoop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &WhileLoop{
		ActionName:      coerceName(name, TypeWhileLoop),
		ConditionAction: condition,
		LoopActions:     body,
		MaxIterations:   maxIterations,
	}
}

func (a *WhileLoop) Type() string { return TypeWhileLoop }
func (a *WhileLoop) Name() string { return coerceName(a.ActionName, TypeWhileLoop) }

func (a *WhileLoop) isComposite() {}

func (a *WhileLoop) Validate() error {
	if a.ConditionAction == nil {
		return newValidationError(a.Name(), "condition_action", "must not be empty")
	}
	if a.MaxIterations <= 0 {
		return newValidationError(a.Name(), "max_iterations", "must be positive")
	}
	if err := a.ConditionAction.Validate(); err != nil {
		return err
	}
	return validateAll(a.LoopActions)
}

func (a *WhileLoop) ToRecord() Record {
	return Record{
		"type":             TypeWhileLoop,
		"name":             a.Name(),
		"condition_action": a.ConditionAction.ToRecord(),
		"loop_actions":     ToRecords(a.LoopActions),
		"max_iterations":   a.MaxIterations,
	}
}

func (a *WhileLoop) NestedActions() []Action {
	nested := []Action{a.ConditionAction}
	nested = append(nested, a.ConditionAction.NestedActions()...)
	return append(nested, flatten(a.LoopActions)...)
}

func whileLoopFromRecord(rec Record) (Action, error) {
	condition, err := decodedAction(rec, "condition_action")
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, &SerializationError{Detail: "while_loop record has no condition_action"}
	}
	body, err := decodedActions(rec, "loop_actions")
	if err != nil {
		return nil, err
	}
	maxIterations, _ := rec.Int("max_iterations")
	return NewWhileLoop(rec.String("name"), condition, body, maxIterations), nil
}
