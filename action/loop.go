package action

// LoopType selects the iteration strategy of a Loop action.
type LoopType string

const (
	// LoopCount runs the body a fixed number of times.
	LoopCount LoopType = "count"
	// LoopForEach iterates over a list stored in a context variable.
	LoopForEach LoopType = "for_each"
	// LoopWhile iterates while a condition holds, bounded by a safety
	// ceiling.
	LoopWhile LoopType = "while"
)

// Loop repeats a nested action list. Depending on LoopKind exactly one of
// Count, ListVariableName, or Condition is meaningful.
type Loop struct {
	ActionName       string
	LoopKind         LoopType
	Count            int
	ListVariableName string
	Condition        Condition
	LoopActions      []Action
}

var _ Composite = (*Loop)(nil)

// NewCountLoop creates a fixed-count loop.
func NewCountLoop(name string, count int, body []Action) *Loop {
	return &Loop{ActionName: coerceName(name, TypeLoop), LoopKind: LoopCount, Count: count, LoopActions: body}
}

// NewForEachLoop creates a loop over a list context variable.
func NewForEachLoop(name, listVariableName string, body []Action) *Loop {
	return &Loop{ActionName: coerceName(name, TypeLoop), LoopKind: LoopForEach, ListVariableName: listVariableName, LoopActions: body}
}

// NewWhileLoopAction creates a condition-driven loop.
func NewWhileLoopAction(name string, cond Condition, body []Action) *Loop {
	return &Loop{ActionName: coerceName(name, TypeLoop), LoopKind: LoopWhile, Condition: cond, LoopActions: body}
}

func (a *Loop) Type() string { return TypeLoop }
func (a *Loop) Name() string { return coerceName(a.ActionName, TypeLoop) }

func (a *Loop) isComposite() {}

func (a *Loop) Validate() error {
	switch a.LoopKind {
	case LoopCount:
		// count <= 0 is legal and simply runs zero iterations.
	case LoopForEach:
		if a.ListVariableName == "" {
			return newValidationError(a.Name(), "list_variable_name", "required for for_each loops")
		}
	case LoopWhile:
		if err := a.Condition.validate(a.Name()); err != nil {
			return err
		}
	default:
		return newValidationError(a.Name(), "loop_type", "unknown loop type "+string(a.LoopKind))
	}
	return validateAll(a.LoopActions)
}

func (a *Loop) ToRecord() Record {
	rec := Record{
		"type":         TypeLoop,
		"name":         a.Name(),
		"loop_type":    string(a.LoopKind),
		"loop_actions": ToRecords(a.LoopActions),
	}
	switch a.LoopKind {
	case LoopCount:
		rec["count"] = a.Count
	case LoopForEach:
		rec["list_variable_name"] = a.ListVariableName
	case LoopWhile:
		a.Condition.fillRecord(rec)
	}
	return rec
}

func (a *Loop) NestedActions() []Action { return flatten(a.LoopActions) }

func loopFromRecord(rec Record) (Action, error) {
	body, err := decodedActions(rec, "loop_actions")
	if err != nil {
		return nil, err
	}

	l := &Loop{
		ActionName:  coerceName(rec.String("name"), TypeLoop),
		LoopKind:    LoopType(rec.String("loop_type")),
		LoopActions: body,
	}
	switch l.LoopKind {
	case LoopCount:
		l.Count, _ = rec.Int("count")
	case LoopForEach:
		l.ListVariableName = rec.String("list_variable_name")
	case LoopWhile:
		l.Condition = conditionFromRecord(rec)
	}
	return l, nil
}
