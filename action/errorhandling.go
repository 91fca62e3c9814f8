package action

// ErrorHandling runs a try block and, when it fails, a catch block. The catch
// block sees the try failure's message and type as context variables. With an
// empty catch block the original failure propagates.
type ErrorHandling struct {
	ActionName   string
	TryActions   []Action
	CatchActions []Action
}

var _ Composite = (*ErrorHandling)(nil)

// NewErrorHandling creates a try/catch action. catchActions may be empty.
func NewErrorHandling(name string, tryActions, catchActions []Action) *ErrorHandling {
	return &ErrorHandling{
		ActionName:   coerceName(name, TypeErrorHandling),
		TryActions:   tryActions,
		CatchActions: catchActions,
	}
}

func (a *ErrorHandling) Type() string { return TypeErrorHandling }
func (a *ErrorHandling) Name() string { return coerceName(a.ActionName, TypeErrorHandling) }

func (a *ErrorHandling) isComposite() {}

func (a *ErrorHandling) Validate() error {
	if len(a.TryActions) == 0 {
		return newValidationError(a.Name(), "try_actions", "must not be empty")
	}
	return validateAll(a.TryActions, a.CatchActions)
}

func (a *ErrorHandling) ToRecord() Record {
	return Record{
		"type":          TypeErrorHandling,
		"name":          a.Name(),
		"try_actions":   ToRecords(a.TryActions),
		"catch_actions": ToRecords(a.CatchActions),
	}
}

func (a *ErrorHandling) NestedActions() []Action {
	return flatten(a.TryActions, a.CatchActions)
}

func errorHandlingFromRecord(rec Record) (Action, error) {
	tryActions, err := decodedActions(rec, "try_actions")
	if err != nil {
		return nil, err
	}
	catchActions, err := decodedActions(rec, "catch_actions")
	if err != nil {
		return nil, err
	}
	return NewErrorHandling(rec.String("name"), tryActions, catchActions), nil
}
