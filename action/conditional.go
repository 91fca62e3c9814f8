package action

// Conditional evaluates a condition and runs exactly one of two nested
// branches. Branches share the surrounding execution context; an empty chosen
// branch still succeeds.
type Conditional struct {
	ActionName  string
	Condition   Condition
	TrueBranch  []Action
	FalseBranch []Action
}

var _ Composite = (*Conditional)(nil)

// NewConditional creates a conditional action.
func NewConditional(name string, cond Condition, trueBranch, falseBranch []Action) *Conditional {
	return &Conditional{
		ActionName:  coerceName(name, TypeConditional),
		Condition:   cond,
		TrueBranch:  trueBranch,
		FalseBranch: falseBranch,
	}
}

func (a *Conditional) Type() string { return TypeConditional }
func (a *Conditional) Name() string { return coerceName(a.ActionName, TypeConditional) }

func (a *Conditional) isComposite() {}

func (a *Conditional) Validate() error {
	if err := a.Condition.validate(a.Name()); err != nil {
		return err
	}
	return validateAll(a.TrueBranch, a.FalseBranch)
}

func (a *Conditional) ToRecord() Record {
	rec := Record{
		"type":          TypeConditional,
		"name":          a.Name(),
		"true_actions":  ToRecords(a.TrueBranch),
		"false_actions": ToRecords(a.FalseBranch),
	}
	a.Condition.fillRecord(rec)
	return rec
}

func (a *Conditional) NestedActions() []Action {
	return flatten(a.TrueBranch, a.FalseBranch)
}

func conditionalFromRecord(rec Record) (Action, error) {
	trueBranch, err := decodedActions(rec, "true_actions")
	if err != nil {
		return nil, err
	}
	falseBranch, err := decodedActions(rec, "false_actions")
	if err != nil {
		return nil, err
	}
	return NewConditional(rec.String("name"), conditionFromRecord(rec), trueBranch, falseBranch), nil
}
