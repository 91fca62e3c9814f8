package action

import (
	"context"
	"strings"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// Type tags, one per variant. The tag doubles as the default action name.
const (
	TypeNavigate            = "navigate"
	TypeClick               = "click"
	TypeTypeText            = "type"
	TypeWait                = "wait"
	TypeScreenshot          = "screenshot"
	TypeJavaScriptCondition = "javascript_condition"
	TypeConditional         = "conditional"
	TypeLoop                = "loop"
	TypeErrorHandling       = "error_handling"
	TypeTemplate            = "template"
	TypeWhileLoop           = "while_loop"
)

// Action is one executable step or control-flow construct in a workflow.
// Every variant validates itself before execution; validation recurses into
// nested actions. ToRecord must round-trip through Factory.FromRecord.
type Action interface {
	// Type returns the variant's constant type tag.
	Type() string
	// Name returns the display name, defaulting to the type tag.
	Name() string
	// Validate checks the action's configuration, recursing into nested
	// actions. A non-nil error is always a *ValidationError.
	Validate() error
	// ToRecord serializes the action to its generic record shape.
	ToRecord() Record
	// NestedActions returns all descendant actions, depth first. Empty for
	// leaves.
	NestedActions() []Action
}

// Leaf is an action the executor can run directly against the driver. The
// runner dispatches composite variants itself and never calls Execute on
// them.
type Leaf interface {
	Action
	// Execute performs the action. Driver failures are converted to failure
	// results at this boundary; raw driver errors never cross it.
	Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result
}

// Composite is an action carrying nested action lists. The runner interprets
// these; they do not execute themselves.
type Composite interface {
	Action
	isComposite()
}

// coerceName maps blank or whitespace-only names to the type tag. The
// factory logs a warning when it has to do this.
func coerceName(name, tag string) string {
	if strings.TrimSpace(name) == "" {
		return tag
	}
	return name
}

// flatten collects lists of nested actions depth first.
func flatten(lists ...[]Action) []Action {
	var out []Action
	for _, list := range lists {
		for _, a := range list {
			out = append(out, a)
			out = append(out, a.NestedActions()...)
		}
	}
	return out
}

// validateAll validates every action in the given lists, returning the first
// validation error.
func validateAll(lists ...[]Action) error {
	for _, list := range lists {
		for _, a := range list {
			if err := a.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
