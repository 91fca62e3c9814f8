package action

import (
	"context"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// Click clicks the first element matching a CSS selector.
type Click struct {
	ActionName string
	Selector   string
}

var _ Leaf = (*Click)(nil)

// NewClick creates a click action.
func NewClick(name, selector string) *Click {
	return &Click{ActionName: coerceName(name, TypeClick), Selector: selector}
}

func (a *Click) Type() string { return TypeClick }
func (a *Click) Name() string { return coerceName(a.ActionName, TypeClick) }

func (a *Click) Validate() error {
	if a.Selector == "" {
		return newValidationError(a.Name(), "selector", "must not be empty")
	}
	return nil
}

func (a *Click) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	if err := drv.Click(ctx, a.Selector); err != nil {
		return Failuref("click %s failed: %v", a.Selector, err)
	}
	return Successf("clicked %s", a.Selector)
}

func (a *Click) ToRecord() Record {
	return Record{"type": TypeClick, "name": a.Name(), "selector": a.Selector}
}

func (a *Click) NestedActions() []Action { return nil }

func clickFromRecord(rec Record) (Action, error) {
	return NewClick(rec.String("name"), rec.String("selector")), nil
}
