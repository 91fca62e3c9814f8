package action

import (
	"context"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// Navigate loads a URL in the browser.
type Navigate struct {
	ActionName string
	URL        string
}

var _ Leaf = (*Navigate)(nil)

// NewNavigate creates a navigate action.
func NewNavigate(name, url string) *Navigate {
	return &Navigate{ActionName: coerceName(name, TypeNavigate), URL: url}
}

func (a *Navigate) Type() string { return TypeNavigate }
func (a *Navigate) Name() string { return coerceName(a.ActionName, TypeNavigate) }

func (a *Navigate) Validate() error {
	if a.URL == "" {
		return newValidationError(a.Name(), "url", "must not be empty")
	}
	return nil
}

func (a *Navigate) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	if err := drv.Get(ctx, a.URL); err != nil {
		return Failuref("navigate to %s failed: %v", a.URL, err)
	}
	return Successf("navigated to %s", a.URL)
}

func (a *Navigate) ToRecord() Record {
	return Record{"type": TypeNavigate, "name": a.Name(), "url": a.URL}
}

func (a *Navigate) NestedActions() []Action { return nil }

func navigateFromRecord(rec Record) (Action, error) {
	return NewNavigate(rec.String("name"), rec.String("url")), nil
}
