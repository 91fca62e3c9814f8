package action

import (
	"context"
	"strings"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// Value kinds for TypeText.
const (
	// ValueText types ValueKey literally.
	ValueText = "text"
	// ValueCredential resolves ValueKey of the form "credentialName.field"
	// against the credential source at execution time.
	ValueCredential = "credential"
)

// TypeText types a literal or credential-resolved value into the element
// matching a CSS selector.
type TypeText struct {
	ActionName string
	Selector   string
	ValueType  string // ValueText or ValueCredential
	ValueKey   string
}

var _ Leaf = (*TypeText)(nil)

// NewTypeText creates a type action.
func NewTypeText(name, selector, valueType, valueKey string) *TypeText {
	if valueType == "" {
		valueType = ValueText
	}
	return &TypeText{
		ActionName: coerceName(name, TypeTypeText),
		Selector:   selector,
		ValueType:  valueType,
		ValueKey:   valueKey,
	}
}

func (a *TypeText) Type() string { return TypeTypeText }
func (a *TypeText) Name() string { return coerceName(a.ActionName, TypeTypeText) }

func (a *TypeText) Validate() error {
	if a.Selector == "" {
		return newValidationError(a.Name(), "selector", "must not be empty")
	}
	switch a.ValueType {
	case ValueText:
	case ValueCredential:
		if !strings.Contains(a.ValueKey, ".") {
			return newValidationError(a.Name(), "value_key", `credential values must look like "credentialName.field"`)
		}
	default:
		return newValidationError(a.Name(), "value_type", `must be "text" or "credential"`)
	}
	return nil
}

func (a *TypeText) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	text, err := a.resolveValue(ctx, creds)
	if err != nil {
		return Failuref("resolve input value: %v", err)
	}
	if err := drv.TypeText(ctx, a.Selector, text); err != nil {
		return Failuref("type into %s failed: %v", a.Selector, err)
	}
	return Successf("typed into %s", a.Selector)
}

// resolveValue returns the literal text, or looks up "name.field" in the
// credential source. A missing credential or field is an error the caller
// turns into a failure result, never a crash.
func (a *TypeText) resolveValue(ctx context.Context, creds credential.Source) (string, error) {
	if a.ValueType != ValueCredential {
		return a.ValueKey, nil
	}

	name, field, found := strings.Cut(a.ValueKey, ".")
	if !found || name == "" || field == "" {
		return "", &CredentialError{Name: a.ValueKey, Cause: credential.ErrNotFound}
	}
	if creds == nil {
		return "", &CredentialError{Name: name, Field: field, Cause: credential.ErrNotFound}
	}

	cred, err := creds.GetByName(ctx, name)
	if err != nil {
		return "", &CredentialError{Name: name, Field: field, Cause: err}
	}
	value, err := cred.Field(field)
	if err != nil {
		return "", &CredentialError{Name: name, Field: field, Cause: err}
	}
	return value, nil
}

func (a *TypeText) ToRecord() Record {
	return Record{
		"type":       TypeTypeText,
		"name":       a.Name(),
		"selector":   a.Selector,
		"value_type": a.ValueType,
		"value_key":  a.ValueKey,
	}
}

func (a *TypeText) NestedActions() []Action { return nil }

func typeTextFromRecord(rec Record) (Action, error) {
	return NewTypeText(rec.String("name"), rec.String("selector"), rec.String("value_type"), rec.String("value_key")), nil
}
