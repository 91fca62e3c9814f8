// Package credential provides the credential lookup capability used by typed
// input actions, with in-memory and JSON-file backed sources.
//
// Hashing and encryption of stored secrets are deliberately left to the
// deployment; the engine only needs read access to resolved field values.
package credential

import (
	"context"
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotFound is returned when no credential exists under the given name.
	ErrNotFound = errors.New("credential not found")
	// ErrFieldNotFound is returned when a credential exists but lacks the
	// requested field.
	ErrFieldNotFound = errors.New("credential field not found")
)

// Credential is a named bag of secret fields (username, password, token, ...).
type Credential struct {
	Name   string            `json:"name" yaml:"name"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// Field returns the value of a single field.
func (c *Credential) Field(name string) (string, error) {
	v, ok := c.Fields[name]
	if !ok {
		return "", fmt.Errorf("credential %q: field %q: %w", c.Name, name, ErrFieldNotFound)
	}
	return v, nil
}

// Source is the read capability the engine consumes. Implementations must be
// safe for concurrent reads from multiple runs.
type Source interface {
	// GetByName returns the credential stored under name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*Credential, error)
}
