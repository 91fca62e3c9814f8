package credential

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource is an in-memory credential source, mainly for development and
// tests.
type MemorySource struct {
	mu    sync.RWMutex
	creds map[string]*Credential
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{creds: make(map[string]*Credential)}
}

// Put stores or replaces a credential.
func (s *MemorySource) Put(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Name] = cred
}

// GetByName returns the credential stored under name.
func (s *MemorySource) GetByName(ctx context.Context, name string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	// Copy so callers cannot mutate the stored fields.
	out := &Credential{Name: cred.Name, Fields: make(map[string]string, len(cred.Fields))}
	for k, v := range cred.Fields {
		out.Fields[k] = v
	}
	return out, nil
}
