package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/credential"
)

// CredentialSource is a map-backed credential.Source with optional error
// injection.
type CredentialSource struct {
	mu    sync.Mutex
	creds map[string]*credential.Credential
	err   error
}

var _ credential.Source = (*CredentialSource)(nil)

// NewCredentialSource returns an empty source.
func NewCredentialSource() *CredentialSource {
	return &CredentialSource{creds: make(map[string]*credential.Credential)}
}

// Put stores a credential by name.
func (s *CredentialSource) Put(name string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[name] = &credential.Credential{Name: name, Fields: fields}
}

// SetError makes every lookup fail with err.
func (s *CredentialSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *CredentialSource) GetByName(ctx context.Context, name string) (*credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.creds[name]
	if !ok {
		return nil, fmt.Errorf("credential %q: %w", name, credential.ErrNotFound)
	}
	return c, nil
}

// TemplateStore is a map-backed engine.TemplateStore.
type TemplateStore struct {
	mu        sync.Mutex
	templates map[string][]action.Record
	err       error
}

// NewTemplateStore returns an empty store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[string][]action.Record)}
}

// Put stores a template's records.
func (s *TemplateStore) Put(name string, records []action.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = records
}

// SetError makes every lookup fail with err.
func (s *TemplateStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *TemplateStore) GetTemplate(ctx context.Context, name string) ([]action.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	records, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return records, nil
}
