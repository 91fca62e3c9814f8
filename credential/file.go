package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSource loads credentials from a JSON file of the shape
//
//	{ "acct": { "username": "bob", "password": "..." }, ... }
//
// The file is read once at construction; Reload re-reads it, which lets an
// operator rotate secrets without restarting.
type FileSource struct {
	path string
	mu   sync.RWMutex
	mem  *MemorySource
}

var _ Source = (*FileSource)(nil)

// NewFileSource loads path and returns a source backed by its contents.
func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{path: path, mem: NewMemorySource()}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the backing file, replacing all credentials.
func (s *FileSource) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read credential file: %w", err)
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse credential file %s: %w", s.path, err)
	}

	mem := NewMemorySource()
	for name, fields := range raw {
		mem.Put(&Credential{Name: name, Fields: fields})
	}

	s.mu.Lock()
	s.mem = mem
	s.mu.Unlock()
	return nil
}

// GetByName returns the credential stored under name.
func (s *FileSource) GetByName(ctx context.Context, name string) (*Credential, error) {
	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()
	return mem.GetByName(ctx, name)
}
