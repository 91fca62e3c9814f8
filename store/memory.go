package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/workflowdef"
)

// MemoryStore implements all three store interfaces in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*workflowdef.Workflow
	templates map[string][]action.Record
	logs      map[string]*engine.ExecutionLog
	logOrder  []string
}

var (
	_ WorkflowStore = (*MemoryStore)(nil)
	_ TemplateStore = (*MemoryStore)(nil)
	_ LogStore      = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]*workflowdef.Workflow),
		templates: make(map[string][]action.Record),
		logs:      make(map[string]*engine.ExecutionLog),
	}
}

// SaveWorkflow stores or replaces a workflow by name.
func (s *MemoryStore) SaveWorkflow(ctx context.Context, w *workflowdef.Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.Name] = w
	return nil
}

// GetWorkflow returns the workflow stored under name.
func (s *MemoryStore) GetWorkflow(ctx context.Context, name string) (*workflowdef.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[name]
	if !ok {
		return nil, fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	return w, nil
}

// ListWorkflows returns stored workflow names, sorted.
func (s *MemoryStore) ListWorkflows(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.workflows))
	for name := range s.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteWorkflow removes a workflow.
func (s *MemoryStore) DeleteWorkflow(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[name]; !ok {
		return fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	delete(s.workflows, name)
	return nil
}

// GetTemplate returns the records stored under name.
func (s *MemoryStore) GetTemplate(ctx context.Context, name string) ([]action.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	out := make([]action.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out, nil
}

// SaveTemplate stores or replaces a template.
func (s *MemoryStore) SaveTemplate(ctx context.Context, name string, records []action.Record) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = records
	return nil
}

// ListTemplates returns stored template names, sorted.
func (s *MemoryStore) ListTemplates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteTemplate removes a template.
func (s *MemoryStore) DeleteTemplate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[name]; !ok {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	delete(s.templates, name)
	return nil
}

// SaveExecutionLog stores one finished run.
func (s *MemoryStore) SaveExecutionLog(ctx context.Context, log *engine.ExecutionLog) error {
	if log.ID == "" {
		return fmt.Errorf("execution log has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.logs[log.ID]; !exists {
		s.logOrder = append(s.logOrder, log.ID)
	}
	s.logs[log.ID] = log
	return nil
}

// GetExecutionLog returns a log by id.
func (s *MemoryStore) GetExecutionLog(ctx context.Context, id string) (*engine.ExecutionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[id]
	if !ok {
		return nil, fmt.Errorf("execution log %q: %w", id, ErrNotFound)
	}
	return log, nil
}

// ListExecutionLogs returns logs for one workflow in insertion order, or all
// logs when workflowName is empty.
func (s *MemoryStore) ListExecutionLogs(ctx context.Context, workflowName string) ([]*engine.ExecutionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*engine.ExecutionLog
	for _, id := range s.logOrder {
		log := s.logs[id]
		if workflowName == "" || log.WorkflowName == workflowName {
			out = append(out, log)
		}
	}
	return out, nil
}
