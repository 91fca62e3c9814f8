package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/workflowdef"
)

// FileStore keeps one JSON document per entity under a base directory:
//
//	<base>/workflows/<name>.json
//	<base>/templates/<name>.json
//	<base>/logs/<id>.json
//
// Suitable for single-node deployments.
type FileStore struct {
	base    string
	factory *action.Factory
	mu      sync.Mutex
}

var (
	_ WorkflowStore = (*FileStore)(nil)
	_ TemplateStore = (*FileStore)(nil)
	_ LogStore      = (*FileStore)(nil)
)

// NewFileStore creates the directory layout under base. The factory is
// needed to rebuild action trees when reading workflows back.
func NewFileStore(base string, factory *action.Factory) (*FileStore, error) {
	for _, sub := range []string{"workflows", "templates", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &FileStore{base: base, factory: factory}, nil
}

// sanitizeName keeps entity names usable as file names.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(name)
}

func (s *FileStore) path(kind, name string) string {
	return filepath.Join(s.base, kind, sanitizeName(name)+".json")
}

func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// Write-then-rename so readers never see a torn file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) listNames(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.base, kind))
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// SaveWorkflow writes the workflow document.
func (s *FileStore) SaveWorkflow(ctx context.Context, w *workflowdef.Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return w.SaveFile(s.path("workflows", w.Name))
}

// GetWorkflow reads a workflow document back.
func (s *FileStore) GetWorkflow(ctx context.Context, name string) (*workflowdef.Workflow, error) {
	path := s.path("workflows", name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	return workflowdef.LoadFile(path, s.factory)
}

// ListWorkflows returns stored workflow names.
func (s *FileStore) ListWorkflows(ctx context.Context) ([]string, error) {
	return s.listNames("workflows")
}

// DeleteWorkflow removes a workflow document.
func (s *FileStore) DeleteWorkflow(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("workflows", name)); err != nil {
		return fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	return nil
}

// GetTemplate reads a template's records.
func (s *FileStore) GetTemplate(ctx context.Context, name string) ([]action.Record, error) {
	data, err := os.ReadFile(s.path("templates", name))
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	var records []action.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("template %q: parse: %w", name, err)
	}
	return records, nil
}

// SaveTemplate writes a template's records.
func (s *FileStore) SaveTemplate(ctx context.Context, name string, records []action.Record) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.path("templates", name), records)
}

// ListTemplates returns stored template names.
func (s *FileStore) ListTemplates(ctx context.Context) ([]string, error) {
	return s.listNames("templates")
}

// DeleteTemplate removes a template.
func (s *FileStore) DeleteTemplate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("templates", name)); err != nil {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

// SaveExecutionLog writes one finished run.
func (s *FileStore) SaveExecutionLog(ctx context.Context, log *engine.ExecutionLog) error {
	if log.ID == "" {
		return fmt.Errorf("execution log has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.path("logs", log.ID), log)
}

// GetExecutionLog reads a log by id.
func (s *FileStore) GetExecutionLog(ctx context.Context, id string) (*engine.ExecutionLog, error) {
	data, err := os.ReadFile(s.path("logs", id))
	if err != nil {
		return nil, fmt.Errorf("execution log %q: %w", id, ErrNotFound)
	}
	var log engine.ExecutionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("execution log %q: parse: %w", id, err)
	}
	return &log, nil
}

// ListExecutionLogs returns logs for one workflow sorted by start time, or
// all logs when workflowName is empty.
func (s *FileStore) ListExecutionLogs(ctx context.Context, workflowName string) ([]*engine.ExecutionLog, error) {
	ids, err := s.listNames("logs")
	if err != nil {
		return nil, err
	}
	var out []*engine.ExecutionLog
	for _, id := range ids {
		log, err := s.GetExecutionLog(ctx, id)
		if err != nil {
			return nil, err
		}
		if workflowName == "" || log.WorkflowName == workflowName {
			out = append(out, log)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}
