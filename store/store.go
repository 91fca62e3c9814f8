// Package store provides persistence backends for workflow documents,
// action templates, and execution logs.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - File: one JSON document per entity under a base directory
//   - GORM: relational storage, sqlite by default
//
// A Redis read-through cache can wrap any template store for deployments
// where many concurrent runs expand the same templates.
package store

import (
	"context"
	"errors"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/workflowdef"
)

// Common errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrStoreClosed = errors.New("store is closed")
)

// Type selects a storage backend.
type Type string

const (
	TypeMemory Type = "memory"
	TypeFile   Type = "file"
	TypeGorm   Type = "gorm"
)

// WorkflowStore persists workflow documents.
type WorkflowStore interface {
	SaveWorkflow(ctx context.Context, w *workflowdef.Workflow) error
	GetWorkflow(ctx context.Context, name string) (*workflowdef.Workflow, error)
	ListWorkflows(ctx context.Context) ([]string, error)
	DeleteWorkflow(ctx context.Context, name string) error
}

// TemplateStore persists named action-record lists that template actions
// expand into. The read side satisfies engine.TemplateStore.
type TemplateStore interface {
	engine.TemplateStore
	SaveTemplate(ctx context.Context, name string, records []action.Record) error
	ListTemplates(ctx context.Context) ([]string, error)
	DeleteTemplate(ctx context.Context, name string) error
}

// LogStore persists execution logs, the reporting collaborator of the
// execution service.
type LogStore interface {
	SaveExecutionLog(ctx context.Context, log *engine.ExecutionLog) error
	GetExecutionLog(ctx context.Context, id string) (*engine.ExecutionLog, error)
	ListExecutionLogs(ctx context.Context, workflowName string) ([]*engine.ExecutionLog, error)
}
