package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/workflowdef"
)

// workflowRow is the relational shape of a workflow document. The action
// tree is stored as its serialized JSON record list.
type workflowRow struct {
	Name        string `gorm:"primaryKey"`
	Description string
	Actions     []byte `gorm:"type:blob"`
	UpdatedAt   time.Time
}

func (workflowRow) TableName() string { return "workflows" }

type templateRow struct {
	Name      string `gorm:"primaryKey"`
	Records   []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

func (templateRow) TableName() string { return "templates" }

type executionLogRow struct {
	ID              string `gorm:"primaryKey"`
	WorkflowName    string `gorm:"index"`
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds float64
	FinalStatus     string
	ErrorMessage    string
	Summary         string
	ErrorStrategy   string
	ActionResults   []byte `gorm:"type:blob"`
}

func (executionLogRow) TableName() string { return "execution_logs" }

// GormStore persists workflows, templates, and execution logs relationally.
// The sqlite dialector is the default; any gorm.DB works.
type GormStore struct {
	db      *gorm.DB
	factory *action.Factory
}

var (
	_ WorkflowStore = (*GormStore)(nil)
	_ TemplateStore = (*GormStore)(nil)
	_ LogStore      = (*GormStore)(nil)
)

// OpenSQLite opens (and migrates) a sqlite-backed store at path. Use
// ":memory:" for tests.
func OpenSQLite(path string, factory *action.Factory) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return NewGormStore(db, factory)
}

// NewGormStore migrates the schema on db and returns the store.
func NewGormStore(db *gorm.DB, factory *action.Factory) (*GormStore, error) {
	if err := db.AutoMigrate(&workflowRow{}, &templateRow{}, &executionLogRow{}); err != nil {
		return nil, fmt.Errorf("migrate store schema: %w", err)
	}
	return &GormStore{db: db, factory: factory}, nil
}

// SaveWorkflow upserts a workflow document.
func (s *GormStore) SaveWorkflow(ctx context.Context, w *workflowdef.Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	blob, err := json.Marshal(w.ToRecords())
	if err != nil {
		return fmt.Errorf("marshal workflow actions: %w", err)
	}
	row := workflowRow{Name: w.Name, Description: w.Description, Actions: blob, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// GetWorkflow loads a workflow and rebuilds its action tree.
func (s *GormStore) GetWorkflow(ctx context.Context, name string) (*workflowdef.Workflow, error) {
	var row workflowRow
	if err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("workflow %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("load workflow %q: %w", name, err)
	}

	var records []action.Record
	if err := json.Unmarshal(row.Actions, &records); err != nil {
		return nil, fmt.Errorf("workflow %q: parse actions: %w", name, err)
	}
	actions, err := s.factory.FromRecordList(records)
	if err != nil {
		return nil, fmt.Errorf("workflow %q: rebuild actions: %w", name, err)
	}
	return &workflowdef.Workflow{Name: row.Name, Description: row.Description, Actions: actions}, nil
}

// ListWorkflows returns stored workflow names.
func (s *GormStore) ListWorkflows(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&workflowRow{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// DeleteWorkflow removes a workflow.
func (s *GormStore) DeleteWorkflow(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Delete(&workflowRow{Name: name})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("workflow %q: %w", name, ErrNotFound)
	}
	return nil
}

// GetTemplate loads a template's records.
func (s *GormStore) GetTemplate(ctx context.Context, name string) ([]action.Record, error) {
	var row templateRow
	if err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	var records []action.Record
	if err := json.Unmarshal(row.Records, &records); err != nil {
		return nil, fmt.Errorf("template %q: parse: %w", name, err)
	}
	return records, nil
}

// SaveTemplate upserts a template.
func (s *GormStore) SaveTemplate(ctx context.Context, name string, records []action.Record) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal template records: %w", err)
	}
	row := templateRow{Name: name, Records: blob, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// ListTemplates returns stored template names.
func (s *GormStore) ListTemplates(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&templateRow{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// DeleteTemplate removes a template.
func (s *GormStore) DeleteTemplate(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Delete(&templateRow{Name: name})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

// SaveExecutionLog inserts one finished run.
func (s *GormStore) SaveExecutionLog(ctx context.Context, log *engine.ExecutionLog) error {
	if log.ID == "" {
		return fmt.Errorf("execution log has no id")
	}
	blob, err := json.Marshal(log.ActionResults)
	if err != nil {
		return fmt.Errorf("marshal action results: %w", err)
	}
	row := executionLogRow{
		ID:              log.ID,
		WorkflowName:    log.WorkflowName,
		StartTime:       log.StartTime,
		EndTime:         log.EndTime,
		DurationSeconds: log.DurationSeconds,
		FinalStatus:     string(log.FinalStatus),
		ErrorMessage:    log.ErrorMessage,
		Summary:         log.Summary,
		ErrorStrategy:   log.ErrorStrategy,
		ActionResults:   blob,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// GetExecutionLog loads a log by id.
func (s *GormStore) GetExecutionLog(ctx context.Context, id string) (*engine.ExecutionLog, error) {
	var row executionLogRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("execution log %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load execution log %q: %w", id, err)
	}
	return rowToLog(&row)
}

// ListExecutionLogs returns logs for one workflow ordered by start time, or
// all logs when workflowName is empty.
func (s *GormStore) ListExecutionLogs(ctx context.Context, workflowName string) ([]*engine.ExecutionLog, error) {
	q := s.db.WithContext(ctx).Model(&executionLogRow{}).Order("start_time")
	if workflowName != "" {
		q = q.Where("workflow_name = ?", workflowName)
	}
	var rows []executionLogRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*engine.ExecutionLog, 0, len(rows))
	for i := range rows {
		log, err := rowToLog(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}

func rowToLog(row *executionLogRow) (*engine.ExecutionLog, error) {
	var results []engine.ActionRecord
	if len(row.ActionResults) > 0 {
		if err := json.Unmarshal(row.ActionResults, &results); err != nil {
			return nil, fmt.Errorf("execution log %q: parse results: %w", row.ID, err)
		}
	}
	return &engine.ExecutionLog{
		ID:              row.ID,
		WorkflowName:    row.WorkflowName,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		DurationSeconds: row.DurationSeconds,
		FinalStatus:     engine.FinalStatus(row.FinalStatus),
		ErrorMessage:    row.ErrorMessage,
		Summary:         row.Summary,
		ErrorStrategy:   row.ErrorStrategy,
		ActionResults:   results,
	}, nil
}
