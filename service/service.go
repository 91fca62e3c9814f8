// Package service coordinates workflow runs: it loads workflow documents,
// provisions a browser driver per run, executes in a background goroutine,
// and persists the resulting execution log.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/internal/metrics"
	"github.com/BaSui01/browserflow/store"
	"github.com/BaSui01/browserflow/workflowdef"
)

// DriverFactory creates one browser driver per run. The service owns the
// returned driver and quits it when the run finishes.
type DriverFactory interface {
	NewDriver(ctx context.Context) (driver.Driver, error)
}

// ChromeFactory builds chromedp drivers from a fixed config.
type ChromeFactory struct {
	Config driver.Config
	Logger *zap.Logger
}

func (f *ChromeFactory) NewDriver(ctx context.Context) (driver.Driver, error) {
	return driver.NewChromeDriver(f.Config, f.Logger)
}

// ErrNotRunning is returned by Stop and Wait for unknown run ids.
var ErrNotRunning = fmt.Errorf("run not found")

// Config tunes the execution service.
type Config struct {
	// MaxConcurrentRuns bounds simultaneously executing workflows.
	// Zero or negative means one run at a time.
	MaxConcurrentRuns int64 `yaml:"max_concurrent_runs"`
	// Engine is the per-run engine configuration.
	Engine engine.Config `yaml:"engine"`
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	log *engine.ExecutionLog
}

// ExecutionService runs workflows asynchronously and records their outcomes.
type ExecutionService struct {
	workflows store.WorkflowStore
	templates store.TemplateStore
	logs      store.LogStore
	factory   *action.Factory
	drivers   DriverFactory
	creds     credential.Source
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Collector

	sem *semaphore.Weighted

	mu   sync.Mutex
	runs map[string]*run
}

// New builds an execution service. templates and logs may be nil when the
// deployment has no template library or no log persistence.
func New(
	workflows store.WorkflowStore,
	templates store.TemplateStore,
	logs store.LogStore,
	factory *action.Factory,
	drivers DriverFactory,
	creds credential.Source,
	config Config,
	logger *zap.Logger,
	collector *metrics.Collector,
) *ExecutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := config.MaxConcurrentRuns
	if limit <= 0 {
		limit = 1
	}
	return &ExecutionService{
		workflows: workflows,
		templates: templates,
		logs:      logs,
		factory:   factory,
		drivers:   drivers,
		creds:     creds,
		config:    config,
		logger:    logger.Named("execution-service"),
		metrics:   collector,
		sem:       semaphore.NewWeighted(limit),
		runs:      make(map[string]*run),
	}
}

// Start loads the named workflow and begins executing it in the background.
// It returns the run id immediately. Starting fails when the workflow does
// not exist or the concurrency limit is reached.
func (s *ExecutionService) Start(ctx context.Context, workflowName string) (string, error) {
	w, err := s.workflows.GetWorkflow(ctx, workflowName)
	if err != nil {
		return "", err
	}
	return s.StartActions(ctx, w.Name, w.Actions)
}

// StartActions begins executing an in-memory action list under the given
// workflow name.
func (s *ExecutionService) StartActions(ctx context.Context, workflowName string, actions []action.Action) (string, error) {
	if !s.sem.TryAcquire(1) {
		return "", fmt.Errorf("workflow %q: concurrent run limit reached", workflowName)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[r.id] = r
	s.mu.Unlock()

	s.logger.Info("starting workflow run",
		zap.String("run_id", r.id),
		zap.String("workflow", workflowName),
		zap.Int("actions", len(actions)))

	go s.execute(runCtx, r, workflowName, actions)
	return r.id, nil
}

func (s *ExecutionService) execute(ctx context.Context, r *run, workflowName string, actions []action.Action) {
	defer s.sem.Release(1)
	defer close(r.done)
	defer r.cancel()

	log := s.runOnce(ctx, workflowName, actions)
	log.ID = r.id

	r.mu.Lock()
	r.log = log
	r.mu.Unlock()

	if s.logs != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.logs.SaveExecutionLog(saveCtx, log); err != nil {
			s.logger.Error("saving execution log failed",
				zap.String("run_id", r.id), zap.Error(err))
		}
	}

	s.logger.Info("workflow run finished",
		zap.String("run_id", r.id),
		zap.String("workflow", workflowName),
		zap.String("status", string(log.FinalStatus)),
		zap.Float64("duration_seconds", log.DurationSeconds))
}

// runOnce provisions a driver, runs the workflow to completion, and always
// quits the driver, including when provisioning itself fails.
func (s *ExecutionService) runOnce(ctx context.Context, workflowName string, actions []action.Action) *engine.ExecutionLog {
	start := time.Now()

	drv, err := s.drivers.NewDriver(ctx)
	if err != nil {
		s.logger.Error("driver provisioning failed",
			zap.String("workflow", workflowName), zap.Error(err))
		end := time.Now()
		return &engine.ExecutionLog{
			WorkflowName:    workflowName,
			StartTime:       start,
			EndTime:         end,
			DurationSeconds: end.Sub(start).Seconds(),
			FinalStatus:     engine.StatusFailed,
			ErrorMessage:    fmt.Sprintf("driver provisioning failed: %v", err),
			Summary:         fmt.Sprintf("%s: 0/0 actions succeeded", engine.StatusFailed),
			ErrorStrategy:   string(s.config.Engine.Strategy),
		}
	}
	defer func() {
		if err := drv.Quit(); err != nil {
			s.logger.Warn("driver quit failed",
				zap.String("workflow", workflowName), zap.Error(err))
		}
	}()

	executor := engine.NewActionExecutor(drv, s.creds, s.logger, s.metrics)
	var templates engine.TemplateStore
	if s.templates != nil {
		templates = s.templates
	}
	runner := engine.NewRunner(executor, s.factory, templates, s.config.Engine, s.logger, s.metrics)
	return runner.Run(ctx, workflowName, actions)
}

// Stop requests cooperative cancellation of a running workflow. The run
// winds down at its next action boundary.
func (s *ExecutionService) Stop(runID string) error {
	s.mu.Lock()
	r, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("stop %q: %w", runID, ErrNotRunning)
	}
	r.cancel()
	return nil
}

// Wait blocks until the run finishes or ctx expires, then returns its log.
func (s *ExecutionService) Wait(ctx context.Context, runID string) (*engine.ExecutionLog, error) {
	s.mu.Lock()
	r, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wait %q: %w", runID, ErrNotRunning)
	}
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log, nil
}

// SaveWorkflow validates and persists a workflow document.
func (s *ExecutionService) SaveWorkflow(ctx context.Context, w *workflowdef.Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return s.workflows.SaveWorkflow(ctx, w)
}

// Logs exposes the run history store, or nil when logs are not persisted.
func (s *ExecutionService) Logs() store.LogStore { return s.logs }
