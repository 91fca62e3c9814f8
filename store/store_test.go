package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/store"
	"github.com/BaSui01/browserflow/workflowdef"
)

// backend couples the three store interfaces one implementation provides.
type backend struct {
	workflows store.WorkflowStore
	templates store.TemplateStore
	logs      store.LogStore
}

// backends under test: memory, file, and gorm over in-memory sqlite.
func testBackends(t *testing.T) map[string]backend {
	t.Helper()
	factory := action.NewFactory(nil)

	mem := store.NewMemoryStore()

	file, err := store.NewFileStore(t.TempDir(), factory)
	require.NoError(t, err)

	gormStore, err := store.OpenSQLite(":memory:", factory)
	require.NoError(t, err)

	return map[string]backend{
		"memory": {mem, mem, mem},
		"file":   {file, file, file},
		"gorm":   {gormStore, gormStore, gormStore},
	}
}

func sampleWorkflow(name string) *workflowdef.Workflow {
	return &workflowdef.Workflow{
		Name:        name,
		Description: "test workflow",
		Actions: []action.Action{
			action.NewNavigate("open", "https://example.com"),
			action.NewCountLoop("loop", 2, []action.Action{
				action.NewClick("c", "#btn"),
			}),
		},
	}
}

func sampleLog(id, workflow string) *engine.ExecutionLog {
	start := time.Now().Add(-time.Second).UTC().Truncate(time.Millisecond)
	end := start.Add(time.Second)
	return &engine.ExecutionLog{
		ID:              id,
		WorkflowName:    workflow,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: 1,
		FinalStatus:     engine.StatusSuccess,
		ActionResults: []engine.ActionRecord{
			{ActionName: "open", ActionType: "navigate", Result: action.Success("ok"), Timestamp: start},
		},
		Summary:       "SUCCESS: 1/1 actions succeeded",
		ErrorStrategy: "stop_on_error",
	}
}

func TestWorkflowStoreRoundTrip(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.workflows.SaveWorkflow(ctx, sampleWorkflow("checkout")))

			loaded, err := b.workflows.GetWorkflow(ctx, "checkout")
			require.NoError(t, err)
			assert.Equal(t, "checkout", loaded.Name)
			assert.Equal(t, sampleWorkflow("checkout").ToRecords(), loaded.ToRecords())

			names, err := b.workflows.ListWorkflows(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"checkout"}, names)

			require.NoError(t, b.workflows.DeleteWorkflow(ctx, "checkout"))
			_, err = b.workflows.GetWorkflow(ctx, "checkout")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestWorkflowStoreMissing(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := b.workflows.GetWorkflow(ctx, "ghost")
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.ErrorIs(t, b.workflows.DeleteWorkflow(ctx, "ghost"), store.ErrNotFound)
		})
	}
}

func TestWorkflowStoreUpsert(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.workflows.SaveWorkflow(ctx, sampleWorkflow("wf")))

			updated := sampleWorkflow("wf")
			updated.Description = "second version"
			require.NoError(t, b.workflows.SaveWorkflow(ctx, updated))

			loaded, err := b.workflows.GetWorkflow(ctx, "wf")
			require.NoError(t, err)
			assert.Equal(t, "second version", loaded.Description)

			names, err := b.workflows.ListWorkflows(ctx)
			require.NoError(t, err)
			assert.Len(t, names, 1)
		})
	}
}

func TestTemplateStoreRoundTrip(t *testing.T) {
	records := []action.Record{
		{"type": "click", "name": "pick", "selector": "{{sel}}"},
	}
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.templates.SaveTemplate(ctx, "pick-one", records))

			loaded, err := b.templates.GetTemplate(ctx, "pick-one")
			require.NoError(t, err)
			require.Len(t, loaded, 1)
			assert.Equal(t, "{{sel}}", loaded[0].String("selector"))

			names, err := b.templates.ListTemplates(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"pick-one"}, names)

			require.NoError(t, b.templates.DeleteTemplate(ctx, "pick-one"))
			_, err = b.templates.GetTemplate(ctx, "pick-one")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestLogStoreRoundTrip(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			log := sampleLog("run-1", "checkout")
			require.NoError(t, b.logs.SaveExecutionLog(ctx, log))

			loaded, err := b.logs.GetExecutionLog(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, log.WorkflowName, loaded.WorkflowName)
			assert.Equal(t, log.FinalStatus, loaded.FinalStatus)
			require.Len(t, loaded.ActionResults, 1)
			assert.Equal(t, "open", loaded.ActionResults[0].ActionName)

			_, err = b.logs.GetExecutionLog(ctx, "ghost")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestLogStoreListFiltersByWorkflow(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.logs.SaveExecutionLog(ctx, sampleLog("run-1", "checkout")))
			require.NoError(t, b.logs.SaveExecutionLog(ctx, sampleLog("run-2", "login")))
			require.NoError(t, b.logs.SaveExecutionLog(ctx, sampleLog("run-3", "checkout")))

			logs, err := b.logs.ListExecutionLogs(ctx, "checkout")
			require.NoError(t, err)
			assert.Len(t, logs, 2)
			for _, l := range logs {
				assert.Equal(t, "checkout", l.WorkflowName)
			}

			all, err := b.logs.ListExecutionLogs(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestFactorySelectsBackend(t *testing.T) {
	factory := action.NewFactory(nil)

	t.Run("memory default", func(t *testing.T) {
		s, err := store.New(store.Config{}, factory)
		require.NoError(t, err)
		assert.NotNil(t, s.Workflows)
	})

	t.Run("file requires path", func(t *testing.T) {
		_, err := store.New(store.Config{Type: store.TypeFile}, factory)
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		s, err := store.New(store.Config{Type: store.TypeFile, Path: t.TempDir()}, factory)
		require.NoError(t, err)
		assert.NotNil(t, s.Templates)
	})

	t.Run("gorm sqlite", func(t *testing.T) {
		s, err := store.New(store.Config{Type: store.TypeGorm, Path: ":memory:"}, factory)
		require.NoError(t, err)
		assert.NotNil(t, s.Logs)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := store.New(store.Config{Type: "punchcards"}, factory)
		assert.Error(t, err)
	})
}
