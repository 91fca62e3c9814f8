package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserflow/action"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/service"
	"github.com/BaSui01/browserflow/store"
	"github.com/BaSui01/browserflow/testutil/mocks"
	"github.com/BaSui01/browserflow/workflowdef"
)

func newService(t *testing.T, factory service.DriverFactory, cfg service.Config) (*service.ExecutionService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := service.New(
		st, st, st,
		action.NewFactory(nil),
		factory,
		mocks.NewCredentialSource(),
		cfg,
		nil,
		nil,
	)
	return svc, st
}

func TestRunLifecycle(t *testing.T) {
	drv := mocks.NewDriver()
	svc, st := newService(t, &mocks.StaticFactory{Driver: drv}, service.Config{})

	actions := []action.Action{
		action.NewNavigate("open", "https://example.com"),
		action.NewClick("submit", "#go"),
	}

	runID, err := svc.StartActions(context.Background(), "smoke", actions)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log, err := svc.Wait(ctx, runID)
	require.NoError(t, err)

	assert.Equal(t, runID, log.ID)
	assert.Equal(t, "smoke", log.WorkflowName)
	assert.Equal(t, engine.StatusSuccess, log.FinalStatus)
	assert.Len(t, log.ActionResults, 2)
	assert.Equal(t, 1, drv.QuitCount())

	// The log is durably persisted, not just held in memory.
	saved, err := st.GetExecutionLog(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, saved.FinalStatus)
}

func TestStartLoadsStoredWorkflow(t *testing.T) {
	drv := mocks.NewDriver()
	svc, _ := newService(t, &mocks.StaticFactory{Driver: drv}, service.Config{})

	w := &workflowdef.Workflow{
		Name:    "stored",
		Actions: []action.Action{action.NewNavigate("open", "https://example.com")},
	}
	require.NoError(t, svc.SaveWorkflow(context.Background(), w))

	runID, err := svc.Start(context.Background(), "stored")
	require.NoError(t, err)

	log, err := svc.Wait(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, log.FinalStatus)
	assert.Equal(t, 1, drv.CallsTo("get"))
}

func TestStartUnknownWorkflowErrors(t *testing.T) {
	svc, _ := newService(t, &mocks.StaticFactory{Driver: mocks.NewDriver()}, service.Config{})

	_, err := svc.Start(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrencyLimitRefusesSecondRun(t *testing.T) {
	drv := mocks.NewDriver()
	svc, _ := newService(t, &mocks.StaticFactory{Driver: drv}, service.Config{MaxConcurrentRuns: 1})

	slow := []action.Action{action.NewWait("pause", 1)}
	first, err := svc.StartActions(context.Background(), "slow", slow)
	require.NoError(t, err)

	_, err = svc.StartActions(context.Background(), "second", slow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrent run limit reached")

	require.NoError(t, svc.Stop(first))
	_, err = svc.Wait(context.Background(), first)
	require.NoError(t, err)

	// Capacity is back once the first run releases its slot.
	third, err := svc.StartActions(context.Background(), "third", []action.Action{
		action.NewNavigate("open", "https://example.com"),
	})
	require.NoError(t, err)
	log, err := svc.Wait(context.Background(), third)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, log.FinalStatus)
}

func TestStopCancelsRunningWorkflow(t *testing.T) {
	drv := mocks.NewDriver()
	svc, st := newService(t, &mocks.StaticFactory{Driver: drv}, service.Config{})

	actions := []action.Action{
		&action.Wait{ActionName: "long-pause", DurationSeconds: 30, ReportInterval: 0.01},
	}
	runID, err := svc.StartActions(context.Background(), "cancellable", actions)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, svc.Stop(runID))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log, err := svc.Wait(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusStopped, log.FinalStatus)

	saved, err := st.GetExecutionLog(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusStopped, saved.FinalStatus)
}

func TestDriverProvisioningFailureProducesFailedLog(t *testing.T) {
	boom := errors.New("chrome refused to start")
	svc, st := newService(t, &mocks.FailingFactory{Err: boom}, service.Config{})

	runID, err := svc.StartActions(context.Background(), "doomed", []action.Action{
		action.NewNavigate("open", "https://example.com"),
	})
	require.NoError(t, err)

	log, err := svc.Wait(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, log.FinalStatus)
	assert.Contains(t, log.ErrorMessage, "driver provisioning failed")
	assert.Contains(t, log.ErrorMessage, "chrome refused to start")
	assert.Empty(t, log.ActionResults)

	saved, err := st.GetExecutionLog(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, saved.FinalStatus)
}

func TestUnknownRunIDs(t *testing.T) {
	svc, _ := newService(t, &mocks.StaticFactory{Driver: mocks.NewDriver()}, service.Config{})

	assert.ErrorIs(t, svc.Stop("nope"), service.ErrNotRunning)
	_, err := svc.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, service.ErrNotRunning)
}

func TestSaveWorkflowValidates(t *testing.T) {
	svc, st := newService(t, &mocks.StaticFactory{Driver: mocks.NewDriver()}, service.Config{})

	err := svc.SaveWorkflow(context.Background(), &workflowdef.Workflow{})
	require.Error(t, err)

	names, err := st.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDriverQuitFailureDoesNotFailRun(t *testing.T) {
	drv := mocks.NewDriver()
	drv.SetQuitError(errors.New("already gone"))
	svc, _ := newService(t, &mocks.StaticFactory{Driver: drv}, service.Config{})

	runID, err := svc.StartActions(context.Background(), "sloppy-quit", []action.Action{
		action.NewNavigate("open", "https://example.com"),
	})
	require.NoError(t, err)

	log, err := svc.Wait(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, log.FinalStatus)
}
