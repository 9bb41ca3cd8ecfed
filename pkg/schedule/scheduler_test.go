package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hacking-linux/workflow/pkg/capabilities"
	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	store := storage.NewMemoryFlowStore()
	registry := engine.NewRegistry(logging.NewNoop())
	capabilities.RegisterBuiltins(registry)
	executor := engine.NewExecutor(store, registry, logging.NewNoop())

	return NewScheduler(executor, logging.NewNoop())
}

func TestSchedulerAdd(t *testing.T) {
	scheduler := newTestScheduler(t)

	require.NoError(t, scheduler.Add("*/5 * * * *", "cleanup"))
	require.NoError(t, scheduler.Add("0 3 * * *", "backup"))
	assert.Equal(t, 2, scheduler.Entries())
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	scheduler := newTestScheduler(t)

	err := scheduler.Add("every five minutes", "cleanup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup")
	assert.Zero(t, scheduler.Entries())
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := newTestScheduler(t)
	require.NoError(t, scheduler.Add("@hourly", "cleanup"))

	scheduler.Start()
	scheduler.Stop()
}
