package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// testHandler is a minimal capability used by executor tests
type testHandler struct{}

func (testHandler) Operations() map[string]OperationFunc {
	return map[string]OperationFunc{
		"echo": func(ctx context.Context, flowCtx Context, params map[string]interface{}) (interface{}, error) {
			out := make(map[string]interface{}, len(params))
			for k, v := range params {
				out[k] = v
			}
			return out, nil
		},
		"fail": func(ctx context.Context, flowCtx Context, params map[string]interface{}) (interface{}, error) {
			return nil, fmt.Errorf("%v", params["message"])
		},
		"block": func(ctx context.Context, flowCtx Context, params map[string]interface{}) (interface{}, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

func newTestExecutor(t *testing.T, definition string) (*Executor, storage.FlowStore) {
	t.Helper()

	store := storage.NewMemoryFlowStore()
	if definition != "" {
		require.NoError(t, store.Create(storage.FlowRecord{
			Name:       "wf",
			Definition: definition,
			Enabled:    true,
		}))
	}

	registry := NewRegistry(logging.NewNoop())
	registry.Register("test", func(logging.Logger) Handler {
		return testHandler{}
	})

	return NewExecutor(store, registry, logging.NewNoop()), store
}

func TestRunThreadsResultsBetweenSteps(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
    params:
      msg: x
  - name: B
    capability: test
    operation: echo
    params:
      got: "@A.msg"
`)

	result, err := executor.Run(context.Background(), "wf", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "wf", result.Flow)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, map[string]interface{}{"msg": "x"}, result.Context["A"])
	assert.Equal(t, map[string]interface{}{"got": "x"}, result.Context["B"])
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRunNotFoundOutcomes(t *testing.T) {
	executor, store := newTestExecutor(t, `steps: []`)

	// Absent flow: reported, never an error
	result, err := executor.Run(context.Background(), "missing", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)
	assert.Empty(t, result.Context)

	// Soft-deleted flow
	require.NoError(t, store.Delete("wf"))
	result, err = executor.Run(context.Background(), "wf", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)

	// Disabled flow is excluded from the runnable set as well
	require.NoError(t, store.Enable("wf"))
	record, _ := store.Get("wf")
	assert.False(t, record.Runnable()) // still soft-deleted
}

func TestRunDisabledFlowNotFound(t *testing.T) {
	executor, store := newTestExecutor(t, `steps: []`)
	require.NoError(t, store.Disable("wf"))

	result, err := executor.Run(context.Background(), "wf", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)
}

func TestRunUnknownCapabilityRetainsPriorResults(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
    params:
      msg: x
  - name: B
    capability: ghost
    operation: do
`)

	result, err := executor.Run(context.Background(), "wf", nil)
	require.Error(t, err)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, CapabilityNotFound, dispatchErr.Kind)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "B", result.FailedStep)
	// No rollback: A's result stays visible for diagnostics
	assert.Equal(t, map[string]interface{}{"msg": "x"}, result.Context["A"])
	assert.NotContains(t, result.Context, "B")
}

func TestRunReferenceErrorAborts(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
    params:
      v: "@nowhere"
`)

	result, err := executor.Run(context.Background(), "wf", nil)
	require.Error(t, err)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, RefStepNotFound, refErr.Kind)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "A", result.FailedStep)
}

func TestRunHandlerErrorIsWrappedWithStepMetadata(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: broken
    capability: test
    operation: fail
    params:
      message: kaput
`)

	result, err := executor.Run(context.Background(), "wf", nil)
	require.Error(t, err)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "wf", handlerErr.Flow)
	assert.Equal(t, "broken", handlerErr.Step)
	assert.Equal(t, "test", handlerErr.Capability)
	assert.Equal(t, "fail", handlerErr.Operation)
	assert.EqualError(t, handlerErr.Err, "kaput")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "broken", result.FailedStep)
}

func TestRunSeedContextIsReadableAndNotAliased(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
    params:
      user: "@input.user"
`)

	seed := Context{"input": map[string]interface{}{"user": "kyle"}}
	result, err := executor.Run(context.Background(), "wf", seed)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"user": "kyle"}, result.Context["A"])

	// The run wrote into its own copy, not the caller's map
	assert.NotContains(t, seed, "A")
}

func TestRunEscapedLiteralNeverResolves(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
    params:
      v: "@@A"
`)

	result, err := executor.Run(context.Background(), "wf", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": "@A"}, result.Context["A"])
}

func TestRunInvalidDefinitionFails(t *testing.T) {
	executor, store := newTestExecutor(t, "")
	require.NoError(t, store.Create(storage.FlowRecord{
		Name:       "wf",
		Definition: "steps:\n  - name: a\n  - name: a\n",
		Enabled:    true,
	}))

	result, err := executor.Run(context.Background(), "wf", nil)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestRunHonorsCancellation(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: A
    capability: test
    operation: echo
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := executor.Run(ctx, "wf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Empty(t, result.Context)
}

func TestRunStepTimeout(t *testing.T) {
	executor, _ := newTestExecutor(t, `
steps:
  - name: stuck
    capability: test
    operation: block
`)
	executor.SetStepTimeout(20 * time.Millisecond)

	start := time.Now()
	result, err := executor.Run(context.Background(), "wf", nil)
	require.Error(t, err)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.True(t, errors.Is(handlerErr.Err, context.DeadlineExceeded))
	assert.Equal(t, StatusFailed, result.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}
