package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hacking-linux/workflow/pkg/logging"
)

// countingHandler records how many instances the factory produced
type countingHandler struct {
	result interface{}
	err    error
}

func (h *countingHandler) Operations() map[string]OperationFunc {
	return map[string]OperationFunc{
		"do": func(ctx context.Context, flowCtx Context, params map[string]interface{}) (interface{}, error) {
			return h.result, h.err
		},
	}
}

func TestDispatchUnknownCapability(t *testing.T) {
	registry := NewRegistry(logging.NewNoop())

	_, err := registry.Dispatch(context.Background(), "ghost", "do", Context{}, nil)
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, CapabilityNotFound, dispatchErr.Kind)
	assert.Equal(t, "ghost", dispatchErr.Capability)
}

func TestDispatchUnknownOperation(t *testing.T) {
	registry := NewRegistry(logging.NewNoop())
	registry.Register("thing", func(logging.Logger) Handler {
		return &countingHandler{}
	})

	_, err := registry.Dispatch(context.Background(), "thing", "explode", Context{}, nil)
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, OperationNotFound, dispatchErr.Kind)
	assert.Equal(t, "thing", dispatchErr.Capability)
	assert.Equal(t, "explode", dispatchErr.Operation)
}

func TestDispatchInvokesOperation(t *testing.T) {
	registry := NewRegistry(logging.NewNoop())
	registry.Register("thing", func(logging.Logger) Handler {
		return &countingHandler{result: map[string]interface{}{"done": true}}
	})

	out, err := registry.Dispatch(context.Background(), "thing", "do", Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"done": true}, out)
}

func TestDispatchConstructsFreshHandlerPerInvocation(t *testing.T) {
	constructed := 0
	registry := NewRegistry(logging.NewNoop())
	registry.Register("thing", func(logging.Logger) Handler {
		constructed++
		return &countingHandler{}
	})

	for i := 0; i < 3; i++ {
		_, err := registry.Dispatch(context.Background(), "thing", "do", Context{}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, constructed)
}

func TestDispatchPassesHandlerErrorThrough(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry(logging.NewNoop())
	registry.Register("thing", func(logging.Logger) Handler {
		return &countingHandler{err: boom}
	})

	_, err := registry.Dispatch(context.Background(), "thing", "do", Context{}, nil)
	// The registry wraps nothing; raw handler failures belong to the executor
	assert.Equal(t, boom, err)
}

func TestCapabilitiesSorted(t *testing.T) {
	registry := NewRegistry(logging.NewNoop())
	factory := func(logging.Logger) Handler { return &countingHandler{} }
	registry.Register("zeta", factory)
	registry.Register("alpha", factory)

	assert.Equal(t, []string{"alpha", "zeta"}, registry.Capabilities())
}
