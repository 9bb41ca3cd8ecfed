package engine

import (
	"context"
	"sort"

	"github.com/hacking-linux/workflow/pkg/logging"
)

// OperationFunc is a single capability operation. It receives the
// cancellation context, the run context accumulated so far, and the step's
// resolved parameters. Its result is opaque to the engine and becomes the
// context entry for the step.
type OperationFunc func(ctx context.Context, flowCtx Context, params map[string]interface{}) (interface{}, error)

// Handler exposes a capability's named operations
type Handler interface {
	Operations() map[string]OperationFunc
}

// HandlerFactory constructs a fresh handler for one dispatch. Handlers are
// stateless across steps: no instance is reused between invocations.
type HandlerFactory func(logger logging.Logger) Handler

// Registry maps capability identifiers to handler factories. Capabilities
// register at startup; Register is not safe to call concurrently with
// Dispatch.
type Registry struct {
	logger    logging.Logger
	factories map[string]HandlerFactory
}

// NewRegistry creates an empty capability registry. The logger is handed to
// every handler the registry constructs.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]HandlerFactory),
	}
}

// Register adds a capability under the given identifier, replacing any
// previous registration
func (r *Registry) Register(capability string, factory HandlerFactory) {
	r.factories[capability] = factory
}

// Capabilities returns the registered capability identifiers, sorted
func (r *Registry) Capabilities() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch constructs a fresh handler for the capability and invokes the
// named operation. Unknown capabilities and operations return a
// DispatchError; errors raised by the operation itself pass through
// untouched for the executor to wrap with step metadata.
func (r *Registry) Dispatch(ctx context.Context, capability, operation string, flowCtx Context, params map[string]interface{}) (interface{}, error) {
	factory, ok := r.factories[capability]
	if !ok {
		return nil, &DispatchError{Kind: CapabilityNotFound, Capability: capability, Operation: operation}
	}

	handler := factory(r.logger)
	op, ok := handler.Operations()[operation]
	if !ok {
		return nil, &DispatchError{Kind: OperationNotFound, Capability: capability, Operation: operation}
	}

	return op(ctx, flowCtx, params)
}
