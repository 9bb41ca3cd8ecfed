package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hacking-linux/workflow/pkg/flow"
	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// Status is the terminal state of a flow run
type Status string

const (
	// StatusCompleted means every step finished without error
	StatusCompleted Status = "completed"

	// StatusFailed means a step aborted the run
	StatusFailed Status = "failed"

	// StatusNotFound means the flow is absent, soft-deleted, or disabled.
	// Execution never starts and the outcome is reported, not raised.
	StatusNotFound Status = "not_found"
)

// Result describes one flow run. On failure the context retains the results
// of every step that completed before the failing one; nothing is rolled
// back.
type Result struct {
	// ID uniquely identifies this run
	ID string `json:"id"`

	// Flow is the name of the executed flow
	Flow string `json:"flow"`

	// Status is the terminal state of the run
	Status Status `json:"status"`

	// Context holds the accumulated step results
	Context Context `json:"context"`

	// FailedStep names the step that aborted the run, if any
	FailedStep string `json:"failed_step,omitempty"`

	// Err is the error that aborted the run, if any
	Err error `json:"-"`

	// StartTime is when the run began
	StartTime time.Time `json:"start_time"`

	// EndTime is when the run reached its terminal state
	EndTime time.Time `json:"end_time"`
}

// Executor drives flow runs: it fetches the definition from the flow store
// and executes its steps in order, strictly sequentially. Each run owns a
// private Context; one Executor may drive many runs, concurrently if the
// host wishes, since the Executor itself holds no per-run state.
type Executor struct {
	store       storage.FlowStore
	registry    *Registry
	logger      logging.Logger
	stepTimeout time.Duration
}

// NewExecutor creates an Executor backed by the given flow store and
// capability registry
func NewExecutor(store storage.FlowStore, registry *Registry, logger logging.Logger) *Executor {
	return &Executor{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// SetStepTimeout bounds the execution time of each dispatched step. Zero
// (the default) means no per-step deadline.
func (e *Executor) SetStepTimeout(d time.Duration) {
	e.stepTimeout = d
}

// Run executes the named flow once. The seed context, if non-nil, is copied
// into the fresh run context so references may name caller-provided entries.
//
// An absent, soft-deleted, or disabled flow yields a StatusNotFound result
// with a nil error: that is an expected outcome, not a failure of the run
// machinery. Any step error aborts the run; the result then carries the
// failing step, the partial context, and the error, which is also returned.
func (e *Executor) Run(ctx context.Context, flowName string, seed Context) (*Result, error) {
	result := &Result{
		ID:        uuid.New().String(),
		Flow:      flowName,
		Context:   seed.Clone(),
		StartTime: time.Now(),
	}
	logger := e.logger.WithFields(
		logging.F("flow", flowName),
		logging.F("run_id", result.ID),
	)

	record, err := e.store.Get(flowName)
	if errors.Is(err, storage.ErrFlowNotFound) {
		logger.Warn("flow does not exist")
		return e.finish(result, StatusNotFound, "", nil), nil
	}
	if err != nil {
		logger.Error("failed to load flow", logging.F("error", err.Error()))
		return e.finish(result, StatusFailed, "", err), err
	}
	if !record.Runnable() {
		logger.Warn("flow is not runnable",
			logging.F("enabled", record.Enabled),
			logging.F("deleted", record.Deleted))
		return e.finish(result, StatusNotFound, "", nil), nil
	}

	def, err := flow.Parse([]byte(record.Definition))
	if err != nil {
		logger.Error("failed to parse flow definition", logging.F("error", err.Error()))
		return e.finish(result, StatusFailed, "", err), err
	}

	logger.Info("starting flow run", logging.F("steps", len(def.Steps)))

	for _, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			logger.Error("run canceled", logging.F("step", step.Name))
			return e.finish(result, StatusFailed, step.Name, err), err
		}

		if err := e.runStep(ctx, result, step); err != nil {
			logger.Error("step failed",
				logging.F("step", step.Name),
				logging.F("capability", step.Capability),
				logging.F("operation", step.Operation),
				logging.F("error", err.Error()))
			return e.finish(result, StatusFailed, step.Name, err), err
		}

		logger.Debug("step completed", logging.F("step", step.Name))
	}

	logger.Info("flow run completed")
	return e.finish(result, StatusCompleted, "", nil), nil
}

func (e *Executor) runStep(ctx context.Context, result *Result, step flow.StepSpec) error {
	// Resolution is lazy: it happens here, immediately before the step
	// executes, so the step sees exactly the results of the steps that ran
	// before it.
	params, err := ResolveParams(step.Params, result.Context)
	if err != nil {
		return err
	}

	stepCtx := ctx
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	out, err := e.registry.Dispatch(stepCtx, step.Capability, step.Operation, result.Context, params)
	if err != nil {
		var dispatchErr *DispatchError
		if errors.As(err, &dispatchErr) {
			return err
		}
		return &HandlerError{
			Flow:       result.Flow,
			Step:       step.Name,
			Capability: step.Capability,
			Operation:  step.Operation,
			Err:        err,
		}
	}

	result.Context[step.Name] = out
	return nil
}

func (e *Executor) finish(result *Result, status Status, failedStep string, err error) *Result {
	result.Status = status
	result.FailedStep = failedStep
	result.Err = err
	result.EndTime = time.Now()
	return result
}
