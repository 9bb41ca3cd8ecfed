package engine

import (
	"fmt"
)

// ReferenceErrorKind classifies parameter resolution failures
type ReferenceErrorKind string

const (
	// RefStepNotFound means the referenced step is absent from the context
	RefStepNotFound ReferenceErrorKind = "step-not-found"

	// RefKeyNotFound means the referenced step exists but lacks the key
	RefKeyNotFound ReferenceErrorKind = "key-not-found"
)

// ReferenceError is returned when a reference parameter names a step or key
// absent from the current run context
type ReferenceError struct {
	Kind ReferenceErrorKind
	Step string
	Key  string
}

func (e *ReferenceError) Error() string {
	if e.Kind == RefKeyNotFound {
		return fmt.Sprintf("key %q not found in result of step %q", e.Key, e.Step)
	}
	return fmt.Sprintf("context step not found: %s", e.Step)
}

// DispatchErrorKind classifies capability dispatch failures
type DispatchErrorKind string

const (
	// CapabilityNotFound means no handler is registered for the capability
	CapabilityNotFound DispatchErrorKind = "capability-not-found"

	// OperationNotFound means the handler exposes no such operation
	OperationNotFound DispatchErrorKind = "operation-not-found"
)

// DispatchError is returned when a step names an unknown capability or an
// operation its handler does not expose
type DispatchError struct {
	Kind       DispatchErrorKind
	Capability string
	Operation  string
}

func (e *DispatchError) Error() string {
	if e.Kind == OperationNotFound {
		return fmt.Sprintf("capability %q has no operation %q", e.Capability, e.Operation)
	}
	return fmt.Sprintf("unknown capability: %s", e.Capability)
}

// HandlerError wraps a failure raised by an invoked operation, carrying the
// step metadata needed to diagnose where in the flow it happened
type HandlerError struct {
	Flow       string
	Step       string
	Capability string
	Operation  string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("step %q (%s.%s) in flow %q failed: %v",
		e.Step, e.Capability, e.Operation, e.Flow, e.Err)
}

// Unwrap exposes the original handler failure
func (e *HandlerError) Unwrap() error {
	return e.Err
}
