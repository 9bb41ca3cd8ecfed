// Package flow defines workflow definitions and their serialized form.
package flow

import (
	"strings"
)

// Sigil marks a string parameter value as a reference to a prior step result
const Sigil = "@"

// StepSpec describes one unit of work within a flow
type StepSpec struct {
	// Name is the key under which this step's result becomes visible to
	// later steps. Unique within the flow.
	Name string `yaml:"name" json:"name"`

	// Capability identifies the handler type to construct
	Capability string `yaml:"capability" json:"capability"`

	// Operation is the handler operation to invoke
	Operation string `yaml:"operation" json:"operation"`

	// Params is the raw parameter mapping, resolved against the run
	// context immediately before the step executes
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// Definition is an ordered sequence of steps. It is immutable once
// constructed: a flow is updated by replacing its definition wholesale.
type Definition struct {
	Steps []StepSpec `yaml:"steps" json:"steps"`
}

// IsEscaped reports whether a string parameter value is an escaped literal
// ("@@..."), which resolves to the value with one leading sigil removed.
func IsEscaped(s string) bool {
	return strings.HasPrefix(s, Sigil+Sigil)
}

// IsReference reports whether a string parameter value is a context
// reference ("@step" or "@step.key").
func IsReference(s string) bool {
	return strings.HasPrefix(s, Sigil) && !IsEscaped(s)
}

// SplitReference splits a reference value into its step name and optional
// key. The split is on the first "." of the remainder after the sigil, so
// keys may themselves contain dots. hasKey distinguishes "@step" from
// "@step." (an empty key that will never resolve).
func SplitReference(s string) (step, key string, hasKey bool) {
	ref := strings.TrimPrefix(s, Sigil)
	step, key, hasKey = strings.Cut(ref, ".")
	return step, key, hasKey
}
