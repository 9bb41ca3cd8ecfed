// Package engine executes flow definitions: it resolves step parameters
// against the run context, dispatches to registered capabilities, and
// accumulates step results.
package engine

// Context holds the results of completed steps within a single run, keyed
// by step name. It is owned by exactly one run and never shared: each step
// writes its result once and later steps read earlier results through
// reference parameters.
type Context map[string]interface{}

// Clone returns a shallow copy. Used to seed a run without aliasing the
// caller's map.
func (c Context) Clone() Context {
	if c == nil {
		return Context{}
	}
	clone := make(Context, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}
