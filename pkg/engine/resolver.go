package engine

import (
	"github.com/hacking-linux/workflow/pkg/flow"
)

// ResolveParams resolves a step's raw parameters against the run context.
// It is a pure function of its inputs: neither map is mutated and resolving
// the same pair twice yields the same output.
//
// Per parameter value:
//   - non-strings and strings without the "@" sigil pass through unchanged
//   - "@@value" is an escaped literal and resolves to "@value"
//   - "@step" resolves to the entire result of the named step
//   - "@step.key" resolves to that key of the named step's result; the
//     split is on the first "." only
func ResolveParams(params map[string]interface{}, ctx Context) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(params))
	for name, value := range params {
		s, ok := value.(string)
		if !ok {
			resolved[name] = value
			continue
		}

		switch {
		case flow.IsEscaped(s):
			resolved[name] = s[1:]

		case flow.IsReference(s):
			v, err := resolveReference(s, ctx)
			if err != nil {
				return nil, err
			}
			resolved[name] = v

		default:
			resolved[name] = s
		}
	}
	return resolved, nil
}

func resolveReference(ref string, ctx Context) (interface{}, error) {
	step, key, hasKey := flow.SplitReference(ref)

	result, ok := ctx[step]
	if !ok {
		return nil, &ReferenceError{Kind: RefStepNotFound, Step: step}
	}
	if !hasKey {
		return result, nil
	}

	mapped, ok := result.(map[string]interface{})
	if !ok {
		return nil, &ReferenceError{Kind: RefKeyNotFound, Step: step, Key: key}
	}
	value, ok := mapped[key]
	if !ok {
		return nil, &ReferenceError{Kind: RefKeyNotFound, Step: step, Key: key}
	}
	return value, nil
}
