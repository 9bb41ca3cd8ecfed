package flow

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is wrapped by all definition validation failures
var ErrInvalidDefinition = errors.New("invalid flow definition")

// Parse decodes a serialized definition and validates it
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Marshal encodes a definition into its stored form
func Marshal(def *Definition) ([]byte, error) {
	return yaml.Marshal(def)
}

// Validate checks a definition eagerly, before it is stored or executed:
// every step needs a name, capability, and operation; step names must be
// unique; and a reference parameter may only name a step declared earlier
// in the sequence. References to names no step declares are allowed through
// because the caller may seed the initial run context; those fail at run
// time if left unsatisfied.
func Validate(def *Definition) error {
	position := make(map[string]int, len(def.Steps))
	for i, step := range def.Steps {
		if step.Name == "" {
			return fmt.Errorf("%w: step %d has no name", ErrInvalidDefinition, i)
		}
		if step.Capability == "" {
			return fmt.Errorf("%w: step %q has no capability", ErrInvalidDefinition, step.Name)
		}
		if step.Operation == "" {
			return fmt.Errorf("%w: step %q has no operation", ErrInvalidDefinition, step.Name)
		}
		if prev, ok := position[step.Name]; ok {
			return fmt.Errorf("%w: duplicate step name %q (steps %d and %d)",
				ErrInvalidDefinition, step.Name, prev, i)
		}
		position[step.Name] = i
	}

	for i, step := range def.Steps {
		for param, value := range step.Params {
			s, ok := value.(string)
			if !ok || !IsReference(s) {
				continue
			}
			target, _, _ := SplitReference(s)
			declared, ok := position[target]
			if !ok {
				// May be satisfied by a caller-seeded context entry
				continue
			}
			if declared >= i {
				return fmt.Errorf("%w: step %q param %q references step %q which does not run before it",
					ErrInvalidDefinition, step.Name, param, target)
			}
		}
	}

	return nil
}
