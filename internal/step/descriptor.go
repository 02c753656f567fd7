// Package step implements the Step abstraction: typed Parameter
// descriptors bound against a Configuration, named input/output artifact
// maps, and the optional is_defined / InputSpec.when hooks the planner
// consults when building the build graph.
package step

import (
	"fmt"

	"github.com/metropipe/metropipe/internal/config"
)

// Unset is returned by Param when a key path was neither present in the
// Configuration nor given a default.
var Unset = fmt.Errorf("parameter is unset")

// ParamBinder is the non-generic introspection surface every
// ParameterDescriptor[T] satisfies, so a StepClass can expose a
// heterogeneous list of typed descriptors to the planner and the
// documentation generator.
type ParamBinder interface {
	KeyPath() string
	Validator() config.Validator
	Description() string
	Note() string
	Example() string
	HasDefault() bool
	resolve(cfg *config.Configuration) (interface{}, bool, error)
}

// ParameterDescriptor is a named, key-pathed slot attached to a Step
// class: it binds a validator, an optional default, and human-readable
// metadata. Resolve walks the descriptor's dotted key path through a
// Configuration.
type ParameterDescriptor[T any] struct {
	Key             string
	Valid           config.Validator
	Default         *T
	DescriptionText string
	NoteText        string
	ExampleText     string
}

func (p ParameterDescriptor[T]) KeyPath() string             { return p.Key }
func (p ParameterDescriptor[T]) Validator() config.Validator { return p.Valid }
func (p ParameterDescriptor[T]) Description() string         { return p.DescriptionText }
func (p ParameterDescriptor[T]) Note() string                { return p.NoteText }
func (p ParameterDescriptor[T]) Example() string             { return p.ExampleText }
func (p ParameterDescriptor[T]) HasDefault() bool            { return p.Default != nil }

// resolve has a three-way outcome: key present ⇒ validate; key missing
// with a default ⇒ the (already-valid) default; key missing with no
// default ⇒ unset.
func (p ParameterDescriptor[T]) resolve(cfg *config.Configuration) (interface{}, bool, error) {
	raw, ok := cfg.Get(p.Key)
	if !ok {
		if p.Default != nil {
			return *p.Default, true, nil
		}
		return nil, false, nil
	}
	validated, err := p.Valid.Validate(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", p.Key, err)
	}
	return validated, true, nil
}

// Resolve is the typed convenience used by tests: it resolves and
// type-asserts to T in one call.
func (p ParameterDescriptor[T]) Resolve(cfg *config.Configuration) (T, bool, error) {
	value, ok, err := p.resolve(cfg)
	if err != nil || !ok {
		var zero T
		return zero, ok, err
	}
	typed, assertable := value.(T)
	if !assertable {
		var zero T
		return zero, false, fmt.Errorf("%s: resolved value has unexpected type %T", p.Key, value)
	}
	return typed, true, nil
}
