package step

import (
	"fmt"
	"sort"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// InputSpec describes one input edge of a Step class: the artifact class it
// reads, whether the edge is optional, and an optional When predicate
// evaluated on the instantiated Step. Combined, Optional and When
// distinguish not-supplied from not-required-in-this-configuration.
type InputSpec struct {
	Class    artifact.Class
	Optional bool
	When     func(*Instance) bool
}

// Class is the static description of a Step: typed parameter descriptors,
// named input and output artifact maps, the IsDefined predicate, and the
// Run body. The engine instantiates a Class by binding its parameters
// against the active Configuration.
type Class interface {
	Name() string
	Parameters() map[string]ParamBinder
	InputFiles() map[string]InputSpec
	OutputFiles() map[string]artifact.Class

	// IsDefined reports whether the Step participates in the plan given
	// its resolved parameters. Steps whose outputs are only meaningful
	// when some parameter is present override this to fold themselves
	// out of the plan.
	IsDefined(inst *Instance) bool

	// Run executes the Step against its bound inputs and outputs.
	Run(inst *Instance) error
}

// Base provides default IsDefined behavior for Step classes that are
// always part of the plan; concrete classes embed it and override as
// needed.
type Base struct{}

// IsDefined defaults to true.
func (Base) IsDefined(*Instance) bool { return true }

// Instance is a Step bound to a Configuration: resolved parameter values,
// bound input/output artifacts, and the Class it came from. Instances are
// created during planning and live for one run.
type Instance struct {
	class   Class
	params  map[string]interface{}
	inputs  map[string]artifact.Artifact
	outputs map[string]artifact.Artifact
}

// Instantiate binds a Step class against a Configuration: every parameter
// descriptor resolves through its validator, every input and output
// artifact class binds under the Configuration's main directory. A
// validator failure is fatal and reported against the dotted key.
func Instantiate(class Class, cfg *config.Configuration) (*Instance, error) {
	inst := &Instance{
		class:   class,
		params:  make(map[string]interface{}),
		inputs:  make(map[string]artifact.Artifact),
		outputs: make(map[string]artifact.Artifact),
	}

	names := make([]string, 0, len(class.Parameters()))
	for name := range class.Parameters() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		binder := class.Parameters()[name]
		value, ok, err := binder.resolve(cfg)
		if err != nil {
			return nil, metroerrors.NewConfigurationError(binder.KeyPath(), err.Error(), err)
		}
		if ok {
			inst.params[name] = value
		}
	}

	root := cfg.MainDirectory()
	for name, spec := range class.InputFiles() {
		if err := spec.Class.Validate(); err != nil {
			return nil, err
		}
		inst.inputs[name] = artifact.Bind(spec.Class, root)
	}
	for name, outClass := range class.OutputFiles() {
		if err := outClass.Validate(); err != nil {
			return nil, err
		}
		inst.outputs[name] = artifact.Bind(outClass, root)
	}

	return inst, nil
}

// Class returns the static Step class this instance was bound from.
func (i *Instance) Class() Class { return i.class }

// Name returns the Step class name.
func (i *Instance) Name() string { return i.class.Name() }

// Param returns the resolved value for a declared parameter, or Unset when
// the key path was neither present in the Configuration nor defaulted.
func (i *Instance) Param(name string) (interface{}, error) {
	value, ok := i.params[name]
	if !ok {
		if _, declared := i.class.Parameters()[name]; !declared {
			return nil, fmt.Errorf("step %s declares no parameter %q", i.Name(), name)
		}
		return nil, Unset
	}
	return value, nil
}

// HasParam reports whether a declared parameter resolved to a value.
func (i *Instance) HasParam(name string) bool {
	_, ok := i.params[name]
	return ok
}

// Params returns a copy of the resolved-parameter map, keyed by parameter
// name. The invalidation engine hashes this map under a canonical
// serialization.
func (i *Instance) Params() map[string]interface{} {
	out := make(map[string]interface{}, len(i.params))
	for k, v := range i.params {
		out[k] = v
	}
	return out
}

// Input returns the bound artifact for a named input.
func (i *Instance) Input(name string) (artifact.Artifact, error) {
	a, ok := i.inputs[name]
	if !ok {
		return nil, fmt.Errorf("step %s declares no input %q", i.Name(), name)
	}
	return a, nil
}

// Output returns the bound artifact for a named output.
func (i *Instance) Output(name string) (artifact.Artifact, error) {
	a, ok := i.outputs[name]
	if !ok {
		return nil, fmt.Errorf("step %s declares no output %q", i.Name(), name)
	}
	return a, nil
}

// Inputs returns the bound input artifacts keyed by input name.
func (i *Instance) Inputs() map[string]artifact.Artifact {
	out := make(map[string]artifact.Artifact, len(i.inputs))
	for k, v := range i.inputs {
		out[k] = v
	}
	return out
}

// Outputs returns the bound output artifacts keyed by output name.
func (i *Instance) Outputs() map[string]artifact.Artifact {
	out := make(map[string]artifact.Artifact, len(i.outputs))
	for k, v := range i.outputs {
		out[k] = v
	}
	return out
}

// ActiveInputs returns the input specs whose edge is present for this
// instance: required inputs always, optional/conditional inputs only when
// their When predicate holds.
func (i *Instance) ActiveInputs() map[string]InputSpec {
	out := make(map[string]InputSpec)
	for name, spec := range i.class.InputFiles() {
		if spec.When != nil && !spec.When(i) {
			continue
		}
		out[name] = spec
	}
	return out
}

// RequiredInputs returns the subset of ActiveInputs that is not optional.
func (i *Instance) RequiredInputs() map[string]InputSpec {
	out := make(map[string]InputSpec)
	for name, spec := range i.ActiveInputs() {
		if !spec.Optional {
			out[name] = spec
		}
	}
	return out
}
