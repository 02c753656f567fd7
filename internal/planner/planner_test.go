package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/invalidation"
	"github.com/metropipe/metropipe/internal/step"
)

type testStep struct {
	step.Base
	name      string
	params    map[string]step.ParamBinder
	inputs    map[string]step.InputSpec
	outputs   map[string]artifact.Class
	definedFn func(*step.Instance) bool
}

func (s *testStep) Name() string                            { return s.name }
func (s *testStep) Parameters() map[string]step.ParamBinder { return s.params }
func (s *testStep) InputFiles() map[string]step.InputSpec   { return s.inputs }
func (s *testStep) OutputFiles() map[string]artifact.Class  { return s.outputs }
func (s *testStep) Run(*step.Instance) error                { return nil }

func (s *testStep) IsDefined(inst *step.Instance) bool {
	if s.definedFn != nil {
		return s.definedFn(inst)
	}
	return true
}

func textClass(name, rel string) artifact.Class {
	return artifact.Class{Name: name, RelPath: rel, Kind: artifact.KindText}
}

// writeArtifacts materializes every output of a step instance on disk.
func writeArtifacts(t *testing.T, inst *step.Instance) {
	t.Helper()
	for _, out := range inst.Outputs() {
		require.NoError(t, os.MkdirAll(filepath.Dir(out.Path()), 0o755))
		require.NoError(t, os.WriteFile(out.Path(), []byte(out.Class().Name), 0o644))
	}
}

// simulateRun writes every to-run step's outputs and records fingerprints,
// standing in for the driver.
func simulateRun(t *testing.T, plan *Plan, inval *invalidation.Engine) {
	t.Helper()
	for _, inst := range plan.Steps {
		if !plan.ToRun[inst.Name()] {
			continue
		}
		writeArtifacts(t, inst)
		require.NoError(t, inval.Record(inst))
	}
}

func chainClasses() []step.Class {
	x := textClass("x", "artifacts/x.txt")
	y := textClass("y", "artifacts/y.txt")
	z := textClass("z", "artifacts/z.txt")
	a := &testStep{name: "StepA", outputs: map[string]artifact.Class{"x": x}}
	b := &testStep{
		name:    "StepB",
		inputs:  map[string]step.InputSpec{"x": {Class: x}},
		outputs: map[string]artifact.Class{"y": y},
	}
	c := &testStep{
		name:    "StepC",
		inputs:  map[string]step.InputSpec{"y": {Class: y}},
		outputs: map[string]artifact.Class{"z": z},
	}
	return []step.Class{a, b, c}
}

func TestEmptyPlan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := config.NewFromMap(nil, root)
	inval := invalidation.New(root)

	undefined := &testStep{
		name:      "Inactive",
		outputs:   map[string]artifact.Class{"o": textClass("o", "o.txt")},
		definedFn: func(*step.Instance) bool { return false },
	}

	plan, err := New([]step.Class{undefined}, cfg, inval, nil).Plan()
	require.NoError(t, err)
	assert.Empty(t, plan.Steps)
	assert.Empty(t, plan.Orphans)

	again, err := New([]step.Class{undefined}, cfg, inval, nil).Plan()
	require.NoError(t, err)
	assert.Empty(t, again.Steps)
}

func TestLinearChain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := config.NewFromMap(nil, root)
	inval := invalidation.New(root)
	classes := chainClasses()

	plan, err := New(classes, cfg, inval, nil).Plan()
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, "StepA", plan.Steps[0].Name())
	assert.Equal(t, "StepB", plan.Steps[1].Name())
	assert.Equal(t, "StepC", plan.Steps[2].Name())
	for _, inst := range plan.Steps {
		assert.True(t, plan.ToRun[inst.Name()])
	}

	simulateRun(t, plan, inval)

	second, err := New(classes, cfg, inval, nil).Plan()
	require.NoError(t, err)
	assert.Empty(t, filterTrue(second.ToRun))

	// Touching x invalidates its producer and every downstream consumer.
	future := time.Now().Add(2 * time.Second)
	xPath := filepath.Join(root, "artifacts/x.txt")
	require.NoError(t, os.Chtimes(xPath, future, future))

	third, err := New(classes, cfg, inval, nil).Plan()
	require.NoError(t, err)
	assert.True(t, third.ToRun["StepB"])
	assert.True(t, third.ToRun["StepC"])
	assert.True(t, third.Outdated["StepB"])
	// StepC reruns only through the closure: its own record still matches.
	assert.False(t, third.Outdated["StepC"])
}

func TestDuplicateProducerFailsPlanning(t *testing.T) {
	t.Parallel()

	shared := textClass("shared", "shared.txt")
	first := &testStep{name: "First", outputs: map[string]artifact.Class{"shared": shared}}
	second := &testStep{name: "Second", outputs: map[string]artifact.Class{"shared": shared}}

	root := t.TempDir()
	_, err := New([]step.Class{first, second}, config.NewFromMap(nil, root), invalidation.New(root), nil).Plan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "First")
	assert.Contains(t, err.Error(), "Second")
}

func TestInfeasibleStepIsDropped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	missing := textClass("missing", "missing.txt")
	a := &testStep{name: "StepA", outputs: map[string]artifact.Class{"x": textClass("x", "x.txt")}}
	b := &testStep{
		name:    "StepB",
		inputs:  map[string]step.InputSpec{"missing": {Class: missing}},
		outputs: map[string]artifact.Class{"y": textClass("y", "y.txt")},
	}

	plan, err := New([]step.Class{a, b}, config.NewFromMap(nil, root), invalidation.New(root), nil).Plan()
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "StepA", plan.Steps[0].Name())
}

func TestExternalInputKeepsStepFeasible(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "external.txt"), []byte("supplied"), 0o644))

	external := textClass("external", "external.txt")
	b := &testStep{
		name:    "StepB",
		inputs:  map[string]step.InputSpec{"external": {Class: external}},
		outputs: map[string]artifact.Class{"y": textClass("y", "y.txt")},
	}

	plan, err := New([]step.Class{b}, config.NewFromMap(nil, root), invalidation.New(root), nil).Plan()
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "StepB", plan.Steps[0].Name())
}

func TestOrphanDetection(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stale := textClass("stale", "stale.txt")
	require.NoError(t, os.WriteFile(filepath.Join(root, "stale.txt"), []byte("old"), 0o644))

	removed := &testStep{
		name:      "Removed",
		outputs:   map[string]artifact.Class{"stale": stale},
		definedFn: func(*step.Instance) bool { return false },
	}

	plan, err := New([]step.Class{removed}, config.NewFromMap(nil, root), invalidation.New(root), nil).Plan()
	require.NoError(t, err)
	require.Len(t, plan.Orphans, 1)
	assert.Equal(t, "stale", plan.Orphans[0].Class().Name)
}

func TestOptionalEdgeToggleInvalidatesOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inval := invalidation.New(root)

	q := textClass("q", "q.txt")
	require.NoError(t, os.WriteFile(filepath.Join(root, "q.txt"), []byte("q"), 0o644))

	useExtra := false
	p := &testStep{
		name: "StepP",
		params: map[string]step.ParamBinder{
			"use_extra": step.ParameterDescriptor[bool]{Key: "p.use_extra", Valid: config.BoolValidator{}, Default: &useExtra},
		},
		inputs: map[string]step.InputSpec{
			"q": {
				Class:    q,
				Optional: true,
				When: func(inst *step.Instance) bool {
					v, err := inst.Param("use_extra")
					return err == nil && v.(bool)
				},
			},
		},
		outputs: map[string]artifact.Class{"r": textClass("r", "r.txt")},
	}

	off := config.NewFromMap(map[string]interface{}{
		"p": map[string]interface{}{"use_extra": false},
	}, root)
	plan, err := New([]step.Class{p}, off, inval, nil).Plan()
	require.NoError(t, err)
	simulateRun(t, plan, inval)

	stable, err := New([]step.Class{p}, off, inval, nil).Plan()
	require.NoError(t, err)
	assert.Empty(t, filterTrue(stable.ToRun))

	on := config.NewFromMap(map[string]interface{}{
		"p": map[string]interface{}{"use_extra": true},
	}, root)
	toggled, err := New([]step.Class{p}, on, inval, nil).Plan()
	require.NoError(t, err)
	assert.True(t, toggled.ToRun["StepP"])

	simulateRun(t, toggled, inval)
	settled, err := New([]step.Class{p}, on, inval, nil).Plan()
	require.NoError(t, err)
	assert.Empty(t, filterTrue(settled.ToRun))
}

func TestCycleDetected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x := textClass("x", "x.txt")
	y := textClass("y", "y.txt")
	a := &testStep{
		name:    "StepA",
		inputs:  map[string]step.InputSpec{"y": {Class: y}},
		outputs: map[string]artifact.Class{"x": x},
	}
	b := &testStep{
		name:    "StepB",
		inputs:  map[string]step.InputSpec{"x": {Class: x}},
		outputs: map[string]artifact.Class{"y": y},
	}

	_, err := New([]step.Class{a, b}, config.NewFromMap(nil, root), invalidation.New(root), nil).Plan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func filterTrue(set map[string]bool) []string {
	var out []string
	for name, ok := range set {
		if ok {
			out = append(out, name)
		}
	}
	return out
}
