package invalidation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/step"
)

type hashStep struct {
	step.Base
	params  map[string]step.ParamBinder
	inputs  map[string]step.InputSpec
	outputs map[string]artifact.Class
}

func (h *hashStep) Name() string                            { return "HashStep" }
func (h *hashStep) Parameters() map[string]step.ParamBinder { return h.params }
func (h *hashStep) InputFiles() map[string]step.InputSpec   { return h.inputs }
func (h *hashStep) OutputFiles() map[string]artifact.Class  { return h.outputs }
func (h *hashStep) Run(*step.Instance) error                { return nil }

func newInstance(t *testing.T, root string, raw map[string]interface{}, class step.Class) *step.Instance {
	t.Helper()
	inst, err := step.Instantiate(class, config.NewFromMap(raw, root))
	require.NoError(t, err)
	return inst
}

func TestConfigHashStableUnderKeyOrder(t *testing.T) {
	t.Parallel()

	first, err := ConfigHash(map[string]interface{}{"a": 1, "b": "two", "c": 3.5})
	require.NoError(t, err)
	second, err := ConfigHash(map[string]interface{}{"c": 3.5, "b": "two", "a": 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestConfigHashChangesWithValue(t *testing.T) {
	t.Parallel()

	first, err := ConfigHash(map[string]interface{}{"seed": 42})
	require.NoError(t, err)
	second, err := ConfigHash(map[string]interface{}{"seed": 43})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNoSidecarMeansOutdated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inst := newInstance(t, root, nil, &hashStep{})

	outdated, err := New(root).IsOutdated(inst)
	require.NoError(t, err)
	assert.True(t, outdated)
}

func TestRecordThenUpToDate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outClass := artifact.Class{Name: "result", RelPath: "out/result.txt", Kind: artifact.KindText}
	class := &hashStep{outputs: map[string]artifact.Class{"result": outClass}}
	inst := newInstance(t, root, nil, class)

	out, err := inst.Output("result")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(out.Path()), 0o755))
	require.NoError(t, os.WriteFile(out.Path(), []byte("data"), 0o644))

	engine := New(root)
	require.NoError(t, engine.Record(inst))

	outdated, err := engine.IsOutdated(inst)
	require.NoError(t, err)
	assert.False(t, outdated)
}

func TestTouchedOutputMarksOutdated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outClass := artifact.Class{Name: "result", RelPath: "out/result.txt", Kind: artifact.KindText}
	class := &hashStep{outputs: map[string]artifact.Class{"result": outClass}}
	inst := newInstance(t, root, nil, class)

	out, err := inst.Output("result")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(out.Path()), 0o755))
	require.NoError(t, os.WriteFile(out.Path(), []byte("data"), 0o644))

	engine := New(root)
	require.NoError(t, engine.Record(inst))

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(out.Path(), future, future))

	outdated, err := engine.IsOutdated(inst)
	require.NoError(t, err)
	assert.True(t, outdated)
}

func TestDeletedOutputMarksOutdated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outClass := artifact.Class{Name: "result", RelPath: "out/result.txt", Kind: artifact.KindText}
	class := &hashStep{outputs: map[string]artifact.Class{"result": outClass}}
	inst := newInstance(t, root, nil, class)

	out, err := inst.Output("result")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(out.Path()), 0o755))
	require.NoError(t, os.WriteFile(out.Path(), []byte("data"), 0o644))

	engine := New(root)
	require.NoError(t, engine.Record(inst))
	require.NoError(t, os.Remove(out.Path()))

	outdated, err := engine.IsOutdated(inst)
	require.NoError(t, err)
	assert.True(t, outdated)
}

func TestChangedParameterMarksOutdated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	class := &hashStep{params: map[string]step.ParamBinder{
		"seed": step.ParameterDescriptor[int]{Key: "random_seed", Valid: config.IntValidator{}},
	}}

	engine := New(root)
	first := newInstance(t, root, map[string]interface{}{"random_seed": int64(42)}, class)
	require.NoError(t, engine.Record(first))

	outdated, err := engine.IsOutdated(first)
	require.NoError(t, err)
	assert.False(t, outdated)

	second := newInstance(t, root, map[string]interface{}{"random_seed": int64(43)}, class)
	outdated, err = engine.IsOutdated(second)
	require.NoError(t, err)
	assert.True(t, outdated)
}

func TestDataFileParameterTracked(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dataFile := filepath.Join(root, "external.csv")
	require.NoError(t, os.WriteFile(dataFile, []byte("1,2"), 0o644))

	class := &hashStep{params: map[string]step.ParamBinder{
		"source": step.ParameterDescriptor[string]{Key: "import.source", Valid: config.PathValidator{}},
	}}
	inst := newInstance(t, root, map[string]interface{}{
		"import": map[string]interface{}{"source": dataFile},
	}, class)

	engine := New(root)
	fp, err := engine.Compute(inst)
	require.NoError(t, err)
	assert.Contains(t, fp, "data_file_source_mtime")

	require.NoError(t, engine.Record(inst))

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(dataFile, future, future))

	outdated, err := engine.IsOutdated(inst)
	require.NoError(t, err)
	assert.True(t, outdated)
}

func TestSidecarRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inst := newInstance(t, root, nil, &hashStep{})

	engine := New(root)
	require.NoError(t, engine.Record(inst))

	loaded, found, err := engine.Load("HashStep")
	require.NoError(t, err)
	require.True(t, found)

	first, err := json.Marshal(loaded)
	require.NoError(t, err)

	var reparsed Fingerprint
	require.NoError(t, json.Unmarshal(first, &reparsed))
	second, err := json.Marshal(reparsed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, loaded, "config_hash")
}
