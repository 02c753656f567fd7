// Package invalidation decides whether a Step must rerun. Each Step owns a
// sidecar FingerprintRecord under ${root}/update_files/<StepClassName>.json
// holding the mtimes of its path-typed parameters' targets, the mtimes of
// its input and output artifacts, and a SHA-256 hash of its resolved
// parameters at the last successful run.
package invalidation

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/step"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// sidecarDir is the directory under the main directory holding one
// FingerprintRecord per Step class.
const sidecarDir = "update_files"

// Fingerprint is the flat JSON sidecar object: data_file_<param>_mtime and
// metro_file_<artifact>_mtime entries as epoch seconds, plus config_hash.
// encoding/json writes map keys sorted, so serialization is canonical.
type Fingerprint map[string]interface{}

// Engine computes and persists fingerprints under one main directory.
type Engine struct {
	root string
}

// New creates an Engine rooted at the Configuration's main directory.
func New(root string) *Engine {
	return &Engine{root: root}
}

// SidecarPath returns the sidecar file path for a Step class name.
func (e *Engine) SidecarPath(stepName string) string {
	return filepath.Join(e.root, sidecarDir, stepName+".json")
}

// Compute derives the current fingerprint of a Step instance: one
// data_file entry per path-typed parameter whose target exists, one
// metro_file entry per input/output artifact that exists, and the
// config_hash over the resolved-parameter map.
func (e *Engine) Compute(inst *step.Instance) (Fingerprint, error) {
	fp := make(Fingerprint)

	params := inst.Params()
	for name, binder := range inst.Class().Parameters() {
		if _, isPath := binder.Validator().(config.PathValidator); !isPath {
			continue
		}
		value, ok := params[name]
		if !ok {
			continue
		}
		path, ok := value.(string)
		if !ok {
			continue
		}
		if mtime, ok := mtimeSeconds(path); ok {
			fp["data_file_"+name+"_mtime"] = mtime
		}
	}

	for name, a := range inst.Inputs() {
		if mtime, ok := mtimeSeconds(a.Path()); ok {
			fp["metro_file_"+name+"_mtime"] = mtime
		}
	}
	for name, a := range inst.Outputs() {
		if mtime, ok := mtimeSeconds(a.Path()); ok {
			fp["metro_file_"+name+"_mtime"] = mtime
		}
	}

	hash, err := ConfigHash(params)
	if err != nil {
		return nil, err
	}
	fp["config_hash"] = hash

	return fp, nil
}

// IsOutdated compares the current fingerprint against the persisted
// sidecar. A missing sidecar, a changed or newly present/absent data file,
// a changed input or output artifact, or a changed config hash all mark
// the Step outdated.
func (e *Engine) IsOutdated(inst *step.Instance) (bool, error) {
	recorded, found, err := e.Load(inst.Name())
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}

	current, err := e.Compute(inst)
	if err != nil {
		return false, err
	}

	return !reflect.DeepEqual(normalize(recorded), normalize(current)), nil
}

// Load reads a persisted FingerprintRecord; found is false when no sidecar
// exists.
func (e *Engine) Load(stepName string) (Fingerprint, bool, error) {
	path := e.SidecarPath(stepName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, metroerrors.NewIOError(path, err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, false, metroerrors.NewIOError(path, err)
	}
	return fp, true, nil
}

// Record computes and persists the fingerprint for a Step that just ran
// successfully. The driver is the only caller, and only after Run returned
// without error.
func (e *Engine) Record(inst *step.Instance) error {
	fp, err := e.Compute(inst)
	if err != nil {
		return err
	}

	dir := filepath.Join(e.root, sidecarDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return metroerrors.NewIOError(dir, err)
	}

	data, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return metroerrors.NewIOError(e.SidecarPath(inst.Name()), err)
	}

	path := e.SidecarPath(inst.Name())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return metroerrors.NewIOError(path, err)
	}
	return nil
}

// Remove deletes a Step's sidecar, if present.
func (e *Engine) Remove(stepName string) error {
	if err := os.Remove(e.SidecarPath(stepName)); err != nil && !os.IsNotExist(err) {
		return metroerrors.NewIOError(e.SidecarPath(stepName), err)
	}
	return nil
}

// ConfigHash hashes the resolved-parameter map: every value coerced to its
// string rendering, keys sorted, JSON-encoded, SHA-256. Stable under key
// insertion order.
func ConfigHash(params map[string]interface{}) (string, error) {
	coerced := make(map[string]string, len(params))
	for k, v := range params {
		coerced[k] = fmt.Sprintf("%v", v)
	}

	// encoding/json writes map keys in sorted order, which is what keeps
	// the hash stable under insertion order.
	data, err := json.Marshal(coerced)
	if err != nil {
		return "", fmt.Errorf("parameters are not hashable: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// mtimeSeconds returns a file's mtime as epoch seconds, matching the
// sidecar's numeric representation; ok is false when the file is absent.
func mtimeSeconds(path string) (float64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return float64(info.ModTime().UnixNano()) / 1e9, true
}

// normalize maps both freshly computed and JSON-round-tripped fingerprints
// onto one comparable shape (JSON numbers decode as float64 already; this
// guards the computed side).
func normalize(fp Fingerprint) Fingerprint {
	out := make(Fingerprint, len(fp))
	for k, v := range fp {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}
