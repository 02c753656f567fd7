package artifact

import (
	"os"
	"path/filepath"
	"time"

	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Class is the static, code-defined description of an artifact: a
// relative path template under the Configuration's main directory, a
// kind, and (for tabular kinds) a column schema and row cap.
type Class struct {
	Name    string
	RelPath string
	Kind    Kind
	Schema  Schema
	MaxRows *int
}

// Validate checks the Class is internally consistent: schema presence
// matches the kind, and (for GeoTabular) the schema carries no
// TIME/DURATION column.
func (c Class) Validate() error {
	switch c.Kind {
	case KindTabular, KindGeoTabular:
		return c.Schema.Validate(c.Kind)
	default:
		if len(c.Schema) > 0 {
			return metroerrors.NewSchemaError(c.Name, "non-tabular artifact classes must not declare a column schema", nil)
		}
		return nil
	}
}

// Artifact is the capability every bound artifact instance exposes,
// regardless of kind: path, existence, modification time, and removal.
// Kind-specific Read/Write live on the concrete types (Tabular,
// GeoTabular, Text, Plot, Opaque) since their payload types differ.
type Artifact interface {
	Class() Class
	Path() string
	Exists() bool
	LastModified() (time.Time, bool)
	Remove() error
}

// base implements the shared Artifact capability; concrete kinds embed it.
type base struct {
	class Class
	path  string
}

func newBase(class Class, root string) base {
	return base{class: class, path: filepath.Join(root, class.RelPath)}
}

func (b base) Class() Class { return b.class }
func (b base) Path() string { return b.path }

func (b base) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// LastModified returns the filesystem mtime of the artifact file. An
// absent artifact is treated as unknown: (zero, false).
func (b base) LastModified() (time.Time, bool) {
	info, err := os.Stat(b.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (b base) Remove() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return metroerrors.NewIOError(b.path, err)
	}
	return nil
}

func (b base) ensureParentDir() error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return metroerrors.NewIOError(dir, err)
	}
	return nil
}

// Bind constructs the concrete Artifact implementation for class.Kind,
// rooted under root (the Configuration's main directory).
func Bind(class Class, root string) Artifact {
	b := newBase(class, root)
	switch class.Kind {
	case KindTabular:
		return &Tabular{base: b}
	case KindGeoTabular:
		return &GeoTabular{base: b}
	case KindText:
		return &Text{base: b}
	case KindPlot:
		return &Plot{base: b}
	default:
		return &Opaque{base: b}
	}
}
