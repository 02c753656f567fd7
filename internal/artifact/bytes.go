package artifact

import (
	"os"

	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Text is a byte-level UTF-8 artifact.
type Text struct{ base }

func (t *Text) Write(data []byte) error {
	if err := t.ensureParentDir(); err != nil {
		return err
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return metroerrors.NewIOError(t.path, err)
	}
	return nil
}

func (t *Text) Read() ([]byte, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	return data, nil
}

// ReadIfExists mirrors the tabular convenience for text artifacts.
func (t *Text) ReadIfExists() ([]byte, error) {
	if !t.Exists() {
		return nil, nil
	}
	return t.Read()
}

// Plot is a byte-level artifact holding a rendered chart, PNG or PDF per
// the artifact class's declared choice.
type Plot struct{ base }

func (p *Plot) Write(data []byte) error {
	if err := p.ensureParentDir(); err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return metroerrors.NewIOError(p.path, err)
	}
	return nil
}

func (p *Plot) Read() ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, metroerrors.NewIOError(p.path, err)
	}
	return data, nil
}

// Opaque is a byte-level artifact with no further structure assumed by
// the core (e.g. an external simulation binary's native output format).
type Opaque struct{ base }

func (o *Opaque) Write(data []byte) error {
	if err := o.ensureParentDir(); err != nil {
		return err
	}
	if err := os.WriteFile(o.path, data, 0o644); err != nil {
		return metroerrors.NewIOError(o.path, err)
	}
	return nil
}

func (o *Opaque) Read() ([]byte, error) {
	data, err := os.ReadFile(o.path)
	if err != nil {
		return nil, metroerrors.NewIOError(o.path, err)
	}
	return data, nil
}
