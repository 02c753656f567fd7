// Package config implements the TOML configuration document, the dotted
// key-path navigator, and the closed set of type validators that
// Parameter descriptors bind against.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	metropyerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Configuration is the immutable tree parsed from a TOML document, plus the
// main directory path that roots all artifact storage.
//
// It is addressable by dotted key paths (e.g. "road_network.capacities").
// Array indices may be embedded in a path segment as "servers[0]".
type Configuration struct {
	raw           map[string]interface{}
	mainDirectory string
}

// Load reads and parses a TOML configuration file. mainDirectory roots all
// artifact storage for the invocation; it is not itself a TOML key.
func Load(path string, mainDirectory string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, metropyerrors.NewConfigurationError(path, "cannot read configuration file", err)
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, metropyerrors.NewConfigurationError(path, "invalid TOML document", err)
	}

	return &Configuration{raw: raw, mainDirectory: mainDirectory}, nil
}

// LoadFile reads a TOML configuration file and takes the main directory
// from its reserved "main_directory" key, resolved relative to the
// configuration file's own directory when not absolute.
func LoadFile(path string) (*Configuration, error) {
	cfg, err := Load(path, "")
	if err != nil {
		return nil, err
	}

	raw, ok := cfg.Get("main_directory")
	if !ok {
		return nil, metropyerrors.NewConfigurationError("main_directory", "missing required key", nil)
	}
	dir, ok := raw.(string)
	if !ok {
		return nil, metropyerrors.NewConfigurationError("main_directory", fmt.Sprintf("invalid string: %#v", raw), nil)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(path), dir)
	}
	cfg.mainDirectory = dir
	return cfg, nil
}

// NewFromMap builds a Configuration directly from an already-decoded TOML
// document, primarily for tests.
func NewFromMap(raw map[string]interface{}, mainDirectory string) *Configuration {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return &Configuration{raw: raw, mainDirectory: mainDirectory}
}

// MainDirectory returns the directory that roots all artifact storage.
func (c *Configuration) MainDirectory() string {
	if c == nil {
		return ""
	}
	return c.mainDirectory
}

// Get walks a dotted key path through the configuration tree, descending
// into nested maps and, where a segment carries an index such as
// "servers[0]", into array elements. It returns (nil, false) on a missing
// segment or when an intermediate value is not a map/array.
func (c *Configuration) Get(keyPath string) (interface{}, bool) {
	if c == nil || keyPath == "" {
		return nil, false
	}

	var current interface{} = c.raw
	for _, segment := range strings.Split(keyPath, ".") {
		key, index, hasIndex := splitIndex(segment)

		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok := m[key]
		if !ok {
			return nil, false
		}
		current = value

		if hasIndex {
			arr, ok := current.([]interface{})
			if !ok || index < 0 || index >= len(arr) {
				return nil, false
			}
			current = arr[index]
		}
	}

	return current, true
}

// splitIndex splits a path segment like "servers[0]" into ("servers", 0, true),
// or returns (segment, 0, false) when no index suffix is present.
func splitIndex(segment string) (string, int, bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}
	key := segment[:open]
	idxStr := segment[open+1 : len(segment)-1]
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return segment, 0, false
	}
	return key, idx, true
}

// String renders the configuration key set for debugging.
func (c *Configuration) String() string {
	if c == nil {
		return "<nil configuration>"
	}
	return fmt.Sprintf("Configuration{mainDirectory=%s, keys=%d}", c.mainDirectory, len(c.raw))
}
