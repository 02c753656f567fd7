package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dylanmei/iso8601"
)

func defaultStat(path string) (isDir bool, exists bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

// Validator is the closed sum type every Parameter descriptor binds
// against. Implementations accept a dynamically typed raw value decoded
// from TOML and return a normalized, typed value or an error naming the
// offending value.
type Validator interface {
	Validate(raw interface{}) (interface{}, error)
	Describe() string
}

// ClockTime represents a time-of-day as an offset from midnight, since Go's
// standard library has no dedicated wall-clock-time type.
type ClockTime time.Duration

// IntValidator accepts integer-typed values; booleans and floats with a
// fractional part are rejected.
type IntValidator struct{}

func (IntValidator) Validate(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("invalid integer (has a fractional part): %v", v)
		}
		return int(v), nil
	case bool:
		return nil, fmt.Errorf("invalid integer: %v", v)
	default:
		return nil, fmt.Errorf("invalid integer: %v", v)
	}
}

func (IntValidator) Describe() string { return "integer" }

// FloatValidator accepts integers and floats, normalizing to float64.
type FloatValidator struct{}

func (FloatValidator) Validate(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		return nil, fmt.Errorf("invalid float: %v", v)
	default:
		return nil, fmt.Errorf("invalid float: %v", v)
	}
}

func (FloatValidator) Describe() string { return "float" }

// BoolValidator accepts only native booleans; integer 0/1 is rejected.
type BoolValidator struct{}

func (BoolValidator) Validate(raw interface{}) (interface{}, error) {
	v, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("invalid boolean: %v", raw)
	}
	return v, nil
}

func (BoolValidator) Describe() string { return "boolean" }

// StringValidator accepts only native strings.
type StringValidator struct{}

func (StringValidator) Validate(raw interface{}) (interface{}, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("invalid string: %#v", raw)
	}
	return v, nil
}

func (StringValidator) Describe() string { return "string" }

// TimeValidator accepts a ClockTime or an ISO 8601 time-of-day string
// ("HH:MM:SS[.ffffff]").
type TimeValidator struct{}

func (TimeValidator) Validate(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case ClockTime:
		return v, nil
	case time.Time:
		return ClockTime(time.Duration(v.Hour())*time.Hour +
			time.Duration(v.Minute())*time.Minute +
			time.Duration(v.Second())*time.Second +
			time.Duration(v.Nanosecond())), nil
	case string:
		for _, layout := range []string{"15:04:05.999999", "15:04:05"} {
			t, err := time.Parse(layout, v)
			if err == nil {
				return ClockTime(time.Duration(t.Hour())*time.Hour +
					time.Duration(t.Minute())*time.Minute +
					time.Duration(t.Second())*time.Second +
					time.Duration(t.Nanosecond())), nil
			}
		}
		return nil, fmt.Errorf("invalid time: %q", v)
	default:
		return nil, fmt.Errorf("invalid time: %v", v)
	}
}

func (TimeValidator) Describe() string { return "time of day (HH:MM:SS)" }

// DurationValidator accepts a native duration, a non-negative number of
// seconds, or an ISO 8601 duration string.
type DurationValidator struct{}

func (DurationValidator) Validate(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case int:
		if v < 0 {
			return nil, fmt.Errorf("invalid duration: %v", v)
		}
		return time.Duration(v) * time.Second, nil
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("invalid duration: %v", v)
		}
		return time.Duration(v) * time.Second, nil
	case float64:
		if v < 0 {
			return nil, fmt.Errorf("invalid duration: %v", v)
		}
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := iso8601.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %q", v)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("invalid duration: %v", v)
	}
}

func (DurationValidator) Describe() string { return "duration (seconds, ISO 8601, or native)" }

// PathValidator normalizes to a path string, optionally checking existence
// and allowed extensions. Extension matching is case-sensitive on suffix only.
type PathValidator struct {
	CheckFileExists bool
	CheckDirExists  bool
	AllowedExt      []string
	StatFn          func(string) (isDir bool, exists bool)
}

func (p PathValidator) Validate(raw interface{}) (interface{}, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("invalid path: %v", raw)
	}

	if len(p.AllowedExt) > 0 {
		ext := filepath.Ext(v)
		matched := false
		for _, allowed := range p.AllowedExt {
			if ext == allowed {
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("invalid path (allowed extensions: %s): %s", strings.Join(p.AllowedExt, ", "), v)
		}
	}

	if p.CheckFileExists || p.CheckDirExists {
		stat := p.StatFn
		if stat == nil {
			stat = defaultStat
		}
		isDir, exists := stat(v)
		if p.CheckFileExists && (!exists || isDir) {
			return nil, fmt.Errorf("invalid path (not a file): %s", v)
		}
		if p.CheckDirExists && (!exists || !isDir) {
			return nil, fmt.Errorf("invalid path (not a directory): %s", v)
		}
	}

	return v, nil
}

func (p PathValidator) Describe() string { return "filesystem path" }

// EnumValidator accepts values from a fixed set.
type EnumValidator struct {
	Values []string
}

func (e EnumValidator) Validate(raw interface{}) (interface{}, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("invalid enum value: %v", raw)
	}
	for _, allowed := range e.Values {
		if v == allowed {
			return v, nil
		}
	}
	return nil, fmt.Errorf("invalid value: %s [expected one of: %s]", v, strings.Join(e.Values, ", "))
}

func (e EnumValidator) Describe() string {
	return fmt.Sprintf("one of: %s", strings.Join(e.Values, ", "))
}

// ListValidator validates a sequence, applying Inner to each element and
// enforcing length bounds.
type ListValidator struct {
	Inner     Validator
	Length    *int
	MinLength *int
	MaxLength *int
}

func (l ListValidator) Validate(raw interface{}) (interface{}, error) {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid list: %v", raw)
	}
	if l.Length != nil && len(arr) != *l.Length {
		return nil, fmt.Errorf("list has invalid number of elements (found: %d, expected: %d)", len(arr), *l.Length)
	}
	if l.MinLength != nil && len(arr) < *l.MinLength {
		return nil, fmt.Errorf("list has not enough elements (found: %d, expected: %d+)", len(arr), *l.MinLength)
	}
	if l.MaxLength != nil && len(arr) > *l.MaxLength {
		return nil, fmt.Errorf("list has too many elements (found: %d, expected: %d-)", len(arr), *l.MaxLength)
	}
	out := make([]interface{}, len(arr))
	for i, elem := range arr {
		validated, err := l.Inner.Validate(elem)
		if err != nil {
			return nil, fmt.Errorf("invalid element at index %d: %w", i, err)
		}
		out[i] = validated
	}
	return out, nil
}

func (l ListValidator) Describe() string {
	return fmt.Sprintf("list of %s", l.Inner.Describe())
}

// CustomValidator delegates to a user-supplied function; the error message
// comes from the function itself.
type CustomValidator struct {
	Fn     func(interface{}) (interface{}, error)
	DescFn func() string
}

func (c CustomValidator) Validate(raw interface{}) (interface{}, error) {
	return c.Fn(raw)
}

func (c CustomValidator) Describe() string {
	if c.DescFn != nil {
		return c.DescFn()
	}
	return "custom validator"
}

// Distribution is the normalized output of DistributionValidator: either a
// Constant value, or Mean/Std/Kind describing a sampled distribution.
type Distribution struct {
	IsConstant bool
	Constant   interface{}
	Mean       interface{}
	Std        interface{}
	Kind       DistributionKind
}

// DistributionKind enumerates the supported sampling distributions. Normal
// and Gaussian are synonyms.
type DistributionKind int

const (
	DistributionUniform DistributionKind = iota
	DistributionNormal
	DistributionLognormal
)

var distributionNames = map[string]DistributionKind{
	"uniform":   DistributionUniform,
	"normal":    DistributionNormal,
	"gaussian":  DistributionNormal,
	"lognormal": DistributionLognormal,
}

// DistributionValidator accepts either a constant (validated by Inner) or
// an inline table with exactly the keys mean, std, and distribution.
type DistributionValidator struct {
	Inner     Validator
	InnerMean Validator
	InnerStd  Validator
}

func (d DistributionValidator) Validate(raw interface{}) (interface{}, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		constant, err := d.Inner.Validate(raw)
		if err != nil {
			return nil, fmt.Errorf("not a valid distribution parameter: %w", err)
		}
		return Distribution{IsConstant: true, Constant: constant}, nil
	}

	for _, required := range []string{"mean", "std", "distribution"} {
		if _, ok := m[required]; !ok {
			return nil, fmt.Errorf("missing key %q", required)
		}
	}
	for key := range m {
		switch key {
		case "mean", "std", "distribution":
		default:
			return nil, fmt.Errorf("unexpected key %q (expected exactly: mean, std, distribution)", key)
		}
	}

	mean, err := d.InnerMean.Validate(m["mean"])
	if err != nil {
		return nil, fmt.Errorf("invalid mean: %w", err)
	}
	std, err := d.InnerStd.Validate(m["std"])
	if err != nil {
		return nil, fmt.Errorf("invalid std: %w", err)
	}

	name, ok := m["distribution"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid distribution name: %v", m["distribution"])
	}
	kind, ok := distributionNames[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(distributionNames))
		for k := range distributionNames {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("not a supported distribution: %q (expected one of: %s)", name, strings.Join(names, ", "))
	}

	return Distribution{Mean: mean, Std: std, Kind: kind}, nil
}

func (d DistributionValidator) Describe() string {
	return fmt.Sprintf("%s, or a table with keys mean (%s), std (%s), and distribution (Uniform, Normal, Gaussian, Lognormal)",
		d.Inner.Describe(), d.InnerMean.Describe(), d.InnerStd.Describe())
}
