// Package errors defines the taxonomy of fatal error kinds surfaced by
// metropipe: configuration, schema, planning, step-runtime, and I/O errors.
// Every fatal error prints as exactly one structured line naming the kind,
// the offending key or artifact, and the underlying message.
package errors

import (
	"fmt"
)

// ConfigurationError reports an invalid value, an unknown required key, or
// a missing path, surfaced against the dotted key path that produced it.
type ConfigurationError struct {
	KeyPath string
	Message string
	Err     error
}

// NewConfigurationError constructs a ConfigurationError.
func NewConfigurationError(keyPath, message string, err error) error {
	return &ConfigurationError{KeyPath: keyPath, Message: message, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.KeyPath != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.KeyPath, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SchemaError reports an artifact written with the wrong columns, dtype,
// nullability, uniqueness, or row count.
type SchemaError struct {
	Artifact string
	Message  string
	Err      error
}

// NewSchemaError constructs a SchemaError.
func NewSchemaError(artifact, message string, err error) error {
	return &SchemaError{Artifact: artifact, Message: message, Err: err}
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	if e.Artifact != "" {
		return fmt.Sprintf("schema error: %s: %s", e.Artifact, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *SchemaError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PlanningError reports a duplicate producer for an artifact or a cycle in
// the build graph. Infeasible Steps are dropped from the plan without an
// error, and an orphan-removal refusal is reported by the driver's own
// ErrAborted sentinel rather than by this type.
type PlanningError struct {
	Subject string
	Message string
	Err     error
}

// NewPlanningError constructs a PlanningError.
func NewPlanningError(subject, message string, err error) error {
	return &PlanningError{Subject: subject, Message: message, Err: err}
}

func (e *PlanningError) Error() string {
	if e == nil {
		return ""
	}
	if e.Subject != "" {
		return fmt.Sprintf("planning error: %s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("planning error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PlanningError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepRuntimeError wraps any failure inside a Step's Run, including an
// external process's non-zero exit.
type StepRuntimeError struct {
	StepName string
	Err      error
}

// NewStepRuntimeError constructs a StepRuntimeError.
func NewStepRuntimeError(stepName string, err error) error {
	return &StepRuntimeError{StepName: stepName, Err: err}
}

func (e *StepRuntimeError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepName != "" {
		return fmt.Sprintf("step runtime error: %s: %v", e.StepName, e.Err)
	}
	return fmt.Sprintf("step runtime error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *StepRuntimeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IOError reports a filesystem failure reading or writing an artifact or
// sidecar.
type IOError struct {
	Path string
	Err  error
}

// NewIOError constructs an IOError.
func NewIOError(path string, err error) error {
	return &IOError{Path: path, Err: err}
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("I/O error: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("I/O error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
