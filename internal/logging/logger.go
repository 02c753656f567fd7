// Package logging provides the structured logger used across metropipe,
// a thin adapter over charmbracelet/log: human-readable output when
// Options.HumanReadable is set, JSON otherwise.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a Logger.
type Options struct {
	Writer        io.Writer
	Level         string
	Component     string
	HumanReadable bool
}

// Logger is the structured logger handed to the planner and the driver.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New creates a Logger from Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	logOpts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if !opts.HumanReadable {
		logOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, logOpts)

	var fields []interface{}
	if opts.Component != "" {
		fields = []interface{}{"component", opts.Component}
	}

	return &Logger{base: base, fields: fields}, nil
}

// With derives a logger that always includes the supplied key/value pairs.
func (l *Logger) With(fields ...interface{}) *Logger {
	if l == nil {
		return l
	}
	next := make([]interface{}, 0, len(l.fields)+len(fields))
	next = append(next, l.fields...)
	next = append(next, fields...)
	return &Logger{base: l.base, fields: next}
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(msg, l.merge(fields)...)
}

// Warn writes a warning log entry.
func (l *Logger) Warn(msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Warn(msg, l.merge(fields)...)
}

// Error writes an error log entry.
func (l *Logger) Error(msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Error(msg, l.merge(fields)...)
}

// Debug writes a debug log entry.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debug(msg, l.merge(fields)...)
}

func (l *Logger) merge(fields []interface{}) []interface{} {
	store := make(map[string]interface{})
	var order []string
	add := func(values []interface{}) {
		for i := 0; i+1 < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			if _, exists := store[key]; !exists {
				order = append(order, key)
			}
			store[key] = values[i+1]
		}
	}
	add(l.fields)
	add(fields)
	sort.Strings(order)
	out := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		out = append(out, k, store[k])
	}
	return out
}
