// Package loggingtest provides an in-memory logging.ServiceLogger for tests.
package loggingtest

import (
	"maps"
	"sync"

	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
)

// Entry is one line captured by Logger.
type Entry struct {
	Level  string
	Msg    string
	Fields loggingpkg.LogFields
	Err    error
}

// Logger is a logging.ServiceLogger that keeps every line in memory. Loggers
// derived with With share the recording and merge their fields. The zero
// value is ready to use.
type Logger struct {
	mu      sync.Mutex
	entries *[]Entry
	fields  loggingpkg.LogFields
	parent  *Logger
}

func (r *Logger) root() *Logger {
	if r.parent != nil {
		return r.parent.root()
	}
	return r
}

func (r *Logger) record(level, msg string, err error, fields loggingpkg.LogFields) {
	merged := maps.Clone(r.fields)
	if merged == nil {
		merged = loggingpkg.LogFields{}
	}
	maps.Copy(merged, fields)

	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	if root.entries == nil {
		root.entries = &[]Entry{}
	}
	*root.entries = append(*root.entries, Entry{Level: level, Msg: msg, Fields: merged, Err: err})
}

func (r *Logger) With(fields loggingpkg.LogFields) loggingpkg.ServiceLogger {
	merged := maps.Clone(r.fields)
	if merged == nil {
		merged = loggingpkg.LogFields{}
	}
	maps.Copy(merged, fields)
	return &Logger{fields: merged, parent: r.root()}
}

func (r *Logger) Debug(msg string, fields loggingpkg.LogFields) { r.record("debug", msg, nil, fields) }
func (r *Logger) Info(msg string, fields loggingpkg.LogFields)  { r.record("info", msg, nil, fields) }
func (r *Logger) Trace(msg string, fields loggingpkg.LogFields) { r.record("trace", msg, nil, fields) }

func (r *Logger) Error(msg string, err error, fields loggingpkg.LogFields) {
	r.record("error", msg, err, fields)
}

// Entries returns a copy of the recorded lines.
func (r *Logger) Entries() []Entry {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	if root.entries == nil {
		return nil
	}
	out := make([]Entry, len(*root.entries))
	copy(out, *root.entries)
	return out
}

// Messages returns the recorded messages in order.
func (r *Logger) Messages() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Msg
	}
	return out
}
