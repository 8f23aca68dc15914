package handlers

import (
	"fmt"
	"strconv"

	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/wire"
)

// Reserved parameter names bound to framework objects instead of payload
// fields.
const (
	// ParamMessage binds the inbound message view.
	ParamMessage = "parser"
	// ParamLogger binds a logger scoped to the dispatch.
	ParamLogger = "logger"
)

type noValue struct{}

func (noValue) String() string { return "<no value>" }

// NoValue is bound to parameters that the message does not carry and that
// declare no default.
var NoValue any = noValue{}

// Args are the bound parameters of one call, in declaration order.
type Args struct {
	names  []string
	values []any
}

// Names returns the parameter names in order.
func (a Args) Names() []string {
	return append([]string(nil), a.names...)
}

// Values returns the bound values in order.
func (a Args) Values() []any {
	return append([]any(nil), a.values...)
}

// Len returns the number of bound parameters.
func (a Args) Len() int {
	return len(a.names)
}

// Value returns the value bound to name. It reports false when name was not
// declared or is bound to NoValue.
func (a Args) Value(name string) (any, bool) {
	for i, n := range a.names {
		if n == name {
			return a.values[i], a.values[i] != NoValue
		}
	}
	return nil, false
}

// String returns the value bound to name formatted as text, or "" when
// absent.
func (a Args) String(name string) string {
	v, ok := a.Value(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the value bound to name as an int.
func (a Args) Int(name string) (int, error) {
	v, ok := a.Value(name)
	if !ok {
		return 0, fmt.Errorf("tagflow: parameter %q has no value", name)
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("tagflow: parameter %q is %T, not an int", name, v)
	}
}

// Bind resolves the declared parameters of d against view. For each
// parameter the first rule that applies wins:
//
//  1. ParamMessage binds the view itself;
//  2. ParamLogger binds a fresh logger from newLogger;
//  3. a present, non-empty message field of the same name;
//  4. the declared default;
//  5. NoValue.
//
// Bind never fails.
func Bind(d *Descriptor, view wire.View, newLogger func() loggingpkg.MessageLogger) Args {
	args := Args{
		names:  make([]string, 0, len(d.params)),
		values: make([]any, 0, len(d.params)),
	}

	for _, p := range d.params {
		args.names = append(args.names, p.Name)
		args.values = append(args.values, resolve(d, p.Name, view, newLogger))
	}
	return args
}

func resolve(d *Descriptor, name string, view wire.View, newLogger func() loggingpkg.MessageLogger) any {
	switch name {
	case ParamMessage:
		return view
	case ParamLogger:
		if newLogger == nil {
			return loggingpkg.MessageLogger{}
		}
		return newLogger()
	}
	if view != nil {
		if value, ok := view.Get(name); ok {
			return value
		}
	}
	if def, ok := d.defaults[name]; ok {
		return def
	}
	return NoValue
}
