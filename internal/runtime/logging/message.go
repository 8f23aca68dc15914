package logging

import "maps"

// Levels understood by MessageLogger. They are also the "lvl" values of
// forwarded log messages.
const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// Forwarder publishes a log line on the bus on behalf of a listener.
type Forwarder interface {
	Forward(level, source, text string)
}

// MessageLogger is the logger handed to a handler for one dispatch. Every
// line carries the listener name and the context of the message being
// handled.
type MessageLogger struct {
	base     ServiceLogger
	listener string
	fields   LogFields
	forward  Forwarder
}

// NewMessageLogger binds base to a listener and a message context. forward
// may be nil.
func NewMessageLogger(base ServiceLogger, listener string, context LogFields, forward Forwarder) MessageLogger {
	fields := LogFields{"listener": listener}
	maps.Copy(fields, context)
	return MessageLogger{base: base, listener: listener, fields: fields, forward: forward}
}

// Log writes msg at level. Unknown levels are logged as info.
func (l MessageLogger) Log(level, msg string) {
	if l.base != nil {
		switch level {
		case LevelDebug:
			l.base.Debug(msg, l.fields)
		case LevelError:
			l.base.Error(msg, nil, l.fields)
		case LevelWarning:
			l.base.Info(msg, l.withSeverity("warning"))
		default:
			l.base.Info(msg, l.fields)
		}
	}
	if l.forward != nil {
		l.forward.Forward(level, l.listener, msg)
	}
}

func (l MessageLogger) withSeverity(severity string) LogFields {
	fields := maps.Clone(l.fields)
	fields["severity"] = severity
	return fields
}

func (l MessageLogger) Debug(msg string) { l.Log(LevelDebug, msg) }
func (l MessageLogger) Info(msg string)  { l.Log(LevelInfo, msg) }
func (l MessageLogger) Warn(msg string)  { l.Log(LevelWarning, msg) }
func (l MessageLogger) Error(msg string) { l.Log(LevelError, msg) }

// Listener returns the name of the listener the logger is bound to.
func (l MessageLogger) Listener() string {
	return l.listener
}
