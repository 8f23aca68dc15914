package runtime

import (
	"context"
	"time"

	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

// DispatchEvent describes one dispatch to hooks.
type DispatchEvent struct {
	// Listener is the name of the dispatching listener.
	Listener string
	// Tags is the tag-set read from the message.
	Tags tags.Set
	// Handler is the chosen handler (OnRouted and OnFault only).
	Handler string
	// Candidates lists the matching handlers (OnAmbiguous only).
	Candidates []string
	// Sent is the number of replies published.
	Sent int
	// Duration is how long the handler ran (OnRouted and OnFault only).
	Duration time.Duration
	// Context is the context the message was dispatched with.
	Context context.Context
}

// DispatchHooks defines callbacks for dispatch outcomes.
// All hooks are optional - nil hooks are simply not called.
type DispatchHooks struct {
	// OnRouted is called after a handler returned and its replies were sent.
	OnRouted func(ev DispatchEvent)

	// OnNoMatch is called when no handler matched the message.
	OnNoMatch func(ev DispatchEvent)

	// OnAmbiguous is called when more than one handler matched and the
	// message was dropped.
	OnAmbiguous func(ev DispatchEvent)

	// OnFault is called when the handler or the sending of its replies
	// failed.
	OnFault func(ev DispatchEvent, err error)
}

// Merge combines two DispatchHooks, creating a new DispatchHooks that calls both.
// The hooks from 'other' are called after the hooks from 'h'.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnRouted:    chainHooks(h.OnRouted, other.OnRouted),
		OnNoMatch:   chainHooks(h.OnNoMatch, other.OnNoMatch),
		OnAmbiguous: chainHooks(h.OnAmbiguous, other.OnAmbiguous),
		OnFault:     chainFaultHooks(h.OnFault, other.OnFault),
	}
}

func chainHooks(a, b func(DispatchEvent)) func(DispatchEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev DispatchEvent) {
		a(ev)
		b(ev)
	}
}

func chainFaultHooks(a, b func(DispatchEvent, error)) func(DispatchEvent, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev DispatchEvent, err error) {
		a(ev, err)
		b(ev, err)
	}
}

// LoggingHooks returns hooks that log routed and failed dispatches. Misses
// and ambiguous matches are already logged by the dispatcher.
func LoggingHooks(logger loggingpkg.ServiceLogger) DispatchHooks {
	return DispatchHooks{
		OnRouted: func(ev DispatchEvent) {
			logger.Debug("Message handled", loggingpkg.LogFields{
				"listener":    ev.Listener,
				"handler":     ev.Handler,
				"tags":        ev.Tags.String(),
				"sent":        ev.Sent,
				"duration_ms": ev.Duration.Milliseconds(),
			})
		},
		OnFault: func(ev DispatchEvent, err error) {
			logger.Error("Handler failed", err, loggingpkg.LogFields{
				"listener":    ev.Listener,
				"handler":     ev.Handler,
				"tags":        ev.Tags.String(),
				"duration_ms": ev.Duration.Milliseconds(),
			})
		},
	}
}

// AlertingHooks returns hooks that call alertFunc on faults and ambiguous
// matches, the two outcomes an operator has to act on.
func AlertingHooks(alertFunc func(ev DispatchEvent, err error)) DispatchHooks {
	return DispatchHooks{
		OnAmbiguous: func(ev DispatchEvent) {
			alertFunc(ev, nil)
		},
		OnFault: alertFunc,
	}
}
