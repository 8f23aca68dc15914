package runtime

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/tags"
	"github.com/drblury/tagflow/internal/runtime/wire"
)

// Outcome is the routing decision taken for one message.
type Outcome int

const (
	// OutcomeRouted means exactly one handler matched and was invoked.
	OutcomeRouted Outcome = iota
	// OutcomeNoMatch means no handler accepted the message.
	OutcomeNoMatch
	// OutcomeAmbiguous means several handlers matched; none was invoked.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRouted:
		return "routed"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Result reports what Dispatch did with a message.
type Result struct {
	Outcome Outcome
	// Tags is the tag-set read from the message. Nil when the tags were
	// malformed.
	Tags tags.Set
	// Handler is the name of the invoked handler, empty unless routed.
	Handler string
	// Candidates lists every matching handler in registration order.
	Candidates []string
	// Sent is the number of replies published.
	Sent int
	// Duration is the time spent in the handler.
	Duration time.Duration
}

// Sender publishes the replies of a handler on the bus.
type Sender interface {
	Send(ctx context.Context, payload, contentType string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, payload, contentType string) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, payload, contentType string) error {
	return f(ctx, payload, contentType)
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHooks installs dispatch hooks. Calling it twice merges the hooks.
func WithHooks(hooks DispatchHooks) DispatcherOption {
	return func(d *Dispatcher) {
		d.hooks = d.hooks.Merge(hooks)
	}
}

// WithForwarder forwards handler log lines, typically to the bus.
func WithForwarder(f loggingpkg.Forwarder) DispatcherOption {
	return func(d *Dispatcher) {
		d.forward = f
	}
}

// WithHandlerTimeout gives every handler call a deadline. Zero disables it.
func WithHandlerTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher routes decoded messages to the single handler whose tags they
// carry, binds the handler's parameters and sends its replies.
type Dispatcher struct {
	name     string
	registry *handlers.Registry
	sender   Sender
	logger   loggingpkg.ServiceLogger
	hooks    DispatchHooks
	forward  loggingpkg.Forwarder
	timeout  time.Duration
	tracer   trace.Tracer
}

// NewDispatcher creates the dispatcher of the listener called name.
func NewDispatcher(name string, registry *handlers.Registry, sender Sender, logger loggingpkg.ServiceLogger, opts ...DispatcherOption) (*Dispatcher, error) {
	switch {
	case registry == nil:
		return nil, errspkg.ErrRegistryRequired
	case sender == nil:
		return nil, errspkg.ErrPublisherRequired
	case logger == nil:
		return nil, errspkg.ErrLoggerRequired
	}

	d := &Dispatcher{
		name:     name,
		registry: registry,
		sender:   sender,
		logger:   logger,
		tracer:   otel.Tracer("github.com/drblury/tagflow"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the listener name the dispatcher logs and sends as.
func (d *Dispatcher) Name() string {
	return d.name
}

// Dispatch routes view. Misses and ambiguous matches are outcomes, not
// errors: the message is dropped and a nil error returned. A failing handler
// yields a *errors.HandlerFaultError; a failing send is returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, view wire.View) (Result, error) {
	ctx, span := d.tracer.Start(ctx, "tagflow.Dispatch",
		trace.WithAttributes(attribute.String("tagflow.listener", d.name)))
	defer span.End()

	incoming, tagErr := view.Tags()
	matches := d.match(incoming, tagErr)

	res := Result{Candidates: names(matches)}
	if tagErr == nil {
		res.Tags = incoming
	}
	span.SetAttributes(attribute.String("tagflow.tags", res.Tags.String()))

	switch len(matches) {
	case 0:
		res.Outcome = OutcomeNoMatch
		fields := loggingpkg.LogFields{"listener": d.name, "tags": res.Tags.String()}
		if tagErr != nil {
			fields["tag_error"] = tagErr.Error()
		}
		d.logger.Debug("No candidates found", fields)
		span.SetAttributes(attribute.String("tagflow.outcome", res.Outcome.String()))
		if d.hooks.OnNoMatch != nil {
			d.hooks.OnNoMatch(d.event(ctx, res))
		}
		return res, nil
	case 1:
	default:
		res.Outcome = OutcomeAmbiguous
		d.logger.Info("Too many candidates found", loggingpkg.LogFields{
			"listener":   d.name,
			"tags":       res.Tags.String(),
			"candidates": describe(matches),
		})
		span.SetAttributes(attribute.String("tagflow.outcome", res.Outcome.String()))
		if d.hooks.OnAmbiguous != nil {
			d.hooks.OnAmbiguous(d.event(ctx, res))
		}
		return res, nil
	}

	res.Outcome = OutcomeRouted
	res.Handler = matches[0].Name()
	span.SetAttributes(
		attribute.String("tagflow.outcome", res.Outcome.String()),
		attribute.String("tagflow.handler", res.Handler),
	)

	err := d.invoke(ctx, matches[0], view, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if d.hooks.OnFault != nil {
			d.hooks.OnFault(d.event(ctx, res), err)
		}
		return res, err
	}
	if d.hooks.OnRouted != nil {
		d.hooks.OnRouted(d.event(ctx, res))
	}
	return res, nil
}

func (d *Dispatcher) match(incoming tags.Set, tagErr error) []*handlers.Descriptor {
	if tagErr != nil {
		return nil
	}
	var matches []*handlers.Descriptor
	for _, c := range d.registry.Candidates() {
		if tags.Matches(incoming, c.Tags()) {
			matches = append(matches, c)
		}
	}
	return matches
}

func (d *Dispatcher) invoke(ctx context.Context, desc *handlers.Descriptor, view wire.View, res *Result) error {
	newLogger := func() loggingpkg.MessageLogger {
		return loggingpkg.NewMessageLogger(d.logger, d.name, loggingpkg.LogFields{
			"tags":    res.Tags.String(),
			"handler": desc.Name(),
		}, d.forward)
	}

	call := &handlers.Call{
		Handler: desc.Name(),
		Message: view,
		Logger:  newLogger(),
		Args:    handlers.Bind(desc, view, newLogger),
	}

	handlerCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		handlerCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	replies, err := desc.Handler()(handlerCtx, call)
	res.Duration = time.Since(start)
	if err != nil {
		return &errspkg.HandlerFaultError{Handler: desc.Name(), Err: err}
	}

	for _, out := range replies {
		if out == nil {
			continue
		}
		if m, ok := out.(*wire.Message); ok && m == nil {
			continue
		}
		contentType := ""
		if ct, ok := out.(wire.ContentTyper); ok {
			contentType = ct.ContentType()
		}
		if err := d.sender.Send(ctx, out.String(), contentType); err != nil {
			return err
		}
		res.Sent++
	}
	return nil
}

func (d *Dispatcher) event(ctx context.Context, res Result) DispatchEvent {
	return DispatchEvent{
		Listener:   d.name,
		Tags:       res.Tags,
		Handler:    res.Handler,
		Candidates: res.Candidates,
		Sent:       res.Sent,
		Duration:   res.Duration,
		Context:    ctx,
	}
}

func names(ds []*handlers.Descriptor) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

func describe(ds []*handlers.Descriptor) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
