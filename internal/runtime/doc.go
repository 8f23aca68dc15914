/*
Package runtime provides the listener and dispatch machinery of tagflow.

# Architecture Overview

A listener subscribes to its own name, and optionally to a shared topic, on a
Watermill transport. Every message is decoded into a read-only view, matched
against the tags declared by the listener's handlers and, when exactly one
handler accepts it, handed to that handler with its parameters bound from the
message. The handler's replies are published on the bus topic.

# Package Structure

## Listener (listener.go, agent.go)

The Listener wires together:
  - Message router (Watermill), one handler per subscribed topic
  - Publisher and subscriber of the configured transport
  - Middleware chain
  - Dispatcher and bus sender
  - HTTP servers for metrics and handler statistics

Dispatch is serialised: one message is matched, handled and its replies sent
before the next one is looked at.

## Dispatch (dispatcher.go)

Dispatcher applies the routing rules. No match and several matches are
outcomes, not errors; the message is logged and dropped. A failing handler
is reported as a HandlerFaultError.

## Middleware (middleware.go)

  - FaultPolicy: bounded retries then poison topic or drop under "propagate";
    panic recovery and fault absorption under "log"
  - CorrelationID: ensures message traceability
  - LogMessages: debug logging of message payloads
  - Tracer: OpenTelemetry distributed tracing
  - Metrics: Prometheus metrics collection

## Hooks, stats and metrics (hooks.go, stats.go, metrics.go)

DispatchHooks observe every dispatch outcome. Statistics, Prometheus metrics
and logging are all installed as hooks.

## Bus (bus.go, announce.go)

BusSender publishes replies, forwarded log lines and directory
announcements.

# Sub-packages

  - config/: Listener configuration with validation
  - errors/: Sentinel errors and error types
  - handlers/: Registrations, registry and parameter binding
  - ids/: ULID generation for message IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface, adapters and the per-message logger
  - metadata/: Message metadata utilities
  - tags/: Tag-sets and the matching rule
  - transport/: Transport factory
  - wire/: Message views and the bus text format

# Usage Example

	ping := handlers.On("ping")
	agent := handlers.ProviderFunc(func() []handlers.Registration {
		return []handlers.Registration{
			ping.Handle("pong", pong, handlers.Arg("src")),
		}
	})

	l, err := runtime.NewAgent(ctx, &config.Config{Name: "echo"}, logger, agent, runtime.ListenerDependencies{})
	if err != nil {
		return err
	}
	return l.Start(ctx)
*/
package runtime
