// Package tagflow builds agents that talk over a message bus by routing each
// message to the one handler whose tags it carries. It is a small layer on
// top of Watermill: a Listener subscribes to its name (and optionally a
// shared topic) on the configured transport, decodes every message into a
// View, picks the handler whose required tags are all present, binds the
// handler's parameters from the message fields and publishes the replies the
// handler returns.
//
// Handlers are declared with On and Route.Handle. On with no tags declares
// the default handler, which only receives untagged messages. A message
// matching no handler, or more than one, is logged and dropped:
//
//	ping := tagflow.On("ping")
//	agent := tagflow.ProviderFunc(func() []tagflow.Registration {
//		return []tagflow.Registration{
//			ping.Handle("pong", pong, tagflow.Arg("src"), tagflow.ArgDefault("lang", "en")),
//		}
//	})
//	l, err := tagflow.NewAgent(ctx, &tagflow.Config{Name: "echo"}, logger, agent, tagflow.ListenerDependencies{})
//
// Parameters named "parser" and "logger" are bound to the message view and to
// a logger scoped to the dispatch. Every other parameter takes the message
// field of the same name, then its declared default, then NoValue.
//
// # Wire formats
//
// Payloads are read in the agent bus text format (key=value pairs joined by
// '&', one "tag" pair per tag), as JSON objects, or as binary
// google.protobuf.Struct messages. The content_type metadata selects the
// format; without it JSON is sniffed and text assumed. Message builds text
// replies and Message.JSON their JSON rendition.
//
// # Transports
//
// tagflow supports 6 message transports out of the box:
//   - channel: In-process Go channels shared by every listener of the process
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - aws: AWS SNS/SQS with LocalStack support
//   - nats: Core NATS messaging
//   - http: Messages POSTed between listeners
//
// # Middleware and hooks
//
// The default middleware chain applies the fault policy, injects correlation
// IDs, logs payloads, and adds OpenTelemetry tracing and Prometheus metrics.
// DispatchHooks observe every dispatch outcome; LoggingHooks and
// AlertingHooks cover the common cases and custom hooks are passed through
// ListenerDependencies.Hooks.
//
// Configuration is read from TAGFLOW_* environment variables by
// ConfigFromEnv, or filled in directly.
package tagflow
