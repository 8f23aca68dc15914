package runtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	configpkg "github.com/drblury/tagflow/internal/runtime/config"
	idspkg "github.com/drblury/tagflow/internal/runtime/ids"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/tagflow/internal/runtime/metadata"
)

// MiddlewareBuilder constructs a handler middleware using the provided listener.
type MiddlewareBuilder func(*Listener) (message.HandlerMiddleware, error)

// MiddlewareRegistration captures how a middleware should be registered on a
// listener's router.
type MiddlewareRegistration struct {
	Name       string
	Middleware message.HandlerMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the standard middleware chain used by
// TryNewListener, outermost first.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		FaultPolicyMiddleware(),
		CorrelationIDMiddleware(),
		LogMessagesMiddleware(nil),
		TracerMiddleware(),
		MetricsMiddleware(),
	}
}

// MetricsMiddleware adds the Watermill router metrics and serves the default
// Prometheus registry on MetricsPort.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(l *Listener) (message.HandlerMiddleware, error) {
			if !l.Conf.MetricsEnabled {
				return nil, nil
			}

			metricsBuilder := metrics.NewPrometheusMetricsBuilder(
				prometheus.DefaultRegisterer,
				"tagflow",
				l.Conf.PubSubSystem,
			)
			metricsBuilder.AddPrometheusRouterMetrics(l.router)

			if l.Conf.MetricsPort > 0 {
				l.RegisterHTTPHandler(l.Conf.MetricsPort, "/metrics", promhttp.Handler())
			}

			return metricsBuilder.NewRouterMiddleware().Middleware, nil
		},
	}
}

// CorrelationIDMiddleware ensures each processed message carries a correlation identifier.
func CorrelationIDMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "correlation_id",
		Builder: func(l *Listener) (message.HandlerMiddleware, error) {
			return correlationIDMiddleware(), nil
		},
	}
}

// LogMessagesMiddleware logs the payload and metadata of handled messages.
func LogMessagesMiddleware(logger loggingpkg.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_messages",
		Builder: func(l *Listener) (message.HandlerMiddleware, error) {
			lg := logger
			if lg == nil {
				lg = l.Logger
			}
			if lg == nil {
				return nil, errors.New("log messages middleware requires a logger")
			}
			return logMessagesMiddleware(lg), nil
		},
	}
}

// TracerMiddleware wraps message handling in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Builder: func(l *Listener) (message.HandlerMiddleware, error) {
			return tracerMiddleware(), nil
		},
	}
}

// RetryMiddlewareConfig customises the retries applied under FaultPropagate.
type RetryMiddlewareConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (cfg RetryMiddlewareConfig) withDefaults() RetryMiddlewareConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 16 * time.Second
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	return cfg
}

// FaultPolicyMiddleware applies the listener's fault policy. Under
// FaultLog, panics are recovered and handler faults are logged and the
// message acknowledged. Under FaultPropagate a failing handler is retried
// with backoff, then the message goes to PoisonTopic or is logged and
// dropped.
func FaultPolicyMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "fault_policy",
		Builder: func(l *Listener) (message.HandlerMiddleware, error) {
			if l.Conf.FaultPolicy == configpkg.FaultLog {
				absorb := absorbFaultsMiddleware(l.Logger)
				return func(h message.HandlerFunc) message.HandlerFunc {
					return absorb(middleware.Recoverer(h))
				}, nil
			}
			return l.retryFaultsMiddleware()
		},
	}
}

func (l *Listener) retryFaultsMiddleware() (message.HandlerMiddleware, error) {
	cfg := RetryMiddlewareConfig{
		MaxRetries:      l.Conf.RetryMaxRetries,
		InitialInterval: l.Conf.RetryInitialInterval,
		MaxInterval:     l.Conf.RetryMaxInterval,
	}.withDefaults()

	retry := middleware.Retry{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      2,
	}
	if l.Logger != nil {
		retry.Logger = loggingpkg.NewWatermillAdapter(l.Logger)
	}

	var terminal message.HandlerMiddleware
	if l.Conf.PoisonTopic != "" {
		if l.transport.Publisher == nil {
			return nil, errors.New("publisher is required for poison queue middleware")
		}
		mw, err := middleware.PoisonQueue(l.transport.Publisher, l.Conf.PoisonTopic)
		if err != nil {
			return nil, err
		}
		terminal = mw
	} else {
		if l.Logger == nil {
			return nil, errors.New("fault policy middleware requires a logger")
		}
		terminal = absorbFaultsMiddleware(l.Logger)
	}

	return func(h message.HandlerFunc) message.HandlerFunc {
		return terminal(retry.Middleware(h))
	}, nil
}

// RegisterMiddleware attaches the supplied middleware to the router.
func (l *Listener) RegisterMiddleware(cfg MiddlewareRegistration) error {
	if l.router == nil {
		return errors.New("router is not initialised")
	}

	var mw message.HandlerMiddleware
	switch {
	case cfg.Middleware != nil:
		mw = cfg.Middleware
	case cfg.Builder != nil:
		var err error
		mw, err = cfg.Builder(l)
		if err != nil {
			return err
		}
	default:
		return errors.New("middleware registration requires Middleware or Builder")
	}

	if mw == nil {
		return nil
	}

	l.router.AddMiddleware(mw)
	return nil
}

func (l *Listener) registerConfiguredMiddlewares(deps ListenerDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := l.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("register middleware %s: %w", name, err)
		}
	}
	return nil
}

// correlationIDMiddleware injects a correlation ID into the message metadata when missing.
func correlationIDMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			if msg.Metadata.Get(metadatapkg.KeyCorrelationID) == "" {
				msg.Metadata.Set(metadatapkg.KeyCorrelationID, idspkg.NewMessageID())
			}
			return h(msg)
		}
	}
}

// logMessagesMiddleware logs all processed messages with their metadata.
func logMessagesMiddleware(logger loggingpkg.ServiceLogger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			logger.Debug("Processing message", loggingpkg.LogFields{
				"message_uuid": msg.UUID,
				"payload":      string(msg.Payload),
				"metadata":     msg.Metadata,
			})
			return h(msg)
		}
	}
}

// tracerMiddleware wraps message handling with an OpenTelemetry span.
func tracerMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			tracer := otel.Tracer("github.com/drblury/tagflow")
			ctx, span := tracer.Start(msg.Context(), "tagflow.Receive")
			defer span.End()
			msg.SetContext(ctx)

			span.SetAttributes(
				attribute.String("message.uuid", msg.UUID),
				attribute.String("message.correlation_id", msg.Metadata.Get(metadatapkg.KeyCorrelationID)),
				attribute.String("message.source", msg.Metadata.Get(metadatapkg.KeySource)),
			)
			return h(msg)
		}
	}
}

// absorbFaultsMiddleware logs handler errors, recovered panics included, and
// acknowledges the message.
func absorbFaultsMiddleware(logger loggingpkg.ServiceLogger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			if err == nil {
				return produced, nil
			}
			fields := loggingpkg.LogFields{
				"message_uuid":   msg.UUID,
				"correlation_id": msg.Metadata.Get(metadatapkg.KeyCorrelationID),
			}
			var recovered middleware.RecoveredPanicError
			if errors.As(err, &recovered) {
				fields["panic"] = fmt.Sprint(recovered.V)
				fields["stacktrace"] = recovered.Stacktrace
			}
			logger.Error("Handler fault absorbed", err, fields)
			return nil, nil
		}
	}
}
