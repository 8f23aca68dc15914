package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	configpkg "github.com/drblury/tagflow/internal/runtime/config"
	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/tagflow/internal/runtime/metadata"
	transportpkg "github.com/drblury/tagflow/internal/runtime/transport"
	"github.com/drblury/tagflow/internal/runtime/wire"
	"github.com/drblury/tagflow/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// ListenerDependencies holds the optional collaborators of a Listener.
// Leave fields nil to use the defaults.
type ListenerDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory
	// Hooks are merged after the logging hooks.
	Hooks DispatchHooks
	// Directory receives the announcement of a DynamicAddress listener.
	// Defaults to publishing on DirectoryTopic.
	Directory Directory
}

// Listener subscribes to its name (and optional shared topic) on the bus and
// dispatches every message to the handlers of its registry, one message at a
// time.
type Listener struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	transport  transport.Transport
	router     *message.Router
	dispatcher *Dispatcher
	sender     *BusSender
	directory  Directory
	registry   *handlers.Registry
	stats      *ListenerStats

	// dispatchMu serialises dispatch.
	dispatchMu sync.Mutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
	runningHTTP   []*http.Server

	closeOnce sync.Once
}

// NewListener is TryNewListener that panics on error.
func NewListener(ctx context.Context, conf *configpkg.Config, log loggingpkg.ServiceLogger, registry *handlers.Registry, deps ListenerDependencies) *Listener {
	l, err := TryNewListener(ctx, conf, log, registry, deps)
	if err != nil {
		panic(err)
	}
	return l
}

// TryNewListener validates conf, builds the transport and the router, and
// subscribes the listener. Call Start to begin consuming.
func TryNewListener(ctx context.Context, conf *configpkg.Config, log loggingpkg.ServiceLogger, registry *handlers.Registry, deps ListenerDependencies) (*Listener, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if registry == nil {
		return nil, errspkg.ErrRegistryRequired
	}

	resolved := conf.WithDefaults()
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	conf = &resolved

	log = log.With(loggingpkg.LogFields{"listener": conf.Name})
	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating listener", loggingpkg.LogFields{
		"pubsub_system": conf.PubSubSystem,
		"handlers":      registry.Len(),
		"config":        conf,
	})

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	tr, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		Conf:      conf,
		Logger:    log,
		transport: tr,
		registry:  registry,
		stats:     newListenerStats(conf.Name, registry),
	}

	if err := l.init(deps, wmLogger); err != nil {
		if l.router != nil {
			_ = l.router.Close()
		}
		_ = tr.Close()
		return nil, err
	}
	return l, nil
}

func (l *Listener) init(deps ListenerDependencies, wmLogger watermill.LoggerAdapter) error {
	sender, err := NewBusSender(l.transport.Publisher, l.Conf.BusTopic, l.Conf.Name, l.Conf.ContentType, l.Logger)
	if err != nil {
		return err
	}
	l.sender = sender

	l.directory = deps.Directory
	if l.directory == nil {
		dirSender, err := NewBusSender(l.transport.Publisher, l.Conf.DirectoryTopic, l.Conf.Name, wire.ContentTypeText, l.Logger)
		if err != nil {
			return err
		}
		l.directory = NewBusDirectory(dirSender)
	}

	hooks := LoggingHooks(l.Logger).Merge(l.stats.Hooks())
	if l.Conf.MetricsEnabled {
		m, err := NewDispatchMetrics(nil)
		if err != nil {
			return fmt.Errorf("dispatch metrics: %w", err)
		}
		hooks = hooks.Merge(m.Hooks())
	}
	hooks = hooks.Merge(deps.Hooks)

	opts := []DispatcherOption{WithHooks(hooks), WithHandlerTimeout(l.Conf.HandlerTimeout)}
	if l.Conf.ForwardLogs {
		opts = append(opts, WithForwarder(sender))
	}
	l.dispatcher, err = NewDispatcher(l.Conf.Name, l.registry, sender, l.Logger, opts...)
	if err != nil {
		return err
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return err
	}
	l.router = router
	l.router.AddPlugin(plugin.SignalsHandler)

	if err := l.registerConfiguredMiddlewares(deps); err != nil {
		return err
	}
	if l.Conf.MetricsEnabled && l.Conf.MetricsPort > 0 {
		l.RegisterHTTPHandler(l.Conf.MetricsPort, "/handlers", http.HandlerFunc(l.handleGetHandlers))
	}

	for _, topic := range l.Topics() {
		l.router.AddNoPublisherHandler(
			l.Conf.Name+"_"+topic,
			topic,
			l.transport.Subscriber,
			func(msg *message.Message) error {
				msg.Metadata.Set(metadatapkg.KeyReceivedOn, topic)
				return l.handle(msg)
			},
		)
	}
	return nil
}

// Topics returns the topics the listener consumes: its name, then the
// shared topic when set.
func (l *Listener) Topics() []string {
	topics := []string{l.Conf.Name}
	if l.Conf.Topic != "" && l.Conf.Topic != l.Conf.Name {
		topics = append(topics, l.Conf.Topic)
	}
	return topics
}

// Name returns the listener name.
func (l *Listener) Name() string {
	return l.Conf.Name
}

// Registry returns the handlers of the listener.
func (l *Listener) Registry() *handlers.Registry {
	return l.registry
}

// Sender returns the sender publishing on the bus topic as this listener.
func (l *Listener) Sender() Sender {
	return l.sender
}

// Stats returns a snapshot of the dispatch statistics.
func (l *Listener) Stats() StatsSnapshot {
	return l.stats.Snapshot()
}

func (l *Listener) handle(msg *message.Message) error {
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	md := metadatapkg.FromWatermill(msg.Metadata)
	view, err := wire.Decode(md.ContentType(), msg.Payload)
	if err != nil {
		l.Logger.Error("Dropping undecodable message", err, loggingpkg.LogFields{
			"message_uuid": msg.UUID,
			"content_type": md.ContentType(),
			"topic":        md[metadatapkg.KeyReceivedOn],
		})
		return nil
	}

	ctx := WithCorrelationID(msg.Context(), md.CorrelationID())
	_, err = l.dispatcher.Dispatch(ctx, view)
	return err
}

// Start announces the listener when it has a dynamic address, then runs the
// router until ctx is cancelled or Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	if l.Conf.DynamicAddress {
		a := Announcement{Name: l.Conf.Name, Host: l.Conf.Host, Port: l.Conf.Port, Topic: l.Conf.Topic}
		if err := l.directory.Announce(ctx, a); err != nil {
			return fmt.Errorf("announce %s: %w", l.Conf.Name, err)
		}
		l.Logger.Info("Announced listener", loggingpkg.LogFields{"host": a.Host, "port": a.Port})
	}

	l.startHTTPServers()
	if starter, ok := l.transport.Subscriber.(transport.Starter); ok {
		go l.startSubscriber(ctx, starter)
	}
	return routerRun(l.router, ctx)
}

// startSubscriber starts push-based subscribers once the router has
// subscribed every handler.
func (l *Listener) startSubscriber(ctx context.Context, starter transport.Starter) {
	select {
	case <-l.router.Running():
	case <-ctx.Done():
		return
	}
	if err := starter.StartHTTPServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Logger.Error("Failed to start subscriber server", err, nil)
	}
}

// Running is closed once the router is consuming.
func (l *Listener) Running() chan struct{} {
	return l.router.Running()
}

// Stop closes the router, the HTTP servers and the transport.
func (l *Listener) Stop() error {
	var errs []error
	l.closeOnce.Do(func() {
		if err := l.router.Close(); err != nil {
			errs = append(errs, err)
		}
		l.stopHTTPServers()
		if err := l.transport.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// RegisterHTTPHandler serves handler on port once the listener starts.
func (l *Listener) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	l.httpServersMu.Lock()
	defer l.httpServersMu.Unlock()

	if l.httpServers == nil {
		l.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := l.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		l.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (l *Listener) startHTTPServers() {
	l.httpServersMu.Lock()
	defer l.httpServersMu.Unlock()

	for port, mux := range l.httpServers {
		srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
		l.runningHTTP = append(l.runningHTTP, srv)
		l.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": srv.Addr})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": srv.Addr})
			}
		}()
	}
}

func (l *Listener) stopHTTPServers() {
	l.httpServersMu.Lock()
	defer l.httpServersMu.Unlock()

	for _, srv := range l.runningHTTP {
		_ = srv.Close()
	}
	l.runningHTTP = nil
}
