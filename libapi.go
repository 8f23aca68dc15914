package tagflow

import (
	runtimepkg "github.com/drblury/tagflow/internal/runtime"
	configpkg "github.com/drblury/tagflow/internal/runtime/config"
	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	handlerpkg "github.com/drblury/tagflow/internal/runtime/handlers"
	idspkg "github.com/drblury/tagflow/internal/runtime/ids"
	"github.com/drblury/tagflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/tagflow/internal/runtime/metadata"
	tagspkg "github.com/drblury/tagflow/internal/runtime/tags"
	transportpkg "github.com/drblury/tagflow/internal/runtime/transport"
	"github.com/drblury/tagflow/internal/runtime/wire"
	newtransport "github.com/drblury/tagflow/transport"
)

type (
	Config               = configpkg.Config
	Listener             = runtimepkg.Listener
	ListenerDependencies = runtimepkg.ListenerDependencies
	Transport            = transportpkg.Transport
	TransportFactory     = transportpkg.Factory
	TransportFactoryFunc = transportpkg.FactoryFunc

	// Handlers and registration
	Route        = handlerpkg.Route
	Registration = handlerpkg.Registration
	Param        = handlerpkg.Param
	Provider     = handlerpkg.Provider
	ProviderFunc = handlerpkg.ProviderFunc
	Registry     = handlerpkg.Registry
	Descriptor   = handlerpkg.Descriptor
	HandlerFunc  = handlerpkg.HandlerFunc
	Call         = handlerpkg.Call
	Args         = handlerpkg.Args
	Outgoing     = handlerpkg.Outgoing

	// Dispatch
	Dispatcher       = runtimepkg.Dispatcher
	DispatcherOption = runtimepkg.DispatcherOption
	Outcome          = runtimepkg.Outcome
	Result           = runtimepkg.Result
	Sender           = runtimepkg.Sender
	SenderFunc       = runtimepkg.SenderFunc
	BusSender        = runtimepkg.BusSender

	// Directory announcements
	Announcement  = runtimepkg.Announcement
	Directory     = runtimepkg.Directory
	DirectoryFunc = runtimepkg.DirectoryFunc

	// Dispatch hooks, stats and metrics
	DispatchEvent   = runtimepkg.DispatchEvent
	DispatchHooks   = runtimepkg.DispatchHooks
	DispatchMetrics = runtimepkg.DispatchMetrics
	HandlerStats    = runtimepkg.HandlerStats
	StatsSnapshot   = runtimepkg.StatsSnapshot

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	// Wire formats
	View        = wire.View
	Message     = wire.Message
	JSONMessage = wire.JSONMessage
	Text        = wire.Text
	Tags        = tagspkg.Set

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger
	MessageLogger = loggingpkg.MessageLogger
	Forwarder     = loggingpkg.Forwarder

	HandlerFaultError = errspkg.HandlerFaultError

	// Transport capabilities
	Capabilities = newtransport.Capabilities

	// Modular transport types
	TransportBuilder  = newtransport.Builder
	TransportConfig   = newtransport.Config
	TransportRegistry = newtransport.Registry
)

var (
	NewListener    = runtimepkg.NewListener
	TryNewListener = runtimepkg.TryNewListener
	NewAgent       = runtimepkg.NewAgent
	ConfigFromEnv  = configpkg.FromEnv
	ValidateConfig = configpkg.ValidateConfig

	On         = handlerpkg.On
	Arg        = handlerpkg.Arg
	ArgDefault = handlerpkg.ArgDefault
	Scan       = handlerpkg.Scan
	Build      = handlerpkg.Build
	Bind       = handlerpkg.Bind
	Reply      = handlerpkg.Reply
	NoValue    = handlerpkg.NoValue

	NewDispatcher      = runtimepkg.NewDispatcher
	WithHooks          = runtimepkg.WithHooks
	WithForwarder      = runtimepkg.WithForwarder
	WithHandlerTimeout = runtimepkg.WithHandlerTimeout
	WithTracer         = runtimepkg.WithTracer
	NewBusSender       = runtimepkg.NewBusSender
	NewBusDirectory    = runtimepkg.NewBusDirectory
	WithCorrelationID  = runtimepkg.WithCorrelationID
	CorrelationID      = runtimepkg.CorrelationID

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	FaultPolicyMiddleware   = runtimepkg.FaultPolicyMiddleware
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware

	LoggingHooks       = runtimepkg.LoggingHooks
	AlertingHooks      = runtimepkg.AlertingHooks
	NewDispatchMetrics = runtimepkg.NewDispatchMetrics

	NewMessage   = wire.NewMessage
	ParseMessage = wire.Parse
	ParseJSON    = wire.ParseJSON
	ParseProto   = wire.ParseProto
	EncodeProto  = wire.EncodeProto
	Decode       = wire.Decode
	NewTags      = tagspkg.New
	Matches      = tagspkg.Matches

	// Transport capabilities
	GetCapabilities = transportpkg.Capabilities

	// Modular transport registry. Import individual transports via
	// _ "github.com/drblury/tagflow/transport/kafka"; the listener imports
	// all of them.
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal

	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrHandlerNameNeeded = errspkg.ErrHandlerNameNeeded
	ErrDuplicateHandler  = errspkg.ErrDuplicateHandler
	ErrDuplicateParam    = errspkg.ErrDuplicateParam
	ErrRegistryRequired  = errspkg.ErrRegistryRequired
	ErrProviderRequired  = errspkg.ErrProviderRequired
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrEmptyPayload      = errspkg.ErrEmptyPayload
	ErrMalformedTags     = errspkg.ErrMalformedTags

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger

	NewMessageID = idspkg.NewMessageID
)

// Outcomes of a dispatch.
const (
	OutcomeRouted    = runtimepkg.OutcomeRouted
	OutcomeNoMatch   = runtimepkg.OutcomeNoMatch
	OutcomeAmbiguous = runtimepkg.OutcomeAmbiguous
)

// Reserved parameter names.
const (
	ParamMessage = handlerpkg.ParamMessage
	ParamLogger  = handlerpkg.ParamLogger
)

// Fault policies.
const (
	FaultPropagate = configpkg.FaultPropagate
	FaultLog       = configpkg.FaultLog
)

// Content types of the wire formats.
const (
	ContentTypeText  = wire.ContentTypeText
	ContentTypeJSON  = wire.ContentTypeJSON
	ContentTypeProto = wire.ContentTypeProto
)

// Metadata keys - use these constants for standard metadata fields.
const (
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyContentType   = metadatapkg.KeyContentType
	MetadataKeySource        = metadatapkg.KeySource
	MetadataKeyReceivedOn    = metadatapkg.KeyReceivedOn
)
