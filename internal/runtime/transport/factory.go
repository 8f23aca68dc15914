// Package transport builds the publisher/subscriber pair of a listener from
// its configuration.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/drblury/tagflow/internal/runtime/config"
	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/transport"

	// Register the built-in transports.
	_ "github.com/drblury/tagflow/transport/transports"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport = transport.Transport

// Factory abstracts how listeners obtain their transport.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)

// Build implements Factory.
func (f FactoryFunc) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	return f(ctx, conf, logger)
}

// DefaultFactory returns the factory backed by the transport registry.
func DefaultFactory() Factory {
	return registryFactory{registry: transport.DefaultRegistry}
}

// RegistryFactory returns a factory backed by a custom registry.
func RegistryFactory(registry *transport.Registry) Factory {
	return registryFactory{registry: registry}
}

type registryFactory struct {
	registry *transport.Registry
}

func (f registryFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, errspkg.ErrConfigRequired
	}
	return f.registry.Build(ctx, conf, logger)
}

// Capabilities returns the capabilities of the transport selected by conf.
func Capabilities(conf *config.Config) transport.Capabilities {
	if conf == nil {
		return transport.Capabilities{}
	}
	return transport.GetCapabilities(conf.PubSubSystem)
}
