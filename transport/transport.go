// Package transport defines how tagflow listeners obtain a Watermill
// publisher/subscriber pair. Each backend (channel, nats, kafka, rabbitmq,
// http, aws) lives in its own sub-package and registers itself with the
// default registry when imported.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes the subscriber, then the publisher. When both share one
// instance (the channel transport) it is closed once.
func (t Transport) Close() error {
	var subErr, pubErr error
	if t.Subscriber != nil {
		subErr = t.Subscriber.Close()
	}
	if t.Publisher != nil && !sameInstance(t.Publisher, t.Subscriber) {
		pubErr = t.Publisher.Close()
	}
	if subErr != nil {
		return subErr
	}
	return pubErr
}

func sameInstance(pub message.Publisher, sub message.Subscriber) bool {
	if sub == nil {
		return false
	}
	s, ok := sub.(message.Publisher)
	return ok && s == pub
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the values transports read. Backends only look at the keys
// relevant to them.
type Config interface {
	// GetPubSubSystem returns the transport name.
	GetPubSubSystem() string
	// GetName returns the listener name. Backends use it to name their
	// client, consumer group or queue.
	GetName() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS
	GetNATSURL() string

	// HTTP
	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}

// Starter is implemented by subscribers that serve deliveries themselves, such
// as the HTTP subscriber. Listeners start them once every topic is subscribed.
type Starter interface {
	StartHTTPServer() error
}
