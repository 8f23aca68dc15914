// Package channel provides the in-process bus. Every channel listener in a
// process attaches to the same Go channel pub/sub, so agents started side by
// side can talk to each other without a broker.
package channel

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/tagflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Factory creates the shared bus. Tests may override it.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

var (
	busMu  sync.Mutex
	busPub message.Publisher
	busSub message.Subscriber
)

func init() {
	Register()
}

// Register adds the transport, and its "gochannel" alias, to the default
// registry.
func Register() {
	transport.Register(TransportName, Build, transport.ChannelCapabilities)
	transport.DefaultRegistry.Alias("gochannel", TransportName)
}

// Build attaches to the in-process bus, creating it on first use. Closing the
// returned transport leaves the bus open for other listeners; use Reset to
// tear it down.
func Build(_ context.Context, _ transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	busMu.Lock()
	defer busMu.Unlock()

	if busPub == nil {
		busPub, busSub = Factory(gochannel.Config{}, logger)
	}
	return transport.Transport{
		Publisher:  detachedPublisher{busPub},
		Subscriber: detachedSubscriber{busSub},
	}, nil
}

// Reset closes the in-process bus. The next Build starts a fresh one.
func Reset() error {
	busMu.Lock()
	defer busMu.Unlock()

	if busPub == nil {
		return nil
	}
	err := transport.Transport{Publisher: busPub, Subscriber: busSub}.Close()
	busPub, busSub = nil, nil
	return err
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}

type detachedPublisher struct{ message.Publisher }

func (detachedPublisher) Close() error { return nil }

type detachedSubscriber struct{ message.Subscriber }

func (detachedSubscriber) Close() error { return nil }
