package http

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	watermillhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/tagflow/transport"
	"github.com/drblury/tagflow/transport/transporttest"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()

	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "http", caps.Name)
	assert.False(t, caps.SupportsReliableDelivery())
}

func stubFactories(t *testing.T) (*watermillhttp.PublisherConfig, *string, *transporttest.Publisher) {
	t.Helper()
	originalPub, originalSub := PublisherFactory, SubscriberFactory
	t.Cleanup(func() {
		PublisherFactory = originalPub
		SubscriberFactory = originalSub
	})

	var pubCfg watermillhttp.PublisherConfig
	var addr string
	pub := &transporttest.Publisher{}
	PublisherFactory = func(cfg watermillhttp.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		pubCfg = cfg
		return pub, nil
	}
	SubscriberFactory = func(a string, _ watermillhttp.SubscriberConfig, _ watermill.LoggerAdapter) (message.Subscriber, error) {
		addr = a
		return &transporttest.Subscriber{}, nil
	}
	return &pubCfg, &addr, pub
}

func TestBuildPostsToTopicURL(t *testing.T) {
	pubCfg, addr, _ := stubFactories(t)

	_, err := Build(context.Background(), &transporttest.Config{
		HTTPServerAddress: ":8080",
		HTTPPublisherURL:  "http://bus.local:8080/",
	}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, ":8080", *addr)

	req, err := pubCfg.MarshalMessageFunc("weather", message.NewMessage("1", []byte("tag=today")))
	require.NoError(t, err)
	assert.Equal(t, "http://bus.local:8080/weather", req.URL.String())
}

func TestTopicURL(t *testing.T) {
	assert.Equal(t, "http://h/t", TopicURL("http://h", "t"))
	assert.Equal(t, "http://h/t", TopicURL("http://h/", "/t"))
}

func TestBuildErrors(t *testing.T) {
	t.Run("publisher", func(t *testing.T) {
		stubFactories(t)
		PublisherFactory = func(watermillhttp.PublisherConfig, watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}
		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "publisher error")
	})

	t.Run("subscriber", func(t *testing.T) {
		_, _, pub := stubFactories(t)
		SubscriberFactory = func(string, watermillhttp.SubscriberConfig, watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}
		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "subscriber error")
		assert.True(t, pub.Closed())
	})
}
