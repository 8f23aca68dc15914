package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
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
	assert.Equal(t, "aws", caps.Name)
	assert.True(t, caps.SupportsReliableDelivery())
	assert.Equal(t, Capabilities(), caps)
}

type captured struct {
	accountID, region string
	pub               sns.PublisherConfig
	sub               sns.SubscriberConfig
	sqs               sqs.SubscriberConfig
	publisher         *transporttest.Publisher
}

func stubFactories(t *testing.T) *captured {
	t.Helper()
	originalLoader, originalResolver := DefaultConfigLoader, TopicResolverFactory
	originalPub, originalSub := PublisherFactory, SubscriberFactory
	t.Cleanup(func() {
		DefaultConfigLoader = originalLoader
		TopicResolverFactory = originalResolver
		PublisherFactory = originalPub
		SubscriberFactory = originalSub
	})

	c := &captured{publisher: &transporttest.Publisher{}}
	DefaultConfigLoader = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "eu-west-1"}, nil
	}
	TopicResolverFactory = func(accountID, region string) (*sns.GenerateArnTopicResolver, error) {
		c.accountID, c.region = accountID, region
		return &sns.GenerateArnTopicResolver{}, nil
	}
	PublisherFactory = func(cfg sns.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		c.pub = cfg
		return c.publisher, nil
	}
	SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, _ watermill.LoggerAdapter) (message.Subscriber, error) {
		c.sub, c.sqs = cfg, sqsCfg
		return &transporttest.Subscriber{}, nil
	}
	return c
}

func TestBuild(t *testing.T) {
	c := stubFactories(t)

	tr, err := Build(context.Background(), &transporttest.Config{
		Name:         "weather",
		AWSRegion:    "us-east-1",
		AWSAccountID: "'123456789012'",
	}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.Same(t, c.publisher, tr.Publisher)

	assert.Equal(t, "123456789012", c.accountID)
	assert.Equal(t, "us-east-1", c.region)
	assert.Equal(t, "us-east-1", c.pub.AWSConfig.Region)
	assert.Empty(t, c.pub.OptFns)
	assert.Empty(t, c.sqs.OptFns)

	queue, err := c.sub.GenerateSqsQueueName(context.Background(), "arn:aws:sns:us-east-1:123456789012:server")
	require.NoError(t, err)
	assert.Equal(t, "server-weather", queue)
}

func TestBuildAgainstLocalStack(t *testing.T) {
	c := stubFactories(t)

	_, err := Build(context.Background(), &transporttest.Config{
		AWSEndpoint:        "http://localhost:4566",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}, watermill.NopLogger{})
	require.NoError(t, err)

	assert.Equal(t, localstackAccountID, c.accountID)
	assert.Equal(t, "eu-west-1", c.region, "region falls back to the loaded config")
	assert.Len(t, c.pub.OptFns, 1)
	assert.Len(t, c.sub.OptFns, 1)
	assert.Len(t, c.sqs.OptFns, 1)
}

func TestBuildErrors(t *testing.T) {
	t.Run("endpoint", func(t *testing.T) {
		stubFactories(t)
		_, err := Build(context.Background(), &transporttest.Config{AWSEndpoint: "://bad"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "parse AWS endpoint")
	})

	t.Run("config loader", func(t *testing.T) {
		stubFactories(t)
		DefaultConfigLoader = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("config error")
		}
		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "config error")
	})

	t.Run("topic resolver", func(t *testing.T) {
		stubFactories(t)
		TopicResolverFactory = func(string, string) (*sns.GenerateArnTopicResolver, error) {
			return nil, errors.New("resolver error")
		}
		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "resolver error")
	})

	t.Run("subscriber", func(t *testing.T) {
		c := stubFactories(t)
		SubscriberFactory = func(sns.SubscriberConfig, sqs.SubscriberConfig, watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}
		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "subscriber error")
		assert.True(t, c.publisher.Closed())
	})
}

func TestResolveAccountID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		endpoint bool
		want     string
	}{
		{"configured", "123456789012", false, "123456789012"},
		{"quoted", `"123456789012"`, false, "123456789012"},
		{"empty without endpoint", "", false, ""},
		{"empty with endpoint", "", true, localstackAccountID},
		{"malformed with endpoint", "42", true, localstackAccountID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAccountID(tt.id, tt.endpoint, watermill.NopLogger{}))
		})
	}
}

func TestQueueNameGeneratorWithoutListener(t *testing.T) {
	queue, err := QueueNameGenerator("")(context.Background(), "arn:aws:sns:us-east-1:123456789012:server")
	require.NoError(t, err)
	assert.Equal(t, "server", queue)
}
