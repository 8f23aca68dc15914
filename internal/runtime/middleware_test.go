package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/tagflow/internal/runtime/config"
	"github.com/drblury/tagflow/internal/runtime/logging/loggingtest"
	metadatapkg "github.com/drblury/tagflow/internal/runtime/metadata"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	mw := correlationIDMiddleware()

	t.Run("adds missing id", func(t *testing.T) {
		msg := message.NewMessage("1", nil)
		var seen string
		_, err := mw(func(m *message.Message) ([]*message.Message, error) {
			seen = m.Metadata.Get(metadatapkg.KeyCorrelationID)
			return nil, nil
		})(msg)
		require.NoError(t, err)
		assert.NotEmpty(t, seen)
	})

	t.Run("keeps existing id", func(t *testing.T) {
		msg := message.NewMessage("1", nil)
		msg.Metadata.Set(metadatapkg.KeyCorrelationID, "fixed")
		var seen string
		_, err := mw(func(m *message.Message) ([]*message.Message, error) {
			seen = m.Metadata.Get(metadatapkg.KeyCorrelationID)
			return nil, nil
		})(msg)
		require.NoError(t, err)
		assert.Equal(t, "fixed", seen)
	})
}

func TestLogMessagesMiddleware(t *testing.T) {
	logger := &loggingtest.Logger{}
	mw := logMessagesMiddleware(logger)

	msg := message.NewMessage("uuid-1", []byte("tag=ping"))
	_, err := mw(func(*message.Message) ([]*message.Message, error) { return nil, nil })(msg)
	require.NoError(t, err)

	entries := logger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Processing message", entries[0].Msg)
	assert.Equal(t, "uuid-1", entries[0].Fields["message_uuid"])
	assert.Equal(t, "tag=ping", entries[0].Fields["payload"])
}

func TestTracerMiddlewareReplacesContext(t *testing.T) {
	mw := tracerMiddleware()
	msg := message.NewMessage("1", nil)
	before := msg.Context()

	_, err := mw(func(m *message.Message) ([]*message.Message, error) {
		assert.NotEqual(t, before, m.Context())
		return nil, nil
	})(msg)
	require.NoError(t, err)
}

func TestAbsorbFaultsMiddleware(t *testing.T) {
	logger := &loggingtest.Logger{}
	absorb := absorbFaultsMiddleware(logger)

	t.Run("errors are logged and acked", func(t *testing.T) {
		_, err := absorb(func(*message.Message) ([]*message.Message, error) {
			return nil, errors.New("boom")
		})(message.NewMessage("1", nil))
		assert.NoError(t, err)
	})

	t.Run("recovered panics carry the panic value", func(t *testing.T) {
		l := &Listener{Conf: &configpkg.Config{FaultPolicy: configpkg.FaultLog}, Logger: logger}
		mw, err := FaultPolicyMiddleware().Builder(l)
		require.NoError(t, err)
		require.NotNil(t, mw)

		_, err = mw(func(*message.Message) ([]*message.Message, error) {
			panic("kaboom")
		})(message.NewMessage("2", nil))
		assert.NoError(t, err)
	})

	t.Run("success passes through", func(t *testing.T) {
		out := []*message.Message{message.NewMessage("3", nil)}
		got, err := absorb(func(*message.Message) ([]*message.Message, error) {
			return out, nil
		})(message.NewMessage("4", nil))
		require.NoError(t, err)
		assert.Equal(t, out, got)
	})

	entries := logger.Entries()
	require.Len(t, entries, 2)
	assert.EqualError(t, entries[0].Err, "boom")
	assert.Equal(t, "kaboom", entries[1].Fields["panic"])
}

func TestFaultPolicyMiddlewarePropagateRetriesThenAcks(t *testing.T) {
	logger := &loggingtest.Logger{}
	l := &Listener{Conf: &configpkg.Config{
		FaultPolicy:          configpkg.FaultPropagate,
		RetryMaxRetries:      2,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     2 * time.Millisecond,
	}, Logger: logger}
	mw, err := FaultPolicyMiddleware().Builder(l)
	require.NoError(t, err)
	require.NotNil(t, mw)

	calls := 0
	_, err = mw(func(*message.Message) ([]*message.Message, error) {
		calls++
		return nil, errors.New("nope")
	})(message.NewMessage("1", nil))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, hasEntry(logger.Entries(), "error", "Handler fault absorbed"))

	calls = 0
	_, err = mw(func(*message.Message) ([]*message.Message, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("flaky")
		}
		return nil, nil
	})(message.NewMessage("2", nil))
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFaultPolicyMiddlewarePoisonTopicNeedsPublisher(t *testing.T) {
	l := &Listener{Conf: &configpkg.Config{FaultPolicy: configpkg.FaultPropagate, PoisonTopic: "poison"}, Logger: nopLogger{}}
	_, err := FaultPolicyMiddleware().Builder(l)
	assert.ErrorContains(t, err, "publisher is required")
}

func TestRetryMiddlewareConfigDefaults(t *testing.T) {
	cfg := RetryMiddlewareConfig{}.withDefaults()
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialInterval)
	assert.Equal(t, 16*time.Second, cfg.MaxInterval)

	cfg = RetryMiddlewareConfig{MaxRetries: 1, InitialInterval: time.Minute}.withDefaults()
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.MaxInterval)
}

func TestMetricsMiddlewareDisabled(t *testing.T) {
	l := &Listener{Conf: &configpkg.Config{}}
	mw, err := MetricsMiddleware().Builder(l)
	require.NoError(t, err)
	assert.Nil(t, mw)
}

func TestRegisterMiddlewareErrors(t *testing.T) {
	l := &Listener{Conf: &configpkg.Config{}}
	assert.Error(t, l.RegisterMiddleware(CorrelationIDMiddleware()))

	l, _ = newDetachedListener(t, &configpkg.Config{Name: "echo"}, echoRegistry(t), ListenerDependencies{DisableDefaultMiddlewares: true})
	assert.Error(t, l.RegisterMiddleware(MiddlewareRegistration{Name: "empty"}))

	builderErr := errors.New("bad builder")
	err := l.RegisterMiddleware(MiddlewareRegistration{
		Builder: func(*Listener) (message.HandlerMiddleware, error) { return nil, builderErr },
	})
	assert.ErrorIs(t, err, builderErr)

	assert.NoError(t, l.RegisterMiddleware(LogMessagesMiddleware(nil)))
}

func TestLogMessagesMiddlewareRequiresLogger(t *testing.T) {
	_, err := LogMessagesMiddleware(nil).Builder(&Listener{Conf: &configpkg.Config{}})
	assert.Error(t, err)
}
