package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drblury/tagflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/logging/loggingtest"
	"github.com/drblury/tagflow/internal/runtime/wire"
)

type sentMessage struct {
	payload     string
	contentType string
	correlation string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, payload, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{payload: payload, contentType: contentType, correlation: CorrelationID(ctx)})
	return nil
}

func (s *recordingSender) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.payload
	}
	return out
}

type recordingForwarder struct {
	mu    sync.Mutex
	lines []string
}

func (f *recordingForwarder) Forward(level, source, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, source+"|"+level+"|"+text)
}

func (f *recordingForwarder) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// invocations records which handlers ran, in order.
type invocations struct {
	mu    sync.Mutex
	names []string
}

func (i *invocations) handler(name string, replies ...handlers.Outgoing) handlers.HandlerFunc {
	return func(_ context.Context, call *handlers.Call) ([]handlers.Outgoing, error) {
		i.mu.Lock()
		i.names = append(i.names, call.Handler)
		i.mu.Unlock()
		return replies, nil
	}
}

func (i *invocations) Names() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.names...)
}

func mustRegistry(t *testing.T, regs ...handlers.Registration) *handlers.Registry {
	t.Helper()
	r, err := handlers.Build(regs...)
	require.NoError(t, err)
	return r
}

func textView(t *testing.T, payload string) wire.View {
	t.Helper()
	v, err := wire.Parse([]byte(payload))
	require.NoError(t, err)
	return v
}

func newTestDispatcher(t *testing.T, registry *handlers.Registry, sender Sender, opts ...DispatcherOption) (*Dispatcher, *loggingtest.Logger) {
	t.Helper()
	logger := &loggingtest.Logger{}
	d, err := NewDispatcher("agent", registry, sender, logger, opts...)
	require.NoError(t, err)
	return d, logger
}

func hasEntry(entries []loggingtest.Entry, level, msg string) bool {
	for _, e := range entries {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

type nopLogger struct{}

func (n nopLogger) With(loggingpkg.LogFields) loggingpkg.ServiceLogger { return n }
func (nopLogger) Debug(string, loggingpkg.LogFields)                   {}
func (nopLogger) Info(string, loggingpkg.LogFields)                    {}
func (nopLogger) Error(string, error, loggingpkg.LogFields)            {}
func (nopLogger) Trace(string, loggingpkg.LogFields)                   {}
