package tagflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayAgent struct{}

func (relayAgent) Registrations() []Registration {
	send := On("relay", "send")
	return []Registration{
		send.Handle("send", func(_ context.Context, call *Call) ([]Outgoing, error) {
			return Reply(NewMessage().Set("dst", "mailer").Set("to", call.Args.String("to"))), nil
		}, Arg("to"), ArgDefault("subject", "(none)")),
	}
}

func TestScanExport(t *testing.T) {
	registry, err := Scan(relayAgent{})
	require.NoError(t, err)
	require.Equal(t, 1, registry.Len())

	d, ok := registry.Lookup("send")
	require.True(t, ok)
	assert.Equal(t, NewTags("send", "relay"), d.Tags())

	_, err = Scan(nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}

func TestDispatcherExport(t *testing.T) {
	registry, err := Scan(relayAgent{})
	require.NoError(t, err)

	var sent []string
	sender := SenderFunc(func(_ context.Context, payload, _ string) error {
		sent = append(sent, payload)
		return nil
	})
	d, err := NewDispatcher("relay", registry, sender, nopLogger{})
	require.NoError(t, err)

	view, err := ParseMessage([]byte("tag=relay&tag=send&to=alice"))
	require.NoError(t, err)

	res, err := d.Dispatch(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRouted, res.Outcome)
	assert.Equal(t, []string{"dst=mailer&to=alice"}, sent)
}

func TestMatchesExport(t *testing.T) {
	assert.True(t, Matches(NewTags("a", "b"), NewTags("a")))
	assert.False(t, Matches(NewTags("a"), NewTags("a", "b")))
	assert.True(t, Matches(nil, nil))
	assert.False(t, Matches(NewTags("a"), nil))
}

func TestDecodeExport(t *testing.T) {
	view, err := Decode(ContentTypeJSON, []byte(`{"tag":["x"],"name":"n"}`))
	require.NoError(t, err)
	name, ok := view.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "n", name)

	_, err = Decode("", nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	data, err := Marshal(payload)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, payload, out)
}

func TestHandlerFaultExport(t *testing.T) {
	err := error(&HandlerFaultError{Handler: "h", Err: errors.New("x")})
	var fault *HandlerFaultError
	assert.ErrorAs(t, err, &fault)
}

func TestCapabilitiesExport(t *testing.T) {
	caps := GetCapabilities(&Config{PubSubSystem: "channel"})
	assert.True(t, caps.SupportsReliableDelivery())
	assert.True(t, DefaultTransportRegistry.Has("kafka"))
}

type nopLogger struct{}

func (n nopLogger) With(LogFields) ServiceLogger { return n }
func (nopLogger) Debug(string, LogFields)        {}
func (nopLogger) Info(string, LogFields)         {}
func (nopLogger) Error(string, error, LogFields) {}
func (nopLogger) Trace(string, LogFields)        {}
