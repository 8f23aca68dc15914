package runtime

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	idspkg "github.com/drblury/tagflow/internal/runtime/ids"
	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/tagflow/internal/runtime/metadata"
	"github.com/drblury/tagflow/internal/runtime/wire"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the correlation id of the
// message being handled. Replies sent with that context inherit it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// BusSender publishes the messages of one listener on the bus topic. It also
// forwards the listener's log lines when log forwarding is on.
type BusSender struct {
	publisher   message.Publisher
	topic       string
	source      string
	contentType string
	logger      loggingpkg.ServiceLogger
}

// NewBusSender returns a sender publishing on topic as source. contentType
// is used for payloads whose format the caller does not know.
func NewBusSender(publisher message.Publisher, topic, source, contentType string, logger loggingpkg.ServiceLogger) (*BusSender, error) {
	switch {
	case publisher == nil:
		return nil, errspkg.ErrPublisherRequired
	case topic == "":
		return nil, errspkg.ErrTopicRequired
	case logger == nil:
		return nil, errspkg.ErrLoggerRequired
	}
	return &BusSender{
		publisher:   publisher,
		topic:       topic,
		source:      source,
		contentType: contentType,
		logger:      logger,
	}, nil
}

// Send implements Sender.
func (s *BusSender) Send(ctx context.Context, payload, contentType string) error {
	if contentType == "" {
		contentType = s.contentType
	}

	md := metadatapkg.Metadata{}.
		With(metadatapkg.KeySource, s.source).
		With(metadatapkg.KeyContentType, contentType).
		With(metadatapkg.KeyCorrelationID, CorrelationID(ctx))

	msg := message.NewMessage(idspkg.NewMessageID(), []byte(payload))
	msg.Metadata = metadatapkg.ToWatermill(md)
	if ctx != nil {
		msg.SetContext(ctx)
	}
	return s.publisher.Publish(s.topic, msg)
}

// Forward implements logging.Forwarder. A failed publish is logged locally
// and never forwarded again.
func (s *BusSender) Forward(level, source, text string) {
	line := wire.NewMessage().
		Set("dst", "log").
		Set("src", source).
		Set("lvl", level).
		Set("msg", text)

	if err := s.Send(context.Background(), line.String(), line.ContentType()); err != nil {
		s.logger.Error("Failed to forward log line", err, loggingpkg.LogFields{
			"listener": source,
			"level":    level,
		})
	}
}
