package runtime

import (
	"context"
	"strconv"

	"github.com/drblury/tagflow/internal/runtime/wire"
)

// Announcement registers a listener with the directory so other agents can
// reach it by name.
type Announcement struct {
	Name  string
	Host  string
	Port  int
	Topic string
}

// Message encodes the announcement in the text format understood by the
// directory. The topic is always present, empty when the listener has no
// shared topic.
func (a Announcement) Message() *wire.Message {
	return wire.NewMessage().
		Set("dst", "server").
		Tag("register").
		Set("name", a.Name).
		Set("host", a.Host).
		Set("port", strconv.Itoa(a.Port)).
		Set("topic", a.Topic)
}

// Directory receives listener announcements.
type Directory interface {
	Announce(ctx context.Context, a Announcement) error
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func(ctx context.Context, a Announcement) error

// Announce implements Directory.
func (f DirectoryFunc) Announce(ctx context.Context, a Announcement) error {
	return f(ctx, a)
}

// NewBusDirectory announces through sender, which publishes on the
// directory topic.
func NewBusDirectory(sender Sender) Directory {
	return DirectoryFunc(func(ctx context.Context, a Announcement) error {
		m := a.Message()
		return sender.Send(ctx, m.String(), m.ContentType())
	})
}
