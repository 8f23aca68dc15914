package handlers

import (
	"context"
	"fmt"

	loggingpkg "github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/wire"
)

// Outgoing is a reply produced by a handler. Its String form is the wire
// payload published on the bus.
type Outgoing = fmt.Stringer

// HandlerFunc handles one routed message and returns the replies to publish,
// in order. Returning no replies publishes nothing.
type HandlerFunc func(ctx context.Context, call *Call) ([]Outgoing, error)

// Call is the context handed to a handler for one dispatch.
type Call struct {
	// Handler is the name of the handler being invoked.
	Handler string
	// Message is the inbound message.
	Message wire.View
	// Logger is scoped to this dispatch.
	Logger loggingpkg.MessageLogger
	// Args holds the declared parameters, bound from the message.
	Args Args
}

// Reply is a convenience for handlers returning a fixed list of replies.
func Reply(out ...Outgoing) []Outgoing {
	return out
}
