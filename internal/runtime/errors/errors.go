package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrHandlerRequired   = sterrors.New("tagflow: handler function is required")
	ErrHandlerNameNeeded = sterrors.New("tagflow: handler name is required")
	ErrDuplicateHandler  = sterrors.New("tagflow: handler already registered")
	ErrDuplicateParam    = sterrors.New("tagflow: parameter declared twice")
	ErrRegistryRequired  = sterrors.New("tagflow: handler registry is required")
	ErrProviderRequired  = sterrors.New("tagflow: handler provider is required")
	ErrPublisherRequired = sterrors.New("tagflow: publisher is required")
	ErrTopicRequired     = sterrors.New("tagflow: topic is required")
	ErrConfigRequired    = sterrors.New("tagflow: configuration is required")
	ErrLoggerRequired    = sterrors.New("tagflow: logger is required")
	ErrEmptyPayload      = sterrors.New("tagflow: message payload is empty")
	ErrMalformedTags     = sterrors.New("tagflow: malformed tag collection")
)

// HandlerFaultError wraps an error returned by a handler body. The dispatcher
// never recovers from it; the listener's fault policy decides what happens next.
type HandlerFaultError struct {
	Handler string
	Err     error
}

func (e *HandlerFaultError) Error() string {
	return fmt.Sprintf("tagflow: handler %q failed: %v", e.Handler, e.Err)
}

func (e *HandlerFaultError) Unwrap() error { return e.Err }
