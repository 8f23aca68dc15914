package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrHandlerRequired", ErrHandlerRequired, "tagflow: handler function is required"},
		{"ErrHandlerNameNeeded", ErrHandlerNameNeeded, "tagflow: handler name is required"},
		{"ErrDuplicateHandler", ErrDuplicateHandler, "tagflow: handler already registered"},
		{"ErrDuplicateParam", ErrDuplicateParam, "tagflow: parameter declared twice"},
		{"ErrRegistryRequired", ErrRegistryRequired, "tagflow: handler registry is required"},
		{"ErrPublisherRequired", ErrPublisherRequired, "tagflow: publisher is required"},
		{"ErrTopicRequired", ErrTopicRequired, "tagflow: topic is required"},
		{"ErrConfigRequired", ErrConfigRequired, "tagflow: configuration is required"},
		{"ErrMalformedTags", ErrMalformedTags, "tagflow: malformed tag collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestHandlerFaultErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := error(&HandlerFaultError{Handler: "ping", Err: inner})

	assert.Equal(t, `tagflow: handler "ping" failed: boom`, err.Error())
	assert.ErrorIs(t, err, inner)

	var fault *HandlerFaultError
	if assert.ErrorAs(t, err, &fault) {
		assert.Equal(t, "ping", fault.Handler)
	}
}
