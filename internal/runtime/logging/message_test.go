package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/tagflow/internal/runtime/logging"
	"github.com/drblury/tagflow/internal/runtime/logging/loggingtest"
)

type forwarded struct {
	level, source, text string
}

type recordingForwarder struct {
	lines []forwarded
}

func (f *recordingForwarder) Forward(level, source, text string) {
	f.lines = append(f.lines, forwarded{level: level, source: source, text: text})
}

func TestMessageLoggerLevels(t *testing.T) {
	base := &loggingtest.Logger{}
	logger := logging.NewMessageLogger(base, "echo", logging.LogFields{"tags": "{ping}"}, nil)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
	logger.Log("custom", "c")

	entries := base.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, []string{"debug", "info", "info", "error", "info"},
		[]string{entries[0].Level, entries[1].Level, entries[2].Level, entries[3].Level, entries[4].Level})
	for _, e := range entries {
		assert.Equal(t, "echo", e.Fields["listener"])
		assert.Equal(t, "{ping}", e.Fields["tags"])
	}
	assert.Equal(t, "warning", entries[2].Fields["severity"])
	_, hasSeverity := entries[1].Fields["severity"]
	assert.False(t, hasSeverity, "warning severity must not leak into shared fields")
	assert.Equal(t, "echo", logger.Listener())
}

func TestMessageLoggerForwards(t *testing.T) {
	fwd := &recordingForwarder{}
	logger := logging.NewMessageLogger(nil, "echo", nil, fwd)

	logger.Info("hello")
	logger.Error("broken")

	assert.Equal(t, []forwarded{
		{level: logging.LevelInfo, source: "echo", text: "hello"},
		{level: logging.LevelError, source: "echo", text: "broken"},
	}, fwd.lines)
}

func TestMessageLoggerIsComparable(t *testing.T) {
	base := &loggingtest.Logger{}
	a := logging.NewMessageLogger(base, "echo", logging.LogFields{"tags": "{}"}, nil)
	b := logging.NewMessageLogger(base, "echo", logging.LogFields{"tags": "{}"}, nil)
	assert.Equal(t, a, b)
}
