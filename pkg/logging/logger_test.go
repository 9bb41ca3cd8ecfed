package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level, format string) (*structuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &structuredLogger{
		mu:     &sync.Mutex{},
		out:    buf,
		level:  parseLevel(level),
		format: format,
	}, buf
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn", "json")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "warn message")
	assert.Contains(t, lines[1], "error message")
}

func TestLoggerJSONEntries(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	logger.Info("flow started", F("flow", "deploy"), F("steps", 3))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "flow started", entry.Message)
	assert.Equal(t, "deploy", entry.Fields["flow"])
	assert.EqualValues(t, 3, entry.Fields["steps"])
	assert.False(t, entry.Timestamp.IsZero())
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	derived := logger.WithFields(F("flow", "deploy"))
	derived.Info("step finished", F("step", "build"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "deploy", entry.Fields["flow"])
	assert.Equal(t, "build", entry.Fields["step"])

	// The parent logger must not pick up the derived fields
	buf.Reset()
	logger.Info("unrelated")
	var parent LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parent))
	assert.NotContains(t, parent.Fields, "flow")
}

func TestLoggerTextFormat(t *testing.T) {
	logger, buf := newBufferLogger("info", "text")

	logger.Info("hello", F("k", "v"))

	out := buf.String()
	assert.Contains(t, out, "[info] hello")
	assert.Contains(t, out, "k=v")
}

func TestLoggerUnmarshalableFieldFallsBack(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	// A channel cannot be JSON-encoded; the entry must still be written
	logger.Info("bad field", F("ch", make(chan int)))

	assert.Contains(t, buf.String(), "bad field")
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := NewLogger(LogConfig{Output: "file"})
	assert.Error(t, err)

	_, err = NewLogger(LogConfig{Output: "syslog"})
	assert.Error(t, err)
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoop()
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	assert.NotNil(t, logger.WithFields(F("k", "v")))
}
