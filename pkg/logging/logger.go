package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Log levels in increasing order of severity
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[int]string{
	levelDebug: "debug",
	levelInfo:  "info",
	levelWarn:  "warn",
	levelError: "error",
}

func parseLevel(s string) int {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// structuredLogger is the default Logger implementation. It encodes entries
// as JSON (or a plain text line) and writes them to the configured output.
// Write and encode failures are swallowed; at most a fallback line goes to
// stderr so that logging can never abort the caller.
type structuredLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  int
	format string
	fields []Field
}

// NewLogger creates a Logger from the given configuration. When Output is
// "file" the file is opened in append mode and created if missing.
func NewLogger(config LogConfig) (Logger, error) {
	var out io.Writer
	switch config.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case "file":
		if config.FilePath == "" {
			return nil, fmt.Errorf("log output is \"file\" but no file path is configured")
		}
		f, err := os.OpenFile(config.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	default:
		return nil, fmt.Errorf("unknown log output: %s", config.Output)
	}

	format := config.Format
	if format == "" {
		format = "json"
	}

	return &structuredLogger{
		mu:     &sync.Mutex{},
		out:    out,
		level:  parseLevel(config.Level),
		format: format,
	}, nil
}

func (l *structuredLogger) Debug(msg string, fields ...Field) { l.log(levelDebug, msg, fields) }
func (l *structuredLogger) Info(msg string, fields ...Field)  { l.log(levelInfo, msg, fields) }
func (l *structuredLogger) Warn(msg string, fields ...Field)  { l.log(levelWarn, msg, fields) }
func (l *structuredLogger) Error(msg string, fields ...Field) { l.log(levelError, msg, fields) }

// WithFields returns a new logger that includes the given fields in every entry
func (l *structuredLogger) WithFields(fields ...Field) Logger {
	combined := make([]Field, 0, len(l.fields)+len(fields))
	combined = append(combined, l.fields...)
	combined = append(combined, fields...)
	return &structuredLogger{
		mu:     l.mu,
		out:    l.out,
		level:  l.level,
		format: l.format,
		fields: combined,
	}
}

func (l *structuredLogger) log(level int, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     levelNames[level],
		Message:   msg,
	}
	if len(l.fields)+len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(l.fields)+len(fields))
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	var line []byte
	if l.format == "text" {
		line = []byte(formatText(entry))
	} else {
		encoded, err := json.Marshal(entry)
		if err != nil {
			// Unmarshalable field value; fall back to the text form so the
			// message itself is not lost.
			line = []byte(formatText(entry))
		} else {
			line = encoded
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "log write failed: %v\n", err)
	}
}

func formatText(entry LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(entry.Level)
	b.WriteString("] ")
	b.WriteString(entry.Message)
	for k, v := range entry.Fields {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	return b.String()
}

// noopLogger discards everything. Used in tests and anywhere a Logger is
// required but output is unwanted.
type noopLogger struct{}

// NewNoop returns a Logger that discards all entries
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...Field)     {}
func (noopLogger) Info(string, ...Field)      {}
func (noopLogger) Warn(string, ...Field)      {}
func (noopLogger) Error(string, ...Field)     {}
func (noopLogger) WithFields(...Field) Logger { return noopLogger{} }
