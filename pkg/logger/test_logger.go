package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log output for assertions in tests.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   *bytes.Buffer
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		buffer:  &bytes.Buffer{},
		zerolog: &nop,
	}
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}, err error) {
	if len(fields) == 0 {
		fields = nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: fields, Error: err})
	fmt.Fprintf(l.buffer, "[%s] %s", level, msg)
	if fields != nil {
		fmt.Fprintf(l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(l.buffer, " error=%v", err)
	}
	fmt.Fprintln(l.buffer)
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields, nil)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields, nil)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields, nil)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields, nil)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields, nil)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &boundTestLogger{parent: l, fields: map[string]interface{}{key: value}}
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &boundTestLogger{parent: l, fields: fields}
}

func (l *TestLogger) WithError(err error) Logger {
	return &boundTestLogger{parent: l, err: err}
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger { return l.zerolog }

// boundTestLogger carries field/error context bound with WithField,
// WithFields or WithError, delegating capture to its parent.
type boundTestLogger struct {
	parent *TestLogger
	fields map[string]interface{}
	err    error
}

func (b *boundTestLogger) merge(fields map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(b.fields)+len(fields))
	for k, v := range b.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (b *boundTestLogger) Debug(msg string) { b.parent.log("DEBUG", msg, b.merge(nil), b.err) }
func (b *boundTestLogger) Info(msg string)  { b.parent.log("INFO", msg, b.merge(nil), b.err) }
func (b *boundTestLogger) Warn(msg string)  { b.parent.log("WARN", msg, b.merge(nil), b.err) }
func (b *boundTestLogger) Error(msg string) { b.parent.log("ERROR", msg, b.merge(nil), b.err) }
func (b *boundTestLogger) Fatal(msg string) { b.parent.log("FATAL", msg, b.merge(nil), b.err) }

func (b *boundTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	b.parent.log("DEBUG", msg, b.merge(fields), b.err)
}

func (b *boundTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	b.parent.log("INFO", msg, b.merge(fields), b.err)
}

func (b *boundTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	b.parent.log("WARN", msg, b.merge(fields), b.err)
}

func (b *boundTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	b.parent.log("ERROR", msg, b.merge(fields), b.err)
}

func (b *boundTestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	b.parent.log("FATAL", msg, b.merge(fields), b.err)
}

func (b *boundTestLogger) WithField(key string, value interface{}) Logger {
	return &boundTestLogger{parent: b.parent, fields: b.merge(map[string]interface{}{key: value}), err: b.err}
}

func (b *boundTestLogger) WithFields(fields map[string]interface{}) Logger {
	return &boundTestLogger{parent: b.parent, fields: b.merge(fields), err: b.err}
}

func (b *boundTestLogger) WithError(err error) Logger {
	return &boundTestLogger{parent: b.parent, fields: b.fields, err: err}
}

func (b *boundTestLogger) WithContext(ctx context.Context) Logger { return b }

func (b *boundTestLogger) GetZerolog() *zerolog.Logger { return b.parent.zerolog }

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	var filtered []LogMessage
	for _, msg := range l.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error-level message was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all captured messages as text
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer.String()
}
