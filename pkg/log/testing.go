// Testing utilities for structured logging.
//
// TestLogger captures records in memory as JSON lines so tests can assert
// on messages and fields. It is safe for concurrent use, which matters
// when folds are evaluated on several workers.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
)

type testSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// TestLogger is a Logger that records every emitted entry.
type TestLogger struct {
	sink   *testSink
	level  Level
	fields []any
}

// NewTestLogger creates a TestLogger capturing records at or above level.
//
// Example:
//
//	provider, logger := log.NewTestLoggerProvider(log.LevelDebug)
//	log.SetProvider(provider)
//	// run code under test
//	if !logger.ContainsField(log.FoldKey, 3.0) { ... }
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	sink := &testSink{}
	return &TestLogger{sink: sink, level: level}, &sink.buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.write(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.write(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(t.fields)+len(fields))
	merged = append(merged, t.fields...)
	_, kv := splitFields(fields)
	merged = append(merged, kv...)
	return &TestLogger{sink: t.sink, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := map[string]any{
		"level":   level.String(),
		"message": msg,
	}
	lead, kv := splitFields(fields)
	all := append(append([]any{}, t.fields...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		key := all[i].(string)
		if err, ok := all[i+1].(error); ok {
			entry[key] = err.Error()
			continue
		}
		entry[key] = all[i+1]
	}
	if lead != nil {
		entry[ErrorKey] = lead.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Write(data)
	t.sink.buf.WriteByte('\n')
}

// String returns everything captured so far.
func (t *TestLogger) String() string {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	return t.sink.buf.String()
}

// GetLogEntries parses the captured output into one map per record.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(t.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.String(), message)
}

// ContainsField reports whether any record has key set to value.
// Numbers decode as float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops all captured records.
func (t *TestLogger) Clear() {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Reset()
}

// TestLoggerProvider implements LoggerProvider on top of a TestLogger.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider creates a provider with a fresh TestLogger.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *TestLogger) {
	logger, _ := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, logger
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
