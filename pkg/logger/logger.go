// Package logger provides the leveled logging interface shared by every
// idleload component. Components receive a Logger explicitly; nothing logs
// through package globals.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger defines the interface for leveled logging across idleload components.
type Logger interface {
	// Debug logs a tracing message (e.g., "drain: popped require(foo)").
	// Implementations may drop debug output unless verbose mode is on.
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Daemon started").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "Cache file corrupt, starting fresh").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Cache flush failed: disk full").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger.
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger  *log.Logger
	verbose bool
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
// Debug messages are discarded until SetVerbose(true) is called.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// SetVerbose toggles emission of Debug messages.
func (s *StandardLogger) SetVerbose(v bool) {
	s.verbose = v
}

// Debug logs a tracing message with [DEBUG] prefix when verbose.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// Std returns the wrapped *log.Logger.
func (s *StandardLogger) Std() *log.Logger {
	return s.logger
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests and is safe for
// concurrent use, since loop goroutines and test goroutines both log.
type MockLogger struct {
	mu           sync.Mutex
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(dst *[]string, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.DebugCalls, format, args...)
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalls, format, args...)
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalls, format, args...)
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalls, format, args...)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	return nil
}

// Warnings returns a copy of the recorded warning messages.
func (m *MockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.WarningCalls...)
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

var _ Logger = (*MockLogger)(nil)

// stdWriter adapts a Logger to io.Writer so that libraries which insist on a
// *log.Logger end up in the same sink at INFO level.
type stdWriter struct {
	l Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Info("%s", msg)
	return len(p), nil
}

// ToStdLogger returns a *log.Logger writing through l.
// A StandardLogger hands back its own *log.Logger.
func ToStdLogger(l Logger) *log.Logger {
	if s, ok := l.(*StandardLogger); ok {
		return s.logger
	}
	return log.New(stdWriter{l: l}, "", 0)
}
