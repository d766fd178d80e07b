package testutil

import (
	"sync"

	"github.com/pathwayhq/pathway/core"
)

// Logger is a silent core.Logger keeping the messages logged at Error level or above.
type Logger struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) Debug(string, ...interface{}) {}
func (l *Logger) Info(string, ...interface{})  {}
func (l *Logger) Warn(string, ...interface{})  {}

func (l *Logger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Error(msg, args...)
}

// Errors returns the logged error messages, oldest first.
func (l *Logger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}
