// Package logging holds the process-wide zap logger used by ndtrain.
//
// The logger is a no-op until SetLogger is called, so library users see no
// output unless they opt in.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Logger returns the current logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the process-wide logger. A nil logger restores the no-op
// logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Named returns a child of the current logger. Callers should not cache the
// result across SetLogger calls.
func Named(name string) *zap.Logger {
	return Logger().Named(name)
}
