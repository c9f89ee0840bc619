package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	globalLogger Logger
	globalMu     sync.RWMutex
	once         sync.Once
)

func initGlobal() {
	once.Do(func() {
		globalLogger = NewLogger(DefaultConfig())
	})
}

// L returns the global logger instance.
func L() Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	initGlobal()

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobal replaces the global logger.
func SetGlobal(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Init initializes the global logger with the given config.
func Init(config Config) {
	SetGlobal(NewLogger(config))
}

// Debug logs a message at DebugLevel using the global logger.
func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

// Info logs a message at InfoLevel using the global logger.
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

// Warn logs a message at WarnLevel using the global logger.
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// Error logs a message at ErrorLevel using the global logger.
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }
