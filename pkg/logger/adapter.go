package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter hides whether category files are in use.
// In single mode every category resolves to the same logger.
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
}

// NewLoggerAdapter creates an adapter backed by category files
func NewLoggerAdapter(multiLogger *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{multiLogger: multiLogger}
}

// NewSingleLoggerAdapter creates an adapter over one logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{singleLogger: logger}
}

func (la *LoggerAdapter) pick(category LogCategory) *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.GetLogger(category)
	}
	return la.singleLogger
}

// General returns the console logger used for HTTP access and startup messages
func (la *LoggerAdapter) General() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Console()
	}
	return la.singleLogger
}

// Acquisition returns the acquisition logger
func (la *LoggerAdapter) Acquisition() *zap.Logger {
	return la.pick(CategoryAcquisition)
}

// Reaper returns the reaper logger
func (la *LoggerAdapter) Reaper() *zap.Logger {
	return la.pick(CategoryReaper)
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	return la.pick(CategoryError)
}

// MultiLogger returns the underlying multi-logger, or nil in single mode
func (la *LoggerAdapter) MultiLogger() *MultiLogger {
	return la.multiLogger
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.multiLogger != nil {
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}
