package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryAcquisition LogCategory = "acquisition" // request lifecycle events
	CategoryReaper      LogCategory = "reaper"      // staging sweeps
	CategoryError       LogCategory = "error"       // application errors
)

// Categories lists every category with its own file
var Categories = []LogCategory{CategoryAcquisition, CategoryReaper, CategoryError}

// ParseCategory validates a category name
func ParseCategory(s string) (LogCategory, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// MultiLogger writes each category as JSON lines to its own daily file and
// mirrors every entry to the console logger.
// Raw extractor output is not routed through here; the extractor backend
// appends it to its own file.
type MultiLogger struct {
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
	console *zap.Logger
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string      // debug, info, warn, error
	LogsDir string      // Directory for log files
	Console *zap.Logger // optional, receives a copy of every entry
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	console := config.Console
	if console == nil {
		console = zap.NewNop()
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		console: console,
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	for _, category := range Categories {
		categoryLevel := level
		if category == CategoryError {
			categoryLevel = zapcore.ErrorLevel
		}
		logger, err := ml.createStructuredLogger(category, categoryLevel)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = logger
	}

	return ml, nil
}

// createStructuredLogger creates a JSON-formatted file logger for a category,
// teed into the console logger
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	file, err := os.OpenFile(ml.categoryLogPath(category), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	core := zapcore.NewTee(fileCore, ml.console.Core())

	return zap.New(core).With(zap.String("category", string(category))), nil
}

// categoryLogPath generates a log file path for a category with current date
func (ml *MultiLogger) categoryLogPath(category LogCategory) string {
	dateStr := time.Now().Format("20060102")
	return filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, dateStr))
}

// LogsDir returns the logs directory path
func (ml *MultiLogger) LogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Console returns the plain console logger
func (ml *MultiLogger) Console() *zap.Logger {
	return ml.console
}

// Acquisition returns the acquisition logger
func (ml *MultiLogger) Acquisition() *zap.Logger {
	return ml.GetLogger(CategoryAcquisition)
}

// Reaper returns the reaper logger
func (ml *MultiLogger) Reaper() *zap.Logger {
	return ml.GetLogger(CategoryReaper)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogAcquisitionEvent logs a request lifecycle event
func (ml *MultiLogger) LogAcquisitionEvent(event string, fields ...zap.Field) {
	ml.Acquisition().Info(event, fields...)
}

// LogReaperEvent logs a sweep event
func (ml *MultiLogger) LogReaperEvent(event string, fields ...zap.Field) {
	ml.Reaper().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, logger := range ml.loggers {
		logger.Sync()
	}
	for _, file := range ml.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
