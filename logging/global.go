package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// LoggingService owns the process-wide logger and its rotating file sink.
type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance with default settings
func InitLogger(logDir string) {
	InitLoggerWithOptions(logDir, 4, defaultMaxLogSize, slog.LevelInfo)
}

// InitLoggerWithOptions initializes the global logger with the configured
// retention period, size limit, and minimum level
func InitLoggerWithOptions(logDir string, retentionWeeks int, maxFileSize int64, level slog.Level) {
	logger, rotating := SetupLoggerWithOptions(logDir, retentionWeeks, maxFileSize, level)
	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}
	slog.SetDefault(logger)
}

// CloseLogger flushes and closes the rotating log file. Called during
// server shutdown; safe to call when file logging was never set up.
func CloseLogger() {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return
	}
	if err := DefaultLoggingService.rotating.Close(); err != nil {
		// Console only, the log file is already closing
		fmt.Printf("Warning: failed to close log file: %v\n", err)
	}
}

// activeLogger returns the configured logger, or a stderr fallback while
// nothing has been initialized.
func activeLogger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Package-level helpers for direct access

func Info(msg string, args ...any) {
	activeLogger(slog.LevelInfo).Info(msg, args...)
}

func Warn(msg string, args ...any) {
	activeLogger(slog.LevelWarn).Warn(msg, args...)
}

func Error(msg string, args ...any) {
	activeLogger(slog.LevelError).Error(msg, args...)
}

func Debug(msg string, args ...any) {
	activeLogger(slog.LevelDebug).Debug(msg, args...)
}
