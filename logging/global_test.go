package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// blockedDir returns a path whose parent is a regular file, so MkdirAll
// fails even when tests run as root.
func blockedDir(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0666); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}
	return filepath.Join(blocker, "logs")
}

func TestInitLoggerWithOptions(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	tempDir := t.TempDir()

	InitLoggerWithOptions(tempDir, 1, 1024*1024, slog.LevelInfo)
	defer CloseLogger()

	if DefaultLoggingService == nil {
		t.Fatal("DefaultLoggingService was not set")
	}
	if DefaultLoggingService.Logger == nil {
		t.Error("Logger was not set")
	}
	if DefaultLoggingService.rotating == nil {
		t.Error("Rotating logger was not set")
	}

	// Setup rotates immediately, so the current week's file exists
	expectedFile := filepath.Join(tempDir, "labelscan-"+weekKey(time.Now())+".log")
	if _, err := os.Stat(expectedFile); os.IsNotExist(err) {
		t.Errorf("Expected log file %s was not created", expectedFile)
	}
}

func TestInitLoggerDefaults(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	tempDir := t.TempDir()

	InitLogger(tempDir)
	defer CloseLogger()

	if DefaultLoggingService == nil {
		t.Fatal("DefaultLoggingService was not set")
	}
	if DefaultLoggingService.rotating == nil {
		t.Error("Rotating logger was not set with default options")
	}
}

func TestInitLoggerConsoleFallback(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	InitLogger(blockedDir(t))

	if DefaultLoggingService == nil {
		t.Fatal("DefaultLoggingService was not set")
	}
	if DefaultLoggingService.Logger == nil {
		t.Error("Expected console fallback logger")
	}
	if DefaultLoggingService.rotating != nil {
		t.Error("Expected nil rotating logger when log directory cannot be created")
	}

	// CloseLogger has no file to close here and must not panic
	CloseLogger()
}

func TestCloseLoggerWithoutInit(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	DefaultLoggingService = nil
	CloseLogger()
	CloseLogger()

	DefaultLoggingService = &LoggingService{Logger: slog.Default()}
	CloseLogger()
}

func TestPackageLevelFallbacks(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	DefaultLoggingService = nil

	// Each helper falls back to a stderr console logger
	Info("fallback info message", "key", "value")
	Warn("fallback warn message")
	Error("fallback error message", "error", "test")
	Debug("fallback debug message")
}

func TestPackageLevelLoggingWithService(t *testing.T) {
	oldService := DefaultLoggingService
	defer func() { DefaultLoggingService = oldService }()

	tempDir := t.TempDir()

	InitLoggerWithOptions(tempDir, 1, 1024*1024, slog.LevelDebug)
	defer CloseLogger()

	Info("global info message", "key", "value")
	Warn("global warn message")
	Error("global error message")
	Debug("global debug message")

	logFile := filepath.Join(tempDir, "labelscan-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	for _, msg := range []string{
		"global info message",
		"global warn message",
		"global error message",
		"global debug message",
	} {
		if !strings.Contains(string(content), msg) {
			t.Errorf("Log file missing message %q", msg)
		}
	}
}

func TestSetupLoggerWithOptionsInvalidDir(t *testing.T) {
	logger, rotating := SetupLoggerWithOptions(blockedDir(t), 1, 1024*1024, slog.LevelInfo)

	if logger == nil {
		t.Fatal("Expected console logger when directory creation fails")
	}
	if rotating != nil {
		t.Error("Expected nil rotating logger when directory creation fails")
	}
}

func TestSetupLoggerLevelWiring(t *testing.T) {
	tempDir := t.TempDir()

	logger, rotating := SetupLoggerWithOptions(tempDir, 1, 1024*1024, slog.LevelWarn)
	if rotating == nil {
		t.Fatal("Expected rotating logger")
	}
	defer func() { _ = rotating.Close() }()

	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Debug should be disabled at warn level")
	}
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, slog.LevelWarn) {
		t.Error("Warn should be enabled at warn level")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Error("Error should be enabled at warn level")
	}
}
