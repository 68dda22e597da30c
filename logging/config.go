// Package logging sets up slog with a weekly rotating, size-capped JSON
// file handler tee'd with a text console handler.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// logFilePrefix names the weekly log files, e.g. labelscan-2026-W34.log
const logFilePrefix = "labelscan"

// defaultMaxLogSize caps a single log file at 100MB before it rolls over.
const defaultMaxLogSize = 100 * 1024 * 1024

// numberedLogPattern matches size-rotated files like labelscan-2026-W34_01.log
var numberedLogPattern = regexp.MustCompile(logFilePrefix + `-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer that appends to one log file per ISO week,
// rolling to numbered files when the size cap is hit and pruning files past
// the retention window.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu   sync.Mutex
	file *os.File
	week string
	size atomic.Int64

	ctx            context.Context
	cancel         context.CancelFunc
	cleanupStarted bool
	cleanupDone    chan struct{}
}

// NewRotatingLogger creates a rotating logger with the default size cap.
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxLogSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger with a custom
// per-file size cap. A cap of 0 disables size rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// weekKey formats t as an ISO week label, e.g. 2026-W34.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate closes the current file and opens the right one for targetWeek.
// Caller must hold mu.
func (l *RotatingLogger) rotate(targetWeek string) error {
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	bySize := l.maxFileSize > 0 && l.size.Load() >= l.maxFileSize
	name, fresh, err := l.selectLogFile(targetWeek, bySize)
	if err != nil {
		return err
	}

	path := filepath.Join(l.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l.file = file
	l.week = targetWeek

	if fresh {
		l.size.Store(0)
	} else if info, err := os.Stat(path); err == nil {
		l.size.Store(info.Size())
	}

	return nil
}

// selectLogFile picks the file the next write goes to: the week's base file
// while it has room, otherwise the highest numbered file that still has
// room, otherwise the next free number. The second return reports whether
// the choice is a brand-new file.
func (l *RotatingLogger) selectLogFile(targetWeek string, bySize bool) (string, bool, error) {
	base := fmt.Sprintf("%s-%s.log", logFilePrefix, targetWeek)

	if !bySize {
		info, err := os.Stat(filepath.Join(l.logDir, base))
		if err != nil || l.maxFileSize == 0 || info.Size() < l.maxFileSize {
			return base, false, nil
		}
	}

	highest, lastPath, lastSize := l.highestNumberedFile(targetWeek)
	if lastPath != "" && lastSize < l.maxFileSize {
		return filepath.Base(lastPath), false, nil
	}

	next := fmt.Sprintf("%s-%s_%02d.log", logFilePrefix, targetWeek, highest+1)
	return next, true, nil
}

// highestNumberedFile returns the largest sequence number in use for the
// week along with that file's path and size.
func (l *RotatingLogger) highestNumberedFile(targetWeek string) (int, string, int64) {
	pattern := fmt.Sprintf("%s-%s_??.log", logFilePrefix, targetWeek)
	matches, _ := filepath.Glob(filepath.Join(l.logDir, pattern))

	var (
		highest  int
		lastPath string
		lastSize int64
	)
	for _, match := range matches {
		num, size := l.numberedFileStat(match)
		if num > highest {
			highest, lastPath, lastSize = num, match, size
		}
	}

	return highest, lastPath, lastSize
}

// numberedFileStat extracts the sequence number from a numbered log file
// name and stats its size.
func (l *RotatingLogger) numberedFileStat(path string) (int, int64) {
	matches := numberedLogPattern.FindStringSubmatch(filepath.Base(path))
	if len(matches) < 2 {
		return 0, 0
	}

	num, _ := strconv.Atoi(matches[1])

	info, err := os.Stat(path)
	if err != nil {
		return num, 0
	}
	return num, info.Size()
}

// Write appends p to the current log file, rotating first when the week
// changed or the write would push the file past the size cap.
func (l *RotatingLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	week := weekKey(time.Now())
	needRotate := l.week != week
	if !needRotate && l.maxFileSize > 0 {
		size := l.size.Load()
		if size >= l.maxFileSize || size+int64(len(p)) > l.maxFileSize {
			// Pin size at the cap so rotate picks a numbered file
			l.size.Store(l.maxFileSize)
			needRotate = true
		}
	}

	if needRotate {
		if err = l.rotate(week); err != nil {
			return 0, err
		}
	}

	if l.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err = l.file.Write(p)
	l.size.Add(int64(n))
	return n, err
}

// pruneOldLogs removes log files whose modification time fell out of the
// retention window. Files without the log prefix are left alone.
func (l *RotatingLogger) pruneOldLogs() error {
	entries, err := os.ReadDir(l.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-l.retention)
	removed := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if os.Remove(filepath.Join(l.logDir, name)) == nil {
			removed++
		}
	}

	if removed > 0 {
		// Console only, writing through the logger would recurse
		fmt.Printf("Removed %d expired log files\n", removed)
	}

	return nil
}

// Close stops the prune goroutine if one is running and closes the current
// log file.
func (l *RotatingLogger) Close() error {
	l.cancel()

	if l.cleanupStarted {
		select {
		case <-l.cleanupDone:
		case <-time.After(5 * time.Second):
			fmt.Printf("Warning: log prune goroutine did not stop in time\n")
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetupLoggerWithOptions configures slog with the configured retention
// period, size limit, and minimum level. The returned RotatingLogger is nil
// when file logging could not be set up and the logger writes to console
// only.
func SetupLoggerWithOptions(logDir string, retentionWeeks int, maxFileSize int64, level slog.Level) (*slog.Logger, *RotatingLogger) {
	consoleOpts := &slog.HandlerOptions{Level: level}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, consoleOpts))
		logger.Error("Failed to create logs directory", "error", err)
		return logger, nil
	}

	rotating := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)

	rotating.mu.Lock()
	rotateErr := rotating.rotate(weekKey(time.Now()))
	rotating.mu.Unlock()
	if rotateErr != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, consoleOpts))
		logger.Error("Failed to initialize rotating logger", "error", rotateErr)
		return logger, nil
	}

	rotating.cleanupStarted = true
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(rotating.cleanupDone)

		for {
			select {
			case <-rotating.ctx.Done():
				return
			case <-ticker.C:
				if err := rotating.pruneOldLogs(); err != nil {
					slog.Warn("Failed to prune old log files", "error", err)
				}
			}
		}
	}()

	// Text on the console, JSON in the file
	tee := &teeHandler{handlers: []slog.Handler{
		slog.NewTextHandler(os.Stdout, consoleOpts),
		slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: level}),
	}}

	return slog.New(tee), rotating
}

// teeHandler fans every record out to all of its handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}
