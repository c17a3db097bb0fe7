// Package logging provides file-based logging for git-cob.
// It outputs logs to both a global log file (.git/cob/logs/cob.log)
// and per-object log files (.git/cob/logs/<object-id>.log).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/git-cob/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger wraps slog.Logger with file-based output support.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile  *os.File
	objectFiles map[domain.ObjectID]*os.File
	mirror      *slog.Logger
	now         func() time.Time
	cobDir      string
	mu          sync.Mutex
	level       slog.Level
}

// New creates a new Logger that writes to the cob log directory.
// If cobDir is empty, file logging is disabled.
func New(cobDir string, level slog.Level) *Logger {
	return &Logger{
		cobDir:      cobDir,
		level:       level,
		objectFiles: make(map[domain.ObjectID]*os.File),
		now:         time.Now,
	}
}

// WithMirror also sends every entry at or above the logger's level to m,
// typically a text handler on stderr.
func (l *Logger) WithMirror(m *slog.Logger) *Logger {
	l.mirror = m
	return l
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the logs directory if it doesn't exist.
func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(l.cobDir, domain.LogsDirName), 0o750)
}

func (l *Logger) openLog(path string) (*os.File, error) {
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	// G302: Log files are append-only and need read access by repository users
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ensureGlobalFile opens or returns the global log file.
// The caller holds l.mu.
func (l *Logger) ensureGlobalFile() (*os.File, error) {
	if l.globalFile != nil {
		return l.globalFile, nil
	}
	f, err := l.openLog(domain.GlobalLogPath(l.cobDir))
	if err != nil {
		return nil, err
	}
	l.globalFile = f
	return f, nil
}

// ensureObjectFile opens or returns the object's log file.
// The caller holds l.mu.
func (l *Logger) ensureObjectFile(id domain.ObjectID) (*os.File, error) {
	if f, ok := l.objectFiles[id]; ok {
		return f, nil
	}
	f, err := l.openLog(domain.ObjectLogPath(l.cobDir, id))
	if err != nil {
		return nil, err
	}
	l.objectFiles[id] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.objectFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.objectFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry in the specified format.
// Format: [2025-12-30 09:32:51] [INFO] [3f2a91c] [category] message
func formatLog(t time.Time, level slog.Level, id domain.ObjectID, category, msg string) string {
	scope := "global"
	if id != "" {
		scope = id.Short()
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes a log entry to the global log and, when id is set, to the
// object's log.
func (l *Logger) log(level slog.Level, id domain.ObjectID, category, msg string) {
	if level < l.level {
		return
	}

	if l.mirror != nil {
		attrs := []slog.Attr{slog.String("category", category)}
		if id != "" {
			attrs = append(attrs, slog.String("object", string(id)))
		}
		l.mirror.LogAttrs(context.Background(), level, msg, attrs...)
	}

	if l.cobDir == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := formatLog(l.now(), level, id, category, msg)
	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}
	if id != "" {
		if of, err := l.ensureObjectFile(id); err == nil {
			_, _ = io.WriteString(of, entry)
		}
	}
}

// Info logs an info message.
func (l *Logger) Info(id domain.ObjectID, category, msg string) {
	l.log(slog.LevelInfo, id, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(id domain.ObjectID, category, msg string) {
	l.log(slog.LevelDebug, id, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(id domain.ObjectID, category, msg string) {
	l.log(slog.LevelWarn, id, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(id domain.ObjectID, category, msg string) {
	l.log(slog.LevelError, id, category, msg)
}
