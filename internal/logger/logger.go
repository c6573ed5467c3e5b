package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.RWMutex
	log     = slog.New(slog.NewTextHandler(io.Discard, nil))
	logFile *os.File

	DebugEnabled = false
)

// InitLogging sets up logging based on configuration. Without a log path all
// output is discarded; debug messages are written only in debug mode.
func InitLogging(debugMode bool, logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = debugMode

	if logPath == "" {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))

	return nil
}

// Close closes the log file if open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Logger returns the structured logger behind the printf helpers.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Infof(format string, v ...interface{}) {
	Logger().Info(fmt.Sprintf(format, v...))
}

// Errorf logs an error message.
func Errorf(format string, v ...interface{}) {
	Logger().Error(fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	Logger().Warn(fmt.Sprintf(format, v...))
}
