package logs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger  = zap.NewNop()
	logFile *os.File
	mu      sync.Mutex
)

// FileName is the log file created inside the log directory
const FileName = "debug.log"

// ParseLevel turns a config string into a zap level, defaulting to info
func ParseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Initialize points Logger at <logDir>/debug.log. The TUI owns the terminal,
// so nothing is written to stdout.
func Initialize(logDir, level string) error {
	mu.Lock()
	defer mu.Unlock()

	if logDir == "" {
		logDir = "."
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(f),
		zap.NewAtomicLevelAt(ParseLevel(level)),
	)

	if logFile != nil {
		_ = Logger.Sync()
		logFile.Close()
	}
	logFile = f
	Logger = zap.New(core, zap.AddCaller()).Named("planner")
	zap.ReplaceGlobals(Logger)

	Logger.Debug("logger initialized", zap.String("path", logPath))
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	_ = Logger.Sync()
	err := logFile.Close()
	logFile = nil
	Logger = zap.NewNop()
	return err
}
