// Package logger provides structured, leveled logging backed by
// charmbracelet/log, writing to a daily rotated file and optionally the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel defines log level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) charm() log.Level {
	switch l {
	case DEBUG:
		return log.DebugLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

const (
	filePrefix = "culinai-"
	fileSuffix = ".log"
	dateLayout = "2006-01-02"
)

// Logger writes structured records to a file that rotates daily.
type Logger struct {
	log *log.Logger
	out *rotatingFile
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config logger configuration
type Config struct {
	LogDir     string   // Log directory
	Level      LogLevel // Log level
	MaxDays    int      // Max days to keep logs
	ConsoleOut bool     // Output to stderr as well
}

// Init initializes the default logger
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(cfg)
	})
	return err
}

// NewLogger creates a new logger instance
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 7
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out := &rotatingFile{dir: cfg.LogDir, maxDays: cfg.MaxDays}
	if err := out.rotateIfNeeded(); err != nil {
		return nil, err
	}

	var w io.Writer = out
	if cfg.ConsoleOut {
		w = io.MultiWriter(out, os.Stderr)
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           cfg.Level.charm(),
	})

	return &Logger{log: l, out: out}, nil
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level LogLevel) {
	l.log.SetLevel(level.charm())
}

// Level returns the current minimum level.
func (l *Logger) Level() LogLevel {
	switch l.log.GetLevel() {
	case log.DebugLevel:
		return DEBUG
	case log.WarnLevel:
		return WARN
	case log.ErrorLevel:
		return ERROR
	default:
		return INFO
	}
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log.Debug(msg, keyvals...)
}

// Info logs an info message with optional key/value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key/value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log.Warn(msg, keyvals...)
}

// Error logs an error message with optional key/value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log.Error(msg, keyvals...)
}

// Close closes the logger
func (l *Logger) Close() error {
	return l.out.Close()
}

// GetWriter returns an io.Writer that logs each written line at level.
func (l *Logger) GetWriter(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.logger.log.Log(w.level.charm(), msg)
	}
	return len(p), nil
}

// rotatingFile is an io.Writer over culinai-YYYY-MM-DD.log files in dir.
type rotatingFile struct {
	mu          sync.Mutex
	dir         string
	maxDays     int
	currentFile *os.File
	currentDate string
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return r.currentFile.Write(p)
}

// rotateIfNeeded opens today's file if it is not already open. Callers hold mu,
// except NewLogger which runs before the writer is shared.
func (r *rotatingFile) rotateIfNeeded() error {
	today := time.Now().Format(dateLayout)
	if r.currentDate == today && r.currentFile != nil {
		return nil
	}

	if r.currentFile != nil {
		r.currentFile.Close()
	}

	filename := filepath.Join(r.dir, filePrefix+today+fileSuffix)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	r.currentFile = f
	r.currentDate = today

	go cleanOldLogs(r.dir, r.maxDays)

	return nil
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentFile == nil {
		return nil
	}
	err := r.currentFile.Close()
	r.currentFile = nil
	return err
}

// cleanOldLogs keeps the newest maxDays log files in dir.
func cleanOldLogs(dir string, maxDays int) {
	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileSuffix))
	if err != nil || len(files) <= maxDays {
		return
	}

	// file names sort by date
	sort.Strings(files)
	for i := 0; i < len(files)-maxDays; i++ {
		os.Remove(files[i])
	}
}

// Package-level functions using the default logger

// Debug logs a debug message using the default logger
func Debug(msg string, keyvals ...any) {
	if defaultLogger != nil {
		defaultLogger.Debug(msg, keyvals...)
	}
}

// Info logs an info message using the default logger
func Info(msg string, keyvals ...any) {
	if defaultLogger != nil {
		defaultLogger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message using the default logger
func Warn(msg string, keyvals ...any) {
	if defaultLogger != nil {
		defaultLogger.Warn(msg, keyvals...)
	}
}

// Error logs an error message using the default logger
func Error(msg string, keyvals ...any) {
	if defaultLogger != nil {
		defaultLogger.Error(msg, keyvals...)
	}
}

// SetLevel changes the default logger's level
func SetLevel(level LogLevel) {
	if defaultLogger != nil {
		defaultLogger.SetLevel(level)
	}
}

// Writer returns a writer into the default logger at level, or io.Discard
// before Init.
func Writer(level LogLevel) io.Writer {
	if defaultLogger == nil {
		return io.Discard
	}
	return defaultLogger.GetWriter(level)
}

// Close closes the default logger
func Close() error {
	if defaultLogger != nil {
		return defaultLogger.Close()
	}
	return nil
}

// GetDefault returns the default logger
func GetDefault() *Logger {
	return defaultLogger
}
