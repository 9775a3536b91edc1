package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var logLevelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l LogLevel) String() string {
	return logLevelNames[l]
}

// Logger provides structured logging functionality
type Logger struct {
	level  LogLevel
	name   string
	mutex  *sync.Mutex
	output io.Writer
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// RotationConfig controls the rotating log file
type RotationConfig struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Options configures the writers of a logger built with New
type Options struct {
	Level    string
	File     string
	Rotation RotationConfig
	// NoTerminal disables stdout when a file is configured
	NoTerminal bool
}

// NewLogger creates a new structured logger
func NewLogger(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	return &Logger{
		level:  ParseLevel(level),
		mutex:  &sync.Mutex{},
		output: output,
	}
}

// New builds a logger writing to stdout and, when opts.File is set, to a
// rotating file.
func New(opts Options) *Logger {
	var writers []io.Writer

	if opts.File == "" || !opts.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.Rotation.MaxSize,
			MaxBackups: opts.Rotation.MaxBackups,
			MaxAge:     opts.Rotation.MaxAge,
			Compress:   opts.Rotation.Compress,
		})
	}

	return NewLogger(opts.Level, io.MultiWriter(writers...))
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewLogger("FATAL", io.Discard)
}

// OrDiscard lets packages accept an optional logger
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// ParseLevel maps a level name to a LogLevel, defaulting to INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Named returns a logger that tags every entry with a service name
func (l *Logger) Named(name string) *Logger {
	named := *l
	named.name = name
	return &named
}

// WithFields returns a new log entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *LogEntryBuilder {
	return &LogEntryBuilder{
		logger: l,
		fields: fields,
	}
}

// WithField returns a new log entry with a single field
func (l *Logger) WithField(key string, value interface{}) *LogEntryBuilder {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithError returns a new log entry with an error field
func (l *Logger) WithError(err error) *LogEntryBuilder {
	return &LogEntryBuilder{
		logger: l,
		err:    err,
	}
}

func (l *Logger) Debug(message string) {
	l.log(LevelDebug, message, nil, nil)
}

func (l *Logger) Info(message string) {
	l.log(LevelInfo, message, nil, nil)
}

func (l *Logger) Warn(message string) {
	l.log(LevelWarn, message, nil, nil)
}

func (l *Logger) Error(message string) {
	l.log(LevelError, message, nil, nil)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string) {
	l.log(LevelFatal, message, nil, nil)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, message string, fields map[string]interface{}, err error) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     logLevelNames[level],
		Service:   l.name,
		Message:   message,
		Fields:    fields,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	// Add caller information for errors and above
	if level >= LevelError {
		if pc, file, line, ok := runtime.Caller(3); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				entry.Caller = fmt.Sprintf("%s:%d (%s)", file, line, fn.Name())
			} else {
				entry.Caller = fmt.Sprintf("%s:%d", file, line)
			}
		}
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		// Fallback to standard log if JSON marshaling fails
		log.Printf("Failed to marshal log entry: %v", err)
		log.Printf("[%s] %s", entry.Level, entry.Message)
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	fmt.Fprintln(l.output, string(jsonBytes))
}

// LogEntryBuilder helps build log entries with fields
type LogEntryBuilder struct {
	logger *Logger
	fields map[string]interface{}
	err    error
}

// WithField adds a field to the log entry
func (b *LogEntryBuilder) WithField(key string, value interface{}) *LogEntryBuilder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	b.fields[key] = value
	return b
}

// WithFields adds multiple fields to the log entry
func (b *LogEntryBuilder) WithFields(fields map[string]interface{}) *LogEntryBuilder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	for k, v := range fields {
		b.fields[k] = v
	}
	return b
}

// WithError adds an error to the log entry
func (b *LogEntryBuilder) WithError(err error) *LogEntryBuilder {
	b.err = err
	return b
}

func (b *LogEntryBuilder) Debug(message string) {
	b.logger.log(LevelDebug, message, b.fields, b.err)
}

func (b *LogEntryBuilder) Info(message string) {
	b.logger.log(LevelInfo, message, b.fields, b.err)
}

func (b *LogEntryBuilder) Warn(message string) {
	b.logger.log(LevelWarn, message, b.fields, b.err)
}

func (b *LogEntryBuilder) Error(message string) {
	b.logger.log(LevelError, message, b.fields, b.err)
}

// Fatal logs a fatal message with fields and exits
func (b *LogEntryBuilder) Fatal(message string) {
	b.logger.log(LevelFatal, message, b.fields, b.err)
	os.Exit(1)
}
