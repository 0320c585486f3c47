// Package logger is a small facade over one or more logging backends.
//
// Core packages never log; the CLI turns their events and errors into log
// lines through this facade. Until Init is called every call is a no-op.
//
// Example Usage:
//
//	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Level: "debug"}))
//	logger.Info("match finished", "run_id", runID, "candidates", 2)
package logger

import "sync"

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	instances []LoggerInstance
	// fields are prepended to every call's keyvals
	fields []any
}

var (
	mu        sync.RWMutex
	singleton *Logger
)

func getSingleton() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return singleton
}

// Init installs the global logger with one or more logging backends.
func Init(instances ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	singleton = &Logger{instances: instances}
}

// With adds key/value pairs to every subsequent log call, e.g. a run id.
func With(keyvals ...any) {
	mu.Lock()
	defer mu.Unlock()
	if singleton == nil {
		return
	}
	fields := make([]any, 0, len(singleton.fields)+len(keyvals))
	fields = append(fields, singleton.fields...)
	fields = append(fields, keyvals...)
	singleton = &Logger{instances: singleton.instances, fields: fields}
}

func (l *Logger) each(fn func(LoggerInstance, []any), keyvals []any) {
	if len(l.fields) > 0 {
		keyvals = append(append(make([]any, 0, len(l.fields)+len(keyvals)), l.fields...), keyvals...)
	}
	for _, instance := range l.instances {
		fn(instance, keyvals)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		l.each(func(i LoggerInstance, kv []any) { i.Info(message, kv...) }, keyvals)
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		l.each(func(i LoggerInstance, kv []any) { i.Warn(message, kv...) }, keyvals)
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		l.each(func(i LoggerInstance, kv []any) { i.Error(message, kv...) }, keyvals)
	}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		l.each(func(i LoggerInstance, kv []any) { i.Debug(message, kv...) }, keyvals)
	}
}
