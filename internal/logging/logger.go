package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level is a log severity.
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String returns the level name used as the message prefix.
func (l Level) String() string {
	switch l {
	case TRACE:
		return "TRACE"
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

// Logger writes levelled messages to a single destination.
type Logger struct {
	mu    sync.Mutex
	out   *log.Logger
	level Level
}

var global = New(os.Stderr, INFO)

// New creates a logger that drops messages below min.
func New(w io.Writer, min Level) *Logger {
	return &Logger{
		out:   log.New(w, "(canvas) ", log.LstdFlags),
		level: min,
	}
}

// SetOutput retargets the global logger.
func SetOutput(w io.Writer) {
	global.mu.Lock()
	global.out.SetOutput(w)
	global.mu.Unlock()
}

// SetLevel changes the minimum level of the global logger.
func SetLevel(l Level) {
	global.mu.Lock()
	global.level = l
	global.mu.Unlock()
}

// Enabled reports whether messages at l would be written.
func Enabled(l Level) bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	return l >= global.level
}

func (lg *Logger) logf(l Level, format string, args ...any) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if l < lg.level {
		return
	}
	lg.out.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}

// Trace logs at TRACE.
func Trace(format string, args ...any) { global.logf(TRACE, format, args...) }

// Debug logs at DEBUG.
func Debug(format string, args ...any) { global.logf(DEBUG, format, args...) }

// Info logs at INFO.
func Info(format string, args ...any) { global.logf(INFO, format, args...) }

// Warn logs at WARN.
func Warn(format string, args ...any) { global.logf(WARN, format, args...) }

// Error logs at ERROR.
func Error(format string, args ...any) { global.logf(ERROR, format, args...) }
