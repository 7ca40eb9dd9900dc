// Package logging provides the small leveled logger used across engines:
// prefixed log.Printf-style lines, plus a bounded in-process ring buffer
// the observability layer can drain for a live "recent log lines" feed.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger writes prefixed lines to an underlying *log.Logger and keeps the
// last N lines in memory, readable through Recent.
type Logger struct {
	mu     sync.Mutex
	std    *log.Logger
	buf    []string
	bufCap int
}

// New creates a Logger writing to stderr with a component prefix.
func New(component string) *Logger {
	return &Logger{
		std:    log.New(os.Stderr, "["+component+"] ", log.LstdFlags),
		bufCap: 200,
	}
}

// Discard returns a Logger that drops everything, for callers that pass
// no logger explicitly.
func Discard() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0), bufCap: 0}
}

func (l *Logger) line(level, format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s %s", time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

func (l *Logger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := l.line(level, format, args...)
	l.std.Print(line)
	if l.bufCap == 0 {
		return
	}
	l.buf = append(l.buf, line)
	if len(l.buf) > l.bufCap {
		l.buf = l.buf[len(l.buf)-l.bufCap:]
	}
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...interface{}) { l.record("INFO", format, args...) }

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...interface{}) { l.record("WARN", format, args...) }

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...interface{}) { l.record("ERROR", format, args...) }

// Recent returns a copy of the most recently logged lines, oldest first.
func (l *Logger) Recent() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.buf))
	copy(out, l.buf)
	return out
}
