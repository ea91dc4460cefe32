package tap

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is the output sink for report lines. A single call may carry a
// multi-line diagnostic block.
type Logger interface {
	Log(text string)
}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(text string)

// Log calls f(text).
func (f LoggerFunc) Log(text string) {
	f(text)
}

// WriterLogger writes each report line to an io.Writer.
//
// Thread-safety: Log may be called from timer goroutines, so writes are
// serialized.
type WriterLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{w: w}
}

// Log writes text followed by a newline. Write errors are dropped: a
// report sink has nowhere to report them.
func (l *WriterLogger) Log(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.w, text)
}

// Stdout returns the default sink.
func Stdout() Logger {
	return NewWriterLogger(os.Stdout)
}
