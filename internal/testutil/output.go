package testutil

import (
	"strings"
	"sync"
)

// Output captures report lines for assertions in tests.
//
// Multi-line entries (diagnostic blocks) are split so Lines returns one
// element per physical line, the way the report reads on stdout.
//
// Thread-safety: Log may be called from timer goroutines.
type Output struct {
	mu    sync.Mutex
	lines []string
}

// NewOutput creates an empty capture.
func NewOutput() *Output {
	return &Output{}
}

// Log implements tap.Logger.
func (o *Output) Log(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, strings.Split(text, "\n")...)
}

// Lines returns a copy of the captured lines.
func (o *Output) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

// String returns the capture as it would appear on stdout.
func (o *Output) String() string {
	lines := o.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Len returns the number of captured lines.
func (o *Output) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines)
}

// Reset drops everything captured so far.
func (o *Output) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = nil
}
