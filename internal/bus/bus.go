// Package bus is a small publish/subscribe hub for run lifecycle
// notifications.
//
// Handlers are registered against patterns. A pattern matches a topic when
// both split into the same number of dot-delimited segments and every
// segment matches: "*" matches any one segment, and a segment mixing "*" with
// text ("*ed") matches within that segment only. Wildcards never span a
// delimiter, so "test.*" matches "test.end" but not "test.end.late".
//
// The bus is for observation only. Emit runs handlers synchronously on the
// caller's goroutine and never reports handler failures back to the caller.
package bus

import (
	"strings"
	"sync"
)

// Event is delivered to handlers.
type Event struct {
	Topic string
	Args  []any
}

// Arg returns the i-th argument, or nil if absent.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler receives matching events.
type Handler func(Event)

type subscription struct {
	pattern string
	handler Handler
	once    bool
}

// Bus routes emitted topics to subscribed handlers.
//
// Thread-safety: safe for concurrent use. Handlers run outside the lock and
// may subscribe or emit themselves.
type Bus struct {
	mu   sync.Mutex
	subs []subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// On registers a persistent handler for pattern.
func (b *Bus) On(pattern string, h Handler) {
	b.subscribe(pattern, h, false)
}

// Once registers a handler invoked at most one time.
func (b *Bus) Once(pattern string, h Handler) {
	b.subscribe(pattern, h, true)
}

// Off removes every handler registered with exactly pattern.
func (b *Bus) Off(pattern string) {
	pattern = strings.TrimSpace(pattern)

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	for _, s := range b.subs {
		if s.pattern != pattern {
			kept = append(kept, s)
		}
	}
	clearTail(b.subs, len(kept))
	b.subs = kept
}

// Emit invokes all handlers whose pattern matches topic. Persistent
// handlers run first, then once handlers, each group in registration
// order. Once handlers are removed before they run.
func (b *Bus) Emit(topic string, args ...any) {
	topic = strings.TrimSpace(topic)
	ev := Event{Topic: topic, Args: args}

	var persistent, once []Handler

	b.mu.Lock()
	kept := b.subs[:0]
	for _, s := range b.subs {
		if !Match(s.pattern, topic) {
			kept = append(kept, s)
			continue
		}
		if s.once {
			once = append(once, s.handler)
			continue
		}
		persistent = append(persistent, s.handler)
		kept = append(kept, s)
	}
	clearTail(b.subs, len(kept))
	b.subs = kept
	b.mu.Unlock()

	for _, h := range persistent {
		h(ev)
	}
	for _, h := range once {
		h(ev)
	}
}

// Len returns the number of registered handlers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) subscribe(pattern string, h Handler, once bool) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = append(b.subs, subscription{
		pattern: strings.TrimSpace(pattern),
		handler: h,
		once:    once,
	})
}

// clearTail zeroes the slots past n so dropped handlers can be collected.
func clearTail(subs []subscription, n int) {
	for i := n; i < len(subs); i++ {
		subs[i] = subscription{}
	}
}
