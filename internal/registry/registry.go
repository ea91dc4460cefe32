// Package registry holds everything a run is configured with: the ordered
// test entries, the optional hooks, the report sink, the context factory
// and the lifecycle bus.
//
// A RunContext is created once per process (or once per test) and passed
// explicitly to the scheduler. Registration is append-only and keeps
// insertion order.
package registry

import (
	"sync"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/suite"
	"github.com/roach88/tappedout/internal/tap"
)

// Entry is a registered test. Immutable once registered.
type Entry struct {
	Name      string
	Body      suite.Body
	Directive tap.Directive
}

// Hooks are the optional bodies run around the tests.
type Hooks struct {
	Before     suite.Body
	After      suite.Body
	BeforeEach suite.Body
	AfterEach  suite.Body
}

// RunContext is the registry of a run.
//
// Thread-safety: safe for concurrent use. The scheduler takes snapshots
// with Entries and Hooks before it starts.
type RunContext struct {
	mu        sync.Mutex
	entries   []Entry
	only      bool
	hooks     Hooks
	logger    tap.Logger
	factory   suite.Factory
	autostart bool
	bus       *bus.Bus
	values    map[string]any
}

// New creates an empty registry with the default sink (stdout), the
// built-in factory, autostart enabled and a fresh bus.
func New() *RunContext {
	return &RunContext{
		logger:    tap.Stdout(),
		factory:   suite.DefaultFactory,
		autostart: true,
		bus:       bus.New(),
		values:    make(map[string]any),
	}
}

// Test registers a test. Ignored once Only has been used.
func (r *RunContext) Test(name string, body suite.Body) {
	r.add(name, body, tap.None, false)
}

// Skip registers a test whose every line carries the skip directive.
func (r *RunContext) Skip(name string, body suite.Body) {
	r.add(name, body, tap.Skip, false)
}

// Todo registers a test whose every line carries the todo directive.
func (r *RunContext) Todo(name string, body suite.Body) {
	r.add(name, body, tap.Todo, false)
}

// Only restricts the run to tests registered through Only. The first call
// drops everything registered so far; afterwards Test, Skip and Todo are
// ignored and further Only calls append.
func (r *RunContext) Only(name string, body suite.Body) {
	r.add(name, body, tap.None, true)
}

// Before registers the hook run once before all tests.
func (r *RunContext) Before(body suite.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.Before = body
}

// After registers the hook run once after all tests.
func (r *RunContext) After(body suite.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.After = body
}

// BeforeEach registers the hook run before every test.
func (r *RunContext) BeforeEach(body suite.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.BeforeEach = body
}

// AfterEach registers the hook run after every test.
func (r *RunContext) AfterEach(body suite.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.AfterEach = body
}

// Entries returns a copy of the registered tests in insertion order.
func (r *RunContext) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Hooks returns the registered hooks.
func (r *RunContext) Hooks() Hooks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hooks
}

// Limited reports whether Only has been used.
func (r *RunContext) Limited() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.only
}

// SetLogger replaces the report sink. Nil restores stdout.
func (r *RunContext) SetLogger(l tap.Logger) {
	if l == nil {
		l = tap.Stdout()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Logger returns the report sink.
func (r *RunContext) Logger() tap.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

// SetFactory replaces the context factory. Nil restores the built-in one.
func (r *RunContext) SetFactory(f suite.Factory) {
	if f == nil {
		f = suite.DefaultFactory
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory = f
}

// Factory returns the context factory.
func (r *RunContext) Factory() suite.Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.factory
}

// SetAutostart controls whether the process entry point runs the
// registered tests on its own.
func (r *RunContext) SetAutostart(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autostart = v
}

// Autostart reports the autostart flag.
func (r *RunContext) Autostart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autostart
}

// Bus returns the lifecycle bus.
func (r *RunContext) Bus() *bus.Bus {
	return r.bus
}

// Set stores an arbitrary value under key.
func (r *RunContext) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *RunContext) Get(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	return v, ok
}

func (r *RunContext) add(name string, body suite.Body, d tap.Directive, only bool) {
	if body == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case only && !r.only:
		r.entries = nil
		r.only = true
	case !only && r.only:
		return
	}

	r.entries = append(r.entries, Entry{Name: name, Body: body, Directive: d})
}
