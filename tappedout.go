// Package tappedout is a minimal sequential test runner reporting in TAP
// version 13.
//
// Tests are registered on a process-wide registry and run one at a time
// by Main:
//
//	func main() {
//		tappedout.Test("addition", func(t *tappedout.T) error {
//			t.Expect(4, 2+2, "sums")
//			t.End()
//			return nil
//		})
//		tappedout.Main()
//	}
//
// A body ends its test with t.End, possibly later from another goroutine.
// Returning an error or panicking from a body fails it and bails the run.
//
// Main reads its settings from TAPPEDOUT_* environment variables and from
// the YAML file named by TAPPEDOUT_CONFIG, if any.
package tappedout

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/config"
	"github.com/roach88/tappedout/internal/harness"
	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/scheduler"
	"github.com/roach88/tappedout/internal/suite"
	"github.com/roach88/tappedout/internal/tap"
)

// ConfigEnv names the environment variable holding a config file path.
const ConfigEnv = "TAPPEDOUT_CONFIG"

type (
	// T is the assertion context handed to every body.
	T = suite.T
	// Body is a test or hook function.
	Body = suite.Body
	// Directive marks result lines as skip or todo.
	Directive = tap.Directive
	// Diagnostic is a structured block attached beneath a result line.
	Diagnostic = tap.Diagnostic
	// Logger receives report lines.
	Logger = tap.Logger
	// LoggerFunc adapts a function to Logger.
	LoggerFunc = tap.LoggerFunc
	// Factory builds assertion contexts.
	Factory = suite.Factory
	// Event is a lifecycle notification.
	Event = bus.Event
	// Result is the outcome of a run.
	Result = scheduler.Result
)

// Call-site directives.
const (
	SkipDirective = tap.Skip
	TodoDirective = tap.Todo
)

// Diag builds a diagnostic from alternating key/value arguments.
func Diag(kv ...any) Diagnostic {
	return tap.Diag(kv...)
}

var (
	mu       sync.Mutex
	current  = registry.New()
	started  bool
	mainOnce sync.Once
)

// reg returns the process-wide registry.
func reg() *registry.RunContext {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// claim marks the registry as run. Only the first caller succeeds.
func claim() error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return scheduler.ErrAlreadyStarted
	}
	started = true
	return nil
}

// Test registers a test.
func Test(name string, body Body) { reg().Test(name, body) }

// Only restricts the run to tests registered through Only.
func Only(name string, body Body) { reg().Only(name, body) }

// Skip registers a test whose every line carries the skip directive.
func Skip(name string, body Body) { reg().Skip(name, body) }

// Todo registers a test whose every line carries the todo directive.
func Todo(name string, body Body) { reg().Todo(name, body) }

// Before sets the hook run once before all tests.
func Before(body Body) { reg().Before(body) }

// After sets the hook run once after all tests.
func After(body Body) { reg().After(body) }

// BeforeEach sets the hook run before every test.
func BeforeEach(body Body) { reg().BeforeEach(body) }

// AfterEach sets the hook run after every test.
func AfterEach(body Body) { reg().AfterEach(body) }

// SetLogger replaces the report sink. Nil restores stdout.
func SetLogger(l Logger) { reg().SetLogger(l) }

// SetFactory replaces the assertion context factory. Nil restores the
// built-in one.
func SetFactory(f Factory) { reg().SetFactory(f) }

// SetAutostart controls whether Main runs the tests.
func SetAutostart(v bool) { reg().SetAutostart(v) }

// On subscribes h to lifecycle events whose topic matches pattern, for
// example "test.*" or "run.end".
func On(pattern string, h func(Event)) { reg().Bus().On(pattern, h) }

// Once is like On but h fires at most once.
func Once(pattern string, h func(Event)) { reg().Bus().Once(pattern, h) }

// Set stores a value shared between tests.
func Set(key string, value any) { reg().Set(key, value) }

// Get returns a value stored with Set.
func Get(key string) (any, bool) { return reg().Get(key) }

// Run executes the registered tests with settings from the environment
// and returns the outcome. Run can be called once per process; later
// calls, and calls after Main has run the tests, return
// scheduler.ErrAlreadyStarted.
func Run(ctx context.Context) (*Result, error) {
	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		return nil, err
	}
	if err := claim(); err != nil {
		return nil, err
	}
	out, err := harness.Run(ctx, reg(), harness.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Main runs the registered tests unless autostart is disabled, either with
// SetAutostart or with run.autostart in the config. It only returns when
// the run completes; a bailed run exits the process with status 1 and a
// setup failure with status 2. Later calls do nothing.
func Main() {
	mainOnce.Do(func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := run(ctx, os.Stderr)
		stop()
		if code != 0 {
			os.Exit(code)
		}
	})
}

func run(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		fmt.Fprintf(stderr, "tappedout: %v\n", err)
		return 2
	}
	r := reg()
	if !cfg.Run.Autostart || !r.Autostart() {
		return 0
	}
	if err := claim(); err != nil {
		fmt.Fprintf(stderr, "tappedout: %v\n", err)
		return 2
	}

	out, err := harness.Run(ctx, r, harness.Options{Config: cfg, Diagnostics: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "tappedout: %v\n", err)
		return 2
	}
	if out.Status == scheduler.Bailed {
		return 1
	}
	return 0
}
