package suite

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/tap"
)

// Body is the function registered for a test or hook.
//
// A non-nil return value is a failure of the body itself (the equivalent
// of an uncaught exception). The scheduler converts it into a failing
// result line and aborts the run. A body that ends asynchronously returns
// nil and calls End later.
type Body func(t *T) error

// Outcome is the resolution of a context.
type Outcome struct {
	// Count is the number of ordinals the test consumed. Zero on abort.
	Count int64

	// Err is nil for a normal end and the abort reason otherwise.
	Err error
}

// Config seeds a new context.
type Config struct {
	// Name is rendered as a comment line when non-empty.
	Name string

	// Kind tells tests and hooks apart for observers. Defaults to KindTest.
	Kind Kind

	// Start is the cumulative ordinal count of the run so far.
	Start int64

	// Directive is fixed for every line of this context when set.
	Directive tap.Directive

	// Output receives report lines. Defaults to stdout.
	Output tap.Logger

	// Bus receives lifecycle events. Optional.
	Bus *bus.Bus

	// Logger receives operational logs. Defaults to a discarding logger.
	Logger *slog.Logger
}

// T is the assertion context handed to a test body.
type T struct {
	mu        sync.Mutex
	name      string
	kind      Kind
	directive tap.Directive
	start     int64
	counter   *Counter
	stats     Stats
	ended     bool
	timer     *time.Timer

	out    tap.Logger
	bus    *bus.Bus
	logger *slog.Logger

	done chan Outcome
}

// New creates a context and announces it on the bus.
func New(cfg Config) *T {
	if cfg.Output == nil {
		cfg.Output = tap.Stdout()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Kind == "" {
		cfg.Kind = KindTest
	}

	t := &T{
		name:      cfg.Name,
		kind:      cfg.Kind,
		directive: tap.ParseDirective(string(cfg.Directive)),
		start:     cfg.Start,
		counter:   NewCounterAt(cfg.Start),
		stats:     Stats{Plan: -1},
		out:       cfg.Output,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		done:      make(chan Outcome, 1),
	}

	if line, ok := tap.Comment(cfg.Name); ok {
		t.out.Log(line)
	}
	t.emit(TopicCreate, t.summary(nil, ""))

	return t
}

// Name returns the test name.
func (t *T) Name() string {
	return t.name
}

// Kind returns whether the context runs a test or a hook.
func (t *T) Kind() Kind {
	return t.kind
}

// Directive returns the fixed directive of the context.
func (t *T) Directive() tap.Directive {
	return t.directive
}

// Start returns the ordinal offset the context was seeded with.
func (t *T) Start() int64 {
	return t.start
}

// Stats returns a snapshot of the counters.
func (t *T) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Ended reports whether the context has resolved.
func (t *T) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Done returns a channel that receives the single resolution.
func (t *T) Done() <-chan Outcome {
	return t.done
}

// Plan declares the expected number of assertions. A negative count
// clears the plan.
func (t *T) Plan(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	if n < 0 {
		n = -1
	}
	t.stats.Plan = n
}

// Comment emits an uncounted annotation line. Blank messages are ignored.
func (t *T) Comment(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	if line, ok := tap.Comment(msg); ok {
		t.out.Log(line)
	}
}

// Diag attaches a diagnostic block beneath the most recent line.
func (t *T) Diag(d tap.Diagnostic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended || len(d) == 0 {
		return
	}
	t.out.Log(d.Render())
}

// Pass records a successful assertion.
func (t *T) Pass(msg string, d ...tap.Directive) {
	t.record(true, msg, tap.Resolve(t.directive, d...), nil)
}

// Fail records a failed assertion. Under the todo directive the failure
// is expected and counts as a pass.
func (t *T) Fail(msg string, d ...tap.Directive) {
	t.record(false, msg, tap.Resolve(t.directive, d...), nil)
}

// FailError records a failed assertion for err. The line carries the
// first line of the error text; the full text and, for panics, the stack
// trace go into a diagnostic.
func (t *T) FailError(err error, d ...tap.Directive) {
	if err == nil {
		return
	}
	short, full := describe(err)
	var diag tap.Diagnostic
	if full != short {
		diag = diag.With("error", full)
	}
	var pe *PanicError
	if errors.As(err, &pe) && pe.Stack != "" {
		diag = diag.With("stack", pe.Stack)
	}
	t.record(false, short, tap.Resolve(t.directive, d...), diag)
}

// Skip records a skipped assertion. It consumes an ordinal but is not
// counted against the plan.
func (t *T) Skip(msg string) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.stats.Skip++
	t.out.Log(tap.Result(true, t.counter.Next(), tap.Resolve(t.directive, tap.Skip), msg))
	s := t.summaryLocked(nil, msg)
	t.mu.Unlock()

	t.emit(TopicSkipped, s)
}

// Todo records a not-yet-implemented check. It always counts as a pass;
// ok only selects the rendered status (default true).
func (t *T) Todo(msg string, ok ...bool) {
	outcome := len(ok) == 0 || ok[0]

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.stats.Pass++
	t.out.Log(tap.Result(outcome, t.counter.Next(), tap.Resolve(t.directive, tap.Todo), msg))
}

// Ok passes when cond is true and fails otherwise.
func (t *T) Ok(cond bool, msg string, d ...tap.Directive) {
	if cond {
		t.Pass(msg, d...)
		return
	}
	t.Fail(msg, d...)
}

// Bail aborts the test and the run.
func (t *T) Bail(msg ...string) {
	t.abort(NewBailError(t.name, strings.Join(msg, " ")))
}

// TimeoutAfter aborts the test if it has not ended within d. A second call
// replaces the pending timeout.
func (t *T) TimeoutAfter(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.logger.Debug("test timed out", "test", t.name, "after", d)
		t.abort(NewTimeoutError(t.name, d))
	})
}

// End resolves the test. A declared plan that does not match the number
// of assertions aborts instead.
func (t *T) End() {
	t.mu.Lock()
	if !t.finishLocked() {
		t.mu.Unlock()
		return
	}
	if plan, total := t.stats.Plan, t.stats.Total(); plan >= 0 && plan != total {
		err := NewPlanError(t.name, plan, total)
		s := t.summaryLocked(err, err.Message)
		t.mu.Unlock()
		t.resolveAbort(err, s)
		return
	}
	count := t.counter.Current() - t.start
	s := t.summaryLocked(nil, "")
	t.mu.Unlock()

	t.logger.Debug("test ended", "test", t.name, "count", count)
	t.emit(TopicEnd, s)
	t.done <- Outcome{Count: count}
}

// EndWithError aborts the test with err. A nil err behaves like End.
func (t *T) EndWithError(err error) {
	if err == nil {
		t.End()
		return
	}
	t.abort(asAbortError(t.name, err))
}

// record emits a result line and its optional diagnostic under one lock so
// nothing can interleave between them.
func (t *T) record(ok bool, msg string, d tap.Directive, diag tap.Diagnostic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}

	switch {
	case ok, d == tap.Todo:
		t.stats.Pass++
	default:
		t.stats.Fail++
	}

	t.out.Log(tap.Result(ok, t.counter.Next(), d, msg))
	if len(diag) > 0 {
		t.out.Log(diag.Render())
	}
}

// abort resolves with err.
func (t *T) abort(err *Error) {
	t.mu.Lock()
	if !t.finishLocked() {
		t.mu.Unlock()
		return
	}
	s := t.summaryLocked(err, err.Message)
	t.mu.Unlock()

	t.resolveAbort(err, s)
}

// resolveAbort announces and delivers an abort. The context must already
// be ended.
func (t *T) resolveAbort(err *Error, s Summary) {
	t.logger.Debug("test aborted", "test", t.name, "code", err.Code, "error", err.Message)
	t.emit(TopicAbort, s)
	t.done <- Outcome{Err: err}
}

// finishLocked flips the terminal flag and cancels the pending timeout.
// It returns false if the context had already ended.
func (t *T) finishLocked() bool {
	if t.ended {
		return false
	}
	t.ended = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return true
}

func (t *T) summary(err error, msg string) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summaryLocked(err, msg)
}

func (t *T) summaryLocked(err error, msg string) Summary {
	return Summary{
		Name:      t.name,
		Kind:      t.kind,
		Directive: t.directive,
		Start:     t.start,
		Count:     t.counter.Current() - t.start,
		Stats:     t.stats,
		Message:   msg,
		Err:       err,
	}
}

func (t *T) emit(topic string, s Summary) {
	if t.bus != nil {
		t.bus.Emit(topic, s)
	}
}
