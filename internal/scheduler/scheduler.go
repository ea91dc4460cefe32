package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/suite"
	"github.com/roach88/tappedout/internal/tap"
)

// ErrAlreadyStarted is returned by Run on a scheduler that has run before.
var ErrAlreadyStarted = errors.New("scheduler: run already started")

// Scheduler executes the entries of one registry.
//
// Thread-safety: Run must be called at most once. Status is safe from any
// goroutine.
type Scheduler struct {
	reg     *registry.RunContext
	ids     IDGenerator
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	status Status
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the operational logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scheduler) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithTimeout applies a timeout to every entry that does not set its own.
// Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// WithClock sets the time source used for RunInfo timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a scheduler for reg.
func New(reg *registry.RunContext, opts ...Option) *Scheduler {
	s := &Scheduler{
		reg:    reg,
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current state of the run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// step is one entry of the execution sequence.
type step struct {
	name      string
	kind      suite.Kind
	body      suite.Body
	directive tap.Directive
}

// Run executes the registered entries and writes the report.
//
// A bailed run is not an error: it is reported through Result.Status and
// Result.Err. The error return is reserved for misuse.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.status != NotStarted {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.status = Running
	s.mu.Unlock()

	out := s.reg.Logger()
	entries := s.reg.Entries()
	hooks := s.reg.Hooks()

	info := RunInfo{
		ID:      s.ids.Generate(),
		Status:  Running,
		Tests:   len(entries),
		Started: s.now(),
	}
	s.logger.Debug("run starting", "run", info.ID, "tests", len(entries))
	s.reg.Bus().Emit(TopicStart, info)
	out.Log(tap.Header)

	if len(entries) == 0 {
		out.Log("# no tests")
		return s.complete(info), nil
	}

	var count int64
	for _, st := range s.plan(entries, hooks) {
		n, err := s.execute(ctx, st, count)
		if err != nil {
			info.Count = count
			return s.bail(info, err), nil
		}
		count += n
	}

	info.Count = count
	out.Log(tap.Plan(count))
	return s.complete(info), nil
}

// plan lays out the full execution sequence.
func (s *Scheduler) plan(entries []registry.Entry, hooks registry.Hooks) []step {
	steps := make([]step, 0, len(entries)*3+2)
	if hooks.Before != nil {
		steps = append(steps, step{kind: suite.KindBefore, body: hooks.Before})
	}
	for _, e := range entries {
		if hooks.BeforeEach != nil {
			steps = append(steps, step{kind: suite.KindBeforeEach, body: hooks.BeforeEach})
		}
		steps = append(steps, step{name: e.Name, kind: suite.KindTest, body: e.Body, directive: e.Directive})
		if hooks.AfterEach != nil {
			steps = append(steps, step{kind: suite.KindAfterEach, body: hooks.AfterEach})
		}
	}
	if hooks.After != nil {
		steps = append(steps, step{kind: suite.KindAfter, body: hooks.After})
	}
	return steps
}

// execute runs one entry and waits for its context to resolve. It returns
// the ordinals consumed, or the abort reason.
func (s *Scheduler) execute(ctx context.Context, st step, start int64) (int64, error) {
	t := s.reg.Factory().NewT(suite.Config{
		Name:      st.name,
		Kind:      st.kind,
		Start:     start,
		Directive: st.directive,
		Output:    s.reg.Logger(),
		Bus:       s.reg.Bus(),
		Logger:    s.logger,
	})
	if s.timeout > 0 {
		t.TimeoutAfter(s.timeout)
	}

	if err, _ := suite.Invoke(func() error { return st.body(t) }); err != nil {
		t.FailError(err)
		t.EndWithError(suite.NewBodyError(st.name, err))
	}

	select {
	case o := <-t.Done():
		return o.Count, o.Err
	case <-ctx.Done():
		t.EndWithError(ctx.Err())
		o := <-t.Done()
		if o.Err == nil {
			return o.Count, nil
		}
		return 0, o.Err
	}
}

func (s *Scheduler) complete(info RunInfo) *Result {
	s.setStatus(Completed)
	info.Status = Completed
	info.Ended = s.now()

	s.logger.Debug("run completed", "run", info.ID, "count", info.Count)
	s.reg.Bus().Emit(TopicEnd, info)
	return &Result{ID: info.ID, Status: Completed, Count: info.Count}
}

func (s *Scheduler) bail(info RunInfo, err error) *Result {
	s.setStatus(Bailed)
	info.Status = Bailed
	info.Err = err
	info.Ended = s.now()

	s.reg.Logger().Log(tap.Bail(err.Error()))
	s.logger.Warn("run bailed", "run", info.ID, "code", suite.CodeOf(err), "error", err)
	s.reg.Bus().Emit(TopicBail, info)
	return &Result{ID: info.ID, Status: Bailed, Count: info.Count, Err: err}
}

func (s *Scheduler) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}
