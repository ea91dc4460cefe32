package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/scheduler"
	"github.com/roach88/tappedout/internal/suite"
)

// Recorder writes run history from bus events.
//
// run.start inserts the run row, test.end and test.abort insert one test
// row each, run.end and run.bail finish the run row. Write failures are
// logged and kept; they never affect the run itself.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	store  *Store
	logger *slog.Logger

	mu    sync.Mutex
	runID string
	seq   int
	err   error
}

// NewRecorder creates a recorder writing to st.
func NewRecorder(st *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: st, logger: logger}
}

// Attach subscribes the recorder to b.
func (r *Recorder) Attach(b *bus.Bus) {
	b.On(scheduler.TopicStart, r.onRunStart)
	b.On("test.*", r.onTest)
	b.On(scheduler.TopicEnd, r.onRunFinish)
	b.On(scheduler.TopicBail, r.onRunFinish)
}

// Err returns the write errors seen so far, joined.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// RunID returns the id of the run being recorded or last recorded.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

func (r *Recorder) onRunStart(e bus.Event) {
	info, ok := e.Arg(0).(scheduler.RunInfo)
	if !ok {
		return
	}

	r.mu.Lock()
	r.runID = info.ID
	r.seq = 0
	r.mu.Unlock()

	r.record(r.store.WriteRun(context.Background(), Run{
		ID:        info.ID,
		Status:    RunRunning,
		Tests:     info.Tests,
		StartedAt: info.Started,
	}))
}

func (r *Recorder) onTest(e bus.Event) {
	if e.Topic != suite.TopicEnd && e.Topic != suite.TopicAbort {
		return
	}
	s, ok := e.Arg(0).(suite.Summary)
	if !ok {
		return
	}

	r.mu.Lock()
	if r.runID == "" {
		r.mu.Unlock()
		return
	}
	r.seq++
	t := Test{
		RunID:     r.runID,
		Seq:       r.seq,
		Name:      s.Name,
		Kind:      string(s.Kind),
		Directive: string(s.Directive),
		Start:     s.Start,
		Count:     s.Count,
		Plan:      s.Stats.Plan,
		Pass:      s.Stats.Pass,
		Fail:      s.Stats.Fail,
		Skip:      s.Stats.Skip,
		Status:    TestEnded,
	}
	r.mu.Unlock()

	if e.Topic == suite.TopicAbort {
		t.Status = TestAborted
		t.ErrorCode = string(suite.CodeOf(s.Err))
		t.Error = s.Message
	}
	r.record(r.store.WriteTest(context.Background(), t))
}

func (r *Recorder) onRunFinish(e bus.Event) {
	info, ok := e.Arg(0).(scheduler.RunInfo)
	if !ok {
		return
	}

	run := Run{
		ID:      info.ID,
		Status:  RunCompleted,
		Count:   info.Count,
		EndedAt: info.Ended,
	}
	if info.Status == scheduler.Bailed {
		run.Status = RunBailed
	}
	if info.Err != nil {
		run.ErrorCode = string(suite.CodeOf(info.Err))
		run.Error = info.Err.Error()
	}
	r.record(r.store.FinishRun(context.Background(), run))
}

func (r *Recorder) record(err error) {
	if err == nil {
		return
	}
	r.logger.Warn("history write failed", "error", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = errors.Join(r.err, err)
}
