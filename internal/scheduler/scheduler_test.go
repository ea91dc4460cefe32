package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/suite"
	"github.com/roach88/tappedout/internal/testutil"
)

// newRegistry returns a registry writing into a capture.
func newRegistry() (*registry.RunContext, *testutil.Output) {
	out := testutil.NewOutput()
	reg := registry.New()
	reg.SetLogger(out)
	return reg, out
}

// run executes reg with a fixed run id and fails the test on misuse errors.
func run(t *testing.T, reg *registry.RunContext, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator(""))}, opts...)
	res, err := New(reg, opts...).Run(context.Background())
	require.NoError(t, err)
	return res
}

// assertGolden compares the captured report with testdata/golden/<name>.golden.
func assertGolden(t *testing.T, name string, out *testutil.Output) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(out.String()))
}

func TestRun_Pass(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("pass", func(t *suite.T) error {
		t.Pass("pass")
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, int64(1), res.Count)
	assert.Equal(t, "test-run-1", res.ID)
	assert.NoError(t, res.Err)
	assertGolden(t, "pass", out)
}

func TestRun_OkNotOk(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("ok", func(t *suite.T) error {
		t.Ok(true, "true")
		t.Ok(false, "false")
		t.End()
		return nil
	})

	res := run(t, reg)

	// A failing assertion does not bail the run.
	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, int64(2), res.Count)
	assertGolden(t, "ok_not_ok", out)
}

func TestRun_BeforeHookFailureBails(t *testing.T) {
	reg, out := newRegistry()
	reg.Before(func(t *suite.T) error {
		return errors.New("boom")
	})
	ran := false
	reg.Test("never", func(t *suite.T) error {
		ran = true
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Bailed, res.Status)
	assert.False(t, ran)
	assert.Equal(t, suite.ErrCodeBodyFailure, suite.CodeOf(res.Err))
	assertGolden(t, "before_bail", out)
}

func TestRun_FullSequence(t *testing.T) {
	reg, out := newRegistry()

	var order []string
	reg.Before(func(t *suite.T) error {
		order = append(order, "before")
		t.Comment("setup")
		t.End()
		return nil
	})
	reg.BeforeEach(func(t *suite.T) error {
		order = append(order, "beforeEach")
		t.End()
		return nil
	})
	reg.AfterEach(func(t *suite.T) error {
		order = append(order, "afterEach")
		t.End()
		return nil
	})
	reg.After(func(t *suite.T) error {
		order = append(order, "after")
		t.Comment("teardown")
		t.End()
		return nil
	})

	reg.Test("math", func(t *suite.T) error {
		order = append(order, "math")
		t.Expect(4, 2+2, "sum")
		t.End()
		return nil
	})
	reg.Skip("skipped", func(t *suite.T) error {
		order = append(order, "skipped")
		t.Pass("never mind")
		t.End()
		return nil
	})
	reg.Todo("later", func(t *suite.T) error {
		order = append(order, "later")
		t.Fail("not done")
		t.End()
		return nil
	})
	reg.Test("skips", func(t *suite.T) error {
		order = append(order, "skips")
		t.Skip("irrelevant")
		t.Pass("relevant")
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, int64(5), res.Count)
	assert.Equal(t, []string{
		"before",
		"beforeEach", "math", "afterEach",
		"beforeEach", "skipped", "afterEach",
		"beforeEach", "later", "afterEach",
		"beforeEach", "skips", "afterEach",
		"after",
	}, order)
	assertGolden(t, "full_sequence", out)
}

func TestRun_HookAssertionsTakeOrdinals(t *testing.T) {
	reg, out := newRegistry()
	reg.BeforeEach(func(t *suite.T) error {
		t.Pass("fixture ready")
		t.End()
		return nil
	})
	reg.Test("a", func(t *suite.T) error {
		t.Pass("a")
		t.End()
		return nil
	})
	reg.Test("b", func(t *suite.T) error {
		t.Pass("b")
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, int64(4), res.Count)
	assert.Equal(t, []string{
		"TAP version 13",
		"ok 1 - fixture ready",
		"# a",
		"ok 2 - a",
		"ok 3 - fixture ready",
		"# b",
		"ok 4 - b",
		"1..4",
	}, out.Lines())
}

func TestRun_NoTests(t *testing.T) {
	reg, out := newRegistry()
	hookRan := false
	reg.Before(func(t *suite.T) error {
		hookRan = true
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, int64(0), res.Count)
	assert.False(t, hookRan)
	assertGolden(t, "no_tests", out)
}

func TestRun_Timeout(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("slow", func(t *suite.T) error {
		return nil
	})
	reg.Test("never", func(t *suite.T) error {
		t.End()
		return nil
	})

	res := run(t, reg, WithTimeout(20*time.Millisecond))

	assert.Equal(t, Bailed, res.Status)
	assert.True(t, suite.IsTimeout(res.Err))
	assertGolden(t, "timeout", out)
}

func TestRun_BodyTimeoutOverridesDefault(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("slow", func(t *suite.T) error {
		t.TimeoutAfter(10 * time.Millisecond)
		return nil
	})

	res := run(t, reg, WithTimeout(time.Hour))

	assert.Equal(t, Bailed, res.Status)
	assert.Equal(t, []string{"TAP version 13", "# slow", "Bail out! Timed out after 10ms"}, out.Lines())
}

func TestRun_PlanMismatchBails(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("planned", func(t *suite.T) error {
		t.Plan(2)
		t.Pass("one")
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Bailed, res.Status)
	assert.True(t, suite.IsPlanMismatch(res.Err))
	assertGolden(t, "plan_mismatch", out)
}

func TestRun_ExplicitBail(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("db", func(t *suite.T) error {
		t.Pass("connected")
		t.Bail("schema missing")
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Bailed, res.Status)
	assert.Equal(t, int64(0), res.Count)
	assert.Equal(t, []string{
		"TAP version 13",
		"# db",
		"ok 1 - connected",
		"Bail out! schema missing",
	}, out.Lines())
}

func TestRun_PanicInBody(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("panics", func(t *suite.T) error {
		panic("kaboom")
	})

	res := run(t, reg)

	assert.Equal(t, Bailed, res.Status)
	var pe *suite.PanicError
	assert.True(t, errors.As(res.Err, &pe))

	lines := out.Lines()
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "# panics", lines[1])
	assert.Equal(t, "not ok 1 - panic: kaboom", lines[2])
	assert.Equal(t, "  ---", lines[3])
	assert.Equal(t, "  stack: |-", lines[4])
	assert.Equal(t, "Bail out! panic: kaboom", lines[len(lines)-1])
}

func TestRun_BodyErrorAfterEndIsIgnored(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("late", func(t *suite.T) error {
		t.Pass("done")
		t.End()
		return errors.New("too late")
	})

	res := run(t, reg)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, []string{"TAP version 13", "# late", "ok 1 - done", "1..1"}, out.Lines())
}

func TestRun_AsyncEnd(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("async", func(t *suite.T) error {
		go func() {
			time.Sleep(5 * time.Millisecond)
			t.Pass("from goroutine")
			t.End()
		}()
		return nil
	})
	reg.Test("next", func(t *suite.T) error {
		t.Pass("after async")
		t.End()
		return nil
	})

	res := run(t, reg)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, []string{
		"TAP version 13",
		"# async",
		"ok 1 - from goroutine",
		"# next",
		"ok 2 - after async",
		"1..2",
	}, out.Lines())
}

func TestRun_ContextCancelled(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("hangs", func(t *suite.T) error {
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	res, err := New(reg).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Bailed, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, "Bail out! context canceled", out.Lines()[len(out.Lines())-1])
}

func TestRun_OnlyOnce(t *testing.T) {
	reg, _ := newRegistry()
	s := New(reg)
	assert.Equal(t, NotStarted, s.Status())

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, s.Status())

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestRun_Only(t *testing.T) {
	reg, out := newRegistry()
	reg.Test("dropped", func(t *suite.T) error {
		t.Fail("should not run")
		t.End()
		return nil
	})
	reg.Only("focused", func(t *suite.T) error {
		t.Pass("focused")
		t.End()
		return nil
	})
	reg.Test("ignored", func(t *suite.T) error {
		t.Fail("should not run")
		t.End()
		return nil
	})

	run(t, reg)

	assert.Equal(t, []string{"TAP version 13", "# focused", "ok 1 - focused", "1..1"}, out.Lines())
}

func TestRun_Events(t *testing.T) {
	reg, _ := newRegistry()
	reg.Test("a", func(t *suite.T) error {
		t.Pass("a")
		t.End()
		return nil
	})

	var mu sync.Mutex
	var topics []string
	reg.Bus().On("*.*", func(e bus.Event) {
		mu.Lock()
		defer mu.Unlock()
		topics = append(topics, e.Topic)
	})

	var end RunInfo
	reg.Bus().Once(TopicEnd, func(e bus.Event) {
		end = e.Arg(0).(RunInfo)
	})

	run(t, reg)

	assert.Equal(t, []string{"run.start", "suite.create", "test.end", "run.end"}, topics)
	assert.Equal(t, "test-run-1", end.ID)
	assert.Equal(t, Completed, end.Status)
	assert.Equal(t, 1, end.Tests)
	assert.Equal(t, int64(1), end.Count)
	assert.False(t, end.Ended.Before(end.Started))
}

func TestRun_BailEvent(t *testing.T) {
	reg, _ := newRegistry()
	reg.Test("bails", func(t *suite.T) error {
		t.Bail()
		return nil
	})

	var got []RunInfo
	reg.Bus().On("run.*", func(e bus.Event) {
		got = append(got, e.Arg(0).(RunInfo))
	})

	run(t, reg)

	require.Len(t, got, 2)
	assert.Equal(t, Running, got[0].Status)
	assert.Equal(t, Bailed, got[1].Status)
	assert.True(t, suite.IsBail(got[1].Err))
}

func TestRun_CustomFactory(t *testing.T) {
	reg, out := newRegistry()
	var seen []suite.Kind
	reg.SetFactory(suite.FactoryFunc(func(cfg suite.Config) *suite.T {
		seen = append(seen, cfg.Kind)
		cfg.Name = strings.ToUpper(cfg.Name)
		return suite.New(cfg)
	}))
	reg.AfterEach(func(t *suite.T) error {
		t.End()
		return nil
	})
	reg.Test("shout", func(t *suite.T) error {
		t.End()
		return nil
	})

	run(t, reg)

	assert.Equal(t, []suite.Kind{suite.KindTest, suite.KindAfterEach}, seen)
	assert.Equal(t, "# SHOUT", out.Lines()[1])
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "bailed", Bailed.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
