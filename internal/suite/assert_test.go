package suite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tappedout/internal/tap"
)

func TestExpect_Equal(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect(map[string]int{"a": 1}, map[string]int{"a": 1}, "maps match")
	st.Expect([]string{"x"}, []string{"x"}, "slices match")

	assert.Equal(t, []string{"ok 1 - maps match", "ok 2 - slices match"}, out.Lines())
}

func TestExpect_Mismatch(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect(1, 2, "Expecting a failure to print.")

	lines := out.Lines()
	require.Len(t, lines, 9)
	assert.Equal(t, []string{
		"not ok 1 - Expecting a failure to print.",
		"  ---",
		"  message: Unmet expectation",
		"  severity: fail",
		"  expected: 1",
		"  actual: 2",
		"  diff:",
	}, lines[:7])
	assert.Contains(t, lines[7], "1 != 2")
	assert.Equal(t, "  ...", lines[8])
	assert.Equal(t, Stats{Plan: -1, Fail: 1}, st.Stats())
}

func TestExpect_NestedValuesRenderIndented(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect(map[string]any{"name": "a"}, map[string]any{"name": "b"}, "objects")

	lines := out.Lines()
	assert.Contains(t, lines, "  expected:")
	assert.Contains(t, lines, "    name: a")
	assert.Contains(t, lines, "  actual:")
	assert.Contains(t, lines, "    name: b")
}

func TestExpect_TodoMismatch(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect("a", "b", "known gap", tap.Todo)

	assert.Equal(t, "not ok 1 # todo known gap", out.Lines()[0])
	assert.Equal(t, Stats{Plan: -1, Pass: 1}, st.Stats())
}

func TestThrows(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Throws(func() error { return errors.New("Bad process") }, "I threw an error.")
	st.Throws(func() error { panic("Bad process") }, "I panicked.")
	st.Throws(func() error { return nil }, "I did not throw.")

	assert.Equal(t, []string{
		"ok 1 - I threw an error.",
		"ok 2 - I panicked.",
		"not ok 3 - I did not throw.",
	}, out.Lines())
}

func TestDoesNotThrow(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.DoesNotThrow(func() error { return nil }, "quiet")
	st.DoesNotThrow(func() error { return errors.New("Bad process") }, "I should not throw an error (but I probably did).")

	assert.Equal(t, []string{
		"ok 1 - quiet",
		"not ok 2 - I should not throw an error (but I probably did).",
		"  ---",
		"  error: Bad process",
		"  ...",
	}, out.Lines())
}

func TestDoesNotThrow_PanicAttachesStack(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.DoesNotThrow(func() error { panic(errors.New("Bad process")) }, "panicky")

	lines := out.Lines()
	assert.Equal(t, "not ok 1 - panicky", lines[0])
	assert.Equal(t, "  error: panic: Bad process", lines[2])
	assert.Equal(t, "  stack: |-", lines[3])
}

func TestInvoke(t *testing.T) {
	err, stack := Invoke(func() error { return nil })
	assert.NoError(t, err)
	assert.Empty(t, stack)

	err, stack = Invoke(nil)
	assert.NoError(t, err)
	assert.Empty(t, stack)

	cause := errors.New("inner")
	err, stack = Invoke(func() error { panic(cause) })
	require.Error(t, err)
	assert.NotEmpty(t, stack)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "panic: inner", err.Error())
}

type point struct{ x, y int }

func TestExpect_UnexportedFields(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect(point{1, 2}, point{1, 2}, "same point")
	st.Expect(point{1, 2}, point{3, 4}, "different point")

	lines := out.Lines()
	assert.Equal(t, "ok 1 - same point", lines[0])
	assert.Equal(t, "not ok 2 - different point", lines[1])
	assert.Contains(t, lines, "  diff: suite.point{x:1, y:2} != suite.point{x:3, y:4}")
	assert.Equal(t, Stats{Plan: -1, Pass: 1, Fail: 1}, st.Stats())
}

func TestExpect_FloatsComparedExactly(t *testing.T) {
	st, out := newTestT(t, Config{})

	st.Expect(1.0, 1.00000000001, "tiny difference")

	lines := out.Lines()
	assert.Equal(t, "not ok 1 - tiny difference", lines[0])
	assert.Contains(t, lines, "  message: Unmet expectation")
	assert.Equal(t, Stats{Plan: -1, Fail: 1}, st.Stats())
}
