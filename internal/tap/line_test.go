package tap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Plain(t *testing.T) {
	assert.Equal(t, "ok 1 - passed", Result(true, 1, None, "passed"))
	assert.Equal(t, "not ok 2 - failed", Result(false, 2, None, "failed"))
}

func TestResult_Directives(t *testing.T) {
	assert.Equal(t, "ok 3 # skip Irrelevant", Result(true, 3, Skip, "Irrelevant"))
	assert.Equal(t, "not ok 4 # todo Not implemented yet.", Result(false, 4, Todo, "Not implemented yet."))
}

func TestResult_EmptyMessage(t *testing.T) {
	// The separator is dropped, not left dangling.
	assert.Equal(t, "ok 1", Result(true, 1, None, ""))
	assert.Equal(t, "ok 1 # skip", Result(true, 1, Skip, ""))
	assert.Equal(t, "not ok 7", Result(false, 7, None, "   "))
}

func TestComment(t *testing.T) {
	line, ok := Comment("comment")
	assert.True(t, ok)
	assert.Equal(t, "# comment", line)

	_, ok = Comment("  ")
	assert.False(t, ok)
}

func TestPlanAndBail(t *testing.T) {
	assert.Equal(t, "1..12", Plan(12))
	assert.Equal(t, "1..0", Plan(0))
	assert.Equal(t, "Bail out! Expected 3 tests, 2 ran.", Bail("Expected 3 tests, 2 ran."))
	assert.Equal(t, "Bail out!", Bail(""))
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		in   string
		want Directive
	}{
		{"skip", Skip},
		{" TODO ", Todo},
		{"Skip", Skip},
		{"later", None},
		{"", None},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective(tt.in))
		})
	}
}

func TestResolve_FixedWins(t *testing.T) {
	assert.Equal(t, Skip, Resolve(Skip, Todo))
	assert.Equal(t, Todo, Resolve(Todo))
}

func TestResolve_CallSite(t *testing.T) {
	assert.Equal(t, Todo, Resolve(None, "todo"))
	assert.Equal(t, None, Resolve(None, "bogus"))
	assert.Equal(t, None, Resolve(None))
}

func TestMarker(t *testing.T) {
	assert.Equal(t, "- ", None.Marker())
	assert.Equal(t, "# skip ", Skip.Marker())
	assert.Equal(t, "# todo ", Todo.Marker())
}

func TestComment_MultiLine(t *testing.T) {
	line, ok := Comment("first\r\nsecond\n\n  third")
	assert.True(t, ok)
	assert.Equal(t, "# first\n# second\n#   third", line)

	_, ok = Comment("\n \n")
	assert.False(t, ok)
}

func TestResultAndBail_FoldLineBreaks(t *testing.T) {
	assert.Equal(t, "ok 1 - two lines", Result(true, 1, None, "two\nlines"))
	assert.Equal(t, "not ok 2 # todo a b", Result(false, 2, Todo, "a\r\nb"))
	assert.Equal(t, "Bail out! broken here", Bail("broken\nhere"))
}
