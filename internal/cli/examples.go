package cli

import (
	"errors"
	"time"

	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/suite"
)

// Example suite defaults.
const (
	DefaultExampleDelay   = 300 * time.Millisecond
	DefaultExampleTimeout = time.Second
)

// RegisterExamples adds the bundled demonstration suites to reg. Each
// suite exercises every kind of result line and ends asynchronously after
// delay; timeout is the suite's own deadline, so a timeout shorter than
// delay shows a timed-out run.
func RegisterExamples(reg *registry.RunContext, delay, timeout time.Duration) {
	reg.Test("My Test Suite", exampleSuite(delay, timeout))
	reg.Test("My Other Test Suite", exampleSuite(delay, timeout))
}

func exampleSuite(delay, timeout time.Duration) suite.Body {
	return func(t *suite.T) error {
		t.TimeoutAfter(timeout)
		t.Ok(true, "I am OK.")
		t.Ok(false, "I am still OK.") // expected failure

		t.Throws(func() error {
			return errors.New("Bad process")
		}, "I threw an error.")

		t.DoesNotThrow(func() error {
			return errors.New("Bad process")
		}, "I should not throw an error (but I probably did).")

		t.Skip("Irrelevant")
		t.Todo("Not implemented yet.")

		time.AfterFunc(delay, func() {
			t.Ok(true, "Delayed method worked.")
			t.End()
		})
		return nil
	}
}
