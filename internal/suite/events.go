package suite

import "github.com/roach88/tappedout/internal/tap"

// Lifecycle topics emitted on the bus.
const (
	TopicCreate  = "suite.create"
	TopicEnd     = "test.end"
	TopicAbort   = "test.abort"
	TopicSkipped = "test.skipped"
)

// Kind identifies what a context runs.
type Kind string

const (
	KindTest       Kind = "test"
	KindBefore     Kind = "before"
	KindAfter      Kind = "after"
	KindBeforeEach Kind = "beforeEach"
	KindAfterEach  Kind = "afterEach"
)

// IsHook reports whether k is one of the hook kinds.
func (k Kind) IsHook() bool {
	return k != KindTest && k != ""
}

// Stats are the counters of one context.
type Stats struct {
	// Plan is the declared assertion count, or -1 when unset.
	Plan int `json:"plan"`
	Pass int `json:"pass"`
	Fail int `json:"fail"`
	Skip int `json:"skip"`
}

// Total is the number of assertions checked against the plan.
func (s Stats) Total() int {
	return s.Pass + s.Fail
}

// Summary is the payload of every lifecycle event.
type Summary struct {
	Name      string        `json:"name,omitempty"`
	Kind      Kind          `json:"kind"`
	Directive tap.Directive `json:"directive,omitempty"`
	Start     int64         `json:"start"`
	Count     int64         `json:"count"`
	Stats     Stats         `json:"stats"`
	Message   string        `json:"message,omitempty"` // skip message or abort reason
	Err       error         `json:"-"`
}
