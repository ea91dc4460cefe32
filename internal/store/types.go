package store

import "time"

// Run statuses as stored.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunBailed    = "bailed"
)

// Test statuses as stored.
const (
	TestEnded   = "ended"
	TestAborted = "aborted"
)

// Run is one row of the runs table.
type Run struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Tests     int       `json:"tests"`
	Count     int64     `json:"count"`
	ErrorCode string    `json:"error_code,omitempty"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
}

// Test is one row of the tests table: a test or hook execution.
type Test struct {
	RunID     string `json:"run_id"`
	Seq       int    `json:"seq"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind"`
	Directive string `json:"directive,omitempty"`
	Start     int64  `json:"start"`
	Count     int64  `json:"count"`
	Plan      int    `json:"plan"`
	Pass      int    `json:"pass"`
	Fail      int    `json:"fail"`
	Skip      int    `json:"skip"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Outcome summarizes the row: aborted, failed or passed.
func (t Test) Outcome() string {
	switch {
	case t.Status == TestAborted:
		return "aborted"
	case t.Fail > 0:
		return "failed"
	default:
		return "passed"
	}
}
