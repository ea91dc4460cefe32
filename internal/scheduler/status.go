package scheduler

import "time"

// Event topics published by the scheduler.
const (
	TopicStart = "run.start"
	TopicEnd   = "run.end"
	TopicBail  = "run.bail"
)

// Status is the state of a run.
type Status int

const (
	NotStarted Status = iota
	Running
	Completed
	Bailed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Bailed:
		return "bailed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a run.
type Result struct {
	ID     string
	Status Status
	// Count is the number of ordinals consumed, the N of the "1..N" line.
	Count int64
	// Err is the abort reason of a bailed run.
	Err error
}

// RunInfo is the payload of run.* events.
type RunInfo struct {
	ID      string
	Status  Status
	Tests   int
	Count   int64
	Err     error
	Started time.Time
	Ended   time.Time
}
