// Package scheduler drives a run: it takes the entries and hooks of a
// registry.RunContext and executes them one at a time, awaiting each
// assertion context before starting the next.
//
// Execution order:
//
//	before
//	for each test: beforeEach, test, afterEach
//	after
//
// Every entry runs in a fresh suite.T seeded with the cumulative ordinal
// count, so result numbers are unique across the whole report. The first
// entry that aborts (bail, timeout, plan mismatch or a failing body) ends
// the run with a "Bail out!" line and no plan line.
//
// Lifecycle events are published on the registry's bus:
//
//	run.start  RunInfo  before the header is printed
//	run.end    RunInfo  after the plan line (or "# no tests")
//	run.bail   RunInfo  after the "Bail out!" line
package scheduler
