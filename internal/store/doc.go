// Package store keeps a SQLite history of runs.
//
// Two tables:
//   - runs: one row per scheduler run, keyed by run id
//   - tests: one row per executed entry (tests and hooks), keyed by
//     (run_id, seq) where seq is the execution position within the run
//
// A Recorder subscribes to a run's event bus and writes rows as the run
// progresses, so a history survives a run that bails halfway.
//
// Rows within a run are always read back ORDER BY seq ASC so listings
// match report order.
package store
