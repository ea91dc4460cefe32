// Package suite implements the per-test assertion context.
//
// A *T is created for every test or hook invocation. It numbers each
// result line with a run-wide ordinal, tracks pass/fail/skip counts,
// enforces an optional plan and resolves exactly once:
//
//   - next: End was called and the plan (if any) matched. The resolution
//     carries the number of ordinals the test consumed.
//   - abort: Bail, EndWithError, a plan mismatch or an expired timeout.
//     The resolution carries the error; the scheduler turns it into a
//     "Bail out!" line and stops the run.
//
// Once resolved the context is ended. Every further call is a silent no-op,
// which is what makes a late timer or a second End harmless.
//
// Bodies may finish asynchronously. Methods are safe to call from any
// goroutine, and lines of one test keep the order of the calls that
// produced them.
package suite
