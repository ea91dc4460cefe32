// Package tap renders Test Anything Protocol (version 13) report lines.
//
// Every line produced by a run goes through this package:
//
//	TAP version 13
//	# suite name
//	ok 1 - passed
//	not ok 2 # todo not implemented
//	  ---
//	  message: Unmet expectation
//	  expected: 1
//	  actual: 2
//	  ...
//	1..2
//
// A failed run ends with a "Bail out!" line instead of the plan line.
//
// Lines are handed to a Logger, the single output sink of a run. The
// default sink writes to stdout; tests capture lines with a buffer-backed
// logger.
package tap
