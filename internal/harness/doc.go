// Package harness assembles everything around a run: it takes a populated
// registry and a configuration and wires the operational logger, the
// report sink, the run history recorder and the telemetry observer onto
// the registry's bus before handing it to the scheduler.
//
// Both the command line and the public tappedout.Main entry point run
// suites through this package, so a run behaves the same however it is
// started.
//
// Setup failures (unreadable database, bad log file, unknown exporter) are
// returned as errors before the report header is printed. A bailed run is
// not an error; it is reported in the scheduler result.
package harness
