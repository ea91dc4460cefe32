package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tappedout/internal/harness"
	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/scheduler"
)

// Version is reported in telemetry resources.
var Version = "dev"

// ExampleOptions holds flags for the example command.
type ExampleOptions struct {
	*RootOptions
	Database     string
	Timeout      time.Duration
	Delay        time.Duration
	SuiteTimeout time.Duration

	// IDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator scheduler.IDGenerator
}

// NewExampleCommand creates the example command.
func NewExampleCommand(rootOpts *RootOptions) *cobra.Command {
	return newExampleCommand(&ExampleOptions{RootOptions: rootOpts})
}

func newExampleCommand(opts *ExampleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Run the bundled example suites",
		Long: `Run the bundled example suites and print the TAP report on stdout.

The suites produce every kind of result line: passes, expected failures,
diagnostics, skips, todos and an asynchronous assertion. Lower
--suite-timeout below --delay to see a run bail out on a timeout.

With --db (or store.path in the config) the run is recorded and can be
inspected with the history and show commands.

Examples:
  tappedout example
  tappedout example --db ./runs.db
  tappedout example --suite-timeout 100ms`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExample(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "timeout applied to every test (overrides run.timeout)")
	cmd.Flags().DurationVar(&opts.Delay, "delay", DefaultExampleDelay, "delay before each suite's asynchronous assertion")
	cmd.Flags().DurationVar(&opts.SuiteTimeout, "suite-timeout", DefaultExampleTimeout, "deadline each suite sets for itself")

	return cmd
}

func runExample(opts *ExampleOptions, cmd *cobra.Command) error {
	cfg, err := opts.settings()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	runCfg := *cfg
	if opts.Database != "" {
		runCfg.Store.Path = opts.Database
	}
	if cmd.Flags().Changed("timeout") {
		runCfg.Run.Timeout = opts.Timeout
	}

	reg := registry.New()
	RegisterExamples(reg, opts.Delay, opts.SuiteTimeout)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := harness.Run(ctx, reg, harness.Options{
		Config:      &runCfg,
		Report:      cmd.OutOrStdout(),
		Diagnostics: cmd.ErrOrStderr(),
		Verbose:     opts.Verbose,
		IDGenerator: opts.IDGenerator,
		Version:     Version,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run", err)
	}

	if runCfg.Store.Path != "" && out.HistoryErr == nil {
		opts.formatter(cmd).VerboseLog("run %s recorded to %s", out.ID, runCfg.Store.Path)
	}

	if out.Status == scheduler.Bailed {
		return WrapExitError(ExitFailure, "run bailed out", out.Err)
	}
	return nil
}
