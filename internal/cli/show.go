package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tappedout/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// RunDetail is the output of the show command.
type RunDetail struct {
	Run   store.Run    `json:"run"`
	Tests []store.Test `json:"tests"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the tests of a recorded run",
		Long: `Show one recorded run and every test and hook it executed, in order.

Examples:
  tappedout show --db ./runs.db 0192f4c4-7b1e-7c3a-9d2f-5e8a1b2c3d4e
  tappedout show --db ./runs.db 0192f4c4-7b1e-7c3a-9d2f-5e8a1b2c3d4e --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, runID string, cmd *cobra.Command) error {
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	tests, err := st.ReadTests(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read tests", err)
	}

	detail := RunDetail{Run: run, Tests: tests}
	return opts.formatter(cmd).Success(detail, func(w io.Writer) error {
		return renderRunDetail(w, detail)
	})
}

func renderRunDetail(w io.Writer, d RunDetail) error {
	fmt.Fprintf(w, "Run:     %s\n", d.Run.ID)
	if d.Run.Error != "" {
		fmt.Fprintf(w, "Status:  %s (%s: %s)\n", d.Run.Status, d.Run.ErrorCode, d.Run.Error)
	} else {
		fmt.Fprintf(w, "Status:  %s\n", d.Run.Status)
	}
	fmt.Fprintf(w, "Started: %s\n", d.Run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Count:   %d\n\n", d.Run.Count)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tNAME\tORDINALS\tPASS\tFAIL\tSKIP\tOUTCOME")
	for _, t := range d.Tests {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			t.Seq, t.Kind, displayName(t), ordinals(t),
			t.Pass, t.Fail, t.Skip, t.Outcome())
	}
	return tw.Flush()
}

func displayName(t store.Test) string {
	switch {
	case t.Name == "":
		return "-"
	case t.Directive != "":
		return fmt.Sprintf("%s [%s]", t.Name, t.Directive)
	default:
		return t.Name
	}
}

// ordinals renders the range of result numbers a test consumed.
func ordinals(t store.Test) string {
	switch t.Count {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("%d", t.Start+1)
	default:
		return fmt.Sprintf("%d-%d", t.Start+1, t.Start+t.Count)
	}
}

// openExisting opens a history database that must already exist, so a
// typo in --db does not silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
