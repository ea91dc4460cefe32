package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/tappedout/internal/config"
	"github.com/roach88/tappedout/internal/logging"
	"github.com/roach88/tappedout/internal/registry"
	"github.com/roach88/tappedout/internal/scheduler"
	"github.com/roach88/tappedout/internal/store"
	"github.com/roach88/tappedout/internal/tap"
	"github.com/roach88/tappedout/internal/telemetry"
)

// Options configure Run. Zero values fall back to defaults.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config

	// Report receives the TAP report. Nil keeps the registry's sink.
	Report io.Writer

	// Diagnostics receives operational logs and telemetry. Defaults to
	// os.Stderr.
	Diagnostics io.Writer

	// Verbose forces debug logging.
	Verbose bool

	// IDGenerator overrides run ids (for testing).
	IDGenerator scheduler.IDGenerator

	// Version is reported in telemetry resources.
	Version string
}

// Outcome is what Run reports back.
type Outcome struct {
	*scheduler.Result

	// HistoryErr holds history write failures. They never change the
	// run's status.
	HistoryErr error
}

// Run executes reg with the full stack described by opts.
func Run(ctx context.Context, reg *registry.RunContext, opts Options) (*Outcome, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	diag := opts.Diagnostics
	if diag == nil {
		diag = os.Stderr
	}

	log, err := logging.New(cfg.Log, diag)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	defer log.Close()
	if opts.Verbose {
		log.SetLevel(slog.LevelDebug)
	}

	if opts.Report != nil {
		reg.SetLogger(tap.NewWriterLogger(opts.Report))
	}

	var rec *store.Recorder
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		rec = store.NewRecorder(st, log.Logger)
		rec.Attach(reg.Bus())
		log.Debug("recording history", "path", cfg.Store.Path)
	}

	providers, err := telemetry.Init(cfg.Telemetry, opts.Version, diag)
	if err != nil {
		return nil, fmt.Errorf("set up telemetry: %w", err)
	}
	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			log.Error("error flushing telemetry", "error", shutdownErr)
		}
	}()
	observer, err := telemetry.NewObserver(providers.Tracer, providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("set up telemetry: %w", err)
	}
	observer.Attach(reg.Bus())

	res, err := scheduler.New(reg,
		scheduler.WithLogger(log.Logger),
		scheduler.WithTimeout(cfg.Run.Timeout),
		scheduler.WithIDGenerator(opts.IDGenerator),
	).Run(ctx)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res}
	if rec != nil {
		out.HistoryErr = rec.Err()
		if out.HistoryErr != nil {
			log.Warn("run history incomplete", "run", res.ID, "error", out.HistoryErr)
		}
	}
	return out, nil
}
