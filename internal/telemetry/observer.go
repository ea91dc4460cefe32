package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tappedout/internal/bus"
	"github.com/roach88/tappedout/internal/scheduler"
	"github.com/roach88/tappedout/internal/suite"
)

// Observer turns bus events into spans and counters: a root span per run,
// a child span per executed entry, and the counters
//
//	tappedout.assertions{outcome=pass|fail|skip}
//	tappedout.tests{kind, status=ended|aborted}
//
// Thread-safety: safe for concurrent use. Entries run one at a time, so
// at most one entry span is open.
type Observer struct {
	tracer     trace.Tracer
	assertions metric.Int64Counter
	tests      metric.Int64Counter

	mu      sync.Mutex
	runCtx  context.Context
	runSpan trace.Span
	entry   trace.Span
}

// NewObserver creates an observer and its instruments.
func NewObserver(tracer trace.Tracer, meter metric.Meter) (*Observer, error) {
	assertions, err := meter.Int64Counter(
		"tappedout.assertions",
		metric.WithDescription("Assertions recorded by outcome"),
	)
	if err != nil {
		return nil, err
	}

	tests, err := meter.Int64Counter(
		"tappedout.tests",
		metric.WithDescription("Executed tests and hooks by kind and status"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:     tracer,
		assertions: assertions,
		tests:      tests,
		runCtx:     context.Background(),
	}, nil
}

// Attach subscribes the observer to b.
func (o *Observer) Attach(b *bus.Bus) {
	b.On(scheduler.TopicStart, o.onRunStart)
	b.On(suite.TopicCreate, o.onCreate)
	b.On(suite.TopicEnd, o.onEntryDone)
	b.On(suite.TopicAbort, o.onEntryDone)
	b.On(scheduler.TopicEnd, o.onRunDone)
	b.On(scheduler.TopicBail, o.onRunDone)
}

func (o *Observer) onRunStart(e bus.Event) {
	info, ok := e.Arg(0).(scheduler.RunInfo)
	if !ok {
		return
	}

	ctx, span := o.tracer.Start(context.Background(), "run",
		trace.WithAttributes(
			attribute.String("run.id", info.ID),
			attribute.Int("run.tests", info.Tests),
		),
	)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.runCtx, o.runSpan = ctx, span
}

func (o *Observer) onCreate(e bus.Event) {
	s, ok := e.Arg(0).(suite.Summary)
	if !ok {
		return
	}

	name := s.Name
	if name == "" {
		name = string(s.Kind)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	_, o.entry = o.tracer.Start(o.runCtx, name,
		trace.WithAttributes(
			attribute.String("test.name", s.Name),
			attribute.String("test.kind", string(s.Kind)),
			attribute.String("test.directive", string(s.Directive)),
			attribute.Int64("test.start", s.Start),
		),
	)
}

func (o *Observer) onEntryDone(e bus.Event) {
	s, ok := e.Arg(0).(suite.Summary)
	if !ok {
		return
	}
	aborted := e.Topic == suite.TopicAbort
	status := "ended"
	if aborted {
		status = "aborted"
	}

	ctx := context.Background()
	o.assertions.Add(ctx, int64(s.Stats.Pass), metric.WithAttributes(attribute.String("outcome", "pass")))
	o.assertions.Add(ctx, int64(s.Stats.Fail), metric.WithAttributes(attribute.String("outcome", "fail")))
	o.assertions.Add(ctx, int64(s.Stats.Skip), metric.WithAttributes(attribute.String("outcome", "skip")))
	o.tests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(s.Kind)),
		attribute.String("status", status),
	))

	o.mu.Lock()
	span := o.entry
	o.entry = nil
	o.mu.Unlock()
	if span == nil {
		return
	}

	span.SetAttributes(
		attribute.Int64("test.count", s.Count),
		attribute.Int("test.pass", s.Stats.Pass),
		attribute.Int("test.fail", s.Stats.Fail),
		attribute.Int("test.skip", s.Stats.Skip),
		attribute.String("test.status", status),
	)
	if aborted {
		recordError(span, s.Err, s.Message)
	}
	span.End()
}

func (o *Observer) onRunDone(e bus.Event) {
	info, ok := e.Arg(0).(scheduler.RunInfo)
	if !ok {
		return
	}

	o.mu.Lock()
	span := o.runSpan
	o.runSpan = nil
	o.runCtx = context.Background()
	o.mu.Unlock()
	if span == nil {
		return
	}

	span.SetAttributes(
		attribute.Int64("run.count", info.Count),
		attribute.String("run.status", info.Status.String()),
	)
	if info.Err != nil {
		recordError(span, info.Err, info.Err.Error())
	}
	span.End()
}

func recordError(span trace.Span, err error, msg string) {
	if err == nil {
		err = errors.New(msg)
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("error.code", string(suite.CodeOf(err)))))
	span.SetStatus(codes.Error, msg)
}
