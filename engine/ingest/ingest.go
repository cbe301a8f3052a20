// Package ingest runs raw corpus records through normalization and into
// the graph store, one write transaction per record.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/engine/normalize"
	"github.com/VoyagentAI/voyagent-mvp/pkg/fn"
	"github.com/VoyagentAI/voyagent-mvp/pkg/resilience"
)

const (
	// TripSubject is the NATS subject for incoming raw trip records.
	TripSubject = "engine.trips"
	// DLQSubject is the dead letter queue subject for failed records.
	DLQSubject = "engine.trips.dlq"
	// MaxRetries before sending a record to the DLQ.
	MaxRetries = 3
)

// TripWriter is the graph-side dependency of the pipeline.
// *graph.GraphStore satisfies it.
type TripWriter interface {
	WriteTrip(ctx context.Context, trip domain.NormalizedTrip) (string, error)
}

// Deps holds the external dependencies of the ingestion pipeline.
type Deps struct {
	Writer  TripWriter
	Breaker *resilience.Breaker
	Limiter *resilience.Limiter // optional write throttle
	Logger  *slog.Logger
}

// --- Pipeline stages ---

// Normalize decodes a raw record into a typed trip. It never fails:
// missing fields get defaults and undecodable payloads become empty
// sequences.
var Normalize fn.Stage[domain.RawRecord, domain.NormalizedTrip] = func(_ context.Context, rec domain.RawRecord) fn.Result[domain.NormalizedTrip] {
	return fn.Ok(normalize.Trip(rec))
}

// NewWrite creates the stage that writes a trip to the graph store.
func NewWrite(w TripWriter) fn.Stage[domain.NormalizedTrip, string] {
	return func(ctx context.Context, trip domain.NormalizedTrip) fn.Result[string] {
		id, err := w.WriteTrip(ctx, trip)
		if err != nil {
			return fn.Err[string](fmt.Errorf("graph write: %w", err))
		}
		return fn.Ok(id)
	}
}

// LoggedTap returns a stage that logs entry and exit with duration.
func LoggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(ctx context.Context, t T) fn.Result[T] {
		log.Debug("stage.enter", "stage", name)
		start := time.Now()
		defer func() {
			log.Debug("stage.exit", "stage", name, "duration", time.Since(start))
		}()
		return fn.Ok(t)
	}
}

// NewPipeline composes Normalize → Write, with the write stage behind
// the rate limiter and circuit breaker when they are configured.
func NewPipeline(deps Deps) fn.Stage[domain.RawRecord, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	write := NewWrite(deps.Writer)
	if deps.Breaker != nil {
		write = resilience.BreakerStage(deps.Breaker, write)
	}
	if deps.Limiter != nil {
		write = resilience.LimiterStageWait(deps.Limiter, write)
	}

	normalized := fn.Then(LoggedTap[domain.RawRecord]("normalize", log), fn.TracedStage("ingest.normalize", Normalize))
	written := fn.Then(normalized, fn.Then(LoggedTap[domain.NormalizedTrip]("write", log), fn.TracedStage("ingest.write", write)))
	return written
}
