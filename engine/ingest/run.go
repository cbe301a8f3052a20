package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/VoyagentAI/voyagent-mvp/engine/dataset"
	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// Skip records why one record was left out of the graph.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes one ingestion run.
type Report struct {
	Written int           `json:"written"`
	Skipped int           `json:"skipped"`
	Skips   []Skip        `json:"skips,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

func (r *Report) skip(idx int, err error) {
	r.Skipped++
	r.Skips = append(r.Skips, Skip{Index: idx, Reason: err.Error()})
}

// recOrigin pulls the org field out of a raw record for skip context.
func recOrigin(rec domain.RawRecord) string {
	s, _ := rec["org"].(string)
	return s
}

// Run streams every record from src through the pipeline. Per-record
// failures (malformed records, rolled-back writes) are recorded as
// skips and the run continues; source unavailability aborts the run
// with the partial report. Cancellation is honored between records.
func Run(ctx context.Context, src dataset.Source, deps Deps) (Report, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	pipeline := NewPipeline(deps)
	start := time.Now()
	report := Report{}
	idx := 0

	for {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, domain.ErrRecordMalformed) {
				report.skip(idx, err)
				idx++
				log.Warn("ingest: malformed record", "index", idx-1, "error", err)
				continue
			}
			report.Elapsed = time.Since(start)
			return report, err
		}

		result := pipeline(ctx, rec)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			recErr := domain.NewRecordError(idx, recOrigin(rec), pipeErr)
			report.skip(idx, recErr)
			idx++
			log.Warn("ingest: record skipped", "error", recErr)
			continue
		}
		id, _ := result.Unwrap()
		report.Written++
		idx++
		log.Debug("ingest: trip written", "trip_id", id)

		if p, ok := src.(dataset.Positioned); ok && report.Written%100 == 0 {
			log.Info("ingest: progress", "offset", p.Offset(), "written", report.Written, "skipped", report.Skipped)
		}
	}

	report.Elapsed = time.Since(start)
	log.Info("ingest: run complete", "written", report.Written, "skipped", report.Skipped, "elapsed", report.Elapsed)
	return report, nil
}

// RunParallel is Run with a pool of workers. The source is still read
// sequentially; each record gets its own transaction, so completion
// order across workers is not the record order. workers <= 1 falls back
// to Run.
func RunParallel(ctx context.Context, src dataset.Source, deps Deps, workers int) (Report, error) {
	if workers <= 1 {
		return Run(ctx, src, deps)
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	pipeline := NewPipeline(deps)
	start := time.Now()

	type item struct {
		idx int
		rec domain.RawRecord
	}

	var (
		mu     sync.Mutex
		report Report
	)
	skip := func(idx int, err error) {
		mu.Lock()
		report.skip(idx, err)
		mu.Unlock()
	}

	ch := make(chan item)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range ch {
				result := pipeline(ctx, it.rec)
				if result.IsErr() {
					_, pipeErr := result.Unwrap()
					recErr := domain.NewRecordError(it.idx, recOrigin(it.rec), pipeErr)
					log.Warn("ingest: record skipped", "error", recErr)
					skip(it.idx, recErr)
					continue
				}
				mu.Lock()
				report.Written++
				mu.Unlock()
			}
		}()
	}

	var srcErr error
	idx := 0
	for srcErr == nil {
		if err := ctx.Err(); err != nil {
			srcErr = err
			break
		}
		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, domain.ErrRecordMalformed) {
				log.Warn("ingest: malformed record", "index", idx, "error", err)
				skip(idx, err)
				idx++
				continue
			}
			srcErr = err
			break
		}
		ch <- item{idx: idx, rec: rec}
		idx++
	}
	close(ch)
	wg.Wait()

	report.Elapsed = time.Since(start)
	if srcErr != nil {
		return report, srcErr
	}
	log.Info("ingest: run complete", "written", report.Written, "skipped", report.Skipped, "elapsed", report.Elapsed, "workers", workers)
	return report, nil
}
