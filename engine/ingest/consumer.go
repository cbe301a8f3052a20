package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/VoyagentAI/voyagent-mvp/engine/dataset"
	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
	"github.com/VoyagentAI/voyagent-mvp/pkg/natsutil"
)

// dlqMessage is published to the DLQ after MaxRetries failures.
type dlqMessage struct {
	Record  domain.RawRecord `json:"record"`
	Error   string           `json:"error"`
	Retries int              `json:"retries"`
}

// retryHeader tracks how often a record has been requeued.
const retryHeader = "X-Retry-Count"

// StartConsumer subscribes to the trip subject and runs each message
// through the pipeline, with header-tracked retries and a DLQ for
// records that keep failing.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(TripSubject, func(msg *nats.Msg) {
		var rec domain.RawRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		ctx := context.Background()
		result := pipeline(ctx, rec)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed", "error", pipeErr, "retry", retries)

			if retries >= MaxRetries {
				dlq := dlqMessage{Record: rec, Error: pipeErr.Error(), Retries: retries}
				if err := natsutil.Publish(ctx, nc, DLQSubject, dlq); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				hdr := nats.Header{}
				hdr.Set(retryHeader, fmt.Sprintf("%d", retries))
				if err := natsutil.PublishMsg(ctx, nc, TripSubject, hdr, rec); err != nil {
					log.Error("ingest: retry publish failed", "error", err)
				}
			}
			return
		}

		id, _ := result.Unwrap()
		log.Info("ingest: trip written", "trip_id", id)
		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}

// PublishRecords drains a source onto the trip subject, one message per
// record. Malformed records are skipped; the count of published records
// is returned.
func PublishRecords(ctx context.Context, nc *nats.Conn, src dataset.Source, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}
	published := 0
	for {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return published, nil
		}
		if err != nil {
			if errors.Is(err, domain.ErrRecordMalformed) {
				log.Warn("publish: skipping malformed record", "error", err)
				continue
			}
			return published, err
		}
		if err := natsutil.Publish(ctx, nc, TripSubject, rec); err != nil {
			return published, fmt.Errorf("publish record: %w", err)
		}
		published++
	}
}
