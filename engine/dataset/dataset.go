// Package dataset streams raw corpus records from local files or the
// Hugging Face datasets server. Sources are lazy: nothing is fetched
// until the first Next call, and a partially consumed source can be
// resumed from an offset.
package dataset

import (
	"context"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// Source yields raw records one at a time. Next returns io.EOF when the
// stream is exhausted. Fatal availability failures (file missing, API
// unreachable) wrap domain.ErrSourceUnavailable.
type Source interface {
	Next(ctx context.Context) (domain.RawRecord, error)
}

// Positioned is implemented by sources that can report how far into the
// stream they are, so a run can checkpoint and resume.
type Positioned interface {
	Offset() int
}
