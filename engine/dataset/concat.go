package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// ConcatSource chains sources into one stream, used to ingest every
// record file in a directory. The offset counts records across all
// child sources.
type ConcatSource struct {
	srcs []Source
	idx  int
	skip int
	pos  int
}

// ConcatOption configures a ConcatSource.
type ConcatOption func(*ConcatSource)

// WithConcatOffset skips the first n records of the combined stream.
func WithConcatOffset(n int) ConcatOption {
	return func(c *ConcatSource) { c.skip = n }
}

// Concat chains the given sources in order.
func Concat(srcs []Source, opts ...ConcatOption) *ConcatSource {
	c := &ConcatSource{srcs: srcs}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewDirSource creates a source over every .json and .jsonl file in
// dir, in lexical order.
func NewDirSource(dir string, opts ...ConcatOption) (*ConcatSource, error) {
	var paths []string
	for _, pat := range []string{"*.json", "*.jsonl"} {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrSourceUnavailable, dir, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no record files in %s", domain.ErrSourceUnavailable, dir)
	}
	sort.Strings(paths)

	srcs := make([]Source, len(paths))
	for i, p := range paths {
		srcs[i] = NewFileSource(p)
	}
	return Concat(srcs, opts...), nil
}

// Offset returns the number of records already yielded, counting
// skipped ones.
func (c *ConcatSource) Offset() int { return c.pos }

// Next returns the next record from the current child source, moving to
// the next child on io.EOF. Child errors pass through unchanged.
func (c *ConcatSource) Next(ctx context.Context) (domain.RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.idx >= len(c.srcs) {
			return nil, io.EOF
		}
		rec, err := c.srcs[c.idx].Next(ctx)
		if errors.Is(err, io.EOF) {
			c.idx++
			continue
		}
		if err != nil {
			return nil, err
		}
		c.pos++
		if c.pos <= c.skip {
			continue
		}
		return rec, nil
	}
}
