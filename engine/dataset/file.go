package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

// FileSource streams records from a local JSON file: either a top-level
// array of objects or one object per line (JSONL). The file is opened on
// the first Next call, not at construction.
type FileSource struct {
	path    string
	skip    int
	file    *os.File
	dec     *json.Decoder
	inArray bool
	opened  bool
	done    bool
	pos     int
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithFileOffset skips the first n records, resuming a previous run.
func WithFileOffset(n int) FileOption {
	return func(s *FileSource) { s.skip = n }
}

// NewFileSource creates a source over the given JSON or JSONL file.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{path: path}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Offset returns the number of records already yielded, counting skipped
// ones.
func (s *FileSource) Offset() int { return s.pos }

// Next returns the next record. io.EOF ends the stream; open failures
// wrap domain.ErrSourceUnavailable. A record that fails to decode ends
// the stream with domain.ErrRecordMalformed, since a corrupt JSON stream
// cannot be resynchronized.
func (s *FileSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}
	if !s.opened {
		if err := s.open(); err != nil {
			s.done = true
			return nil, err
		}
		s.opened = true
	}
	for {
		rec, err := s.decodeOne()
		if err != nil {
			s.done = true
			s.closeFile()
			return nil, err
		}
		s.pos++
		if s.pos <= s.skip {
			continue
		}
		return rec, nil
	}
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrSourceUnavailable, s.path, err)
	}
	s.file = f
	s.dec = json.NewDecoder(f)

	// Peek the first token: '[' means a single JSON array, anything else
	// is treated as a stream of objects (JSONL).
	tok, err := s.dec.Token()
	if err == io.EOF {
		s.closeFile()
		return io.EOF
	}
	if err != nil {
		s.closeFile()
		return fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, s.path, err)
	}
	if d, ok := tok.(json.Delim); ok && d == '[' {
		s.inArray = true
		return nil
	}

	// Not an array: reopen and decode the whole file as a JSONL stream.
	s.closeFile()
	f, err = os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrSourceUnavailable, s.path, err)
	}
	s.file = f
	s.dec = json.NewDecoder(f)
	return nil
}

func (s *FileSource) decodeOne() (domain.RawRecord, error) {
	if s.inArray && !s.dec.More() {
		return nil, io.EOF
	}
	var rec domain.RawRecord
	if err := s.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: decode record %d: %v", domain.ErrRecordMalformed, s.pos, err)
	}
	return rec, nil
}

func (s *FileSource) closeFile() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}
