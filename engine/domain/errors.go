package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion error taxonomy.
var (
	// ErrSourceUnavailable means the dataset or the graph store cannot be
	// reached. Fatal to the run; never retried per record.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRecordMalformed means a record failed to decode. Recovered
	// locally with defaults/empty sequences; never aborts the batch.
	ErrRecordMalformed = errors.New("record malformed")

	// ErrWriteConflict means a per-record transaction failed and was
	// rolled back in full. The record is skipped; the batch continues.
	ErrWriteConflict = errors.New("write conflict")
)

// RecordError wraps a per-record failure with its position in the stream.
type RecordError struct {
	Index   int
	Origin  string
	Wrapped error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (org=%q): %v", e.Index, e.Origin, e.Wrapped)
}

func (e *RecordError) Unwrap() error { return e.Wrapped }

// NewRecordError creates a RecordError.
func NewRecordError(index int, origin string, wrapped error) *RecordError {
	return &RecordError{Index: index, Origin: origin, Wrapped: wrapped}
}
