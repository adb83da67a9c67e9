package reconcile

import (
	"errors"
	"fmt"
)

// ErrPartialApply reports that at least one chunk of a plan failed to apply.
// The run itself completed; the failures are listed in the ApplyReport.
var ErrPartialApply = errors.New("some chunks failed to apply")

// FetchError is returned when any page of the remote listing fails.
// No records are returned alongside it.
type FetchError struct {
	// Page is the 1-based page number that failed.
	Page int
	// Fetched is the number of records read before the failure, then discarded.
	Fetched int
	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch remote snapshot: page %d failed (%d records discarded): %v", e.Page, e.Fetched, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// OpKind distinguishes insert chunks from update chunks.
type OpKind string

const (
	// OpInsert is a create-many call.
	OpInsert OpKind = "insert"
	// OpUpdate is a patch-many call.
	OpUpdate OpKind = "update"
)

// ApplyChunkError is the failure of a single chunk write.
type ApplyChunkError struct {
	// Kind is the chunk's operation.
	Kind OpKind
	// Chunk is the 0-based index of the chunk within its batch.
	Chunk int
	// Size is the number of records in the chunk.
	Size int
	// Err is the underlying cause.
	Err error
}

func (e *ApplyChunkError) Error() string {
	return fmt.Sprintf("%s chunk %d (%d records): %v", e.Kind, e.Chunk, e.Size, e.Err)
}

func (e *ApplyChunkError) Unwrap() error { return e.Err }
