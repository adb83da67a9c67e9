package reconcile

import "context"

// Page is one page of a remote listing.
type Page struct {
	// Records holds the page's records.
	Records []RemoteRecord

	// Offset is the continuation cursor for the next page. Empty on the last page.
	Offset string
}

// Lister reads the remote table page by page.
type Lister interface {
	// ListRecords returns the page starting at offset. An empty offset requests
	// the first page.
	ListRecords(ctx context.Context, offset string) (Page, error)
}

// Mutator writes chunks of records to the remote table. Each call is a single
// remote request and is treated as atomic by the applier.
type Mutator interface {
	// CreateRecords creates one remote record per op and returns them.
	CreateRecords(ctx context.Context, ops []InsertOp) ([]RemoteRecord, error)

	// UpdateRecords patches one remote record per op and returns them.
	UpdateRecords(ctx context.Context, ops []UpdateOp) ([]RemoteRecord, error)
}

// Remote is the full remote-table collaborator.
type Remote interface {
	Lister
	Mutator
}
