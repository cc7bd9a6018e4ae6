// Package engine defines the normalized operation set every vector database
// adapter implements, and the factory that picks an adapter for an instance.
package engine

import (
	"context"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
)

// DefaultSafetyCap bounds how many records a single bulk fetch may return.
const DefaultSafetyCap = 10000

// Conn is a live handle to one backend instance.
//
//nolint:interfacebloat // the normalized operation set is one closed contract
type Conn interface {
	Kind() domain.EngineKind

	// Probe verifies connectivity with the cheapest call the engine offers.
	Probe(ctx context.Context) error

	// ListCollections returns an empty slice, never an error, for an empty backend.
	ListCollections(ctx context.Context) ([]record.CollectionSummary, error)
	ListRecords(ctx context.Context, collection string, q record.PageQuery) (record.Page, error)
	Search(ctx context.Context, collection string, q record.SearchQuery) (record.SearchResult, error)
	TextSearch(ctx context.Context, collection string, q record.TextQuery) (record.TextSearchResult, error)

	// ClearCollection deletes up to the safety cap of records and returns how
	// many were deleted. Records beyond the cap survive.
	ClearCollection(ctx context.Context, collection string) (int, error)
	// DeleteRecord succeeds when id does not exist.
	DeleteRecord(ctx context.Context, collection, id string) error
	DeleteCollection(ctx context.Context, collection string) error

	// ExportRecords fetches up to the safety cap of records with payload and,
	// optionally, vectors. Fails with domain.ErrNotFound when the collection
	// holds no records.
	ExportRecords(ctx context.Context, collection string, withVectors bool) ([]record.Record, error)

	Close() error
}
