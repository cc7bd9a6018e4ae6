package vecscope

import (
	"context"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/export"
)

// --- instanceUseCase mock ---

type mockInstanceUC struct {
	listFn   func(ctx context.Context) ([]instance.Descriptor, error)
	addFn    func(ctx context.Context, name, rawURL, apiKey string, kind domain.EngineKind) (instance.Descriptor, error)
	removeFn func(ctx context.Context, name string) error
	probeFn  func(ctx context.Context, name string) (instance.Descriptor, error)
}

func (m *mockInstanceUC) List(ctx context.Context) ([]instance.Descriptor, error) {
	return m.listFn(ctx)
}

func (m *mockInstanceUC) Add(
	ctx context.Context, name, rawURL, apiKey string, kind domain.EngineKind,
) (instance.Descriptor, error) {
	return m.addFn(ctx, name, rawURL, apiKey, kind)
}

func (m *mockInstanceUC) Remove(ctx context.Context, name string) error {
	return m.removeFn(ctx, name)
}

func (m *mockInstanceUC) Probe(ctx context.Context, name string) (instance.Descriptor, error) {
	return m.probeFn(ctx, name)
}

// --- browseUseCase mock ---

type mockBrowseUC struct {
	listCollectionsFn  func(ctx context.Context, inst string) ([]record.CollectionSummary, error)
	deleteCollectionFn func(ctx context.Context, inst, collection string) error
	listRecordsFn      func(ctx context.Context, inst, collection string, q record.PageQuery) (record.Page, error)
	searchFn           func(ctx context.Context, inst, collection string, q record.SearchQuery) (record.SearchResult, error)
	textSearchFn       func(ctx context.Context, inst, collection string, q record.TextQuery) (record.TextSearchResult, error)
	clearFn            func(ctx context.Context, inst, collection string) (int, error)
	deleteRecordFn     func(ctx context.Context, inst, collection, id string) error
	exportFn           func(ctx context.Context, inst, collection string, withVectors bool) (export.Table, error)
}

func (m *mockBrowseUC) ListCollections(ctx context.Context, inst string) ([]record.CollectionSummary, error) {
	return m.listCollectionsFn(ctx, inst)
}

func (m *mockBrowseUC) DeleteCollection(ctx context.Context, inst, collection string) error {
	return m.deleteCollectionFn(ctx, inst, collection)
}

func (m *mockBrowseUC) ListRecords(
	ctx context.Context, inst, collection string, q record.PageQuery,
) (record.Page, error) {
	return m.listRecordsFn(ctx, inst, collection, q)
}

func (m *mockBrowseUC) Search(
	ctx context.Context, inst, collection string, q record.SearchQuery,
) (record.SearchResult, error) {
	return m.searchFn(ctx, inst, collection, q)
}

func (m *mockBrowseUC) TextSearch(
	ctx context.Context, inst, collection string, q record.TextQuery,
) (record.TextSearchResult, error) {
	return m.textSearchFn(ctx, inst, collection, q)
}

func (m *mockBrowseUC) ClearCollection(ctx context.Context, inst, collection string) (int, error) {
	return m.clearFn(ctx, inst, collection)
}

func (m *mockBrowseUC) DeleteRecord(ctx context.Context, inst, collection, id string) error {
	return m.deleteRecordFn(ctx, inst, collection, id)
}

func (m *mockBrowseUC) Export(
	ctx context.Context, inst, collection string, withVectors bool,
) (export.Table, error) {
	return m.exportFn(ctx, inst, collection, withVectors)
}

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}
