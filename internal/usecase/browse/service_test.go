package browse

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/engine"
)

// --- Mocks ---

type mockResolver struct {
	items map[string]instance.Descriptor
}

func (m *mockResolver) Resolve(_ context.Context, name string) (instance.Descriptor, error) {
	d, ok := m.items[name]
	if !ok {
		return instance.Descriptor{}, domain.ErrNotFound
	}
	return d, nil
}

type mockConnector struct {
	conn       *mockConn
	connectErr error
	connected  []string
}

func (m *mockConnector) Connect(d instance.Descriptor) (engine.Conn, error) {
	m.connected = append(m.connected, d.Name())
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	return m.conn, nil
}

type mockConn struct {
	engine.Conn

	collections []record.CollectionSummary
	page        record.Page
	records     []record.Record
	cleared     int
	err         error

	lastSearch record.SearchQuery
	deletedID  string
	closed     int
}

func (m *mockConn) Kind() domain.EngineKind { return domain.EngineQdrant }

func (m *mockConn) ListCollections(context.Context) ([]record.CollectionSummary, error) {
	return m.collections, m.err
}

func (m *mockConn) ListRecords(_ context.Context, _ string, q record.PageQuery) (record.Page, error) {
	p := m.page
	p.Limit, p.Offset = q.Limit, q.Offset
	return p, m.err
}

func (m *mockConn) Search(_ context.Context, _ string, q record.SearchQuery) (record.SearchResult, error) {
	m.lastSearch = q
	return record.SearchResult{Records: m.records}, m.err
}

func (m *mockConn) TextSearch(_ context.Context, _ string, q record.TextQuery) (record.TextSearchResult, error) {
	return record.Scan(m.records, q, 0, nil), m.err
}

func (m *mockConn) ClearCollection(context.Context, string) (int, error) { return m.cleared, m.err }

func (m *mockConn) DeleteRecord(_ context.Context, _, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockConn) DeleteCollection(context.Context, string) error { return m.err }

func (m *mockConn) ExportRecords(context.Context, string, bool) ([]record.Record, error) {
	return m.records, m.err
}

func (m *mockConn) Close() error {
	m.closed++
	return nil
}

type mockEmbedder struct {
	res domain.EmbeddingResult
	err error
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return m.res, m.err
}

func setup(conn *mockConn, embed Embedder) (*Service, *mockConnector) {
	resolver := &mockResolver{items: map[string]instance.Descriptor{
		"demo": instance.Reconstruct("demo", "http://localhost:6333", "", domain.EngineQdrant, false),
	}}
	connector := &mockConnector{conn: conn}
	return New(resolver, connector, embed), connector
}

// --- Tests ---

func TestListCollections_Empty(t *testing.T) {
	conn := &mockConn{collections: []record.CollectionSummary{}}
	svc, _ := setup(conn, nil)

	got, err := svc.ListCollections(context.Background(), "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
	if conn.closed != 1 {
		t.Errorf("closed = %d, want 1", conn.closed)
	}
}

func TestUnknownInstance(t *testing.T) {
	svc, connector := setup(&mockConn{}, nil)

	_, err := svc.ListCollections(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(connector.connected) != 0 {
		t.Error("connect must not be called for an unknown instance")
	}
}

func TestConnectError(t *testing.T) {
	svc, connector := setup(&mockConn{}, nil)
	connector.connectErr = domain.ErrConnectionConfig

	if err := svc.DeleteCollection(context.Background(), "demo", "docs"); !errors.Is(err, domain.ErrConnectionConfig) {
		t.Fatalf("expected ErrConnectionConfig, got %v", err)
	}
}

func TestBackendErrorPropagates(t *testing.T) {
	native := errors.New("collection docs is locked")
	conn := &mockConn{err: domain.NewBackendError(domain.EngineQdrant, "delete", native)}
	svc, _ := setup(conn, nil)

	err := svc.DeleteCollection(context.Background(), "demo", "docs")
	if !errors.Is(err, domain.ErrBackendOperation) {
		t.Fatalf("expected ErrBackendOperation, got %v", err)
	}
	if !errors.Is(err, native) {
		t.Error("native error lost")
	}
	if conn.closed != 1 {
		t.Errorf("closed = %d, want 1", conn.closed)
	}
}

func TestListRecords(t *testing.T) {
	conn := &mockConn{page: record.Page{
		Records: []record.Record{record.New("1", nil, nil)},
		Total:   42,
	}}
	svc, _ := setup(conn, nil)
	q, _ := record.NewPageQuery(1, 5, true, false)

	page, err := svc.ListRecords(context.Background(), "demo", "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 42 || page.Limit != 1 || page.Offset != 5 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestSearch_Vector(t *testing.T) {
	conn := &mockConn{records: []record.Record{record.New("1", nil, nil).Scored(0.9)}}
	svc, _ := setup(conn, nil)
	q, _ := record.NewSearchQuery([]float32{0.1, 0.2}, "", 5, nil)

	res, err := svc.Search(context.Background(), "demo", "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 || len(conn.lastSearch.Vector) != 2 {
		t.Errorf("unexpected search: %+v", conn.lastSearch)
	}
}

func TestSearch_TextWithoutEmbedder(t *testing.T) {
	svc, connector := setup(&mockConn{}, nil)
	q, _ := record.NewSearchQuery(nil, "hello", 5, nil)

	_, err := svc.Search(context.Background(), "demo", "docs", q)
	if !errors.Is(err, domain.ErrEmbeddingNotConfigured) {
		t.Fatalf("expected ErrEmbeddingNotConfigured, got %v", err)
	}
	if len(connector.connected) != 0 {
		t.Error("engine must not be contacted")
	}
}

func TestSearch_TextEmbedded(t *testing.T) {
	conn := &mockConn{}
	embed := &mockEmbedder{res: domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 7}}
	svc, _ := setup(conn, embed)
	q, _ := record.NewSearchQuery(nil, "hello", 5, nil)

	ctx, usage := domain.WithUsage(context.Background())
	if _, err := svc.Search(ctx, "demo", "docs", q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conn.lastSearch.Vector) != 3 || conn.lastSearch.Text != "" {
		t.Errorf("engine got %+v, want embedded vector", conn.lastSearch)
	}
	if !usage.Embedded || usage.Tokens != 7 {
		t.Errorf("usage = %+v, want 7 tokens", usage)
	}
}

func TestSearch_EmbedderFailure(t *testing.T) {
	embed := &mockEmbedder{err: errors.New("rate limited")}
	svc, _ := setup(&mockConn{}, embed)
	q, _ := record.NewSearchQuery(nil, "hello", 5, nil)

	_, err := svc.Search(context.Background(), "demo", "docs", q)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestTextSearch_Scenario(t *testing.T) {
	conn := &mockConn{records: []record.Record{
		record.New("1", map[string]any{"tag": "y"}, nil),
		record.New("2", map[string]any{"tag": "x"}, nil),
		record.New("3", nil, nil),
	}}
	svc, _ := setup(conn, nil)
	q, _ := record.NewTextQuery("x", 10, false)

	res, err := svc.TextSearch(context.Background(), "demo", "docs", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MatchedCount != 1 || res.Records[0].ID != "2" || res.ScannedCount != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClearCollection(t *testing.T) {
	svc, _ := setup(&mockConn{cleared: 3}, nil)

	n, err := svc.ClearCollection(context.Background(), "demo", "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("cleared = %d, want 3", n)
	}
}

func TestDeleteRecord(t *testing.T) {
	conn := &mockConn{}
	svc, _ := setup(conn, nil)

	if err := svc.DeleteRecord(context.Background(), "demo", "docs", "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.deletedID != "7" {
		t.Errorf("deleted %q, want 7", conn.deletedID)
	}
	if err := svc.DeleteRecord(context.Background(), "demo", "docs", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExport(t *testing.T) {
	conn := &mockConn{records: []record.Record{record.New("1", nil, []float32{1})}}
	svc, _ := setup(conn, nil)

	table, err := svc.Export(context.Background(), "demo", "docs", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Collection != "docs" || !table.WithVectors || len(table.Records) != 1 {
		t.Errorf("unexpected table: %+v", table)
	}
}

func TestExport_Empty(t *testing.T) {
	conn := &mockConn{err: domain.ErrNotFound}
	svc, _ := setup(conn, nil)

	if _, err := svc.Export(context.Background(), "demo", "docs", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
