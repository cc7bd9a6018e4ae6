package vecscope

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
	"github.com/kailas-cloud/vecscope/internal/domain/record"
	"github.com/kailas-cloud/vecscope/internal/export"
)

// --- InstanceService ---

func TestInstanceService_List(t *testing.T) {
	mock := &mockInstanceUC{
		listFn: func(context.Context) ([]instance.Descriptor, error) {
			return []instance.Descriptor{
				instance.Reconstruct("q", "http://localhost:6333", "secret", domain.EngineQdrant, false),
				instance.Reconstruct("c", "http://localhost:8000", "", domain.EngineChroma, false),
			}, nil
		},
	}

	svc := &InstanceService{svc: mock}
	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if !list[0].HasAPIKey || list[0].Kind != EngineQdrant {
		t.Errorf("unexpected first instance: %+v", list[0])
	}
	if list[1].Kind != EngineChroma {
		t.Errorf("Kind = %q, want chromadb", list[1].Kind)
	}
}

func TestInstanceService_Add(t *testing.T) {
	mock := &mockInstanceUC{
		addFn: func(_ context.Context, name, rawURL, apiKey string, kind domain.EngineKind) (instance.Descriptor, error) {
			if apiKey != "k" {
				t.Errorf("apiKey = %q, want k", apiKey)
			}
			if kind != domain.EngineChroma {
				t.Errorf("kind = %q, want chromadb", kind)
			}
			return instance.New(name, rawURL, apiKey, kind)
		},
	}

	svc := &InstanceService{svc: mock}
	inst, err := svc.Add(context.Background(), "docs", "http://localhost:8000", EngineChroma, WithAPIKey("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Name != "docs" || !inst.HasAPIKey {
		t.Errorf("unexpected instance: %+v", inst)
	}
}

func TestInstanceService_Add_Duplicate(t *testing.T) {
	mock := &mockInstanceUC{
		addFn: func(context.Context, string, string, string, domain.EngineKind) (instance.Descriptor, error) {
			return instance.Descriptor{}, domain.ErrDuplicateName
		},
	}

	svc := &InstanceService{svc: mock}
	_, err := svc.Add(context.Background(), "docs", "http://localhost:8000", EngineChroma)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestInstanceService_RemoveAndProbe(t *testing.T) {
	mock := &mockInstanceUC{
		removeFn: func(_ context.Context, name string) error {
			if name != "q" {
				t.Errorf("name = %q, want q", name)
			}
			return nil
		},
		probeFn: func(context.Context, string) (instance.Descriptor, error) {
			return instance.Descriptor{}, domain.ErrConnectionConfig
		},
	}

	svc := &InstanceService{svc: mock}
	if err := svc.Remove(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Probe(context.Background(), "q"); !errors.Is(err, ErrConnectionConfig) {
		t.Errorf("expected ErrConnectionConfig, got %v", err)
	}
}

// --- CollectionService ---

func TestCollectionService_List(t *testing.T) {
	mock := &mockBrowseUC{
		listCollectionsFn: func(_ context.Context, inst string) ([]record.CollectionSummary, error) {
			if inst != "local" {
				t.Errorf("inst = %q, want local", inst)
			}
			return []record.CollectionSummary{{Name: "docs", VectorSize: 384, PointsCount: 7, SegmentsCount: 1}}, nil
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	cols, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 1 || cols[0].VectorSize != 384 || cols[0].PointsCount != 7 {
		t.Errorf("unexpected collections: %+v", cols)
	}
}

func TestCollectionService_Records(t *testing.T) {
	mock := &mockBrowseUC{
		listRecordsFn: func(_ context.Context, _, _ string, q record.PageQuery) (record.Page, error) {
			if q.Offset != 20 || q.Limit != 10 || !q.WithPayload || q.WithVector {
				t.Errorf("unexpected query: %+v", q)
			}
			return record.Page{
				Records: []record.Record{record.New("1", nil, nil)},
				Total:   50, Limit: q.Limit, Offset: q.Offset,
			}, nil
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	page, err := svc.Records(context.Background(), "docs", Page(20, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 50 || len(page.Records) != 1 || page.Records[0].Payload == nil {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestCollectionService_Records_InvalidWindow(t *testing.T) {
	svc := &CollectionService{instance: "local", svc: &mockBrowseUC{}}
	_, err := svc.Records(context.Background(), "docs", Page(0, 0))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCollectionService_Search(t *testing.T) {
	mock := &mockBrowseUC{
		searchFn: func(_ context.Context, _, _ string, q record.SearchQuery) (record.SearchResult, error) {
			if len(q.Vector) != 2 || q.Limit != 3 {
				t.Errorf("unexpected query: %+v", q)
			}
			if q.ScoreThreshold == nil || *q.ScoreThreshold != 0.5 {
				t.Errorf("threshold = %v, want 0.5", q.ScoreThreshold)
			}
			return record.SearchResult{Records: []record.Record{record.New("a", nil, nil).Scored(0.9)}}, nil
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	hits, err := svc.Search(context.Background(), "docs", []float32{0.1, 0.2}, 3, WithScoreThreshold(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Score == nil || *hits[0].Score != 0.9 {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestCollectionService_SearchText(t *testing.T) {
	mock := &mockBrowseUC{
		searchFn: func(_ context.Context, _, _ string, q record.SearchQuery) (record.SearchResult, error) {
			if q.Text != "refunds" {
				t.Errorf("Text = %q, want refunds", q.Text)
			}
			return record.SearchResult{}, domain.ErrEmbeddingNotConfigured
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	_, err := svc.SearchText(context.Background(), "docs", "refunds", 5)
	if !errors.Is(err, ErrEmbeddingNotConfigured) {
		t.Fatalf("expected ErrEmbeddingNotConfigured, got %v", err)
	}
}

func TestCollectionService_FindText(t *testing.T) {
	mock := &mockBrowseUC{
		textSearchFn: func(_ context.Context, _, _ string, q record.TextQuery) (record.TextSearchResult, error) {
			if !q.CaseSensitive || q.Text != "X" {
				t.Errorf("unexpected query: %+v", q)
			}
			return record.TextSearchResult{
				Records:      []record.Record{record.New("2", map[string]any{"tag": "X"}, nil)},
				MatchedCount: 1,
				ScannedCount: 3,
			}, nil
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	res, err := svc.FindText(context.Background(), "docs", "X", 10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 || res.Scanned != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestCollectionService_ClearAndDelete(t *testing.T) {
	var deleted []string
	mock := &mockBrowseUC{
		clearFn: func(context.Context, string, string) (int, error) { return 4, nil },
		deleteRecordFn: func(_ context.Context, _, _, id string) error {
			deleted = append(deleted, id)
			return nil
		},
		deleteCollectionFn: func(context.Context, string, string) error {
			return domain.NewMissingError(domain.EngineQdrant, "delete collection", errors.New("Not found: Collection `x` doesn't exist!"))
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	n, err := svc.Clear(context.Background(), "docs")
	if err != nil || n != 4 {
		t.Fatalf("Clear() = %d, %v; want 4, nil", n, err)
	}
	if err := svc.DeleteRecord(context.Background(), "docs", "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "7" {
		t.Errorf("deleted = %v", deleted)
	}
	if err := svc.Delete(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCollectionService_ExportCSV(t *testing.T) {
	mock := &mockBrowseUC{
		exportFn: func(_ context.Context, _, collection string, withVectors bool) (export.Table, error) {
			return export.Table{
				Collection:  collection,
				WithVectors: withVectors,
				Records: []record.Record{
					record.New("1", map[string]any{"title": "a"}, []float32{1, 2}),
					record.New("2", map[string]any{"title": "b"}, []float32{3, 4}),
				},
			}, nil
		},
	}

	svc := &CollectionService{instance: "local", svc: mock}
	var buf bytes.Buffer
	rows, err := svc.ExportCSV(context.Background(), &buf, "docs", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	if !strings.HasPrefix(buf.String(), "id,vector,payload\n") {
		t.Errorf("unexpected csv: %q", buf.String())
	}
}
